// Package transaction defines the immutable per-operation ledger records.
package transaction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/artgap/treasury/id"
	"github.com/artgap/treasury/types"
)

// Type classifies a transaction record.
type Type string

const (
	TypeDebit          Type = "DEBIT"
	TypeCredit         Type = "CREDIT"
	TypeTransferOut    Type = "TRANSFER_OUT"
	TypeTransferIn     Type = "TRANSFER_IN"
	TypeDeposit        Type = "DEPOSIT"
	TypeDepositConfirm Type = "DEPOSIT_CONFIRM"
	TypeRecharge       Type = "RECHARGE"
	TypePass           Type = "PASS"
	TypePassUse        Type = "PASS_USE"
	TypePassConsume    Type = "PASS_CONSUME"
	TypeNFTMint        Type = "NFT_MINT"
)

// Status is the settlement status of a transaction.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"
)

// Transaction is an append-only ledger record. Amount is signed: debits
// carry negative amounts, credits positive. Transfers produce a paired
// TRANSFER_OUT/TRANSFER_IN record, one per affected account.
type Transaction struct {
	ID          id.TransactionID `json:"id"`
	AccountID   string           `json:"account_id"` // userID of the affected account
	Type        Type             `json:"type"`
	Currency    types.Currency   `json:"currency"`
	Amount      decimal.Decimal  `json:"amount"`
	Description string           `json:"description,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
	Status      Status           `json:"status"`
}

// New builds a confirmed transaction stamped with the current time.
func New(accountID string, typ Type, currency types.Currency, amount decimal.Decimal, description string) *Transaction {
	return &Transaction{
		ID:          id.NewTransactionID(),
		AccountID:   accountID,
		Type:        typ,
		Currency:    currency,
		Amount:      amount,
		Description: description,
		Timestamp:   time.Now().UTC(),
		Status:      StatusConfirmed,
	}
}

// NewPending builds a pending transaction (deposits awaiting confirmation).
func NewPending(accountID string, typ Type, currency types.Currency, amount decimal.Decimal, description string) *Transaction {
	tx := New(accountID, typ, currency, amount, description)
	tx.Status = StatusPending
	return tx
}

// ListOpts filters transaction listings.
type ListOpts struct {
	Limit  int
	Offset int
}
