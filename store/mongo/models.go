package mongo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/artgap/treasury/account"
	"github.com/artgap/treasury/audit"
	"github.com/artgap/treasury/id"
	"github.com/artgap/treasury/mining"
	"github.com/artgap/treasury/notification"
	"github.com/artgap/treasury/pass"
	"github.com/artgap/treasury/transaction"
	"github.com/artgap/treasury/types"
)

// Decimals are stored as strings so no precision is lost in BSON.

type passModel struct {
	ID         string    `bson:"id"`
	Tier       string    `bson:"tier"`
	Start      time.Time `bson:"start"`
	End        time.Time `bson:"end"`
	Period     string    `bson:"period"`
	FreeNFT    *int      `bson:"free_nft,omitempty"`
	Active     bool      `bson:"active"`
	PriceUSD   string    `bson:"price_usd"`
	Currency   string    `bson:"currency"`
	PaidAmount string    `bson:"paid_amount"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

type accountModel struct {
	UserID    string            `bson:"_id"`
	AccountID string            `bson:"account_id"`
	Balances  map[string]string `bson:"balances"`
	Passes    []passModel       `bson:"passes"`
	CreatedAt time.Time         `bson:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

type transactionModel struct {
	ID          string    `bson:"_id"`
	AccountID   string    `bson:"account_id"`
	Type        string    `bson:"type"`
	Currency    string    `bson:"currency"`
	Amount      string    `bson:"amount"`
	Description string    `bson:"description,omitempty"`
	Timestamp   time.Time `bson:"ts"`
	Status      string    `bson:"status"`
}

type sessionModel struct {
	UserID    string    `bson:"_id"`
	SessionID string    `bson:"session_id"`
	Start     time.Time `bson:"start"`
	End       time.Time `bson:"end"`
	Claimed   bool      `bson:"claimed"`
}

type miningEventModel struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Reward    string    `bson:"reward"`
	Source    string    `bson:"source"`
	CreatedAt time.Time `bson:"created_at"`
}

type lastMineModel struct {
	UserID string    `bson:"_id"`
	TS     time.Time `bson:"ts"`
}

type nftModel struct {
	ID        string            `bson:"_id"`
	Owner     string            `bson:"owner"`
	Title     string            `bson:"title,omitempty"`
	Metadata  map[string]string `bson:"metadata,omitempty"`
	CreatedAt time.Time         `bson:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

type auditModel struct {
	ID      string         `bson:"_id"`
	Type    string         `bson:"type"`
	UserID  string         `bson:"user_id,omitempty"`
	Context map[string]any `bson:"context,omitempty"`
	TS      time.Time      `bson:"ts"`
}

type notificationModel struct {
	ID      string    `bson:"_id"`
	UserID  string    `bson:"user_id"`
	Title   string    `bson:"title"`
	Message string    `bson:"message"`
	TS      time.Time `bson:"ts"`
	Read    bool      `bson:"read"`
}

// ==================== Converters ====================

func toAccountModel(a *account.Account) *accountModel {
	m := &accountModel{
		UserID:    a.UserID,
		AccountID: a.ID.String(),
		Balances:  make(map[string]string, len(a.Balances)),
		Passes:    make([]passModel, 0, len(a.Passes)),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	for cur, amt := range a.Balances {
		m.Balances[string(cur)] = amt.String()
	}
	for _, p := range a.Passes {
		m.Passes = append(m.Passes, passModel{
			ID:         p.ID.String(),
			Tier:       string(p.Tier),
			Start:      p.Start,
			End:        p.End,
			Period:     string(p.Period),
			FreeNFT:    p.Limits.FreeNFT,
			Active:     p.Active,
			PriceUSD:   p.PriceUSD.String(),
			Currency:   string(p.Currency),
			PaidAmount: p.PaidAmount.String(),
			CreatedAt:  p.CreatedAt,
			UpdatedAt:  p.UpdatedAt,
		})
	}
	return m
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	acctID, err := id.ParseWithPrefix(m.AccountID, id.PrefixAccount)
	if err != nil {
		return nil, fmt.Errorf("decode account id: %w", err)
	}
	a := &account.Account{
		ID:       acctID,
		UserID:   m.UserID,
		Balances: types.NewBalances(),
	}
	a.CreatedAt = m.CreatedAt
	a.UpdatedAt = m.UpdatedAt
	for cur, raw := range m.Balances {
		amt, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("decode balance %s: %w", cur, err)
		}
		a.Balances[types.Currency(cur)] = amt
	}
	for i := range m.Passes {
		p, err := fromPassModel(&m.Passes[i])
		if err != nil {
			return nil, err
		}
		a.Passes = append(a.Passes, p)
	}
	return a, nil
}

func fromPassModel(m *passModel) (*pass.Pass, error) {
	passID, err := id.ParseWithPrefix(m.ID, id.PrefixPass)
	if err != nil {
		return nil, fmt.Errorf("decode pass id: %w", err)
	}
	price, err := decimal.NewFromString(m.PriceUSD)
	if err != nil {
		return nil, fmt.Errorf("decode pass price: %w", err)
	}
	paid, err := decimal.NewFromString(m.PaidAmount)
	if err != nil {
		return nil, fmt.Errorf("decode pass paid amount: %w", err)
	}
	p := &pass.Pass{
		ID:         passID,
		Tier:       pass.Tier(m.Tier),
		Start:      m.Start,
		End:        m.End,
		Period:     pass.Period(m.Period),
		Limits:     pass.Limits{FreeNFT: m.FreeNFT},
		Active:     m.Active,
		PriceUSD:   price,
		Currency:   types.Currency(m.Currency),
		PaidAmount: paid,
	}
	p.CreatedAt = m.CreatedAt
	p.UpdatedAt = m.UpdatedAt
	return p, nil
}

func toTransactionModel(tx *transaction.Transaction) *transactionModel {
	return &transactionModel{
		ID:          tx.ID.String(),
		AccountID:   tx.AccountID,
		Type:        string(tx.Type),
		Currency:    string(tx.Currency),
		Amount:      tx.Amount.String(),
		Description: tx.Description,
		Timestamp:   tx.Timestamp,
		Status:      string(tx.Status),
	}
}

func fromTransactionModel(m *transactionModel) (*transaction.Transaction, error) {
	txID, err := id.ParseWithPrefix(m.ID, id.PrefixTransaction)
	if err != nil {
		return nil, fmt.Errorf("decode transaction id: %w", err)
	}
	amt, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return nil, fmt.Errorf("decode amount: %w", err)
	}
	return &transaction.Transaction{
		ID:          txID,
		AccountID:   m.AccountID,
		Type:        transaction.Type(m.Type),
		Currency:    types.Currency(m.Currency),
		Amount:      amt,
		Description: m.Description,
		Timestamp:   m.Timestamp,
		Status:      transaction.Status(m.Status),
	}, nil
}

func toSessionModel(s *mining.Session) *sessionModel {
	return &sessionModel{
		UserID:    s.UserID,
		SessionID: s.ID.String(),
		Start:     s.Start,
		End:       s.End,
		Claimed:   s.Claimed,
	}
}

func fromSessionModel(m *sessionModel) (*mining.Session, error) {
	sessID, err := id.ParseWithPrefix(m.SessionID, id.PrefixSession)
	if err != nil {
		return nil, fmt.Errorf("decode session id: %w", err)
	}
	return &mining.Session{
		ID:      sessID,
		UserID:  m.UserID,
		Start:   m.Start,
		End:     m.End,
		Claimed: m.Claimed,
	}, nil
}

func toMiningEventModel(e *mining.Event) *miningEventModel {
	return &miningEventModel{
		ID:        e.ID.String(),
		UserID:    e.UserID,
		Reward:    e.Reward.String(),
		Source:    e.Source,
		CreatedAt: e.CreatedAt,
	}
}

func fromMiningEventModel(m *miningEventModel) (*mining.Event, error) {
	evtID, err := id.ParseWithPrefix(m.ID, id.PrefixMiningEvent)
	if err != nil {
		return nil, fmt.Errorf("decode mining event id: %w", err)
	}
	reward, err := decimal.NewFromString(m.Reward)
	if err != nil {
		return nil, fmt.Errorf("decode reward: %w", err)
	}
	return &mining.Event{
		ID:        evtID,
		UserID:    m.UserID,
		Reward:    reward,
		Source:    m.Source,
		CreatedAt: m.CreatedAt,
	}, nil
}

func toNFTModel(n *account.NFT) *nftModel {
	return &nftModel{
		ID:        n.ID.String(),
		Owner:     n.Owner,
		Title:     n.Title,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func fromNFTModel(m *nftModel) (*account.NFT, error) {
	nftID, err := id.ParseWithPrefix(m.ID, id.PrefixNFT)
	if err != nil {
		return nil, fmt.Errorf("decode nft id: %w", err)
	}
	n := &account.NFT{
		ID:       nftID,
		Owner:    m.Owner,
		Title:    m.Title,
		Metadata: m.Metadata,
	}
	n.CreatedAt = m.CreatedAt
	n.UpdatedAt = m.UpdatedAt
	return n, nil
}

func toAuditModel(e *audit.Entry) *auditModel {
	return &auditModel{
		ID:      e.ID.String(),
		Type:    e.Type,
		UserID:  e.UserID,
		Context: e.Context,
		TS:      e.TS,
	}
}

func fromAuditModel(m *auditModel) (*audit.Entry, error) {
	entryID, err := id.ParseWithPrefix(m.ID, id.PrefixAudit)
	if err != nil {
		return nil, fmt.Errorf("decode audit id: %w", err)
	}
	return &audit.Entry{
		ID:      entryID,
		Type:    m.Type,
		UserID:  m.UserID,
		Context: m.Context,
		TS:      m.TS,
	}, nil
}

func toNotificationModel(n *notification.Notification) *notificationModel {
	return &notificationModel{
		ID:      n.ID.String(),
		UserID:  n.UserID,
		Title:   n.Title,
		Message: n.Message,
		TS:      n.TS,
		Read:    n.Read,
	}
}

func fromNotificationModel(m *notificationModel) (*notification.Notification, error) {
	noteID, err := id.ParseWithPrefix(m.ID, id.PrefixNotification)
	if err != nil {
		return nil, fmt.Errorf("decode notification id: %w", err)
	}
	return &notification.Notification{
		ID:      noteID,
		UserID:  m.UserID,
		Title:   m.Title,
		Message: m.Message,
		TS:      m.TS,
		Read:    m.Read,
	}, nil
}
