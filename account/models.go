// Package account defines the ledger account owned by each user.
package account

import (
	"github.com/artgap/treasury/id"
	"github.com/artgap/treasury/pass"
	"github.com/artgap/treasury/types"
)

// Account is one user's ledger: a balance per currency plus the passes
// granted to the user. Accounts are created lazily on first reference
// and never deleted; balances are mutated only through engine operations.
type Account struct {
	types.Entity
	ID       id.AccountID   `json:"id"`
	UserID   string         `json:"user_id"`
	Balances types.Balances `json:"balances"`
	Passes   []*pass.Pass   `json:"passes,omitempty"`
}

// New creates an account for userID with the given starter balances.
func New(userID string, starter types.Balances) *Account {
	return &Account{
		Entity:   types.NewEntity(),
		ID:       id.NewAccountID(),
		UserID:   userID,
		Balances: starter.Clone(),
	}
}

// Clone returns a deep copy of the account. Stores hand out clones so
// callers can never mutate shared state outside an engine operation.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.Balances = a.Balances.Clone()
	out.Passes = make([]*pass.Pass, len(a.Passes))
	for i, p := range a.Passes {
		cp := *p
		if p.Limits.FreeNFT != nil {
			n := *p.Limits.FreeNFT
			cp.Limits.FreeNFT = &n
		}
		out.Passes[i] = &cp
	}
	return &out
}

// NFT is a minted NFT record owned by a user.
type NFT struct {
	types.Entity
	ID       id.NFTID          `json:"id"`
	Owner    string            `json:"owner"`
	Title    string            `json:"title,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
