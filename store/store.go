// Package store defines the unified storage interface for all Treasury
// entities, plus the Mutation unit that backends must apply atomically.
package store

import (
	"context"
	"time"

	"github.com/artgap/treasury/account"
	"github.com/artgap/treasury/audit"
	"github.com/artgap/treasury/id"
	"github.com/artgap/treasury/mining"
	"github.com/artgap/treasury/notification"
	"github.com/artgap/treasury/transaction"
)

// Mutation is the full write set of one engine operation. A backend must
// persist the whole mutation as a single atomic unit: either every
// upsert, append and status change lands, or none of them do. The engine
// never issues partial writes.
type Mutation struct {
	// Accounts to upsert, keyed by UserID.
	Accounts []*account.Account

	// Transactions to append.
	Transactions []*transaction.Transaction

	// TxStatus updates existing transactions (deposit confirmation),
	// keyed by transaction ID string.
	TxStatus map[string]transaction.Status

	// Sessions to upsert, keyed by UserID.
	Sessions []*mining.Session

	// MiningEvents to append.
	MiningEvents []*mining.Event

	// LastMine timestamps to set, keyed by UserID.
	LastMine map[string]time.Time

	// NFTs to append.
	NFTs []*account.NFT

	// Audit entries to append.
	Audit []*audit.Entry

	// Notifications to append.
	Notifications []*notification.Notification

	// NotificationReads marks existing notifications read.
	NotificationReads []id.NotificationID
}

// IsEmpty reports whether the mutation carries no writes.
func (m *Mutation) IsEmpty() bool {
	return m == nil ||
		len(m.Accounts) == 0 &&
			len(m.Transactions) == 0 &&
			len(m.TxStatus) == 0 &&
			len(m.Sessions) == 0 &&
			len(m.MiningEvents) == 0 &&
			len(m.LastMine) == 0 &&
			len(m.NFTs) == 0 &&
			len(m.Audit) == 0 &&
			len(m.Notifications) == 0 &&
			len(m.NotificationReads) == 0
}

// Store is the unified storage interface for all Treasury entities.
// Reads return deep copies; shared state is only changed through Apply.
type Store interface {
	// Account reads
	GetAccount(ctx context.Context, userID string) (*account.Account, error)
	ListAccounts(ctx context.Context) ([]*account.Account, error)

	// Transaction reads
	GetTransaction(ctx context.Context, txID id.TransactionID) (*transaction.Transaction, error)
	ListTransactions(ctx context.Context, userID string, opts transaction.ListOpts) ([]*transaction.Transaction, error)

	// Mining reads
	GetSession(ctx context.Context, userID string) (*mining.Session, error)
	LastMine(ctx context.Context, userID string) (time.Time, error)
	ListMiningEvents(ctx context.Context, userID string, limit int) ([]*mining.Event, error)

	// NFT reads
	ListNFTs(ctx context.Context, owner string) ([]*account.NFT, error)

	// Audit and notification reads
	ListAudit(ctx context.Context, opts audit.ListOpts) ([]*audit.Entry, error)
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*notification.Notification, error)

	// Apply persists a mutation as a single atomic unit.
	Apply(ctx context.Context, m *Mutation) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
