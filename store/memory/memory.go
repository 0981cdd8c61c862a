// Package memory provides an in-memory store implementation. It is the
// default backend and the reference for Apply semantics: every read
// returns a deep copy, and a mutation is applied under a single write
// lock so partial state is never observable.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/artgap/treasury"
	"github.com/artgap/treasury/account"
	"github.com/artgap/treasury/audit"
	"github.com/artgap/treasury/id"
	"github.com/artgap/treasury/mining"
	"github.com/artgap/treasury/notification"
	"github.com/artgap/treasury/store"
	"github.com/artgap/treasury/transaction"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu sync.RWMutex

	accounts      map[string]*account.Account
	transactions  map[string]*transaction.Transaction
	txOrder       []string
	sessions      map[string]*mining.Session
	miningEvents  []*mining.Event
	lastMine      map[string]time.Time
	nfts          []*account.NFT
	auditLog      []*audit.Entry
	notifications map[string]*notification.Notification
	noteOrder     []string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		accounts:      make(map[string]*account.Account),
		transactions:  make(map[string]*transaction.Transaction),
		sessions:      make(map[string]*mining.Session),
		lastMine:      make(map[string]time.Time),
		notifications: make(map[string]*notification.Notification),
	}
}

func (s *Store) GetAccount(_ context.Context, userID string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[userID]
	if !ok {
		return nil, treasury.ErrAccountNotFound
	}
	return acct.Clone(), nil
}

func (s *Store) ListAccounts(_ context.Context) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*account.Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		out = append(out, acct.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, txID id.TransactionID) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[txID.String()]
	if !ok {
		return nil, treasury.ErrTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

func (s *Store) ListTransactions(_ context.Context, userID string, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*transaction.Transaction
	for _, key := range s.txOrder {
		tx := s.transactions[key]
		if tx.AccountID != userID {
			continue
		}
		cp := *tx
		out = append(out, &cp)
	}
	return page(out, opts), nil
}

func page(txs []*transaction.Transaction, opts transaction.ListOpts) []*transaction.Transaction {
	if opts.Offset > 0 {
		if opts.Offset >= len(txs) {
			return nil
		}
		txs = txs[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(txs) {
		txs = txs[:opts.Limit]
	}
	return txs
}

func (s *Store) GetSession(_ context.Context, userID string) (*mining.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, treasury.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *Store) LastMine(_ context.Context, userID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastMine[userID], nil
}

func (s *Store) ListMiningEvents(_ context.Context, userID string, limit int) ([]*mining.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*mining.Event
	for _, evt := range s.miningEvents {
		if evt.UserID != userID {
			continue
		}
		cp := *evt
		out = append(out, &cp)
	}
	return tail(out, limit), nil
}

// tail keeps the most recent limit records in chronological order.
func tail[T any](in []T, limit int) []T {
	if limit > 0 && limit < len(in) {
		return in[len(in)-limit:]
	}
	return in
}

func (s *Store) ListNFTs(_ context.Context, owner string) ([]*account.NFT, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*account.NFT
	for _, nft := range s.nfts {
		if nft.Owner != owner {
			continue
		}
		cp := *nft
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) ListAudit(_ context.Context, opts audit.ListOpts) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*audit.Entry
	for _, entry := range s.auditLog {
		if opts.Type != "" && entry.Type != opts.Type {
			continue
		}
		if opts.UserID != "" && entry.UserID != opts.UserID {
			continue
		}
		cp := *entry
		out = append(out, &cp)
	}
	return tail(out, opts.Limit), nil
}

func (s *Store) ListNotifications(_ context.Context, userID string, unreadOnly bool) ([]*notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*notification.Notification
	for _, key := range s.noteOrder {
		note := s.notifications[key]
		if note.UserID != userID {
			continue
		}
		if unreadOnly && note.Read {
			continue
		}
		cp := *note
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) Apply(_ context.Context, m *store.Mutation) error {
	if m.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate references before touching state so a failed mutation
	// leaves the store unchanged.
	for key := range m.TxStatus {
		if _, ok := s.transactions[key]; !ok {
			return treasury.ErrTransactionNotFound
		}
	}
	for _, noteID := range m.NotificationReads {
		if _, ok := s.notifications[noteID.String()]; !ok {
			return treasury.ErrNotificationNotFound
		}
	}

	for _, acct := range m.Accounts {
		s.accounts[acct.UserID] = acct.Clone()
	}
	for _, tx := range m.Transactions {
		cp := *tx
		key := tx.ID.String()
		if _, seen := s.transactions[key]; !seen {
			s.txOrder = append(s.txOrder, key)
		}
		s.transactions[key] = &cp
	}
	for key, status := range m.TxStatus {
		s.transactions[key].Status = status
	}
	for _, sess := range m.Sessions {
		cp := *sess
		s.sessions[sess.UserID] = &cp
	}
	for _, evt := range m.MiningEvents {
		cp := *evt
		s.miningEvents = append(s.miningEvents, &cp)
	}
	for user, ts := range m.LastMine {
		s.lastMine[user] = ts
	}
	for _, nft := range m.NFTs {
		cp := *nft
		s.nfts = append(s.nfts, &cp)
	}
	for _, entry := range m.Audit {
		cp := *entry
		s.auditLog = append(s.auditLog, &cp)
	}
	for _, note := range m.Notifications {
		cp := *note
		key := note.ID.String()
		if _, seen := s.notifications[key]; !seen {
			s.noteOrder = append(s.noteOrder, key)
		}
		s.notifications[key] = &cp
	}
	for _, noteID := range m.NotificationReads {
		s.notifications[noteID.String()].Read = true
	}
	return nil
}

func (s *Store) Migrate(context.Context) error { return nil }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
