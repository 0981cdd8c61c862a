// Package file provides a single-file JSON store implementation. The
// whole state lives in one snapshot that is rewritten through a
// temp-file rename on every mutation, so the file on disk is always a
// complete, parseable snapshot.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
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

// snapshot is the on-disk shape of the store.
type snapshot struct {
	Accounts      map[string]*account.Account  `json:"accounts"`
	Transactions  []*transaction.Transaction   `json:"transactions"`
	Sessions      map[string]*mining.Session   `json:"sessions"`
	MiningEvents  []*mining.Event              `json:"mining_events"`
	LastMine      map[string]time.Time         `json:"last_mine"`
	NFTs          []*account.NFT               `json:"nfts"`
	Audit         []*audit.Entry               `json:"audit"`
	Notifications []*notification.Notification `json:"notifications"`
}

func newSnapshot() *snapshot {
	return &snapshot{
		Accounts: make(map[string]*account.Account),
		Sessions: make(map[string]*mining.Session),
		LastMine: make(map[string]time.Time),
	}
}

func (s *snapshot) clone() *snapshot {
	cp := newSnapshot()
	for user, acct := range s.Accounts {
		cp.Accounts[user] = acct.Clone()
	}
	for _, tx := range s.Transactions {
		c := *tx
		cp.Transactions = append(cp.Transactions, &c)
	}
	for user, sess := range s.Sessions {
		c := *sess
		cp.Sessions[user] = &c
	}
	for _, evt := range s.MiningEvents {
		c := *evt
		cp.MiningEvents = append(cp.MiningEvents, &c)
	}
	for user, ts := range s.LastMine {
		cp.LastMine[user] = ts
	}
	for _, nft := range s.NFTs {
		c := *nft
		cp.NFTs = append(cp.NFTs, &c)
	}
	for _, entry := range s.Audit {
		c := *entry
		cp.Audit = append(cp.Audit, &c)
	}
	for _, note := range s.Notifications {
		c := *note
		cp.Notifications = append(cp.Notifications, &c)
	}
	return cp
}

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store persists all state in a single JSON file.
type Store struct {
	mu   sync.RWMutex
	path string
	data *snapshot
}

// Open loads the snapshot at path, creating an empty one if the file
// does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, data: newSnapshot()}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, s.data); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if s.data.Accounts == nil {
		s.data.Accounts = make(map[string]*account.Account)
	}
	if s.data.Sessions == nil {
		s.data.Sessions = make(map[string]*mining.Session)
	}
	if s.data.LastMine == nil {
		s.data.LastMine = make(map[string]time.Time)
	}
	return s, nil
}

// persist writes the snapshot to a temp file in the same directory and
// renames it over the target, so readers never see a partial write.
func (s *Store) persist(data *snapshot) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(_ context.Context, userID string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.data.Accounts[userID]
	if !ok {
		return nil, treasury.ErrAccountNotFound
	}
	return acct.Clone(), nil
}

func (s *Store) ListAccounts(_ context.Context) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*account.Account, 0, len(s.data.Accounts))
	for _, acct := range s.data.Accounts {
		out = append(out, acct.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, txID id.TransactionID) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tx := range s.data.Transactions {
		if tx.ID.String() == txID.String() {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, treasury.ErrTransactionNotFound
}

func (s *Store) ListTransactions(_ context.Context, userID string, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*transaction.Transaction
	for _, tx := range s.data.Transactions {
		if tx.AccountID != userID {
			continue
		}
		cp := *tx
		out = append(out, &cp)
	}
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *Store) GetSession(_ context.Context, userID string) (*mining.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.data.Sessions[userID]
	if !ok {
		return nil, treasury.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *Store) LastMine(_ context.Context, userID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.data.LastMine[userID], nil
}

func (s *Store) ListMiningEvents(_ context.Context, userID string, limit int) ([]*mining.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*mining.Event
	for _, evt := range s.data.MiningEvents {
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
	for _, nft := range s.data.NFTs {
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
	for _, entry := range s.data.Audit {
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
	for _, note := range s.data.Notifications {
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

	// Mutate a copy and swap it in only after the snapshot hits disk,
	// so a failed write leaves both memory and file untouched.
	next := s.data.clone()

	for _, acct := range m.Accounts {
		next.Accounts[acct.UserID] = acct.Clone()
	}
	for _, tx := range m.Transactions {
		cp := *tx
		next.Transactions = append(next.Transactions, &cp)
	}
	for key, status := range m.TxStatus {
		found := false
		for _, tx := range next.Transactions {
			if tx.ID.String() == key {
				tx.Status = status
				found = true
				break
			}
		}
		if !found {
			return treasury.ErrTransactionNotFound
		}
	}
	for _, sess := range m.Sessions {
		cp := *sess
		next.Sessions[sess.UserID] = &cp
	}
	for _, evt := range m.MiningEvents {
		cp := *evt
		next.MiningEvents = append(next.MiningEvents, &cp)
	}
	for user, ts := range m.LastMine {
		next.LastMine[user] = ts
	}
	for _, nft := range m.NFTs {
		cp := *nft
		next.NFTs = append(next.NFTs, &cp)
	}
	for _, entry := range m.Audit {
		cp := *entry
		next.Audit = append(next.Audit, &cp)
	}
	for _, note := range m.Notifications {
		cp := *note
		next.Notifications = append(next.Notifications, &cp)
	}
	for _, noteID := range m.NotificationReads {
		found := false
		for _, note := range next.Notifications {
			if note.ID.String() == noteID.String() {
				note.Read = true
				found = true
				break
			}
		}
		if !found {
			return treasury.ErrNotificationNotFound
		}
	}

	if err := s.persist(next); err != nil {
		return err
	}
	s.data = next
	return nil
}

func (s *Store) Migrate(context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(filepath.Dir(s.path))
	return err
}

func (s *Store) Close() error { return nil }
