// Package sqlite provides a SQLite-backed store implementation using
// database/sql with the modernc.org/sqlite driver. Mutations are applied
// inside a single transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/artgap/treasury"
	"github.com/artgap/treasury/account"
	"github.com/artgap/treasury/audit"
	"github.com/artgap/treasury/id"
	"github.com/artgap/treasury/mining"
	"github.com/artgap/treasury/notification"
	"github.com/artgap/treasury/pass"
	"github.com/artgap/treasury/store"
	"github.com/artgap/treasury/transaction"
	"github.com/artgap/treasury/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	user_id    TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	balances   TEXT NOT NULL,
	passes     TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id          TEXT PRIMARY KEY,
	account_id  TEXT NOT NULL,
	type        TEXT NOT NULL,
	currency    TEXT NOT NULL,
	amount      TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	ts          TEXT NOT NULL,
	status      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id);

CREATE TABLE IF NOT EXISTS sessions (
	user_id    TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	start_at   TEXT NOT NULL,
	end_at     TEXT NOT NULL,
	claimed    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS mining_events (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	reward     TEXT NOT NULL,
	source     TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_mining_events_user ON mining_events(user_id);

CREATE TABLE IF NOT EXISTS last_mine (
	user_id TEXT PRIMARY KEY,
	ts      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS nfts (
	id         TEXT PRIMARY KEY,
	owner      TEXT NOT NULL,
	title      TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_nfts_owner ON nfts(owner);

CREATE TABLE IF NOT EXISTS audit_log (
	id      TEXT PRIMARY KEY,
	type    TEXT NOT NULL,
	user_id TEXT NOT NULL DEFAULT '',
	context TEXT NOT NULL DEFAULT '{}',
	ts      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id      TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title   TEXT NOT NULL,
	message TEXT NOT NULL,
	ts      TEXT NOT NULL,
	is_read INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);
`

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of store.Store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn. Use ":memory:" for an
// ephemeral database.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc's driver does not tolerate concurrent writers on one file.
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

func encodeTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func decodeTime(raw string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, raw)
	return t
}

func (s *Store) GetAccount(ctx context.Context, userID string) (*account.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, account_id, balances, passes, created_at, updated_at FROM accounts WHERE user_id = ?`, userID)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, treasury.ErrAccountNotFound
	}
	return acct, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*account.Account, error) {
	var (
		acct                 account.Account
		acctID               string
		balances, passes     string
		createdAt, updatedAt string
	)
	if err := row.Scan(&acct.UserID, &acctID, &balances, &passes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	parsed, err := id.ParseWithPrefix(acctID, id.PrefixAccount)
	if err != nil {
		return nil, fmt.Errorf("decode account id: %w", err)
	}
	acct.ID = parsed
	if err := json.Unmarshal([]byte(balances), &acct.Balances); err != nil {
		return nil, fmt.Errorf("decode balances: %w", err)
	}
	if err := json.Unmarshal([]byte(passes), &acct.Passes); err != nil {
		return nil, fmt.Errorf("decode passes: %w", err)
	}
	acct.CreatedAt = decodeTime(createdAt)
	acct.UpdatedAt = decodeTime(updatedAt)
	if acct.Balances == nil {
		acct.Balances = types.NewBalances()
	}
	if acct.Passes == nil {
		acct.Passes = []*pass.Pass{}
	}
	return &acct, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]*account.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, account_id, balances, passes, created_at, updated_at FROM accounts ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*account.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, rows.Err()
}

func scanTransaction(row rowScanner) (*transaction.Transaction, error) {
	var (
		tx         transaction.Transaction
		txID       string
		amount, ts string
	)
	if err := row.Scan(&txID, &tx.AccountID, &tx.Type, &tx.Currency, &amount, &tx.Description, &ts, &tx.Status); err != nil {
		return nil, err
	}
	parsed, err := id.ParseWithPrefix(txID, id.PrefixTransaction)
	if err != nil {
		return nil, fmt.Errorf("decode transaction id: %w", err)
	}
	tx.ID = parsed
	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("decode amount: %w", err)
	}
	tx.Timestamp = decodeTime(ts)
	return &tx, nil
}

const txColumns = `id, account_id, type, currency, amount, description, ts, status`

func (s *Store) GetTransaction(ctx context.Context, txID id.TransactionID) (*transaction.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ?`, txID.String())
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, treasury.ErrTransactionNotFound
	}
	return tx, err
}

func (s *Store) ListTransactions(ctx context.Context, userID string, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE account_id = ? ORDER BY rowid LIMIT ? OFFSET ?`,
		userID, limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*transaction.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *Store) GetSession(ctx context.Context, userID string) (*mining.Session, error) {
	var (
		sess           mining.Session
		sessID         string
		startAt, endAt string
		claimed        int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, session_id, start_at, end_at, claimed FROM sessions WHERE user_id = ?`, userID).
		Scan(&sess.UserID, &sessID, &startAt, &endAt, &claimed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, treasury.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	parsed, err := id.ParseWithPrefix(sessID, id.PrefixSession)
	if err != nil {
		return nil, fmt.Errorf("decode session id: %w", err)
	}
	sess.ID = parsed
	sess.Start = decodeTime(startAt)
	sess.End = decodeTime(endAt)
	sess.Claimed = claimed != 0
	return &sess, nil
}

func (s *Store) LastMine(ctx context.Context, userID string) (time.Time, error) {
	var ts string
	err := s.db.QueryRowContext(ctx,
		`SELECT ts FROM last_mine WHERE user_id = ?`, userID).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return decodeTime(ts), nil
}

func (s *Store) ListMiningEvents(ctx context.Context, userID string, limit int) ([]*mining.Event, error) {
	if limit <= 0 {
		limit = -1
	}
	// The inner query takes the newest rows; the outer one restores
	// chronological order.
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, reward, source, created_at FROM (
			SELECT rowid AS rid, id, user_id, reward, source, created_at
			FROM mining_events WHERE user_id = ? ORDER BY rid DESC LIMIT ?
		) ORDER BY rid`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*mining.Event
	for rows.Next() {
		var (
			evt       mining.Event
			evtID     string
			reward    string
			createdAt string
		)
		if err := rows.Scan(&evtID, &evt.UserID, &reward, &evt.Source, &createdAt); err != nil {
			return nil, err
		}
		parsed, err := id.ParseWithPrefix(evtID, id.PrefixMiningEvent)
		if err != nil {
			return nil, fmt.Errorf("decode mining event id: %w", err)
		}
		evt.ID = parsed
		evt.Reward, err = decimal.NewFromString(reward)
		if err != nil {
			return nil, fmt.Errorf("decode reward: %w", err)
		}
		evt.CreatedAt = decodeTime(createdAt)
		out = append(out, &evt)
	}
	return out, rows.Err()
}

func (s *Store) ListNFTs(ctx context.Context, owner string) ([]*account.NFT, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner, title, metadata, created_at, updated_at FROM nfts WHERE owner = ? ORDER BY created_at`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*account.NFT
	for rows.Next() {
		var (
			nft                  account.NFT
			nftID                string
			metadata             string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&nftID, &nft.Owner, &nft.Title, &metadata, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		parsed, err := id.ParseWithPrefix(nftID, id.PrefixNFT)
		if err != nil {
			return nil, fmt.Errorf("decode nft id: %w", err)
		}
		nft.ID = parsed
		if err := json.Unmarshal([]byte(metadata), &nft.Metadata); err != nil {
			return nil, fmt.Errorf("decode nft metadata: %w", err)
		}
		nft.CreatedAt = decodeTime(createdAt)
		nft.UpdatedAt = decodeTime(updatedAt)
		out = append(out, &nft)
	}
	return out, rows.Err()
}

func (s *Store) ListAudit(ctx context.Context, opts audit.ListOpts) ([]*audit.Entry, error) {
	inner := `SELECT rowid AS rid, id, type, user_id, context, ts FROM audit_log WHERE 1=1`
	var args []any
	if opts.Type != "" {
		inner += ` AND type = ?`
		args = append(args, opts.Type)
	}
	if opts.UserID != "" {
		inner += ` AND user_id = ?`
		args = append(args, opts.UserID)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	inner += ` ORDER BY rid DESC LIMIT ?`
	args = append(args, limit)
	// Newest rows win the limit; the outer query restores chronological
	// order.
	query := `SELECT id, type, user_id, context, ts FROM (` + inner + `) ORDER BY rid`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*audit.Entry
	for rows.Next() {
		var (
			entry       audit.Entry
			entryID     string
			contextJSON string
			ts          string
		)
		if err := rows.Scan(&entryID, &entry.Type, &entry.UserID, &contextJSON, &ts); err != nil {
			return nil, err
		}
		parsed, err := id.ParseWithPrefix(entryID, id.PrefixAudit)
		if err != nil {
			return nil, fmt.Errorf("decode audit id: %w", err)
		}
		entry.ID = parsed
		if err := json.Unmarshal([]byte(contextJSON), &entry.Context); err != nil {
			return nil, fmt.Errorf("decode audit context: %w", err)
		}
		entry.TS = decodeTime(ts)
		out = append(out, &entry)
	}
	return out, rows.Err()
}

func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*notification.Notification, error) {
	query := `SELECT id, user_id, title, message, ts, is_read FROM notifications WHERE user_id = ?`
	args := []any{userID}
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY ts`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*notification.Notification
	for rows.Next() {
		var (
			note   notification.Notification
			noteID string
			ts     string
			read   int
		)
		if err := rows.Scan(&noteID, &note.UserID, &note.Title, &note.Message, &ts, &read); err != nil {
			return nil, err
		}
		parsed, err := id.ParseWithPrefix(noteID, id.PrefixNotification)
		if err != nil {
			return nil, fmt.Errorf("decode notification id: %w", err)
		}
		note.ID = parsed
		note.TS = decodeTime(ts)
		note.Read = read != 0
		out = append(out, &note)
	}
	return out, rows.Err()
}

func (s *Store) Apply(ctx context.Context, m *store.Mutation) error {
	if m.IsEmpty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, acct := range m.Accounts {
		balances, err := json.Marshal(acct.Balances)
		if err != nil {
			return fmt.Errorf("encode balances: %w", err)
		}
		passes, err := json.Marshal(acct.Passes)
		if err != nil {
			return fmt.Errorf("encode passes: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO accounts (user_id, account_id, balances, passes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				balances = excluded.balances,
				passes = excluded.passes,
				updated_at = excluded.updated_at`,
			acct.UserID, acct.ID.String(), string(balances), string(passes),
			encodeTime(acct.CreatedAt), encodeTime(acct.UpdatedAt))
		if err != nil {
			return fmt.Errorf("upsert account: %w", err)
		}
	}
	for _, rec := range m.Transactions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (id, account_id, type, currency, amount, description, ts, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID.String(), rec.AccountID, string(rec.Type), string(rec.Currency),
			rec.Amount.String(), rec.Description, encodeTime(rec.Timestamp), string(rec.Status))
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}
	for key, status := range m.TxStatus {
		res, err := tx.ExecContext(ctx,
			`UPDATE transactions SET status = ? WHERE id = ?`, string(status), key)
		if err != nil {
			return fmt.Errorf("update transaction status: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return treasury.ErrTransactionNotFound
		}
	}
	for _, sess := range m.Sessions {
		claimed := 0
		if sess.Claimed {
			claimed = 1
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (user_id, session_id, start_at, end_at, claimed)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				session_id = excluded.session_id,
				start_at = excluded.start_at,
				end_at = excluded.end_at,
				claimed = excluded.claimed`,
			sess.UserID, sess.ID.String(), encodeTime(sess.Start), encodeTime(sess.End), claimed)
		if err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}
	}
	for _, evt := range m.MiningEvents {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO mining_events (id, user_id, reward, source, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			evt.ID.String(), evt.UserID, evt.Reward.String(), evt.Source, encodeTime(evt.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert mining event: %w", err)
		}
	}
	for user, ts := range m.LastMine {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO last_mine (user_id, ts) VALUES (?, ?)
			ON CONFLICT(user_id) DO UPDATE SET ts = excluded.ts`,
			user, encodeTime(ts))
		if err != nil {
			return fmt.Errorf("upsert last mine: %w", err)
		}
	}
	for _, nft := range m.NFTs {
		metadata, err := json.Marshal(nft.Metadata)
		if err != nil {
			return fmt.Errorf("encode nft metadata: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO nfts (id, owner, title, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			nft.ID.String(), nft.Owner, nft.Title, string(metadata),
			encodeTime(nft.CreatedAt), encodeTime(nft.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert nft: %w", err)
		}
	}
	for _, entry := range m.Audit {
		contextJSON, err := json.Marshal(entry.Context)
		if err != nil {
			return fmt.Errorf("encode audit context: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO audit_log (id, type, user_id, context, ts)
			VALUES (?, ?, ?, ?, ?)`,
			entry.ID.String(), entry.Type, entry.UserID, string(contextJSON), encodeTime(entry.TS))
		if err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}
	}
	for _, note := range m.Notifications {
		read := 0
		if note.Read {
			read = 1
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO notifications (id, user_id, title, message, ts, is_read)
			VALUES (?, ?, ?, ?, ?, ?)`,
			note.ID.String(), note.UserID, note.Title, note.Message, encodeTime(note.TS), read)
		if err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}
	for _, noteID := range m.NotificationReads {
		res, err := tx.ExecContext(ctx,
			`UPDATE notifications SET is_read = 1 WHERE id = ?`, noteID.String())
		if err != nil {
			return fmt.Errorf("mark notification read: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return treasury.ErrNotificationNotFound
		}
	}

	return tx.Commit()
}
