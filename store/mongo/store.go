// Package mongo provides a MongoDB-backed store implementation. When the
// deployment supports multi-document transactions (replica set or
// sharded cluster), mutations are applied inside one; otherwise they
// fall back to ordered sequential writes.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/artgap/treasury"
	"github.com/artgap/treasury/account"
	"github.com/artgap/treasury/audit"
	"github.com/artgap/treasury/id"
	"github.com/artgap/treasury/mining"
	"github.com/artgap/treasury/notification"
	treasurystore "github.com/artgap/treasury/store"
	"github.com/artgap/treasury/transaction"
)

// Collection name constants.
const (
	colAccounts      = "treasury_accounts"
	colTransactions  = "treasury_transactions"
	colSessions      = "treasury_sessions"
	colMiningEvents  = "treasury_mining_events"
	colLastMine      = "treasury_last_mine"
	colNFTs          = "treasury_nfts"
	colAudit         = "treasury_audit"
	colNotifications = "treasury_notifications"
)

// compile-time interface check
var _ treasurystore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB.
type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithoutTransactions disables multi-document transactions. Use against
// standalone deployments that do not support them; mutations are then
// applied as ordered sequential writes.
func WithoutTransactions() StoreOption {
	return func(s *Store) { s.transactions = false }
}

// New creates a MongoDB store on the named database.
func New(client *mongo.Client, database string, opts ...StoreOption) *Store {
	s := &Store{
		client:       client,
		db:           client.Database(database),
		transactions: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) col(name string) *mongo.Collection { return s.db.Collection(name) }

// Migrate creates indexes for all treasury collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colTransactions: {
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "ts", Value: 1}}},
		},
		colMiningEvents: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colNFTs: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		colAudit: {
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "ts", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		colNotifications: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "ts", Value: 1}}},
		},
	}

	for col, models := range indexes {
		if _, err := s.col(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("treasury/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// ==================== Account reads ====================

func (s *Store) GetAccount(ctx context.Context, userID string) (*account.Account, error) {
	var m accountModel
	err := s.col(colAccounts).FindOne(ctx, bson.M{"_id": userID}).Decode(&m)
	if isNoDocuments(err) {
		return nil, treasury.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("treasury/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) ListAccounts(ctx context.Context) ([]*account.Account, error) {
	cursor, err := s.col(colAccounts).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("treasury/mongo: list accounts: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*account.Account
	for cursor.Next(ctx) {
		var m accountModel
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("treasury/mongo: decode account: %w", err)
		}
		acct, err := fromAccountModel(&m)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, cursor.Err()
}

// ==================== Transaction reads ====================

func (s *Store) GetTransaction(ctx context.Context, txID id.TransactionID) (*transaction.Transaction, error) {
	var m transactionModel
	err := s.col(colTransactions).FindOne(ctx, bson.M{"_id": txID.String()}).Decode(&m)
	if isNoDocuments(err) {
		return nil, treasury.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("treasury/mongo: get transaction: %w", err)
	}
	return fromTransactionModel(&m)
}

func (s *Store) ListTransactions(ctx context.Context, userID string, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "ts", Value: 1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}
	cursor, err := s.col(colTransactions).Find(ctx, bson.M{"account_id": userID}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("treasury/mongo: list transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*transaction.Transaction
	for cursor.Next(ctx) {
		var m transactionModel
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("treasury/mongo: decode transaction: %w", err)
		}
		tx, err := fromTransactionModel(&m)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, cursor.Err()
}

// ==================== Mining reads ====================

func (s *Store) GetSession(ctx context.Context, userID string) (*mining.Session, error) {
	var m sessionModel
	err := s.col(colSessions).FindOne(ctx, bson.M{"_id": userID}).Decode(&m)
	if isNoDocuments(err) {
		return nil, treasury.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("treasury/mongo: get session: %w", err)
	}
	return fromSessionModel(&m)
}

func (s *Store) LastMine(ctx context.Context, userID string) (time.Time, error) {
	var m lastMineModel
	err := s.col(colLastMine).FindOne(ctx, bson.M{"_id": userID}).Decode(&m)
	if isNoDocuments(err) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("treasury/mongo: get last mine: %w", err)
	}
	return m.TS, nil
}

func (s *Store) ListMiningEvents(ctx context.Context, userID string, limit int) ([]*mining.Event, error) {
	// With a limit, take the newest documents and flip them back to
	// chronological order after decoding.
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		findOpts = options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(int64(limit))
	}
	cursor, err := s.col(colMiningEvents).Find(ctx, bson.M{"user_id": userID}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("treasury/mongo: list mining events: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*mining.Event
	for cursor.Next(ctx) {
		var m miningEventModel
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("treasury/mongo: decode mining event: %w", err)
		}
		evt, err := fromMiningEventModel(&m)
		if err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	if limit > 0 {
		slices.Reverse(out)
	}
	return out, cursor.Err()
}

// ==================== NFT reads ====================

func (s *Store) ListNFTs(ctx context.Context, owner string) ([]*account.NFT, error) {
	cursor, err := s.col(colNFTs).Find(ctx, bson.M{"owner": owner},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("treasury/mongo: list nfts: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*account.NFT
	for cursor.Next(ctx) {
		var m nftModel
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("treasury/mongo: decode nft: %w", err)
		}
		nft, err := fromNFTModel(&m)
		if err != nil {
			return nil, err
		}
		out = append(out, nft)
	}
	return out, cursor.Err()
}

// ==================== Audit and notification reads ====================

func (s *Store) ListAudit(ctx context.Context, opts audit.ListOpts) ([]*audit.Entry, error) {
	filter := bson.M{}
	if opts.Type != "" {
		filter["type"] = opts.Type
	}
	if opts.UserID != "" {
		filter["user_id"] = opts.UserID
	}
	// Same newest-first trick as ListMiningEvents.
	findOpts := options.Find().SetSort(bson.D{{Key: "ts", Value: 1}})
	if opts.Limit > 0 {
		findOpts = options.Find().
			SetSort(bson.D{{Key: "ts", Value: -1}}).
			SetLimit(int64(opts.Limit))
	}
	cursor, err := s.col(colAudit).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("treasury/mongo: list audit: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*audit.Entry
	for cursor.Next(ctx) {
		var m auditModel
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("treasury/mongo: decode audit entry: %w", err)
		}
		entry, err := fromAuditModel(&m)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	if opts.Limit > 0 {
		slices.Reverse(out)
	}
	return out, cursor.Err()
}

func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*notification.Notification, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["read"] = false
	}
	cursor, err := s.col(colNotifications).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "ts", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("treasury/mongo: list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*notification.Notification
	for cursor.Next(ctx) {
		var m notificationModel
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("treasury/mongo: decode notification: %w", err)
		}
		note, err := fromNotificationModel(&m)
		if err != nil {
			return nil, err
		}
		out = append(out, note)
	}
	return out, cursor.Err()
}

// ==================== Apply ====================

func (s *Store) Apply(ctx context.Context, m *treasurystore.Mutation) error {
	if m.IsEmpty() {
		return nil
	}

	if !s.transactions {
		return s.applyWrites(ctx, m)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("treasury/mongo: start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc context.Context) (interface{}, error) {
		return nil, s.applyWrites(sc, m)
	})
	return err
}

func (s *Store) applyWrites(ctx context.Context, m *treasurystore.Mutation) error {
	upsert := options.Replace().SetUpsert(true)

	for _, acct := range m.Accounts {
		doc := toAccountModel(acct)
		if _, err := s.col(colAccounts).ReplaceOne(ctx, bson.M{"_id": doc.UserID}, doc, upsert); err != nil {
			return fmt.Errorf("treasury/mongo: upsert account: %w", err)
		}
	}
	for _, tx := range m.Transactions {
		if _, err := s.col(colTransactions).InsertOne(ctx, toTransactionModel(tx)); err != nil {
			return fmt.Errorf("treasury/mongo: insert transaction: %w", err)
		}
	}
	for key, status := range m.TxStatus {
		res, err := s.col(colTransactions).UpdateOne(ctx,
			bson.M{"_id": key},
			bson.M{"$set": bson.M{"status": string(status)}})
		if err != nil {
			return fmt.Errorf("treasury/mongo: update transaction status: %w", err)
		}
		if res.MatchedCount == 0 {
			return treasury.ErrTransactionNotFound
		}
	}
	for _, sess := range m.Sessions {
		doc := toSessionModel(sess)
		if _, err := s.col(colSessions).ReplaceOne(ctx, bson.M{"_id": doc.UserID}, doc, upsert); err != nil {
			return fmt.Errorf("treasury/mongo: upsert session: %w", err)
		}
	}
	for _, evt := range m.MiningEvents {
		if _, err := s.col(colMiningEvents).InsertOne(ctx, toMiningEventModel(evt)); err != nil {
			return fmt.Errorf("treasury/mongo: insert mining event: %w", err)
		}
	}
	for user, ts := range m.LastMine {
		doc := &lastMineModel{UserID: user, TS: ts}
		if _, err := s.col(colLastMine).ReplaceOne(ctx, bson.M{"_id": user}, doc, upsert); err != nil {
			return fmt.Errorf("treasury/mongo: upsert last mine: %w", err)
		}
	}
	for _, nft := range m.NFTs {
		if _, err := s.col(colNFTs).InsertOne(ctx, toNFTModel(nft)); err != nil {
			return fmt.Errorf("treasury/mongo: insert nft: %w", err)
		}
	}
	for _, entry := range m.Audit {
		if _, err := s.col(colAudit).InsertOne(ctx, toAuditModel(entry)); err != nil {
			return fmt.Errorf("treasury/mongo: insert audit entry: %w", err)
		}
	}
	for _, note := range m.Notifications {
		if _, err := s.col(colNotifications).InsertOne(ctx, toNotificationModel(note)); err != nil {
			return fmt.Errorf("treasury/mongo: insert notification: %w", err)
		}
	}
	for _, noteID := range m.NotificationReads {
		res, err := s.col(colNotifications).UpdateOne(ctx,
			bson.M{"_id": noteID.String()},
			bson.M{"$set": bson.M{"read": true}})
		if err != nil {
			return fmt.Errorf("treasury/mongo: mark notification read: %w", err)
		}
		if res.MatchedCount == 0 {
			return treasury.ErrNotificationNotFound
		}
	}
	return nil
}
