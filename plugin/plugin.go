// Package plugin provides an extensible plugin system for Treasury.
// Plugins can hook into ledger, entitlement and mining events to extend
// functionality.
package plugin

import (
	"context"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnAccountCreated is called when a new account is provisioned.
type OnAccountCreated interface {
	Plugin
	OnAccountCreated(ctx context.Context, acct interface{}) error
}

// OnTransactionRecorded is called for every transaction appended to the
// ledger, regardless of operation type.
type OnTransactionRecorded interface {
	Plugin
	OnTransactionRecorded(ctx context.Context, tx interface{}) error
}

// OnTransferExecuted is called when a plain peer transfer settles.
type OnTransferExecuted interface {
	Plugin
	OnTransferExecuted(ctx context.Context, fromUserID, toUserID string, amount interface{}) error
}

// OnSaleSettled is called when a fee-split sale settles. breakdown
// carries the gross, fee and seller proceeds figures.
type OnSaleSettled interface {
	Plugin
	OnSaleSettled(ctx context.Context, buyerUserID, sellerUserID string, breakdown interface{}) error
}

// OnDepositRequested is called when a pending deposit is recorded.
type OnDepositRequested interface {
	Plugin
	OnDepositRequested(ctx context.Context, tx interface{}) error
}

// OnDepositConfirmed is called when a pending deposit is confirmed and
// credited.
type OnDepositConfirmed interface {
	Plugin
	OnDepositConfirmed(ctx context.Context, tx interface{}) error
}

// ──────────────────────────────────────────────────
// Entitlement hooks
// ──────────────────────────────────────────────────

// OnPassGranted is called when a pass is purchased or granted.
type OnPassGranted interface {
	Plugin
	OnPassGranted(ctx context.Context, userID string, pass interface{}) error
}

// OnPassConsumed is called when an action is covered by a pass, whether
// or not the pass decrements an allowance.
type OnPassConsumed interface {
	Plugin
	OnPassConsumed(ctx context.Context, userID string, pass interface{}) error
}

// ──────────────────────────────────────────────────
// Mining hooks
// ──────────────────────────────────────────────────

// OnSessionStarted is called when a mining session starts.
type OnSessionStarted interface {
	Plugin
	OnSessionStarted(ctx context.Context, session interface{}) error
}

// OnRewardClaimed is called when a finished session's reward is claimed.
type OnRewardClaimed interface {
	Plugin
	OnRewardClaimed(ctx context.Context, userID string, reward interface{}) error
}

// OnMined is called when a quick-mine grants a reward.
type OnMined interface {
	Plugin
	OnMined(ctx context.Context, userID string, reward interface{}) error
}

// ──────────────────────────────────────────────────
// Notification hooks
// ──────────────────────────────────────────────────

// OnNotificationSent is called when a user notification is recorded.
type OnNotificationSent interface {
	Plugin
	OnNotificationSent(ctx context.Context, note interface{}) error
}
