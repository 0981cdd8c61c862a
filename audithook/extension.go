// Package audithook bridges Treasury lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// a concrete audit store. Callers inject a RecorderFunc adapter at wiring
// time; the default engine wiring records into the configured store's
// audit log.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artgap/treasury/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnAccountCreated   = (*Extension)(nil)
	_ plugin.OnTransferExecuted = (*Extension)(nil)
	_ plugin.OnSaleSettled      = (*Extension)(nil)
	_ plugin.OnDepositRequested = (*Extension)(nil)
	_ plugin.OnDepositConfirmed = (*Extension)(nil)
	_ plugin.OnPassGranted      = (*Extension)(nil)
	_ plugin.OnPassConsumed     = (*Extension)(nil)
	_ plugin.OnSessionStarted   = (*Extension)(nil)
	_ plugin.OnRewardClaimed    = (*Extension)(nil)
	_ plugin.OnMined            = (*Extension)(nil)
	_ plugin.OnNotificationSent = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement. It is
// defined locally so the package stays decoupled from any concrete
// audit store.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Treasury lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Account hooks
// ──────────────────────────────────────────────────

// OnAccountCreated implements plugin.OnAccountCreated.
func (e *Extension) OnAccountCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionAccountCreated, SeverityInfo, OutcomeSuccess,
		ResourceAccount, "", CategoryLedger, nil,
		"event", "account_created",
	)
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnTransferExecuted implements plugin.OnTransferExecuted.
func (e *Extension) OnTransferExecuted(ctx context.Context, fromUserID, toUserID string, _ interface{}) error {
	return e.record(ctx, ActionTransferExecuted, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, "", CategoryLedger, nil,
		"from", fromUserID,
		"to", toUserID,
	)
}

// OnSaleSettled implements plugin.OnSaleSettled.
func (e *Extension) OnSaleSettled(ctx context.Context, buyerUserID, sellerUserID string, _ interface{}) error {
	return e.record(ctx, ActionSaleSettled, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, "", CategoryLedger, nil,
		"buyer", buyerUserID,
		"seller", sellerUserID,
	)
}

// OnDepositRequested implements plugin.OnDepositRequested.
func (e *Extension) OnDepositRequested(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionDepositRequested, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, "", CategoryLedger, nil,
		"event", "deposit_requested",
	)
}

// OnDepositConfirmed implements plugin.OnDepositConfirmed.
func (e *Extension) OnDepositConfirmed(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionDepositConfirmed, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, "", CategoryLedger, nil,
		"event", "deposit_confirmed",
	)
}

// ──────────────────────────────────────────────────
// Entitlement hooks
// ──────────────────────────────────────────────────

// OnPassGranted implements plugin.OnPassGranted.
func (e *Extension) OnPassGranted(ctx context.Context, userID string, _ interface{}) error {
	return e.record(ctx, ActionPassGranted, SeverityInfo, OutcomeSuccess,
		ResourcePass, "", CategoryEntitlement, nil,
		"user_id", userID,
	)
}

// OnPassConsumed implements plugin.OnPassConsumed.
func (e *Extension) OnPassConsumed(ctx context.Context, userID string, _ interface{}) error {
	return e.record(ctx, ActionPassConsumed, SeverityInfo, OutcomeSuccess,
		ResourcePass, "", CategoryEntitlement, nil,
		"user_id", userID,
	)
}

// ──────────────────────────────────────────────────
// Mining hooks
// ──────────────────────────────────────────────────

// OnSessionStarted implements plugin.OnSessionStarted.
func (e *Extension) OnSessionStarted(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionSessionStarted, SeverityInfo, OutcomeSuccess,
		ResourceSession, "", CategoryMining, nil,
		"event", "session_started",
	)
}

// OnRewardClaimed implements plugin.OnRewardClaimed.
func (e *Extension) OnRewardClaimed(ctx context.Context, userID string, reward interface{}) error {
	return e.record(ctx, ActionRewardClaimed, SeverityInfo, OutcomeSuccess,
		ResourceSession, "", CategoryMining, nil,
		"user_id", userID,
		"reward", fmt.Sprintf("%v", reward),
	)
}

// OnMined implements plugin.OnMined.
func (e *Extension) OnMined(ctx context.Context, userID string, reward interface{}) error {
	return e.record(ctx, ActionMined, SeverityInfo, OutcomeSuccess,
		ResourceSession, "", CategoryMining, nil,
		"user_id", userID,
		"reward", fmt.Sprintf("%v", reward),
	)
}

// ──────────────────────────────────────────────────
// Messaging hooks
// ──────────────────────────────────────────────────

// OnNotificationSent implements plugin.OnNotificationSent.
func (e *Extension) OnNotificationSent(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionNotificationSent, SeverityInfo, OutcomeSuccess,
		ResourceNotification, "", CategoryMessaging, nil,
		"event", "notification_sent",
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audithook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
