package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onAccountCreated      []OnAccountCreated
	onTransactionRecorded []OnTransactionRecorded
	onTransferExecuted    []OnTransferExecuted
	onSaleSettled         []OnSaleSettled
	onDepositRequested    []OnDepositRequested
	onDepositConfirmed    []OnDepositConfirmed
	onPassGranted         []OnPassGranted
	onPassConsumed        []OnPassConsumed
	onSessionStarted      []OnSessionStarted
	onRewardClaimed       []OnRewardClaimed
	onMined               []OnMined
	onNotificationSent    []OnNotificationSent
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnAccountCreated); ok {
		r.onAccountCreated = append(r.onAccountCreated, v)
	}
	if v, ok := p.(OnTransactionRecorded); ok {
		r.onTransactionRecorded = append(r.onTransactionRecorded, v)
	}
	if v, ok := p.(OnTransferExecuted); ok {
		r.onTransferExecuted = append(r.onTransferExecuted, v)
	}
	if v, ok := p.(OnSaleSettled); ok {
		r.onSaleSettled = append(r.onSaleSettled, v)
	}
	if v, ok := p.(OnDepositRequested); ok {
		r.onDepositRequested = append(r.onDepositRequested, v)
	}
	if v, ok := p.(OnDepositConfirmed); ok {
		r.onDepositConfirmed = append(r.onDepositConfirmed, v)
	}
	if v, ok := p.(OnPassGranted); ok {
		r.onPassGranted = append(r.onPassGranted, v)
	}
	if v, ok := p.(OnPassConsumed); ok {
		r.onPassConsumed = append(r.onPassConsumed, v)
	}
	if v, ok := p.(OnSessionStarted); ok {
		r.onSessionStarted = append(r.onSessionStarted, v)
	}
	if v, ok := p.(OnRewardClaimed); ok {
		r.onRewardClaimed = append(r.onRewardClaimed, v)
	}
	if v, ok := p.(OnMined); ok {
		r.onMined = append(r.onMined, v)
	}
	if v, ok := p.(OnNotificationSent); ok {
		r.onNotificationSent = append(r.onNotificationSent, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnAccountCreated)(nil)).Elem(), "OnAccountCreated")
	checkInterface(reflect.TypeOf((*OnTransactionRecorded)(nil)).Elem(), "OnTransactionRecorded")
	checkInterface(reflect.TypeOf((*OnTransferExecuted)(nil)).Elem(), "OnTransferExecuted")
	checkInterface(reflect.TypeOf((*OnSaleSettled)(nil)).Elem(), "OnSaleSettled")
	checkInterface(reflect.TypeOf((*OnDepositRequested)(nil)).Elem(), "OnDepositRequested")
	checkInterface(reflect.TypeOf((*OnDepositConfirmed)(nil)).Elem(), "OnDepositConfirmed")
	checkInterface(reflect.TypeOf((*OnPassGranted)(nil)).Elem(), "OnPassGranted")
	checkInterface(reflect.TypeOf((*OnPassConsumed)(nil)).Elem(), "OnPassConsumed")
	checkInterface(reflect.TypeOf((*OnSessionStarted)(nil)).Elem(), "OnSessionStarted")
	checkInterface(reflect.TypeOf((*OnRewardClaimed)(nil)).Elem(), "OnRewardClaimed")
	checkInterface(reflect.TypeOf((*OnMined)(nil)).Elem(), "OnMined")
	checkInterface(reflect.TypeOf((*OnNotificationSent)(nil)).Elem(), "OnNotificationSent")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAccountCreated emits an account created event.
func (r *Registry) EmitAccountCreated(ctx context.Context, acct interface{}) {
	r.mu.RLock()
	plugins := r.onAccountCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAccountCreated(ctx, acct)
		}); err != nil {
			r.logger.Warn("plugin OnAccountCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransactionRecorded emits a transaction recorded event.
func (r *Registry) EmitTransactionRecorded(ctx context.Context, tx interface{}) {
	r.mu.RLock()
	plugins := r.onTransactionRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransactionRecorded(ctx, tx)
		}); err != nil {
			r.logger.Warn("plugin OnTransactionRecorded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransferExecuted emits a transfer executed event.
func (r *Registry) EmitTransferExecuted(ctx context.Context, fromUserID, toUserID string, amount interface{}) {
	r.mu.RLock()
	plugins := r.onTransferExecuted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransferExecuted(ctx, fromUserID, toUserID, amount)
		}); err != nil {
			r.logger.Warn("plugin OnTransferExecuted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSaleSettled emits a sale settled event.
func (r *Registry) EmitSaleSettled(ctx context.Context, buyerUserID, sellerUserID string, breakdown interface{}) {
	r.mu.RLock()
	plugins := r.onSaleSettled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSaleSettled(ctx, buyerUserID, sellerUserID, breakdown)
		}); err != nil {
			r.logger.Warn("plugin OnSaleSettled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDepositRequested emits a deposit requested event.
func (r *Registry) EmitDepositRequested(ctx context.Context, tx interface{}) {
	r.mu.RLock()
	plugins := r.onDepositRequested
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDepositRequested(ctx, tx)
		}); err != nil {
			r.logger.Warn("plugin OnDepositRequested failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDepositConfirmed emits a deposit confirmed event.
func (r *Registry) EmitDepositConfirmed(ctx context.Context, tx interface{}) {
	r.mu.RLock()
	plugins := r.onDepositConfirmed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDepositConfirmed(ctx, tx)
		}); err != nil {
			r.logger.Warn("plugin OnDepositConfirmed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPassGranted emits a pass granted event.
func (r *Registry) EmitPassGranted(ctx context.Context, userID string, pass interface{}) {
	r.mu.RLock()
	plugins := r.onPassGranted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPassGranted(ctx, userID, pass)
		}); err != nil {
			r.logger.Warn("plugin OnPassGranted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPassConsumed emits a pass consumed event.
func (r *Registry) EmitPassConsumed(ctx context.Context, userID string, pass interface{}) {
	r.mu.RLock()
	plugins := r.onPassConsumed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPassConsumed(ctx, userID, pass)
		}); err != nil {
			r.logger.Warn("plugin OnPassConsumed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSessionStarted emits a session started event.
func (r *Registry) EmitSessionStarted(ctx context.Context, session interface{}) {
	r.mu.RLock()
	plugins := r.onSessionStarted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSessionStarted(ctx, session)
		}); err != nil {
			r.logger.Warn("plugin OnSessionStarted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitRewardClaimed emits a reward claimed event.
func (r *Registry) EmitRewardClaimed(ctx context.Context, userID string, reward interface{}) {
	r.mu.RLock()
	plugins := r.onRewardClaimed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRewardClaimed(ctx, userID, reward)
		}); err != nil {
			r.logger.Warn("plugin OnRewardClaimed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitMined emits a quick-mine event.
func (r *Registry) EmitMined(ctx context.Context, userID string, reward interface{}) {
	r.mu.RLock()
	plugins := r.onMined
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnMined(ctx, userID, reward)
		}); err != nil {
			r.logger.Warn("plugin OnMined failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitNotificationSent emits a notification sent event.
func (r *Registry) EmitNotificationSent(ctx context.Context, note interface{}) {
	r.mu.RLock()
	plugins := r.onNotificationSent
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnNotificationSent(ctx, note)
		}); err != nil {
			r.logger.Warn("plugin OnNotificationSent failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
