package plugin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// recordingPlugin implements a subset of hooks and records every call.
type recordingPlugin struct {
	name string

	mu     sync.Mutex
	events []string
	fail   bool
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) record(event string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	if p.fail {
		return errors.New("boom")
	}
	return nil
}

func (p *recordingPlugin) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	copy(out, p.events)
	return out
}

func (p *recordingPlugin) OnAccountCreated(_ context.Context, _ interface{}) error {
	return p.record("account.created")
}

func (p *recordingPlugin) OnTransactionRecorded(_ context.Context, _ interface{}) error {
	return p.record("transaction.recorded")
}

func (p *recordingPlugin) OnMined(_ context.Context, _ string, _ interface{}) error {
	return p.record("mined")
}

// nameOnlyPlugin implements no hooks at all.
type nameOnlyPlugin struct{ name string }

func (p *nameOnlyPlugin) Name() string { return p.name }

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()

	p := &recordingPlugin{name: "recorder"}
	if err := r.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if r.Count() != 1 {
		t.Fatalf("Count = %d, want 1", r.Count())
	}
	if got := r.Get("recorder"); got != p {
		t.Fatalf("Get returned %v, want the registered plugin", got)
	}
	if got := r.Get("missing"); got != nil {
		t.Fatalf("Get for unknown name returned %v, want nil", got)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(&nameOnlyPlugin{name: "dup"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&nameOnlyPlugin{name: "dup"}); err == nil {
		t.Fatal("duplicate registration succeeded")
	}
}

func TestEmitDispatchesOnlyToImplementers(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	p := &recordingPlugin{name: "recorder"}
	if err := r.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&nameOnlyPlugin{name: "inert"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	r.EmitAccountCreated(ctx, nil)
	r.EmitTransactionRecorded(ctx, nil)
	r.EmitMined(ctx, "alice", nil)
	// No hook for this one on either plugin; must be a no-op.
	r.EmitSessionStarted(ctx, nil)

	want := []string{"account.created", "transaction.recorded", "mined"}
	got := p.seen()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEmitSurvivesPluginFailure(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	failing := &recordingPlugin{name: "failing", fail: true}
	healthy := &recordingPlugin{name: "healthy"}
	if err := r.Register(failing); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(healthy); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// A failing plugin must not stop dispatch to the rest.
	r.EmitAccountCreated(ctx, nil)

	if got := healthy.seen(); len(got) != 1 {
		t.Fatalf("healthy plugin saw %v, want one event", got)
	}
}

func TestCallWithTimeoutContextCancel(t *testing.T) {
	r := NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.callWithTimeout(ctx, "slow", func() error {
		time.Sleep(time.Minute)
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
