package cooldown

import (
	"context"
	"testing"
	"time"
)

func TestMemoryTracker(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	// Unknown users may mine immediately.
	remaining, err := m.Remaining(ctx, "alice")
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("fresh user remaining = %s, want 0", remaining)
	}

	if err := m.Mark(ctx, "alice"); err != nil {
		t.Fatalf("Mark: %v", err)
	}

	remaining, _ = m.Remaining(ctx, "alice")
	if remaining != time.Minute {
		t.Fatalf("remaining after mark = %s, want 1m", remaining)
	}

	now = now.Add(40 * time.Second)
	remaining, _ = m.Remaining(ctx, "alice")
	if remaining != 20*time.Second {
		t.Fatalf("remaining mid-window = %s, want 20s", remaining)
	}

	now = now.Add(21 * time.Second)
	remaining, _ = m.Remaining(ctx, "alice")
	if remaining != 0 {
		t.Fatalf("remaining past window = %s, want 0", remaining)
	}

	// Windows are per user.
	remaining, _ = m.Remaining(ctx, "bob")
	if remaining != 0 {
		t.Fatalf("other user remaining = %s, want 0", remaining)
	}
}

func TestMemoryTrackerRemark(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_ = m.Mark(ctx, "alice")
	now = now.Add(time.Minute + time.Second)
	_ = m.Mark(ctx, "alice")

	remaining, _ := m.Remaining(ctx, "alice")
	if remaining != time.Minute {
		t.Fatalf("remaining after remark = %s, want 1m", remaining)
	}
}
