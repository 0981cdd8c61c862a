package treasury_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artgap/treasury"
	"github.com/artgap/treasury/cooldown"
	"github.com/artgap/treasury/store/memory"
	"github.com/artgap/treasury/types"
)

// newMiningEngine wires an engine and tracker onto one fake clock so
// cooldowns and sessions advance together.
func newMiningEngine(t *testing.T, opts ...treasury.Option) (*treasury.Treasury, *fakeClock) {
	t.Helper()
	clk := newFakeClock()
	tracker := cooldown.NewMemory(treasury.DefaultCooldown, cooldown.WithClock(clk.Now))
	base := []treasury.Option{
		treasury.WithClock(clk.Now),
		treasury.WithCooldownTracker(tracker),
		treasury.WithRewardSource(func() decimal.Decimal { return dec("3") }),
	}
	return newTestEngine(t, append(base, opts...)...), clk
}

func TestMineCreditsReward(t *testing.T) {
	eng, _ := newMiningEngine(t)
	ctx := context.Background()

	evt, err := eng.Mine(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, evt.Reward.Equal(dec("3")))
	assert.Equal(t, "mine", evt.Source)

	balances, err := eng.Balances(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, balances.Get(types.ARTC).Equal(dec("13")))

	events, err := eng.MiningEvents(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Reward.Equal(dec("3")))
}

func TestMineCooldownBlocksSecondMine(t *testing.T) {
	eng, clk := newMiningEngine(t)
	ctx := context.Background()

	_, err := eng.Mine(ctx, "alice")
	require.NoError(t, err)

	_, err = eng.Mine(ctx, "alice")
	require.ErrorIs(t, err, treasury.ErrCooldownActive)

	remaining, err := eng.CooldownRemaining(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, treasury.DefaultCooldown, remaining)

	// Half the window in, still blocked.
	clk.Advance(treasury.DefaultCooldown / 2)
	_, err = eng.Mine(ctx, "alice")
	require.ErrorIs(t, err, treasury.ErrCooldownActive)

	// Past the window, allowed again.
	clk.Advance(treasury.DefaultCooldown)
	_, err = eng.Mine(ctx, "alice")
	require.NoError(t, err)

	balances, err := eng.Balances(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, balances.Get(types.ARTC).Equal(dec("16")))
}

func TestMineCooldownSurvivesTrackerReset(t *testing.T) {
	clk := newFakeClock()
	st := memory.New()
	eng := treasury.New(st,
		treasury.WithClock(clk.Now),
		treasury.WithRewardSource(func() decimal.Decimal { return dec("2") }),
		treasury.WithCooldownTracker(cooldown.NewMemory(treasury.DefaultCooldown, cooldown.WithClock(clk.Now))),
	)
	require.NoError(t, eng.Start(context.Background()))
	ctx := context.Background()

	_, err := eng.Mine(ctx, "alice")
	require.NoError(t, err)

	// A fresh tracker over the same store simulates a restarted process;
	// the persisted last mine time still enforces the window.
	eng2 := treasury.New(st,
		treasury.WithClock(clk.Now),
		treasury.WithCooldownTracker(cooldown.NewMemory(treasury.DefaultCooldown, cooldown.WithClock(clk.Now))),
	)

	remaining, err := eng2.CooldownRemaining(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, treasury.DefaultCooldown, remaining)

	_, err = eng2.Mine(ctx, "alice")
	require.ErrorIs(t, err, treasury.ErrCooldownActive)

	clk.Advance(treasury.DefaultCooldown + time.Second)
	_, err = eng2.Mine(ctx, "alice")
	require.NoError(t, err)
}

func TestMineRewardRounding(t *testing.T) {
	eng, _ := newMiningEngine(t, treasury.WithRewardSource(func() decimal.Decimal {
		return dec("2.987")
	}))

	evt, err := eng.Mine(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, evt.Reward.Equal(dec("2.99")), "reward: %s", evt.Reward)
}

func TestSessionLifecycle(t *testing.T) {
	eng, clk := newMiningEngine(t)
	ctx := context.Background()

	sess, err := eng.StartSession(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, treasury.DefaultSessionDuration, sess.End.Sub(sess.Start))

	st, err := eng.SessionStatus(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, st.Active)
	assert.Equal(t, treasury.DefaultSessionDuration, st.Remaining)

	// A second session cannot start while one runs.
	_, err = eng.StartSession(ctx, "alice")
	require.ErrorIs(t, err, treasury.ErrSessionActive)

	// Claiming mid-session is rejected.
	_, err = eng.Claim(ctx, "alice")
	require.ErrorIs(t, err, treasury.ErrSessionRunning)

	clk.Advance(treasury.DefaultSessionDuration + time.Minute)

	st, err = eng.SessionStatus(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, st.Active)
	assert.False(t, st.Claimed)

	tx, err := eng.Claim(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(dec("1")))

	balances, err := eng.Balances(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, balances.Get(types.ARTC).Equal(dec("11")))

	// A session pays out exactly once.
	_, err = eng.Claim(ctx, "alice")
	require.ErrorIs(t, err, treasury.ErrAlreadyClaimed)

	// Once claimed, a new session may start.
	_, err = eng.StartSession(ctx, "alice")
	require.NoError(t, err)
}

func TestSessionStatusWithoutSession(t *testing.T) {
	eng, _ := newMiningEngine(t)

	st, err := eng.SessionStatus(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, st.Active)
	assert.True(t, st.End.IsZero())
}

func TestClaimWithoutSession(t *testing.T) {
	eng, _ := newMiningEngine(t)

	_, err := eng.Claim(context.Background(), "alice")
	assert.ErrorIs(t, err, treasury.ErrSessionNotFound)
}

func TestMineAndSessionsAreIndependent(t *testing.T) {
	eng, clk := newMiningEngine(t)
	ctx := context.Background()

	// Quick mining keeps working while a session runs.
	_, err := eng.StartSession(ctx, "alice")
	require.NoError(t, err)
	_, err = eng.Mine(ctx, "alice")
	require.NoError(t, err)

	clk.Advance(treasury.DefaultSessionDuration + time.Minute)

	_, err = eng.Claim(ctx, "alice")
	require.NoError(t, err)

	// Starter 10 + mine 3 + claim 1.
	balances, err := eng.Balances(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, balances.Get(types.ARTC).Equal(dec("14")))
}

func TestCustomClaimRewardAndCooldown(t *testing.T) {
	clk := newFakeClock()
	window := 5 * time.Minute
	eng := newTestEngine(t,
		treasury.WithClock(clk.Now),
		treasury.WithCooldown(window),
		treasury.WithCooldownTracker(cooldown.NewMemory(window, cooldown.WithClock(clk.Now))),
		treasury.WithClaimReward(dec("2.5")),
		treasury.WithSessionDuration(time.Hour),
		treasury.WithRewardSource(func() decimal.Decimal { return dec("1") }),
	)
	ctx := context.Background()

	_, err := eng.Mine(ctx, "alice")
	require.NoError(t, err)

	clk.Advance(time.Minute)
	remaining, err := eng.CooldownRemaining(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 4*time.Minute, remaining)

	_, err = eng.StartSession(ctx, "alice")
	require.NoError(t, err)
	clk.Advance(2 * time.Hour)

	tx, err := eng.Claim(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(dec("2.5")))
}
