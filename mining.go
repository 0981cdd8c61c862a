package treasury

import (
	"context"
	"fmt"
	"time"

	"github.com/artgap/treasury/account"
	"github.com/artgap/treasury/audit"
	"github.com/artgap/treasury/id"
	"github.com/artgap/treasury/mining"
	"github.com/artgap/treasury/store"
	"github.com/artgap/treasury/transaction"
	"github.com/artgap/treasury/types"
)

// StartSession starts a timed mining session for the user. Fails with
// ErrSessionActive while a previous session is still running.
func (t *Treasury) StartSession(ctx context.Context, userID string) (*mining.Session, error) {
	unlock := t.locks.lock(userID)
	defer unlock()

	if _, err := t.ensureAccountLocked(ctx, userID); err != nil {
		return nil, err
	}

	now := t.now()
	existing, err := t.store.GetSession(ctx, userID)
	if err != nil && !IsNotFound(err) {
		return nil, err
	}
	if existing.ActiveAt(now) {
		return nil, fmt.Errorf("%w: ends at %s", ErrSessionActive, existing.End.Format(time.RFC3339))
	}

	sess := &mining.Session{
		ID:     id.NewSessionID(),
		UserID: userID,
		Start:  now,
		End:    now.Add(t.sessionDuration),
	}
	m := &store.Mutation{
		Sessions: []*mining.Session{sess},
		Audit: []*audit.Entry{
			audit.New("session.started", userID, map[string]any{
				"session_id": sess.ID.String(),
				"end":        sess.End,
			}),
		},
	}
	if err := t.store.Apply(ctx, m); err != nil {
		return nil, err
	}

	t.logger.Info("mining session started", "user_id", userID, "session_id", sess.ID, "end", sess.End)
	t.plugins.EmitSessionStarted(ctx, sess)

	cp := *sess
	return &cp, nil
}

// SessionStatus reports the state of the user's session. A user with no
// session reads as inactive.
func (t *Treasury) SessionStatus(ctx context.Context, userID string) (*mining.Status, error) {
	sess, err := t.store.GetSession(ctx, userID)
	if IsNotFound(err) {
		return &mining.Status{}, nil
	}
	if err != nil {
		return nil, err
	}

	now := t.now()
	status := &mining.Status{
		Active:  sess.ActiveAt(now),
		Start:   sess.Start,
		End:     sess.End,
		Claimed: sess.Claimed,
	}
	if status.Active {
		status.Remaining = sess.End.Sub(now)
	}
	return status, nil
}

// Claim credits the session reward once the session has ended. Each
// session pays out exactly once.
func (t *Treasury) Claim(ctx context.Context, userID string) (*transaction.Transaction, error) {
	unlock := t.locks.lock(userID)
	defer unlock()

	sess, err := t.store.GetSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := t.now()
	if sess.ActiveAt(now) {
		return nil, fmt.Errorf("%w: ends at %s", ErrSessionRunning, sess.End.Format(time.RFC3339))
	}
	if sess.Claimed {
		return nil, ErrAlreadyClaimed
	}

	acct, err := t.ensureAccountLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	acct.Balances.Add(types.ARTC, t.claimReward)
	acct.Touch()
	sess.Claimed = true

	tx := transaction.New(userID, transaction.TypeCredit, types.ARTC, t.claimReward,
		fmt.Sprintf("session %s reward", sess.ID))
	evt := &mining.Event{
		ID:        id.NewMiningEventID(),
		UserID:    userID,
		Reward:    t.claimReward,
		Source:    "claim",
		CreatedAt: now,
	}
	m := &store.Mutation{
		Accounts:     []*account.Account{acct},
		Transactions: []*transaction.Transaction{tx},
		Sessions:     []*mining.Session{sess},
		MiningEvents: []*mining.Event{evt},
		Audit: []*audit.Entry{
			audit.New("reward.claimed", userID, map[string]any{
				"session_id": sess.ID.String(),
				"reward":     t.claimReward.String(),
			}),
		},
	}
	if err := t.store.Apply(ctx, m); err != nil {
		return nil, err
	}

	t.plugins.EmitTransactionRecorded(ctx, tx)
	t.plugins.EmitRewardClaimed(ctx, userID, t.claimReward)

	return tx, nil
}

// Mine grants a quick-mine reward, gated by the cooldown window. The
// reward comes from the configured source (pseudo-random by default).
func (t *Treasury) Mine(ctx context.Context, userID string) (*mining.Event, error) {
	unlock := t.locks.lock(userID)
	defer unlock()

	acct, err := t.ensureAccountLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	remaining, err := t.cooldownRemaining(ctx, userID)
	if err != nil {
		return nil, err
	}
	if remaining > 0 {
		return nil, fmt.Errorf("%w: %s remaining", ErrCooldownActive, remaining.Round(time.Millisecond))
	}

	now := t.now()
	reward := types.ARTC.Round(t.rewardFn())
	if !reward.IsPositive() {
		return nil, ErrInvalidAmount
	}

	acct.Balances.Add(types.ARTC, reward)
	acct.Touch()

	tx := transaction.New(userID, transaction.TypeCredit, types.ARTC, reward, "mining reward")
	evt := &mining.Event{
		ID:        id.NewMiningEventID(),
		UserID:    userID,
		Reward:    reward,
		Source:    "mine",
		CreatedAt: now,
	}
	m := &store.Mutation{
		Accounts:     []*account.Account{acct},
		Transactions: []*transaction.Transaction{tx},
		MiningEvents: []*mining.Event{evt},
		LastMine:     map[string]time.Time{userID: now},
		Audit: []*audit.Entry{
			audit.New("mining.rewarded", userID, map[string]any{
				"reward": reward.String(),
			}),
		},
	}
	if err := t.store.Apply(ctx, m); err != nil {
		return nil, err
	}

	if err := t.tracker.Mark(ctx, userID); err != nil {
		t.logger.Warn("cooldown mark failed", "user_id", userID, "error", err)
	}

	t.plugins.EmitTransactionRecorded(ctx, tx)
	t.plugins.EmitMined(ctx, userID, reward)

	cp := *evt
	return &cp, nil
}

// CooldownRemaining reports how long until the user may mine again.
func (t *Treasury) CooldownRemaining(ctx context.Context, userID string) (time.Duration, error) {
	return t.cooldownRemaining(ctx, userID)
}

// cooldownRemaining consults both the tracker and the persisted last
// mine time; the stricter of the two wins. The persisted time covers
// process restarts with a memory tracker, the tracker covers shared
// deployments.
func (t *Treasury) cooldownRemaining(ctx context.Context, userID string) (time.Duration, error) {
	remaining, err := t.tracker.Remaining(ctx, userID)
	if err != nil {
		return 0, err
	}

	last, err := t.store.LastMine(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !last.IsZero() {
		if stored := t.cooldownWindow - t.now().Sub(last); stored > remaining {
			remaining = stored
		}
	}
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// MiningEvents lists the user's reward history.
func (t *Treasury) MiningEvents(ctx context.Context, userID string, limit int) ([]*mining.Event, error) {
	return t.store.ListMiningEvents(ctx, userID, limit)
}
