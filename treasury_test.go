package treasury_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artgap/treasury"
	"github.com/artgap/treasury/audit"
	"github.com/artgap/treasury/store/memory"
	"github.com/artgap/treasury/transaction"
	"github.com/artgap/treasury/types"
)

// fakeClock is a shared, advanceable time source for engine tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestEngine(t *testing.T, opts ...treasury.Option) *treasury.Treasury {
	t.Helper()
	eng := treasury.New(memory.New(), opts...)
	require.NoError(t, eng.Start(context.Background()))
	t.Cleanup(func() { _ = eng.Stop() })
	return eng
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestEnsureAccountStarterBalances(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	acct, err := eng.EnsureAccount(ctx, "alice")
	require.NoError(t, err)

	assert.True(t, acct.Balances.Get(types.ARTC).Equal(dec("10")))
	assert.True(t, acct.Balances.Get(types.PI).Equal(decimal.Zero))
	assert.True(t, acct.Balances.Get(types.IA).Equal(dec("100")))

	// A second call returns the same account without re-granting.
	again, err := eng.EnsureAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, acct.ID.String(), again.ID.String())
	assert.True(t, again.Balances.Get(types.ARTC).Equal(dec("10")))
}

func TestCreditDebit(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Credit(ctx, "alice", types.ARTC, dec("5"), "bonus")
	require.NoError(t, err)

	balances, err := eng.Balances(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, balances.Get(types.ARTC).Equal(dec("15")))

	_, err = eng.Debit(ctx, "alice", types.ARTC, dec("15"), "spend")
	require.NoError(t, err)

	balances, err = eng.Balances(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, balances.Get(types.ARTC).IsZero())

	_, err = eng.Debit(ctx, "alice", types.ARTC, dec("1"), "overdraw")
	assert.ErrorIs(t, err, treasury.ErrInsufficientFunds)
}

func TestMovementValidation(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Credit(ctx, "alice", types.ARTC, dec("-1"), "")
	assert.ErrorIs(t, err, treasury.ErrInvalidAmount)

	_, err = eng.Credit(ctx, "alice", types.ARTC, decimal.Zero, "")
	assert.ErrorIs(t, err, treasury.ErrInvalidAmount)

	_, err = eng.Credit(ctx, "alice", types.Currency("DOGE"), dec("1"), "")
	assert.ErrorIs(t, err, treasury.ErrUnsupportedCurrency)
}

func TestTransfer(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	res, err := eng.Transfer(ctx, "alice", "bob", types.ARTC, dec("4"))
	require.NoError(t, err)
	assert.True(t, res.Out.Amount.Equal(dec("-4")))
	assert.True(t, res.In.Amount.Equal(dec("4")))

	aliceBal, err := eng.Balances(ctx, "alice")
	require.NoError(t, err)
	bobBal, err := eng.Balances(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, aliceBal.Get(types.ARTC).Equal(dec("6")))
	assert.True(t, bobBal.Get(types.ARTC).Equal(dec("14")))

	// Conservation: the starter grants aside, nothing is minted or burned.
	total := aliceBal.Get(types.ARTC).Add(bobBal.Get(types.ARTC))
	assert.True(t, total.Equal(dec("20")))

	// The recipient is notified.
	notes, err := eng.Notifications(ctx, "bob", true)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Funds received", notes[0].Title)
}

func TestTransferRejectsSelf(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Transfer(context.Background(), "alice", "alice", types.ARTC, dec("1"))
	assert.ErrorIs(t, err, treasury.ErrSameAccount)
}

func TestTransferInsufficientFundsLeavesStateUntouched(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Transfer(ctx, "alice", "bob", types.ARTC, dec("50"))
	require.ErrorIs(t, err, treasury.ErrInsufficientFunds)

	aliceBal, err := eng.Balances(ctx, "alice")
	require.NoError(t, err)
	bobBal, err := eng.Balances(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, aliceBal.Get(types.ARTC).Equal(dec("10")))
	assert.True(t, bobBal.Get(types.ARTC).Equal(dec("10")))

	txs, err := eng.Transactions(ctx, "alice", transaction.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestFeeSplitTransfer(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Recharge(ctx, "buyer", dec("100"))
	require.NoError(t, err)

	b, err := eng.FeeSplitTransfer(ctx, "buyer", "seller", types.ARTC, dec("10"))
	require.NoError(t, err)

	assert.True(t, b.PlatformFee.Equal(dec("0.5")), "platform fee: %s", b.PlatformFee)
	assert.True(t, b.NetworkFee.Equal(dec("0.12")), "network fee: %s", b.NetworkFee)
	assert.True(t, b.SellerProceeds.Equal(dec("9.38")), "seller proceeds: %s", b.SellerProceeds)

	// The split is exactly zero-sum.
	sum := b.PlatformFee.Add(b.NetworkFee).Add(b.SellerProceeds)
	assert.True(t, sum.Equal(b.Gross))

	buyerBal, err := eng.Balances(ctx, "buyer")
	require.NoError(t, err)
	sellerBal, err := eng.Balances(ctx, "seller")
	require.NoError(t, err)
	platformBal, err := eng.Balances(ctx, "platform")
	require.NoError(t, err)
	networkBal, err := eng.Balances(ctx, "network")
	require.NoError(t, err)

	assert.True(t, buyerBal.Get(types.ARTC).Equal(dec("90")))
	assert.True(t, sellerBal.Get(types.ARTC).Equal(dec("19.38")))
	assert.True(t, platformBal.Get(types.ARTC).Equal(dec("10.5")))
	assert.True(t, networkBal.Get(types.ARTC).Equal(dec("10.12")))
}

func TestFeeSplitTransferWithFeeAccountAsParty(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	artc := func(user string) decimal.Decimal {
		t.Helper()
		balances, err := eng.Balances(ctx, user)
		require.NoError(t, err)
		return balances.Get(types.ARTC)
	}

	// The platform account buys: it pays the gross and collects its own
	// fee on the same balance.
	_, err := eng.Recharge(ctx, "platform", dec("100"))
	require.NoError(t, err)

	_, err = eng.FeeSplitTransfer(ctx, "platform", "carol", types.ARTC, dec("10"))
	require.NoError(t, err)

	assert.True(t, artc("platform").Equal(dec("90.5")), "platform: %s", artc("platform"))
	assert.True(t, artc("carol").Equal(dec("19.38")), "carol: %s", artc("carol"))
	assert.True(t, artc("network").Equal(dec("10.12")), "network: %s", artc("network"))

	// Starting totals were platform 100 plus two starter balances of 10.
	total := artc("platform").Add(artc("carol")).Add(artc("network"))
	assert.True(t, total.Equal(dec("120")), "total: %s", total)

	// The network account sells: proceeds and its fee land together.
	_, err = eng.Recharge(ctx, "dave", dec("50"))
	require.NoError(t, err)

	_, err = eng.FeeSplitTransfer(ctx, "dave", "network", types.ARTC, dec("10"))
	require.NoError(t, err)

	assert.True(t, artc("dave").Equal(dec("40")), "dave: %s", artc("dave"))
	assert.True(t, artc("network").Equal(dec("19.62")), "network: %s", artc("network"))
	assert.True(t, artc("platform").Equal(dec("91")), "platform: %s", artc("platform"))
}

func TestRechargeSetsAbsoluteBalance(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Recharge(ctx, "alice", dec("50"))
	require.NoError(t, err)

	balances, err := eng.Balances(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, balances.Get(types.ARTC).Equal(dec("50")))

	// A lower recharge shrinks the balance; it is a set, not an add.
	_, err = eng.Recharge(ctx, "alice", dec("10"))
	require.NoError(t, err)

	balances, err = eng.Balances(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, balances.Get(types.ARTC).Equal(dec("10")))
}

func TestDepositFlow(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	pending, err := eng.Deposit(ctx, "alice", types.PI, dec("3"), "external transfer")
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusPending, pending.Status)

	// Pending deposits leave balances untouched.
	balances, err := eng.Balances(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, balances.Get(types.PI).IsZero())

	confirm, err := eng.ConfirmDeposit(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, transaction.TypeDepositConfirm, confirm.Type)

	balances, err = eng.Balances(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, balances.Get(types.PI).Equal(dec("3")))

	// A deposit confirms exactly once.
	_, err = eng.ConfirmDeposit(ctx, pending.ID)
	assert.ErrorIs(t, err, treasury.ErrDepositNotPending)
}

func TestMintNFT(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	nft, err := eng.MintNFT(ctx, "alice", "sunset", map[string]string{"style": "oil"})
	require.NoError(t, err)
	assert.Equal(t, "alice", nft.Owner)

	owned, err := eng.NFTs(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, owned, 1)

	// The free mint leaves balances untouched but records the mint.
	balances, err := eng.Balances(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, balances.Get(types.ARTC).Equal(dec("10")))

	txs, err := eng.Transactions(ctx, "alice", transaction.ListOpts{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, transaction.TypeNFTMint, txs[0].Type)
	assert.True(t, txs[0].Amount.IsZero())
}

func TestChargeGeneration(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	// IA is preferred.
	tx, err := eng.ChargeGeneration(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, types.IA, tx.Currency)
	assert.True(t, tx.Amount.Equal(dec("-1")))

	// Drain IA; the ARTC fallback kicks in.
	_, err = eng.Debit(ctx, "alice", types.IA, dec("99"), "drain")
	require.NoError(t, err)

	tx, err = eng.ChargeGeneration(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, types.ARTC, tx.Currency)
	assert.True(t, tx.Amount.Equal(dec("-5")))

	// Neither balance covers it.
	_, err = eng.Recharge(ctx, "alice", decimal.Zero)
	require.NoError(t, err)
	_, err = eng.ChargeGeneration(ctx, "alice")
	assert.ErrorIs(t, err, treasury.ErrInsufficientFunds)
}

func TestValuation(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	// Starter balances: 10 ARTC (0.10 USD) + 100 IA (5 USD) = 5.10 gross.
	val, err := eng.Valuation(ctx, "alice", false)
	require.NoError(t, err)
	assert.True(t, val.USDGross.Equal(dec("5.1")), "gross: %s", val.USDGross)

	withFee, err := eng.Valuation(ctx, "alice", true)
	require.NoError(t, err)
	assert.True(t, withFee.USDNet.Equal(dec("5.0388")), "net: %s", withFee.USDNet)
}

func TestAuditTrail(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Credit(ctx, "alice", types.ARTC, dec("5"), "")
	require.NoError(t, err)
	_, err = eng.Transfer(ctx, "alice", "bob", types.ARTC, dec("1"))
	require.NoError(t, err)

	entries, err := eng.AuditTrail(ctx, audit.ListOpts{UserID: "alice"})
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, e := range entries {
		seen[e.Type] = true
	}
	assert.True(t, seen["account.created"])
	assert.True(t, seen["credit"])
	assert.True(t, seen["transfer"])

	// Type filter narrows the listing.
	credits, err := eng.AuditTrail(ctx, audit.ListOpts{Type: "credit"})
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.Equal(t, "alice", credits[0].UserID)
}

func TestConcurrentTransfersConserveTotal(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Recharge(ctx, "alice", dec("100"))
	require.NoError(t, err)
	_, err = eng.Recharge(ctx, "bob", dec("100"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = eng.Transfer(ctx, "alice", "bob", types.ARTC, dec("1"))
		}()
		go func() {
			defer wg.Done()
			_, _ = eng.Transfer(ctx, "bob", "alice", types.ARTC, dec("1"))
		}()
	}
	wg.Wait()

	aliceBal, err := eng.Balances(ctx, "alice")
	require.NoError(t, err)
	bobBal, err := eng.Balances(ctx, "bob")
	require.NoError(t, err)

	total := aliceBal.Get(types.ARTC).Add(bobBal.Get(types.ARTC))
	assert.True(t, total.Equal(dec("200")), "total after churn: %s", total)
	assert.False(t, aliceBal.Get(types.ARTC).IsNegative())
	assert.False(t, bobBal.Get(types.ARTC).IsNegative())
}
