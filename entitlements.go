package treasury

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/artgap/treasury/account"
	"github.com/artgap/treasury/audit"
	"github.com/artgap/treasury/id"
	"github.com/artgap/treasury/pass"
	"github.com/artgap/treasury/store"
	"github.com/artgap/treasury/transaction"
	"github.com/artgap/treasury/types"
)

// PassPrice resolves the USD price of a (tier, period) pair.
func (t *Treasury) PassPrice(tier pass.Tier, period pass.Period) (decimal.Decimal, error) {
	if !tier.Valid() {
		return decimal.Zero, NewValidationError("tier", fmt.Sprintf("unknown tier %q", tier))
	}
	prices, ok := t.passPrices[tier]
	if !ok {
		return decimal.Zero, NewValidationError("tier", fmt.Sprintf("no prices for tier %q", tier))
	}
	price, ok := prices[period]
	if !ok {
		return decimal.Zero, NewValidationError("period", fmt.Sprintf("no %s price for tier %q", period, tier))
	}
	return price, nil
}

// GrantPass purchases a pass for the user. Free tiers (genesis) grant
// immediately; paid tiers convert the USD price into the purchase
// currency and debit it in the same atomic mutation.
func (t *Treasury) GrantPass(ctx context.Context, userID string, tier pass.Tier, period pass.Period, currency types.Currency) (*pass.Pass, error) {
	priceUSD, err := t.PassPrice(tier, period)
	if err != nil {
		return nil, err
	}
	if !currency.Valid() {
		return nil, ErrUnsupportedCurrency
	}

	unlock := t.locks.lock(userID)
	defer unlock()

	acct, err := t.ensureAccountLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := t.now()
	paid := decimal.Zero
	if priceUSD.IsPositive() {
		paid, err = t.rates.Convert(priceUSD, types.USD, currency)
		if err != nil {
			return nil, ErrUnsupportedCurrency
		}
		if !acct.Balances.Covers(currency, paid) {
			return nil, fmt.Errorf("%w: %s %s available, %s needed for %s pass",
				ErrInsufficientFunds, acct.Balances.Get(currency), currency, paid, tier)
		}
		acct.Balances.Sub(currency, paid)
	}

	p := &pass.Pass{
		Entity:     types.NewEntity(),
		ID:         id.NewPassID(),
		Tier:       tier,
		Start:      now,
		End:        now.Add(period.Duration()),
		Period:     period,
		Active:     true,
		PriceUSD:   priceUSD,
		Currency:   currency,
		PaidAmount: paid,
	}
	if tier == pass.TierGenesis {
		allowance := t.genesisFreeNFT
		p.Limits.FreeNFT = &allowance
	}

	acct.Passes = append(acct.Passes, p)
	acct.Touch()

	m := &store.Mutation{
		Accounts: []*account.Account{acct},
		Audit: []*audit.Entry{
			audit.New("pass.granted", userID, map[string]any{
				"pass_id": p.ID.String(),
				"tier":    tier,
				"period":  period,
				"paid":    paid.String(),
			}),
		},
	}
	if priceUSD.IsPositive() {
		tx := transaction.New(userID, transaction.TypePass, currency, paid.Neg(),
			fmt.Sprintf("%s pass (%s)", tier, period))
		m.Transactions = append(m.Transactions, tx)
	}

	if err := t.store.Apply(ctx, m); err != nil {
		return nil, err
	}

	for _, tx := range m.Transactions {
		t.plugins.EmitTransactionRecorded(ctx, tx)
	}
	t.plugins.EmitPassGranted(ctx, userID, p)
	t.logger.Info("pass granted", "user_id", userID, "tier", tier, "period", period)

	cp := *p
	return &cp, nil
}

// ConsumeResult reports how an action was covered by a pass.
type ConsumeResult struct {
	Pass        *pass.Pass
	Decremented bool
	Remaining   *int // allowance left after a decrement, nil otherwise
}

// TryConsumeForAction covers one action with the user's passes, scanning
// them in grant order. Genesis passes decrement their allowance; aurum
// and eternum cover the action without decrement. Returns ErrNoUsablePass
// when nothing applies.
func (t *Treasury) TryConsumeForAction(ctx context.Context, userID, action string) (*ConsumeResult, error) {
	unlock := t.locks.lock(userID)
	defer unlock()

	acct, err := t.ensureAccountLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	res, m := t.consumePass(acct, action)
	if res == nil {
		return nil, ErrNoUsablePass
	}

	if err := t.store.Apply(ctx, m); err != nil {
		return nil, err
	}

	for _, tx := range m.Transactions {
		t.plugins.EmitTransactionRecorded(ctx, tx)
	}
	t.plugins.EmitPassConsumed(ctx, userID, res.Pass)

	return res, nil
}

// consumePass finds the first consumable pass on the account and builds
// the mutation covering one action with it. Returns nil when no pass
// applies. The caller must hold the user's lock.
func (t *Treasury) consumePass(acct *account.Account, action string) (*ConsumeResult, *store.Mutation) {
	now := t.now()
	for _, p := range acct.Passes {
		if !p.Consumable(now) {
			continue
		}

		res := &ConsumeResult{Pass: p}
		txType := transaction.TypePassUse
		if p.Decrementing() {
			left := *p.Limits.FreeNFT - 1
			p.Limits.FreeNFT = &left
			p.Touch()
			res.Decremented = true
			res.Remaining = &left
			txType = transaction.TypePassConsume
		}
		acct.Touch()

		tx := transaction.New(acct.UserID, txType, types.ARTC, decimal.Zero,
			fmt.Sprintf("%s covered by %s pass", action, p.Tier))
		m := &store.Mutation{
			Accounts:     []*account.Account{acct},
			Transactions: []*transaction.Transaction{tx},
			Audit: []*audit.Entry{
				audit.New("pass.consumed", acct.UserID, map[string]any{
					"pass_id":     p.ID.String(),
					"tier":        p.Tier,
					"action":      action,
					"decremented": res.Decremented,
				}),
			},
		}
		cp := *p
		res.Pass = &cp
		return res, m
	}
	return nil, nil
}

// CreateNFT creates an NFT for the user: a usable pass covers the mint,
// otherwise the configured ARTC cost is debited. The charge (or pass
// decrement) and the mint land in one atomic mutation.
func (t *Treasury) CreateNFT(ctx context.Context, userID, title string, metadata map[string]string) (*account.NFT, error) {
	if userID == "" {
		return nil, NewValidationError("user_id", "must not be empty")
	}

	unlock := t.locks.lock(userID)
	defer unlock()

	acct, err := t.ensureAccountLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	res, m := t.consumePass(acct, "nft mint")
	if res == nil {
		// No pass covers it: fall back to the ARTC charge.
		if !acct.Balances.Covers(types.ARTC, t.nftCostARTC) {
			return nil, fmt.Errorf("%w: %s ARTC available, %s needed to mint",
				ErrInsufficientFunds, acct.Balances.Get(types.ARTC), t.nftCostARTC)
		}
		acct.Balances.Sub(types.ARTC, t.nftCostARTC)
		acct.Touch()

		charge := transaction.New(userID, transaction.TypeDebit, types.ARTC, t.nftCostARTC.Neg(),
			"nft mint charge")
		m = &store.Mutation{
			Accounts:     []*account.Account{acct},
			Transactions: []*transaction.Transaction{charge},
		}
	}

	nft, err := t.mintNFTLocked(ctx, userID, title, metadata, m)
	if err != nil {
		return nil, err
	}
	if res != nil {
		t.plugins.EmitPassConsumed(ctx, userID, res.Pass)
	}
	return nft, nil
}

// ChargeGeneration charges one content generation: 1 IA when the balance
// covers it, otherwise the ARTC fallback price.
func (t *Treasury) ChargeGeneration(ctx context.Context, userID string) (*transaction.Transaction, error) {
	unlock := t.locks.lock(userID)
	defer unlock()

	acct, err := t.ensureAccountLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	currency := types.IA
	amount := t.generationIA
	if !acct.Balances.Covers(currency, amount) {
		currency = types.ARTC
		amount = t.generationARTC
		if !acct.Balances.Covers(currency, amount) {
			return nil, fmt.Errorf("%w: generation needs %s IA or %s ARTC",
				ErrInsufficientFunds, t.generationIA, t.generationARTC)
		}
	}

	acct.Balances.Sub(currency, amount)
	acct.Touch()

	tx := transaction.New(userID, transaction.TypeDebit, currency, amount.Neg(), "generation charge")
	m := &store.Mutation{
		Accounts:     []*account.Account{acct},
		Transactions: []*transaction.Transaction{tx},
		Audit: []*audit.Entry{
			audit.New("generation.charged", userID, map[string]any{
				"currency": currency,
				"amount":   amount.String(),
			}),
		},
	}
	if err := t.store.Apply(ctx, m); err != nil {
		return nil, err
	}

	t.plugins.EmitTransactionRecorded(ctx, tx)
	return tx, nil
}

// Passes returns the user's passes in grant order.
func (t *Treasury) Passes(ctx context.Context, userID string) ([]*pass.Pass, error) {
	acct, err := t.EnsureAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return acct.Passes, nil
}

// UsablePass returns the first pass that could cover an action right
// now, or ErrNoUsablePass.
func (t *Treasury) UsablePass(ctx context.Context, userID string) (*pass.Pass, error) {
	acct, err := t.EnsureAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := t.now()
	for _, p := range acct.Passes {
		if p.Consumable(now) {
			return p, nil
		}
	}
	return nil, ErrNoUsablePass
}
