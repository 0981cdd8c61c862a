package treasury

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/artgap/treasury/account"
	"github.com/artgap/treasury/audit"
	"github.com/artgap/treasury/cooldown"
	"github.com/artgap/treasury/id"
	"github.com/artgap/treasury/notification"
	"github.com/artgap/treasury/pass"
	"github.com/artgap/treasury/plugin"
	"github.com/artgap/treasury/rate"
	"github.com/artgap/treasury/store"
	"github.com/artgap/treasury/transaction"
	"github.com/artgap/treasury/types"
)

// Default configuration values.
var (
	DefaultPlatformRate   = decimal.RequireFromString("0.05")
	DefaultNFTCostARTC    = decimal.NewFromInt(2)
	DefaultGenerationIA   = decimal.NewFromInt(1)
	DefaultGenerationARTC = decimal.NewFromInt(5)
	DefaultClaimReward    = decimal.NewFromInt(1)

	DefaultCooldown        = 60 * time.Second
	DefaultSessionDuration = 24 * time.Hour

	DefaultMineRewardMin = 1
	DefaultMineRewardMax = 5

	DefaultGenesisFreeNFT = 3
)

// RandomReward returns a reward source drawing a whole ARTC amount
// uniformly from [min, max]. It is the default quick-mine source.
func RandomReward(min, max int) func() decimal.Decimal {
	if max < min {
		max = min
	}
	span := max - min + 1
	return func() decimal.Decimal {
		return decimal.NewFromInt(int64(min + rand.Intn(span)))
	}
}

// DefaultStarterBalances returns the balances granted on lazy account
// creation.
func DefaultStarterBalances() types.Balances {
	return types.Balances{
		types.ARTC: decimal.NewFromInt(10),
		types.PI:   decimal.Zero,
		types.IA:   decimal.NewFromInt(100),
	}
}

// defaultPassPrices returns the USD price per (tier, period).
func defaultPassPrices() map[pass.Tier]map[pass.Period]decimal.Decimal {
	return map[pass.Tier]map[pass.Period]decimal.Decimal{
		pass.TierGenesis: {
			pass.PeriodMonthly: decimal.Zero,
			pass.PeriodAnnual:  decimal.Zero,
		},
		pass.TierAurum: {
			pass.PeriodMonthly: decimal.RequireFromString("9.99"),
			pass.PeriodAnnual:  decimal.NewFromInt(99),
		},
		pass.TierEternum: {
			pass.PeriodMonthly: decimal.RequireFromString("29.99"),
			pass.PeriodAnnual:  decimal.NewFromInt(299),
		},
	}
}

// Treasury is the main ledger and entitlement engine.
type Treasury struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	locks   *keyedMutex
	rates   *rate.Table
	tracker cooldown.Tracker

	// Configuration
	starter         types.Balances
	platformRate    decimal.Decimal
	platformAccount string
	networkAccount  string
	nftCostARTC     decimal.Decimal
	generationIA    decimal.Decimal
	generationARTC  decimal.Decimal
	claimReward     decimal.Decimal
	cooldownWindow  time.Duration
	sessionDuration time.Duration
	passPrices      map[pass.Tier]map[pass.Period]decimal.Decimal
	genesisFreeNFT  int
	rewardFn        func() decimal.Decimal
	now             func() time.Time
}

// New creates a new Treasury instance on the given store.
func New(s store.Store, opts ...Option) *Treasury {
	t := &Treasury{
		store:           s,
		plugins:         plugin.NewRegistry(),
		logger:          slog.Default(),
		locks:           newKeyedMutex(),
		rates:           rate.New(),
		starter:         DefaultStarterBalances(),
		platformRate:    DefaultPlatformRate,
		platformAccount: "platform",
		networkAccount:  "network",
		nftCostARTC:     DefaultNFTCostARTC,
		generationIA:    DefaultGenerationIA,
		generationARTC:  DefaultGenerationARTC,
		claimReward:     DefaultClaimReward,
		cooldownWindow:  DefaultCooldown,
		sessionDuration: DefaultSessionDuration,
		passPrices:      defaultPassPrices(),
		genesisFreeNFT:  DefaultGenesisFreeNFT,
		now:             func() time.Time { return time.Now().UTC() },
	}
	t.rewardFn = RandomReward(DefaultMineRewardMin, DefaultMineRewardMax)

	for _, opt := range opts {
		opt(t)
	}

	if t.tracker == nil {
		t.tracker = cooldown.NewMemory(t.cooldownWindow)
	}

	return t
}

// Option configures a Treasury instance.
type Option func(*Treasury)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Treasury) {
		t.logger = logger
		t.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(t *Treasury) {
		_ = t.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithRateTable sets the conversion table.
func WithRateTable(table *rate.Table) Option {
	return func(t *Treasury) { t.rates = table }
}

// WithStarterBalances sets the balances granted on account creation.
func WithStarterBalances(b types.Balances) Option {
	return func(t *Treasury) { t.starter = b.Clone() }
}

// WithPlatformRate sets the platform fee fraction for fee-split sales.
func WithPlatformRate(r decimal.Decimal) Option {
	return func(t *Treasury) { t.platformRate = r }
}

// WithFeeAccounts sets the user IDs credited with platform and network
// fees on fee-split sales.
func WithFeeAccounts(platform, network string) Option {
	return func(t *Treasury) {
		t.platformAccount = platform
		t.networkAccount = network
	}
}

// WithNFTCost sets the ARTC cost of a paid NFT creation.
func WithNFTCost(artc decimal.Decimal) Option {
	return func(t *Treasury) { t.nftCostARTC = artc }
}

// WithGenerationCosts sets the IA cost of a generation and the ARTC
// fallback charge.
func WithGenerationCosts(ia, artc decimal.Decimal) Option {
	return func(t *Treasury) {
		t.generationIA = ia
		t.generationARTC = artc
	}
}

// WithClaimReward sets the ARTC credited when a session is claimed.
func WithClaimReward(amount decimal.Decimal) Option {
	return func(t *Treasury) { t.claimReward = amount }
}

// WithCooldown sets the quick-mine cooldown window.
func WithCooldown(d time.Duration) Option {
	return func(t *Treasury) { t.cooldownWindow = d }
}

// WithSessionDuration sets the mining session length.
func WithSessionDuration(d time.Duration) Option {
	return func(t *Treasury) { t.sessionDuration = d }
}

// WithCooldownTracker sets the cooldown tracker. Use the Redis tracker
// when multiple instances share one ledger.
func WithCooldownTracker(tr cooldown.Tracker) Option {
	return func(t *Treasury) { t.tracker = tr }
}

// WithPassPrice overrides the USD price of one (tier, period) pair.
func WithPassPrice(tier pass.Tier, period pass.Period, usd decimal.Decimal) Option {
	return func(t *Treasury) {
		if t.passPrices[tier] == nil {
			t.passPrices[tier] = make(map[pass.Period]decimal.Decimal)
		}
		t.passPrices[tier][period] = usd
	}
}

// WithGenesisAllowance sets the free-NFT allowance granted with a
// genesis pass.
func WithGenesisAllowance(n int) Option {
	return func(t *Treasury) { t.genesisFreeNFT = n }
}

// WithRewardSource sets the quick-mine reward source. Used in tests to
// make rewards deterministic.
func WithRewardSource(fn func() decimal.Decimal) Option {
	return func(t *Treasury) { t.rewardFn = fn }
}

// WithClock sets the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(t *Treasury) { t.now = now }
}

// Start migrates the store and initializes plugins.
func (t *Treasury) Start(ctx context.Context) error {
	if err := t.store.Migrate(ctx); err != nil {
		return err
	}

	t.plugins.EmitInit(ctx, t)

	t.logger.Info("treasury started",
		"cooldown", t.cooldownWindow,
		"session_duration", t.sessionDuration,
		"platform_rate", t.platformRate,
	)

	return nil
}

// Stop shuts down the Treasury.
func (t *Treasury) Stop() error {
	ctx := context.Background()
	t.plugins.EmitShutdown(ctx)

	return t.store.Close()
}

// Rates returns the conversion table.
func (t *Treasury) Rates() *rate.Table { return t.rates }

// Plugins returns the plugin registry.
func (t *Treasury) Plugins() *plugin.Registry { return t.plugins }

// AuthorizeOwner verifies that the authenticated actor owns the account
// it is operating on. Callers exposing balance-mutating operations must
// run this check before invoking them.
func AuthorizeOwner(actor, owner string) error {
	if actor != owner {
		return ErrForbidden
	}
	return nil
}

// ──────────────────────────────────────────────────
// Accounts
// ──────────────────────────────────────────────────

// EnsureAccount returns the account for userID, creating it with the
// starter balances on first reference.
func (t *Treasury) EnsureAccount(ctx context.Context, userID string) (*account.Account, error) {
	if userID == "" {
		return nil, NewValidationError("user_id", "must not be empty")
	}

	unlock := t.locks.lock(userID)
	defer unlock()

	return t.ensureAccountLocked(ctx, userID)
}

// ensureAccountLocked is EnsureAccount minus locking. Callers must hold
// the user's lock.
func (t *Treasury) ensureAccountLocked(ctx context.Context, userID string) (*account.Account, error) {
	acct, err := t.store.GetAccount(ctx, userID)
	if err == nil {
		return acct, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	acct = account.New(userID, t.starter)
	m := &store.Mutation{
		Accounts: []*account.Account{acct},
		Audit: []*audit.Entry{
			audit.New("account.created", userID, map[string]any{
				"account_id": acct.ID.String(),
			}),
		},
	}
	if err := t.store.Apply(ctx, m); err != nil {
		return nil, err
	}

	t.logger.Info("account created", "user_id", userID, "account_id", acct.ID)
	t.plugins.EmitAccountCreated(ctx, acct)

	return acct.Clone(), nil
}

// Accounts lists every account, ordered by user ID.
func (t *Treasury) Accounts(ctx context.Context) ([]*account.Account, error) {
	return t.store.ListAccounts(ctx)
}

// Balances returns the full balance set for userID, creating the account
// if needed.
func (t *Treasury) Balances(ctx context.Context, userID string) (types.Balances, error) {
	acct, err := t.EnsureAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return acct.Balances, nil
}

// Valuation values the user's balances in USD, optionally applying the
// network fee to the net figure.
func (t *Treasury) Valuation(ctx context.Context, userID string, applyNetworkFee bool) (rate.Valuation, error) {
	balances, err := t.Balances(ctx, userID)
	if err != nil {
		return rate.Valuation{}, err
	}
	return t.rates.BalancesToUSD(balances, applyNetworkFee), nil
}

// ──────────────────────────────────────────────────
// Ledger operations
// ──────────────────────────────────────────────────

func validateMovement(currency types.Currency, amount decimal.Decimal) error {
	if !currency.Valid() {
		return ErrUnsupportedCurrency
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Credit adds amount to the user's balance in the given currency.
func (t *Treasury) Credit(ctx context.Context, userID string, currency types.Currency, amount decimal.Decimal, description string) (*transaction.Transaction, error) {
	if err := validateMovement(currency, amount); err != nil {
		return nil, err
	}

	unlock := t.locks.lock(userID)
	defer unlock()

	acct, err := t.ensureAccountLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	acct.Balances.Add(currency, amount)
	acct.Touch()

	tx := transaction.New(userID, transaction.TypeCredit, currency, amount, description)
	m := &store.Mutation{
		Accounts:     []*account.Account{acct},
		Transactions: []*transaction.Transaction{tx},
		Audit: []*audit.Entry{
			audit.New("credit", userID, map[string]any{
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

// Debit removes amount from the user's balance in the given currency.
// Fails with ErrInsufficientFunds if the balance does not cover it.
func (t *Treasury) Debit(ctx context.Context, userID string, currency types.Currency, amount decimal.Decimal, description string) (*transaction.Transaction, error) {
	if err := validateMovement(currency, amount); err != nil {
		return nil, err
	}

	unlock := t.locks.lock(userID)
	defer unlock()

	acct, err := t.ensureAccountLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !acct.Balances.Covers(currency, amount) {
		return nil, fmt.Errorf("%w: %s %s available, %s requested",
			ErrInsufficientFunds, acct.Balances.Get(currency), currency, amount)
	}

	acct.Balances.Sub(currency, amount)
	acct.Touch()

	tx := transaction.New(userID, transaction.TypeDebit, currency, amount.Neg(), description)
	m := &store.Mutation{
		Accounts:     []*account.Account{acct},
		Transactions: []*transaction.Transaction{tx},
		Audit: []*audit.Entry{
			audit.New("debit", userID, map[string]any{
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

// TransferResult carries the paired records of a transfer.
type TransferResult struct {
	Out *transaction.Transaction
	In  *transaction.Transaction
}

// Transfer moves amount between two users. Self-transfers are rejected.
func (t *Treasury) Transfer(ctx context.Context, fromUserID, toUserID string, currency types.Currency, amount decimal.Decimal) (*TransferResult, error) {
	if err := validateMovement(currency, amount); err != nil {
		return nil, err
	}
	if fromUserID == toUserID {
		return nil, ErrSameAccount
	}

	unlock := t.locks.lock(fromUserID, toUserID)
	defer unlock()

	from, err := t.ensureAccountLocked(ctx, fromUserID)
	if err != nil {
		return nil, err
	}
	to, err := t.ensureAccountLocked(ctx, toUserID)
	if err != nil {
		return nil, err
	}

	if !from.Balances.Covers(currency, amount) {
		return nil, fmt.Errorf("%w: %s %s available, %s requested",
			ErrInsufficientFunds, from.Balances.Get(currency), currency, amount)
	}

	from.Balances.Sub(currency, amount)
	from.Touch()
	to.Balances.Add(currency, amount)
	to.Touch()

	outTx := transaction.New(fromUserID, transaction.TypeTransferOut, currency, amount.Neg(),
		fmt.Sprintf("transfer to %s", toUserID))
	inTx := transaction.New(toUserID, transaction.TypeTransferIn, currency, amount,
		fmt.Sprintf("transfer from %s", fromUserID))
	note := notification.New(toUserID, "Funds received",
		fmt.Sprintf("You received %s %s from %s", amount, currency, fromUserID))

	m := &store.Mutation{
		Accounts:      []*account.Account{from, to},
		Transactions:  []*transaction.Transaction{outTx, inTx},
		Notifications: []*notification.Notification{note},
		Audit: []*audit.Entry{
			audit.New("transfer", fromUserID, map[string]any{
				"to":       toUserID,
				"currency": currency,
				"amount":   amount.String(),
			}),
		},
	}
	if err := t.store.Apply(ctx, m); err != nil {
		return nil, err
	}

	t.plugins.EmitTransactionRecorded(ctx, outTx)
	t.plugins.EmitTransactionRecorded(ctx, inTx)
	t.plugins.EmitTransferExecuted(ctx, fromUserID, toUserID, amount)
	t.plugins.EmitNotificationSent(ctx, note)

	return &TransferResult{Out: outTx, In: inTx}, nil
}

// SaleBreakdown is the fee split of one sale.
type SaleBreakdown struct {
	Currency       types.Currency  `json:"currency"`
	Gross          decimal.Decimal `json:"gross"`
	PlatformFee    decimal.Decimal `json:"platform_fee"`
	NetworkFee     decimal.Decimal `json:"network_fee"`
	SellerProceeds decimal.Decimal `json:"seller_proceeds"`
}

// FeeSplitTransfer settles a sale: the buyer pays gross, the platform
// and network fee accounts receive their cuts, and the seller receives
// exactly the remainder, so the split is zero-sum.
func (t *Treasury) FeeSplitTransfer(ctx context.Context, buyerUserID, sellerUserID string, currency types.Currency, gross decimal.Decimal) (*SaleBreakdown, error) {
	if err := validateMovement(currency, gross); err != nil {
		return nil, err
	}
	if buyerUserID == sellerUserID {
		return nil, ErrSameAccount
	}

	platformFee := types.RoundFee(gross.Mul(t.platformRate))
	networkFee := types.RoundFee(gross.Mul(t.rates.NetworkRate()))
	sellerProceeds := gross.Sub(platformFee).Sub(networkFee)
	if !sellerProceeds.IsPositive() {
		return nil, NewValidationError("gross", "fees exceed the sale amount")
	}

	unlock := t.locks.lock(buyerUserID, sellerUserID, t.platformAccount, t.networkAccount)
	defer unlock()

	// A party may itself be one of the fee accounts. Resolving every
	// userID through one map guarantees a collision shares a single
	// clone, so both legs land on the same balance set.
	parties := make(map[string]*account.Account, 4)
	resolve := func(userID string) (*account.Account, error) {
		if acct, ok := parties[userID]; ok {
			return acct, nil
		}
		acct, err := t.ensureAccountLocked(ctx, userID)
		if err != nil {
			return nil, err
		}
		parties[userID] = acct
		return acct, nil
	}

	buyer, err := resolve(buyerUserID)
	if err != nil {
		return nil, err
	}
	seller, err := resolve(sellerUserID)
	if err != nil {
		return nil, err
	}
	platform, err := resolve(t.platformAccount)
	if err != nil {
		return nil, err
	}
	network, err := resolve(t.networkAccount)
	if err != nil {
		return nil, err
	}

	if !buyer.Balances.Covers(currency, gross) {
		return nil, fmt.Errorf("%w: %s %s available, %s requested",
			ErrInsufficientFunds, buyer.Balances.Get(currency), currency, gross)
	}

	buyer.Balances.Sub(currency, gross)
	buyer.Touch()
	seller.Balances.Add(currency, sellerProceeds)
	seller.Touch()
	platform.Balances.Add(currency, platformFee)
	platform.Touch()
	network.Balances.Add(currency, networkFee)
	network.Touch()

	breakdown := &SaleBreakdown{
		Currency:       currency,
		Gross:          gross,
		PlatformFee:    platformFee,
		NetworkFee:     networkFee,
		SellerProceeds: sellerProceeds,
	}

	buyerTx := transaction.New(buyerUserID, transaction.TypeTransferOut, currency, gross.Neg(),
		fmt.Sprintf("sale payment to %s", sellerUserID))
	sellerTx := transaction.New(sellerUserID, transaction.TypeTransferIn, currency, sellerProceeds,
		fmt.Sprintf("sale proceeds from %s", buyerUserID))
	platformTx := transaction.New(t.platformAccount, transaction.TypeCredit, currency, platformFee,
		"platform fee")
	networkTx := transaction.New(t.networkAccount, transaction.TypeCredit, currency, networkFee,
		"network fee")
	note := notification.New(sellerUserID, "Sale settled",
		fmt.Sprintf("You received %s %s from a sale to %s", sellerProceeds, currency, buyerUserID))

	accounts := make([]*account.Account, 0, len(parties))
	seen := make(map[string]bool, len(parties))
	for _, acct := range []*account.Account{buyer, seller, platform, network} {
		if seen[acct.UserID] {
			continue
		}
		seen[acct.UserID] = true
		accounts = append(accounts, acct)
	}

	m := &store.Mutation{
		Accounts:      accounts,
		Transactions:  []*transaction.Transaction{buyerTx, sellerTx, platformTx, networkTx},
		Notifications: []*notification.Notification{note},
		Audit: []*audit.Entry{
			audit.New("sale.settled", buyerUserID, map[string]any{
				"seller":          sellerUserID,
				"currency":        currency,
				"gross":           gross.String(),
				"platform_fee":    platformFee.String(),
				"network_fee":     networkFee.String(),
				"seller_proceeds": sellerProceeds.String(),
			}),
		},
	}
	if err := t.store.Apply(ctx, m); err != nil {
		return nil, err
	}

	for _, tx := range m.Transactions {
		t.plugins.EmitTransactionRecorded(ctx, tx)
	}
	t.plugins.EmitSaleSettled(ctx, buyerUserID, sellerUserID, breakdown)
	t.plugins.EmitNotificationSent(ctx, note)

	return breakdown, nil
}

// Recharge sets the user's ARTC balance to an absolute amount. The
// transaction records the new balance, not a delta.
func (t *Treasury) Recharge(ctx context.Context, userID string, amount decimal.Decimal) (*transaction.Transaction, error) {
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	unlock := t.locks.lock(userID)
	defer unlock()

	acct, err := t.ensureAccountLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	previous := acct.Balances.Get(types.ARTC)
	acct.Balances.Set(types.ARTC, amount)
	acct.Touch()

	tx := transaction.New(userID, transaction.TypeRecharge, types.ARTC, amount,
		fmt.Sprintf("recharge from %s", previous))
	m := &store.Mutation{
		Accounts:     []*account.Account{acct},
		Transactions: []*transaction.Transaction{tx},
		Audit: []*audit.Entry{
			audit.New("recharge", userID, map[string]any{
				"previous": previous.String(),
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

// Deposit records a pending deposit. Balances are untouched until the
// deposit is confirmed.
func (t *Treasury) Deposit(ctx context.Context, userID string, currency types.Currency, amount decimal.Decimal, description string) (*transaction.Transaction, error) {
	if err := validateMovement(currency, amount); err != nil {
		return nil, err
	}

	unlock := t.locks.lock(userID)
	defer unlock()

	if _, err := t.ensureAccountLocked(ctx, userID); err != nil {
		return nil, err
	}

	tx := transaction.NewPending(userID, transaction.TypeDeposit, currency, amount, description)
	note := notification.New(userID, "Deposit pending",
		fmt.Sprintf("Your deposit of %s %s is awaiting confirmation", amount, currency))
	m := &store.Mutation{
		Transactions:  []*transaction.Transaction{tx},
		Notifications: []*notification.Notification{note},
		Audit: []*audit.Entry{
			audit.New("deposit.requested", userID, map[string]any{
				"currency": currency,
				"amount":   amount.String(),
				"tx_id":    tx.ID.String(),
			}),
		},
	}
	if err := t.store.Apply(ctx, m); err != nil {
		return nil, err
	}

	t.plugins.EmitTransactionRecorded(ctx, tx)
	t.plugins.EmitDepositRequested(ctx, tx)
	t.plugins.EmitNotificationSent(ctx, note)

	return tx, nil
}

// ConfirmDeposit confirms a pending deposit, crediting the balance and
// appending a confirmation record.
func (t *Treasury) ConfirmDeposit(ctx context.Context, txID id.TransactionID) (*transaction.Transaction, error) {
	pending, err := t.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if pending.Type != transaction.TypeDeposit || pending.Status != transaction.StatusPending {
		return nil, ErrDepositNotPending
	}

	userID := pending.AccountID
	unlock := t.locks.lock(userID)
	defer unlock()

	// Re-read under the lock: a concurrent confirmation may have won.
	pending, err = t.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if pending.Status != transaction.StatusPending {
		return nil, ErrDepositNotPending
	}

	acct, err := t.ensureAccountLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	acct.Balances.Add(pending.Currency, pending.Amount)
	acct.Touch()

	confirmTx := transaction.New(userID, transaction.TypeDepositConfirm, pending.Currency, pending.Amount,
		fmt.Sprintf("deposit %s confirmed", pending.ID))
	note := notification.New(userID, "Deposit confirmed",
		fmt.Sprintf("Your deposit of %s %s has been credited", pending.Amount, pending.Currency))

	m := &store.Mutation{
		Accounts:      []*account.Account{acct},
		Transactions:  []*transaction.Transaction{confirmTx},
		TxStatus:      map[string]transaction.Status{pending.ID.String(): transaction.StatusConfirmed},
		Notifications: []*notification.Notification{note},
		Audit: []*audit.Entry{
			audit.New("deposit.confirmed", userID, map[string]any{
				"currency": pending.Currency,
				"amount":   pending.Amount.String(),
				"tx_id":    pending.ID.String(),
			}),
		},
	}
	if err := t.store.Apply(ctx, m); err != nil {
		return nil, err
	}

	t.plugins.EmitTransactionRecorded(ctx, confirmTx)
	t.plugins.EmitDepositConfirmed(ctx, confirmTx)
	t.plugins.EmitNotificationSent(ctx, note)

	return confirmTx, nil
}

// MintNFT records an NFT for the user with a zero-amount mint
// transaction. Charging, when applicable, is the caller's concern; see
// CreateNFT for the pass-aware path.
func (t *Treasury) MintNFT(ctx context.Context, userID, title string, metadata map[string]string) (*account.NFT, error) {
	if userID == "" {
		return nil, NewValidationError("user_id", "must not be empty")
	}

	unlock := t.locks.lock(userID)
	defer unlock()

	return t.mintNFTLocked(ctx, userID, title, metadata, nil)
}

// mintNFTLocked appends the NFT plus mint record, merging any extra
// mutation parts (pass updates, charges) into the same atomic unit.
func (t *Treasury) mintNFTLocked(ctx context.Context, userID, title string, metadata map[string]string, extra *store.Mutation) (*account.NFT, error) {
	if _, err := t.ensureAccountLocked(ctx, userID); err != nil {
		return nil, err
	}

	nft := &account.NFT{
		Entity:   types.NewEntity(),
		ID:       id.NewNFTID(),
		Owner:    userID,
		Title:    title,
		Metadata: metadata,
	}
	tx := transaction.New(userID, transaction.TypeNFTMint, types.ARTC, decimal.Zero,
		fmt.Sprintf("minted %s", nft.ID))

	m := extra
	if m == nil {
		m = &store.Mutation{}
	}
	m.NFTs = append(m.NFTs, nft)
	m.Transactions = append(m.Transactions, tx)
	m.Audit = append(m.Audit, audit.New("nft.minted", userID, map[string]any{
		"nft_id": nft.ID.String(),
		"title":  title,
	}))

	if err := t.store.Apply(ctx, m); err != nil {
		return nil, err
	}

	for _, rec := range m.Transactions {
		t.plugins.EmitTransactionRecorded(ctx, rec)
	}
	return nft, nil
}

// ──────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────

// Transactions lists the user's ledger records in append order.
func (t *Treasury) Transactions(ctx context.Context, userID string, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	return t.store.ListTransactions(ctx, userID, opts)
}

// NFTs lists the NFTs owned by a user.
func (t *Treasury) NFTs(ctx context.Context, owner string) ([]*account.NFT, error) {
	return t.store.ListNFTs(ctx, owner)
}

// AuditTrail lists audit entries.
func (t *Treasury) AuditTrail(ctx context.Context, opts audit.ListOpts) ([]*audit.Entry, error) {
	return t.store.ListAudit(ctx, opts)
}
