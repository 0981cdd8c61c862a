// Package rate implements the static conversion table between the
// currencies tracked by Treasury. The table is pure: construction fixes
// the rates and every method is safe for concurrent use without locking.
package rate

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/artgap/treasury/types"
)

// ErrUnsupportedCurrency is returned when a conversion names a currency
// that has no configured rate.
var ErrUnsupportedCurrency = errors.New("rate: unsupported currency")

// DefaultNetworkRate is the network fee fraction applied to USD
// aggregations (1.2%).
var DefaultNetworkRate = decimal.RequireFromString("0.012")

// defaultUSDValue is the USD value of one unit of each currency.
func defaultUSDValue() map[types.Currency]decimal.Decimal {
	return map[types.Currency]decimal.Decimal{
		types.USD:  decimal.NewFromInt(1),
		types.ARTC: decimal.RequireFromString("0.01"),
		types.PI:   decimal.RequireFromString("0.005"),
		types.EUR:  decimal.RequireFromString("1.1"),
		types.CNY:  decimal.RequireFromString("0.14"),
		types.RUB:  decimal.RequireFromString("0.012"),
		types.GOLD: decimal.NewFromInt(1900),
		types.IA:   decimal.RequireFromString("0.05"),
	}
}

// Table converts amounts between currencies using per-unit USD values.
type Table struct {
	usdValue    map[types.Currency]decimal.Decimal
	networkRate decimal.Decimal
}

// Option configures a Table.
type Option func(*Table)

// WithRate overrides the USD value of one unit of c.
func WithRate(c types.Currency, usdValue decimal.Decimal) Option {
	return func(t *Table) {
		t.usdValue[c] = usdValue
	}
}

// WithRates overrides multiple USD values at once.
func WithRates(rates map[types.Currency]decimal.Decimal) Option {
	return func(t *Table) {
		for c, v := range rates {
			t.usdValue[c] = v
		}
	}
}

// WithNetworkRate overrides the network fee fraction.
func WithNetworkRate(r decimal.Decimal) Option {
	return func(t *Table) {
		t.networkRate = r
	}
}

// New builds a Table from the default rates plus any overrides.
func New(opts ...Option) *Table {
	t := &Table{
		usdValue:    defaultUSDValue(),
		networkRate: DefaultNetworkRate,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NetworkRate returns the configured network fee fraction.
func (t *Table) NetworkRate() decimal.Decimal { return t.networkRate }

// USDValue returns the USD value of one unit of c.
func (t *Table) USDValue(c types.Currency) (decimal.Decimal, error) {
	v, ok := t.usdValue[c]
	if !ok {
		return decimal.Zero, ErrUnsupportedCurrency
	}
	return v, nil
}

// Convert converts amount from one currency to another, applying the
// per-currency rounding policy to the result (whole units for PI,
// 2 decimals otherwise).
func (t *Table) Convert(amount decimal.Decimal, from, to types.Currency) (decimal.Decimal, error) {
	fromRate, ok := t.usdValue[from]
	if !ok {
		return decimal.Zero, ErrUnsupportedCurrency
	}
	toRate, ok := t.usdValue[to]
	if !ok || toRate.IsZero() {
		return decimal.Zero, ErrUnsupportedCurrency
	}

	out := amount.Mul(fromRate).Div(toRate)
	return to.Round(out), nil
}

// DisplayPrices converts amount from the base currency into each currency
// of order. Currencies without a configured rate are omitted.
func (t *Table) DisplayPrices(amount decimal.Decimal, base types.Currency, order []types.Currency) map[types.Currency]decimal.Decimal {
	out := make(map[types.Currency]decimal.Decimal, len(order))
	for _, c := range order {
		v, err := t.Convert(amount, base, c)
		if err != nil {
			continue
		}
		out[c] = v
	}
	return out
}

// CurrencyValue is the USD valuation of a single balance.
type CurrencyValue struct {
	Amount decimal.Decimal `json:"amount"`
	Rate   decimal.Decimal `json:"rate"`
	USD    decimal.Decimal `json:"usd"`
}

// Valuation is the USD valuation of a full balance set.
type Valuation struct {
	Per         map[types.Currency]CurrencyValue `json:"per"`
	USDGross    decimal.Decimal                  `json:"usd_gross"`
	USDNet      decimal.Decimal                  `json:"usd_net"`
	NetworkRate decimal.Decimal                  `json:"network_rate"`
}

// BalancesToUSD values every balance in USD. Gross and net aggregate to
// 4 decimals; net applies the network fee when requested. Currencies
// without a configured rate value at zero.
func (t *Table) BalancesToUSD(balances types.Balances, applyNetworkFee bool) Valuation {
	per := make(map[types.Currency]CurrencyValue, len(balances))
	gross := decimal.Zero

	for c, amt := range balances {
		r := t.usdValue[c] // zero-value rate for unknown currencies
		usd := amt.Mul(r)
		per[c] = CurrencyValue{Amount: amt, Rate: r, USD: usd}
		gross = gross.Add(usd)
	}

	net := gross
	if applyNetworkFee {
		net = gross.Mul(decimal.NewFromInt(1).Sub(t.networkRate))
	}

	return Valuation{
		Per:         per,
		USDGross:    types.RoundUSD(gross),
		USDNet:      types.RoundUSD(net),
		NetworkRate: t.networkRate,
	}
}
