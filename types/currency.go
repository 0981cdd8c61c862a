package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency names a token tracked per account. The set is fixed; balances
// for unknown currencies are rejected at the engine boundary.
type Currency string

// The enumerated currency set.
const (
	USD  Currency = "USD"
	ARTC Currency = "ARTC"
	PI   Currency = "PI"
	EUR  Currency = "EUR"
	CNY  Currency = "CNY"
	RUB  Currency = "RUB"
	GOLD Currency = "GOLD"
	IA   Currency = "IA"
)

// Currencies returns the full currency set in display order.
func Currencies() []Currency {
	return []Currency{USD, ARTC, PI, EUR, CNY, RUB, GOLD, IA}
}

// Valid reports whether c is one of the enumerated currencies.
func (c Currency) Valid() bool {
	switch c {
	case USD, ARTC, PI, EUR, CNY, RUB, GOLD, IA:
		return true
	}
	return false
}

// ParseCurrency parses a currency code, case-insensitively.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("types: unsupported currency %q", s)
	}
	return c, nil
}

// WholeUnit reports whether the currency is traded in whole units only.
// PI has no fractional representation; everything else keeps 2 decimals.
func (c Currency) WholeUnit() bool { return c == PI }

// Round applies the per-currency rounding policy to an amount.
func (c Currency) Round(amt decimal.Decimal) decimal.Decimal {
	if c.WholeUnit() {
		return amt.Round(0)
	}
	return amt.Round(2)
}

// RoundUSD rounds a USD aggregation to 4 decimals.
func RoundUSD(amt decimal.Decimal) decimal.Decimal { return amt.Round(4) }

// RoundFee rounds a fee leg to 6 decimals.
func RoundFee(amt decimal.Decimal) decimal.Decimal { return amt.Round(6) }

// Balances maps each currency to its current balance. Absent keys read
// as zero. The mutation helpers do not enforce non-negativity; callers
// check sufficiency before debiting.
type Balances map[Currency]decimal.Decimal

// NewBalances returns an empty balance set.
func NewBalances() Balances {
	return make(Balances, len(Currencies()))
}

// Get returns the balance for a currency, zero if absent.
func (b Balances) Get(c Currency) decimal.Decimal {
	if v, ok := b[c]; ok {
		return v
	}
	return decimal.Zero
}

// Set replaces the balance for a currency.
func (b Balances) Set(c Currency, amt decimal.Decimal) {
	b[c] = amt
}

// Add increments the balance for a currency.
func (b Balances) Add(c Currency, amt decimal.Decimal) {
	b[c] = b.Get(c).Add(amt)
}

// Sub decrements the balance for a currency. Callers must have verified
// sufficiency first; Sub does not clamp.
func (b Balances) Sub(c Currency, amt decimal.Decimal) {
	b[c] = b.Get(c).Sub(amt)
}

// Covers reports whether the balance for c is at least amt.
func (b Balances) Covers(c Currency, amt decimal.Decimal) bool {
	return b.Get(c).GreaterThanOrEqual(amt)
}

// Clone returns an independent copy of the balance set.
func (b Balances) Clone() Balances {
	out := make(Balances, len(b))
	for c, v := range b {
		out[c] = v
	}
	return out
}

// Equal reports whether two balance sets hold the same amounts,
// treating absent keys as zero.
func (b Balances) Equal(other Balances) bool {
	seen := map[Currency]bool{}
	for c := range b {
		seen[c] = true
	}
	for c := range other {
		seen[c] = true
	}
	for c := range seen {
		if !b.Get(c).Equal(other.Get(c)) {
			return false
		}
	}
	return true
}
