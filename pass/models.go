// Package pass defines time-boxed entitlement passes.
package pass

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/artgap/treasury/id"
	"github.com/artgap/treasury/types"
)

// Tier names a pass tier. Tiers differ in consumption rules: genesis
// carries a finite free-NFT allowance, aurum and eternum are reusable
// without decrement while valid.
type Tier string

const (
	TierGenesis Tier = "genesis"
	TierAurum   Tier = "aurum"
	TierEternum Tier = "eternum"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierGenesis, TierAurum, TierEternum:
		return true
	}
	return false
}

// Period is the billing period of a pass grant.
type Period string

const (
	PeriodMonthly Period = "monthly"
	PeriodAnnual  Period = "annual"
)

// Duration returns the validity window for the period.
// Monthly passes run 30 days, annual passes 365.
func (p Period) Duration() time.Duration {
	if p == PeriodAnnual {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

// Limits carries tier-specific consumption allowances.
// FreeNFT is nil for tiers without a finite allowance.
type Limits struct {
	FreeNFT *int `json:"free_nft,omitempty"`
}

// Pass is a granted entitlement. Usable while now is in [Start, End)
// and Active is true; genesis additionally requires FreeNFT > 0.
// Passes never transition back to an earlier state.
type Pass struct {
	types.Entity
	ID         id.PassID       `json:"id"`
	Tier       Tier            `json:"tier"`
	Start      time.Time       `json:"start"`
	End        time.Time       `json:"end"`
	Period     Period          `json:"period"`
	Limits     Limits          `json:"limits"`
	Active     bool            `json:"active"`
	PriceUSD   decimal.Decimal `json:"price_usd"`
	Currency   types.Currency  `json:"currency"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
}

// ValidAt reports whether the pass is usable at the given instant,
// ignoring tier-specific allowances.
func (p *Pass) ValidAt(now time.Time) bool {
	return p.Active && !now.Before(p.Start) && now.Before(p.End)
}

// Consumable reports whether the pass can satisfy one consumption at the
// given instant, including the genesis allowance check.
func (p *Pass) Consumable(now time.Time) bool {
	if !p.ValidAt(now) {
		return false
	}
	if p.Tier == TierGenesis {
		return p.Limits.FreeNFT != nil && *p.Limits.FreeNFT > 0
	}
	return true
}

// Decrementing reports whether a use of this pass consumes allowance.
func (p *Pass) Decrementing() bool { return p.Tier == TierGenesis }
