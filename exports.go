package treasury

import "github.com/artgap/treasury/types"

// Re-export common types for convenience so users don't have to import types package.

// Currency is re-exported from types package.
type Currency = types.Currency

// Balances is re-exported from types package.
type Balances = types.Balances

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export the currency set
var (
	USD  = types.USD
	ARTC = types.ARTC
	PI   = types.PI
	EUR  = types.EUR
	CNY  = types.CNY
	RUB  = types.RUB
	GOLD = types.GOLD
	IA   = types.IA
)

// Re-export constructors
var (
	NewEntity   = types.NewEntity
	NewBalances = types.NewBalances
)
