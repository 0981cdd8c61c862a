// Package treasury provides a composable multi-currency ledger, pass
// entitlement and mining engine for Go applications.
//
// Treasury is designed as a library, not a service. Import it directly
// into your Go application. It provides:
//
//   - Per-user multi-currency balances with exact decimal arithmetic
//   - An append-only transaction ledger covering every balance change
//   - Peer transfers and fee-split sale settlement
//   - Pending deposits with explicit confirmation
//   - Time-boxed entitlement passes (genesis, aurum, eternum)
//   - Mining sessions and cooldown-gated quick-mine rewards
//   - Pluggable stores (memory, file, SQLite, MongoDB)
//   - A plugin system with an audit-trail bridge built in
//
// # Quick Start
//
// Create a treasury instance with your preferred store:
//
//	import (
//	    "github.com/artgap/treasury"
//	    "github.com/artgap/treasury/store/sqlite"
//	)
//
//	st, err := sqlite.Open("treasury.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	t := treasury.New(st)
//
//	if err := t.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer t.Stop()
//
// # Core Concepts
//
// Accounts are created lazily with starter balances on first reference:
//
//	acct, err := t.EnsureAccount(ctx, "user-1")
//
// Balance movements are explicit operations that each append a
// transaction record:
//
//	tx, err := t.Credit(ctx, "user-1", types.ARTC, decimal.NewFromInt(5), "bonus")
//	res, err := t.Transfer(ctx, "user-1", "user-2", types.ARTC, decimal.NewFromInt(2))
//
// Passes cover actions that would otherwise cost tokens:
//
//	p, err := t.GrantPass(ctx, "user-1", pass.TierGenesis, pass.PeriodMonthly, types.USD)
//	nft, err := t.CreateNFT(ctx, "user-1", "sunset", nil)
//
// Mining grants rewards through timed sessions or cooldown-gated
// quick mines:
//
//	sess, err := t.StartSession(ctx, "user-1")
//	evt, err := t.Mine(ctx, "user-1")
//
// # Exactness
//
// All monetary calculations use shopspring/decimal so no precision is
// lost. Each currency carries a rounding policy: PI trades in whole
// units, everything else keeps 2 decimals, USD aggregations keep 4.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	acct_01h2xcejqtf2nbrexx3vqjhp41  // Account ID
//	txn_01h2xcejqtf2nbrexx3vqjhp41   // Transaction ID
//	pass_01h455vb4pex5vsknk084sn02q  // Pass ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package treasury
