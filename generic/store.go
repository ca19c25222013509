/*
store.go - Persistence contracts for ledger records

PURPOSE:
  Defines the interface between the domain rules and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  Store:   Read side (users, daily history, global counters)
  Tx:      Write side, only reachable inside a transaction
  TxStore: Store + WithTx for atomic read-modify-write

LOGICAL LAYOUT:
  users          keyed by AccountID
  daily history  keyed by HistoryKey (account, day)
  global stats   single record

ATOMICITY:
  Every mutating ledger operation runs inside exactly one WithTx call.
  WithTx is the serialization point: two operations on the same account
  never interleave, and the global counters never lose an increment.
  If fn returns an error nothing it wrote is kept.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Durable SQLite store
  - generic/store/memory.go: In-memory store for tests and dev

EXAMPLE:
  err := store.WithTx(ctx, func(tx generic.Tx) error {
      user, err := tx.GetUser(ctx, "acct-1")
      if err != nil {
          return err
      }
      user.TodayIntake += 250
      return tx.PutUser(ctx, *user)
  })

SEE ALSO:
  - hydration/ledger.go: The only writer
*/
package generic

import "context"

// =============================================================================
// STORE - Read side
// =============================================================================

// Store reads ledger records.
type Store interface {
	// GetUser returns the account's record, or (nil, nil) if it doesn't exist.
	GetUser(ctx context.Context, account AccountID) (*User, error)

	// DailyIntakes returns one amount per requested day, in request order.
	// Unseen days are 0.
	DailyIntakes(ctx context.Context, account AccountID, days []DayKey) ([]Milliliters, error)

	// GlobalStats returns the shared counters.
	GlobalStats(ctx context.Context) (GlobalStats, error)
}

// =============================================================================
// TX - Write side inside a transaction
// =============================================================================

// Tx is the view of the store handed to WithTx callbacks.
// Reads through a Tx observe the transaction's own pending writes.
type Tx interface {
	Store

	// PutUser creates or replaces the account's record.
	PutUser(ctx context.Context, user User) error

	// AddDailyIntake adds amount to the day's history entry, creating it if needed.
	AddDailyIntake(ctx context.Context, key HistoryKey, amount Milliliters) error

	// IncrementUsers adds one to GlobalStats.TotalUsers.
	IncrementUsers(ctx context.Context) error

	// AddWaterLogged adds amount to GlobalStats.TotalWaterLogged.
	AddWaterLogged(ctx context.Context, amount Milliliters) error
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Tx) error) error
}
