/*
Package generic provides the core primitives of the hydration ledger engine.

PURPOSE:
  This package contains the records, keys and contracts shared by every
  layer: the domain rules in hydration/, the stores in generic/store and
  store/sqlite, and the HTTP surface in api/. It knows nothing about goal
  bounds or streak rules; those live in the hydration package.

KEY CONCEPTS IN THIS FILE (types.go):
  - AccountID: Opaque identity key supplied by the identity provider
  - Milliliters: Volume quantity, always whole milliliters
  - User: The one-per-account ledger record
  - HistoryKey: Composite (account, day) key for daily history
  - GlobalStats: Process-wide monotonic counters

DESIGN PRINCIPLES:
  1. Integer volumes: Milliliters are int64, never floats
  2. Composite keys: History is keyed by (account, day), not a map of maps
  3. Type Safety: AccountID, DayKey and Milliliters are distinct types
  4. No deletion: User records are created once and never removed

USAGE:
  user := generic.User{
      Account:        "acct-1",
      DailyGoal:      2000,
      LastUpdateDate: clock.Today(),
      IsRegistered:   true,
  }
  key := generic.HistoryKey{Account: user.Account, Day: user.LastUpdateDate}

SEE ALSO:
  - time.go: DayKey and Clock
  - store.go: Persistence contracts
  - events.go: Notifications emitted by the ledger
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS AND QUANTITIES
// =============================================================================

// AccountID is the opaque, comparable key of an account.
// The engine performs no authentication; whoever supplies it is trusted.
type AccountID string

// Milliliters is a whole-milliliter water volume.
type Milliliters int64

// Liters returns the volume in liters with exact decimal precision.
func (m Milliliters) Liters() decimal.Decimal {
	return decimal.New(int64(m), -3)
}

// =============================================================================
// USER - One record per registered account
// =============================================================================

// User is the per-account ledger record.
//
// INVARIANTS (for a registered account):
//   - DailyGoal > 0
//   - TodayIntake <= TotalIntake
//   - TotalIntake never decreases
//   - LastUpdateDate never moves backwards
type User struct {
	Account        AccountID
	DailyGoal      Milliliters
	TodayIntake    Milliliters
	TotalIntake    Milliliters
	StreakDays     int
	LastUpdateDate DayKey

	// LastCreditedDate is the day already counted into StreakDays by the
	// same-day path. Zero when no day has been credited that way.
	LastCreditedDate DayKey

	IsRegistered bool
}

// =============================================================================
// DAILY HISTORY
// =============================================================================

// HistoryKey addresses one day of one account's intake history.
type HistoryKey struct {
	Account AccountID
	Day     DayKey
}

// =============================================================================
// GLOBAL STATS - Shared append-only counters
// =============================================================================

// GlobalStats holds counters shared across all accounts.
// Both values only ever grow.
type GlobalStats struct {
	TotalUsers       int64
	TotalWaterLogged Milliliters
}
