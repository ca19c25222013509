package hydration

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/hydration-engine/generic"
)

// =============================================================================
// QUERY - Read-only projections over the ledger
// =============================================================================

// Query reads ledger records. It never writes.
type Query struct {
	store generic.Store
	clock generic.Clock
}

func NewQuery(store generic.Store, clock generic.Clock) *Query {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	return &Query{store: store, clock: clock}
}

// UserStats is the current projection of one account.
type UserStats struct {
	Account        generic.AccountID
	DailyGoal      generic.Milliliters
	TodayIntake    generic.Milliliters
	TotalIntake    generic.Milliliters
	StreakDays     int
	ProgressPct    int
	LastUpdateDate generic.DayKey

	// Stale is true when the clock has moved past LastUpdateDate. The
	// intake and streak then describe LastUpdateDate, not today, until the
	// next LogIntake runs the rollover.
	Stale bool
}

// DayIntake is one day of history.
type DayIntake struct {
	Day    generic.DayKey
	Amount generic.Milliliters
}

// GetUserStats returns the account's stats with progress clamped to 100.
func (q *Query) GetUserStats(ctx context.Context, account generic.AccountID) (UserStats, error) {
	user, err := q.registered(ctx, account)
	if err != nil {
		return UserStats{}, err
	}

	return UserStats{
		Account:        user.Account,
		DailyGoal:      user.DailyGoal,
		TodayIntake:    user.TodayIntake,
		TotalIntake:    user.TotalIntake,
		StreakDays:     user.StreakDays,
		ProgressPct:    ProgressPercent(user.TodayIntake, user.DailyGoal),
		LastUpdateDate: user.LastUpdateDate,
		Stale:          q.clock.Today().After(user.LastUpdateDate),
	}, nil
}

// GetHistoricalIntake returns one amount per requested day, in request order.
// Days with no recorded intake yield 0.
func (q *Query) GetHistoricalIntake(ctx context.Context, account generic.AccountID, days []generic.DayKey) ([]generic.Milliliters, error) {
	if _, err := q.registered(ctx, account); err != nil {
		return nil, err
	}
	if err := validateDateCount(len(days)); err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return []generic.Milliliters{}, nil
	}

	amounts, err := q.store.DailyIntakes(ctx, account, days)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return amounts, nil
}

// GetRecentIntake returns the last n days ending today, oldest first.
// n is bounded before anything is allocated.
func (q *Query) GetRecentIntake(ctx context.Context, account generic.AccountID, n int) ([]DayIntake, error) {
	if _, err := q.registered(ctx, account); err != nil {
		return nil, err
	}
	if err := validateDateCount(n); err != nil {
		return nil, err
	}
	if n <= 0 {
		return []DayIntake{}, nil
	}

	today := q.clock.Today()
	days := make([]generic.DayKey, n)
	for i := range days {
		days[i] = today.AddDays(i - n + 1)
	}

	amounts, err := q.store.DailyIntakes(ctx, account, days)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	result := make([]DayIntake, n)
	for i, day := range days {
		result[i] = DayIntake{Day: day, Amount: amounts[i]}
	}
	return result, nil
}

// GetGlobalStats returns the shared counters. Both are maintained
// incrementally; no account enumeration happens here.
func (q *Query) GetGlobalStats(ctx context.Context) (generic.GlobalStats, error) {
	return q.store.GlobalStats(ctx)
}

// IsRegistered reports whether the account has a record.
func (q *Query) IsRegistered(ctx context.Context, account generic.AccountID) (bool, error) {
	user, err := q.store.GetUser(ctx, account)
	if err != nil {
		return false, err
	}
	return user != nil && user.IsRegistered, nil
}

func (q *Query) registered(ctx context.Context, account generic.AccountID) (*generic.User, error) {
	return loadRegistered(ctx, q.store, account)
}

// ProgressPercent returns floor(intake*100/goal), clamped to [0, 100].
// A non-positive goal yields 0.
func ProgressPercent(intake, goal generic.Milliliters) int {
	if goal <= 0 || intake <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(intake)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(goal))).
		Floor()
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		return 100
	}
	return int(pct.IntPart())
}
