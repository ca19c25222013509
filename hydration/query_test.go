package hydration_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hydration-engine/generic"
	"github.com/warp/hydration-engine/hydration"
)

func TestGetUserStats_HalfwayToGoal(t *testing.T) {
	// GIVEN: register(alice, 2000), logIntake(alice, 1000)
	f := registered(t, 2000)
	ctx := context.Background()
	require.NoError(t, f.ledger.LogIntake(ctx, "alice", 1000))

	// WHEN
	stats, err := f.query.GetUserStats(ctx, "alice")

	// THEN
	require.NoError(t, err)
	assert.Equal(t, generic.Milliliters(1000), stats.TodayIntake)
	assert.Equal(t, generic.Milliliters(1000), stats.TotalIntake)
	assert.Equal(t, generic.Milliliters(2000), stats.DailyGoal)
	assert.Equal(t, 50, stats.ProgressPct)
	assert.Equal(t, 0, stats.StreakDays)
	assert.Equal(t, day0, stats.LastUpdateDate)
	assert.False(t, stats.Stale)
}

func TestGetUserStats_ProgressClamped(t *testing.T) {
	f := registered(t, 500)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, f.ledger.LogIntake(ctx, "alice", 2000))
	}

	stats, err := f.query.GetUserStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, generic.Milliliters(10000), stats.TodayIntake)
	assert.Equal(t, 100, stats.ProgressPct)
}

func TestGetUserStats_StaleAfterDayChange(t *testing.T) {
	// GIVEN: Activity on day0, then the day changes with no new log
	f := registered(t, 2000)
	ctx := context.Background()
	require.NoError(t, f.ledger.LogIntake(ctx, "alice", 800))
	f.clock.Advance(1)

	// WHEN
	stats, err := f.query.GetUserStats(ctx, "alice")

	// THEN: The stored values are returned as-is and flagged stale
	require.NoError(t, err)
	assert.True(t, stats.Stale)
	assert.Equal(t, generic.Milliliters(800), stats.TodayIntake)
	assert.Equal(t, day0, stats.LastUpdateDate)
}

func TestGetUserStats_NotRegistered(t *testing.T) {
	f := newFixture(t)
	_, err := f.query.GetUserStats(context.Background(), "nobody")
	assert.ErrorIs(t, err, generic.ErrNotRegistered)
}

func TestGetHistoricalIntake_SparseLookup(t *testing.T) {
	// GIVEN: alice logged 1200 on day0 only
	f := registered(t, 2000)
	ctx := context.Background()
	require.NoError(t, f.ledger.LogIntake(ctx, "alice", 700))
	require.NoError(t, f.ledger.LogIntake(ctx, "alice", 500))

	// WHEN: Asking for day0 and a day that never saw activity
	day99 := day0.AddDays(99)
	amounts, err := f.query.GetHistoricalIntake(ctx, "alice", []generic.DayKey{day0, day99})

	// THEN: [1200, 0], no error
	require.NoError(t, err)
	assert.Equal(t, []generic.Milliliters{1200, 0}, amounts)
}

func TestGetHistoricalIntake_KeepsRequestOrder(t *testing.T) {
	f := registered(t, 2000)
	ctx := context.Background()
	require.NoError(t, f.ledger.LogIntake(ctx, "alice", 100))
	day1 := f.clock.Advance(1)
	require.NoError(t, f.ledger.LogIntake(ctx, "alice", 200))

	amounts, err := f.query.GetHistoricalIntake(ctx, "alice", []generic.DayKey{day1, day0, day1})
	require.NoError(t, err)
	assert.Equal(t, []generic.Milliliters{200, 100, 200}, amounts)
}

func TestGetHistoricalIntake_DateLimit(t *testing.T) {
	f := registered(t, 2000)
	ctx := context.Background()

	keys := func(n int) []generic.DayKey {
		days := make([]generic.DayKey, n)
		for i := range days {
			days[i] = day0.AddDays(-i)
		}
		return days
	}

	amounts, err := f.query.GetHistoricalIntake(ctx, "alice", keys(hydration.MaxHistoryDates))
	require.NoError(t, err)
	assert.Len(t, amounts, hydration.MaxHistoryDates)

	_, err = f.query.GetHistoricalIntake(ctx, "alice", keys(31))
	assert.ErrorIs(t, err, generic.ErrTooManyDates)
	var limitErr *generic.DateLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 31, limitErr.Requested)
}

func TestGetHistoricalIntake_NotRegistered(t *testing.T) {
	f := newFixture(t)
	_, err := f.query.GetHistoricalIntake(context.Background(), "nobody", []generic.DayKey{day0})
	assert.ErrorIs(t, err, generic.ErrNotRegistered)
}

func TestGetHistoricalIntake_Empty(t *testing.T) {
	f := registered(t, 2000)
	amounts, err := f.query.GetHistoricalIntake(context.Background(), "alice", nil)
	require.NoError(t, err)
	assert.Empty(t, amounts)
}

func TestGetRecentIntake_OldestFirst(t *testing.T) {
	// GIVEN: Activity on day0 and day2
	f := registered(t, 2000)
	ctx := context.Background()
	require.NoError(t, f.ledger.LogIntake(ctx, "alice", 300))
	f.clock.Advance(2)
	require.NoError(t, f.ledger.LogIntake(ctx, "alice", 900))

	// WHEN: Asking for the last 4 days
	recent, err := f.query.GetRecentIntake(ctx, "alice", 4)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, []hydration.DayIntake{
		{Day: day0.AddDays(-1), Amount: 0},
		{Day: day0, Amount: 300},
		{Day: day0.AddDays(1), Amount: 0},
		{Day: day0.AddDays(2), Amount: 900},
	}, recent)
}

func TestGetRecentIntake_Limits(t *testing.T) {
	f := registered(t, 2000)
	ctx := context.Background()

	recent, err := f.query.GetRecentIntake(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Empty(t, recent)

	_, err = f.query.GetRecentIntake(ctx, "alice", 31)
	assert.ErrorIs(t, err, generic.ErrTooManyDates)

	_, err = f.query.GetRecentIntake(ctx, "nobody", 7)
	assert.ErrorIs(t, err, generic.ErrNotRegistered)
}

func TestGetRecentIntake_HugeCountRejected(t *testing.T) {
	// GIVEN: A registered account
	f := registered(t, 2000)

	// WHEN: Asking for far more days than could ever be held in memory
	const huge = 1 << 50
	recent, err := f.query.GetRecentIntake(context.Background(), "alice", huge)

	// THEN: The limit error comes back instead of a panic
	assert.Nil(t, recent)
	assert.ErrorIs(t, err, generic.ErrTooManyDates)
	var limitErr *generic.DateLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, huge, limitErr.Requested)
	assert.Equal(t, hydration.MaxHistoryDates, limitErr.Max)
}

func TestGetGlobalStats_AcrossAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stats, err := f.query.GetGlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, generic.GlobalStats{}, stats)

	require.NoError(t, f.ledger.Register(ctx, "alice", 2000))
	require.NoError(t, f.ledger.Register(ctx, "bob", 3000))
	require.NoError(t, f.ledger.LogIntake(ctx, "alice", 400))
	require.NoError(t, f.ledger.LogIntake(ctx, "bob", 600))
	f.clock.Advance(1)
	require.NoError(t, f.ledger.LogIntake(ctx, "bob", 1000))

	stats, err = f.query.GetGlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, generic.GlobalStats{TotalUsers: 2, TotalWaterLogged: 2000}, stats)
}

func TestIsRegistered(t *testing.T) {
	f := registered(t, 2000)
	ctx := context.Background()

	ok, err := f.query.IsRegistered(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.query.IsRegistered(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		intake, goal generic.Milliliters
		want         int
	}{
		{0, 2000, 0},
		{1, 2000, 0},
		{19, 2000, 0},
		{20, 2000, 1},
		{1000, 2000, 50},
		{1999, 2000, 99},
		{2000, 2000, 100},
		{9000, 2000, 100},
		{1000, 3000, 33},
		{500, 0, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_of_%d", tt.intake, tt.goal), func(t *testing.T) {
			assert.Equal(t, tt.want, hydration.ProgressPercent(tt.intake, tt.goal))
		})
	}
}
