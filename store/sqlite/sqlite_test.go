package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/warp/hydration-engine/generic"
	"github.com/warp/hydration-engine/hydration"
	"github.com/warp/hydration-engine/store/sqlite"
)

var day0 = generic.NewDayKey(2025, time.March, 10)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew_FreshDatabaseHasZeroStats(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	stats, err := s.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, generic.GlobalStats{}, stats)

	u, err := s.GetUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestNew_ReopenFileKeepsData(t *testing.T) {
	// GIVEN: A file database with one user
	path := filepath.Join(t.TempDir(), "hydration.db")
	ctx := context.Background()

	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.WithTx(ctx, func(tx generic.Tx) error {
		if err := tx.PutUser(ctx, generic.User{Account: "alice", DailyGoal: 2000, LastUpdateDate: day0, IsRegistered: true}); err != nil {
			return err
		}
		return tx.IncrementUsers(ctx)
	}))
	require.NoError(t, s.Close())

	// WHEN: Reopening runs migrations again
	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	// THEN: Nothing is lost and the counter row is not duplicated
	u, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, generic.Milliliters(2000), u.DailyGoal)

	stats, err := s.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalUsers)
}

func TestPutUser_RoundTripsEveryField(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	want := generic.User{
		Account:          "alice",
		DailyGoal:        2500,
		TodayIntake:      700,
		TotalIntake:      9100,
		StreakDays:       4,
		LastUpdateDate:   day0,
		LastCreditedDate: day0.AddDays(-1),
		IsRegistered:     true,
	}

	require.NoError(t, s.WithTx(ctx, func(tx generic.Tx) error {
		return tx.PutUser(ctx, want)
	}))

	got, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestAddDailyIntake_Accumulates(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	key := generic.HistoryKey{Account: "alice", Day: day0}

	require.NoError(t, s.WithTx(ctx, func(tx generic.Tx) error {
		require.NoError(t, tx.AddDailyIntake(ctx, key, 300))
		require.NoError(t, tx.AddDailyIntake(ctx, key, 450))

		// Reads inside the transaction see pending writes
		h, err := tx.DailyIntakes(ctx, key.Account, []generic.DayKey{key.Day})
		require.NoError(t, err)
		assert.Equal(t, []generic.Milliliters{750}, h)
		return nil
	}))

	h, err := s.DailyIntakes(ctx, key.Account, []generic.DayKey{key.Day})
	require.NoError(t, err)
	assert.Equal(t, []generic.Milliliters{750}, h)
}

func TestDailyIntakes_RequestOrderAndGaps(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	day1 := day0.AddDays(1)

	require.NoError(t, s.WithTx(ctx, func(tx generic.Tx) error {
		require.NoError(t, tx.AddDailyIntake(ctx, generic.HistoryKey{Account: "alice", Day: day0}, 100))
		require.NoError(t, tx.AddDailyIntake(ctx, generic.HistoryKey{Account: "alice", Day: day1}, 200))
		return tx.AddDailyIntake(ctx, generic.HistoryKey{Account: "bob", Day: day0}, 999)
	}))

	amounts, err := s.DailyIntakes(ctx, "alice", []generic.DayKey{day1, day0.AddDays(-5), day0, day1})
	require.NoError(t, err)
	assert.Equal(t, []generic.Milliliters{200, 0, 100, 200}, amounts)

	amounts, err = s.DailyIntakes(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Empty(t, amounts)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	// GIVEN: A committed user
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.WithTx(ctx, func(tx generic.Tx) error {
		return tx.PutUser(ctx, generic.User{Account: "alice", DailyGoal: 2000, LastUpdateDate: day0, IsRegistered: true})
	}))

	// WHEN: A transaction writes everything and then fails
	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx generic.Tx) error {
		require.NoError(t, tx.PutUser(ctx, generic.User{Account: "alice", DailyGoal: 9999, LastUpdateDate: day0, IsRegistered: true}))
		require.NoError(t, tx.AddDailyIntake(ctx, generic.HistoryKey{Account: "alice", Day: day0}, 700))
		require.NoError(t, tx.AddWaterLogged(ctx, 700))
		require.NoError(t, tx.IncrementUsers(ctx))
		return boom
	})

	// THEN: The error surfaces and no write is visible
	assert.ErrorIs(t, err, boom)

	u, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, generic.Milliliters(2000), u.DailyGoal)

	h, err := s.DailyIntakes(ctx, "alice", []generic.DayKey{day0})
	require.NoError(t, err)
	assert.Equal(t, []generic.Milliliters{0}, h)

	stats, err := s.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, generic.GlobalStats{}, stats)
}

func TestReset(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.WithTx(ctx, func(tx generic.Tx) error {
		require.NoError(t, tx.PutUser(ctx, generic.User{Account: "alice", DailyGoal: 2000, LastUpdateDate: day0, IsRegistered: true}))
		require.NoError(t, tx.AddDailyIntake(ctx, generic.HistoryKey{Account: "alice", Day: day0}, 100))
		require.NoError(t, tx.AddWaterLogged(ctx, 100))
		return tx.IncrementUsers(ctx)
	}))

	require.NoError(t, s.Reset(ctx))

	u, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, u)
	stats, err := s.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, generic.GlobalStats{}, stats)
}

// =============================================================================
// LEDGER ON SQLITE
// =============================================================================

func TestLedger_StreakScenarioOnSQLite(t *testing.T) {
	// GIVEN: alice registered with goal 2000
	s := newStore(t)
	ctx := context.Background()
	clock := generic.NewManualClock(day0)
	recorder := generic.NewRecorder()
	ledger := hydration.NewLedger(s, hydration.WithClock(clock), hydration.WithPublisher(recorder))
	query := hydration.NewQuery(s, clock)
	require.NoError(t, ledger.Register(ctx, "alice", 2000))

	// WHEN: Goal met on day0, then one log on day1
	require.NoError(t, ledger.LogIntake(ctx, "alice", 1500))
	require.NoError(t, ledger.LogIntake(ctx, "alice", 500))
	clock.Advance(1)
	require.NoError(t, ledger.LogIntake(ctx, "alice", 250))

	// THEN: The streak started on day0 is not counted twice
	stats, err := query.GetUserStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.StreakDays)
	assert.Equal(t, generic.Milliliters(250), stats.TodayIntake)
	assert.Equal(t, generic.Milliliters(2250), stats.TotalIntake)

	history, err := query.GetHistoricalIntake(ctx, "alice", []generic.DayKey{day0, day0.AddDays(1)})
	require.NoError(t, err)
	assert.Equal(t, []generic.Milliliters{2000, 250}, history)

	global, err := query.GetGlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, generic.GlobalStats{TotalUsers: 1, TotalWaterLogged: 2250}, global)
}

func TestLedger_ConcurrentLogsOnSQLite(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	clock := generic.NewManualClock(day0)
	ledger := hydration.NewLedger(s, hydration.WithClock(clock))

	accounts := []generic.AccountID{"a", "b", "c"}
	for _, acct := range accounts {
		require.NoError(t, ledger.Register(ctx, acct, 2000))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, acct := range accounts {
		for i := 0; i < 20; i++ {
			g.Go(func() error { return ledger.LogIntake(gctx, acct, 10) })
		}
	}
	require.NoError(t, g.Wait())

	for _, acct := range accounts {
		u, err := s.GetUser(ctx, acct)
		require.NoError(t, err)
		assert.Equal(t, generic.Milliliters(200), u.TodayIntake, "account %s", acct)
	}
	stats, err := s.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, generic.GlobalStats{TotalUsers: 3, TotalWaterLogged: 600}, stats)
}
