/*
Package sqlite provides a SQLite-backed implementation of generic.TxStore.

PURPOSE:
  Durable storage for the hydration ledger. Same contract as the
  in-memory store: reads see committed state, writes only happen inside
  WithTx and either all land or none do.

KEY TABLES:
  users:         One row per registered account
  daily_history: Intake per (account, day_key), composite primary key
  global_stats:  Single row of shared counters

SCHEMA:
  Versioned SQL files under migrations/, embedded in the binary and
  applied with golang-migrate on New().

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WithTx takes the write lock for
  the whole read-modify-write, so two ledger operations never interleave
  and the global counters never lose an increment.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

  ":memory:" databases are pinned to one connection, otherwise every
  pooled connection would see its own empty database.

USAGE:
  store, err := sqlite.New("./data/hydration.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := hydration.NewLedger(store)

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for tests and dev
  - store/sqlite/migrations/: Schema
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/hydration-engine/generic"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store implements generic.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ generic.TxStore = (*Store)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens (or creates) the database at dbPath and migrates it.
// Use MemoryPath for a throwaway database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// =============================================================================
// READS (generic.Store interface)
// =============================================================================

func (s *Store) GetUser(ctx context.Context, account generic.AccountID) (*generic.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getUser(ctx, s.db, account)
}

func (s *Store) DailyIntakes(ctx context.Context, account generic.AccountID, days []generic.DayKey) ([]generic.Milliliters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dailyIntakes(ctx, s.db, account, days)
}

func (s *Store) GlobalStats(ctx context.Context) (generic.GlobalStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return globalStats(ctx, s.db)
}

func getUser(ctx context.Context, q querier, account generic.AccountID) (*generic.User, error) {
	var u generic.User
	err := q.QueryRowContext(ctx, `
		SELECT account, daily_goal, today_intake, total_intake, streak_days,
		       last_update_date, last_credited_date, is_registered
		FROM users WHERE account = ?
	`, string(account)).Scan(
		&u.Account, &u.DailyGoal, &u.TodayIntake, &u.TotalIntake, &u.StreakDays,
		&u.LastUpdateDate, &u.LastCreditedDate, &u.IsRegistered,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", account, err)
	}
	return &u, nil
}

func dailyIntakes(ctx context.Context, q querier, account generic.AccountID, days []generic.DayKey) ([]generic.Milliliters, error) {
	result := make([]generic.Milliliters, len(days))
	if len(days) == 0 {
		return result, nil
	}

	args := make([]any, 0, len(days)+1)
	args = append(args, string(account))
	for _, d := range days {
		args = append(args, int(d))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(days)), ",")

	rows, err := q.QueryContext(ctx,
		`SELECT day_key, amount FROM daily_history WHERE account = ? AND day_key IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query daily intakes %s: %w", account, err)
	}
	defer rows.Close()

	found := make(map[generic.DayKey]generic.Milliliters, len(days))
	for rows.Next() {
		var day generic.DayKey
		var amount generic.Milliliters
		if err := rows.Scan(&day, &amount); err != nil {
			return nil, fmt.Errorf("scan daily intake: %w", err)
		}
		found[day] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily intakes: %w", err)
	}

	for i, d := range days {
		result[i] = found[d]
	}
	return result, nil
}

func globalStats(ctx context.Context, q querier) (generic.GlobalStats, error) {
	var stats generic.GlobalStats
	err := q.QueryRowContext(ctx,
		`SELECT total_users, total_water_logged FROM global_stats WHERE id = 1`,
	).Scan(&stats.TotalUsers, &stats.TotalWaterLogged)
	if err != nil {
		return generic.GlobalStats{}, fmt.Errorf("get global stats: %w", err)
	}
	return stats, nil
}

// =============================================================================
// TRANSACTIONAL STORE (generic.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(generic.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", generic.ErrTransactionFailed, err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", generic.ErrTransactionFailed, err)
	}
	return nil
}

// txStore routes every read and write through the open *sql.Tx so that
// reads observe the transaction's own writes.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetUser(ctx context.Context, account generic.AccountID) (*generic.User, error) {
	return getUser(ctx, ts.tx, account)
}

func (ts *txStore) DailyIntakes(ctx context.Context, account generic.AccountID, days []generic.DayKey) ([]generic.Milliliters, error) {
	return dailyIntakes(ctx, ts.tx, account, days)
}

func (ts *txStore) GlobalStats(ctx context.Context) (generic.GlobalStats, error) {
	return globalStats(ctx, ts.tx)
}

func (ts *txStore) PutUser(ctx context.Context, u generic.User) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := ts.tx.ExecContext(ctx, `
		INSERT INTO users (account, daily_goal, today_intake, total_intake, streak_days,
		                   last_update_date, last_credited_date, is_registered, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account) DO UPDATE SET
			daily_goal = excluded.daily_goal,
			today_intake = excluded.today_intake,
			total_intake = excluded.total_intake,
			streak_days = excluded.streak_days,
			last_update_date = excluded.last_update_date,
			last_credited_date = excluded.last_credited_date,
			is_registered = excluded.is_registered,
			updated_at = excluded.updated_at
	`,
		string(u.Account), int64(u.DailyGoal), int64(u.TodayIntake), int64(u.TotalIntake), u.StreakDays,
		int(u.LastUpdateDate), int(u.LastCreditedDate), u.IsRegistered, now, now,
	)
	if err != nil {
		return fmt.Errorf("put user %s: %w", u.Account, err)
	}
	return nil
}

func (ts *txStore) AddDailyIntake(ctx context.Context, key generic.HistoryKey, amount generic.Milliliters) error {
	_, err := ts.tx.ExecContext(ctx, `
		INSERT INTO daily_history (account, day_key, amount) VALUES (?, ?, ?)
		ON CONFLICT(account, day_key) DO UPDATE SET amount = amount + excluded.amount
	`, string(key.Account), int(key.Day), int64(amount))
	if err != nil {
		return fmt.Errorf("add daily intake %s/%s: %w", key.Account, key.Day, err)
	}
	return nil
}

func (ts *txStore) IncrementUsers(ctx context.Context) error {
	if _, err := ts.tx.ExecContext(ctx,
		`UPDATE global_stats SET total_users = total_users + 1 WHERE id = 1`,
	); err != nil {
		return fmt.Errorf("increment users: %w", err)
	}
	return nil
}

func (ts *txStore) AddWaterLogged(ctx context.Context, amount generic.Milliliters) error {
	if _, err := ts.tx.ExecContext(ctx,
		`UPDATE global_stats SET total_water_logged = total_water_logged + ? WHERE id = 1`,
		int64(amount),
	); err != nil {
		return fmt.Errorf("add water logged: %w", err)
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmts := []string{
		"DELETE FROM daily_history",
		"DELETE FROM users",
		"UPDATE global_stats SET total_users = 0, total_water_logged = 0 WHERE id = 1",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return nil
}
