package hydration

import (
	"context"
	"fmt"

	"github.com/warp/hydration-engine/generic"
	"github.com/warp/hydration-engine/logging"
)

// =============================================================================
// LEDGER - Account state transitions
// =============================================================================

// Ledger owns every write to user records, daily history and global counters.
//
// Each operation runs inside one store transaction: it validates, reads the
// account, applies the transition and writes back, or fails with nothing
// written. Events are published only after the transaction commits.
type Ledger struct {
	store     generic.TxStore
	clock     generic.Clock
	publisher generic.Publisher
	logger    *logging.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithClock(clock generic.Clock) Option {
	return func(l *Ledger) { l.clock = clock }
}

func WithPublisher(p generic.Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithLogger(logger *logging.Logger) Option {
	return func(l *Ledger) { l.logger = logger.WithComponent("ledger") }
}

// NewLedger creates a ledger over store. Defaults: UTC system clock,
// no publisher, discarded logs.
func NewLedger(store generic.TxStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		clock:     generic.SystemClock{},
		publisher: generic.NopPublisher{},
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// =============================================================================
// REGISTRATION
// =============================================================================

// Register creates the account's record with the given daily goal.
func (l *Ledger) Register(ctx context.Context, account generic.AccountID, dailyGoal generic.Milliliters) error {
	if err := validateGoal(dailyGoal); err != nil {
		return err
	}

	var today generic.DayKey
	err := l.store.WithTx(ctx, func(tx generic.Tx) error {
		today = l.clock.Today()

		existing, err := tx.GetUser(ctx, account)
		if err != nil {
			return err
		}
		if existing != nil && existing.IsRegistered {
			return fmt.Errorf("%w: %s", generic.ErrAlreadyRegistered, account)
		}

		user := generic.User{
			Account:        account,
			DailyGoal:      dailyGoal,
			LastUpdateDate: today,
			IsRegistered:   true,
		}
		if err := tx.PutUser(ctx, user); err != nil {
			return err
		}
		return tx.IncrementUsers(ctx)
	})
	if err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "account registered", "account", account, "daily_goal", dailyGoal, "day", today)
	l.publish(ctx, generic.UserRegistered{Account: account, DailyGoal: dailyGoal})
	return nil
}

// =============================================================================
// INTAKE
// =============================================================================

// LogIntake records amount milliliters for today.
//
// If today is a new day for the account, the rollover transition runs first.
// The first day the goal is reached with no active streak starts the streak
// immediately; later days are credited at the following rollover.
func (l *Ledger) LogIntake(ctx context.Context, account generic.AccountID, amount generic.Milliliters) error {
	if err := validateAmount(amount); err != nil {
		return err
	}

	var (
		today  generic.DayKey
		events []generic.Event
	)
	err := l.store.WithTx(ctx, func(tx generic.Tx) error {
		// Read inside the transaction so the day seen is ordered with
		// every other write to the account.
		today = l.clock.Today()
		events = nil

		user, err := loadRegistered(ctx, tx, account)
		if err != nil {
			return err
		}
		if today.Before(user.LastUpdateDate) {
			return &generic.ClockRegressionError{
				Account:        account,
				Today:          today,
				LastUpdateDate: user.LastUpdateDate,
			}
		}

		if today != user.LastUpdateDate {
			events = append(events, rollover(user, today)...)
		}

		user.TodayIntake += amount
		user.TotalIntake += amount
		if err := tx.AddDailyIntake(ctx, generic.HistoryKey{Account: account, Day: today}, amount); err != nil {
			return err
		}
		if err := tx.AddWaterLogged(ctx, amount); err != nil {
			return err
		}

		if user.TodayIntake >= user.DailyGoal && user.StreakDays == 0 {
			user.StreakDays = 1
			user.LastCreditedDate = today
			events = append(events, generic.GoalAchieved{Account: account, Day: today, Streak: 1})
		}

		events = append(events, generic.WaterLogged{
			Account:    account,
			Amount:     amount,
			TotalToday: user.TodayIntake,
		})
		return tx.PutUser(ctx, *user)
	})
	if err != nil {
		return err
	}

	l.logger.DebugContext(ctx, "intake logged", "account", account, "amount", amount, "day", today)
	l.publish(ctx, events...)
	return nil
}

// rollover closes the account's last tracked day and opens today.
//
// Only the last tracked day is evaluated, however many days passed since.
// A day already credited by the same-day path is not credited again.
func rollover(user *generic.User, today generic.DayKey) []generic.Event {
	var events []generic.Event
	previous := user.LastUpdateDate

	switch {
	case user.TodayIntake >= user.DailyGoal:
		if user.LastCreditedDate != previous {
			user.StreakDays++
			user.LastCreditedDate = previous
			events = append(events, generic.GoalAchieved{
				Account: user.Account,
				Day:     previous,
				Streak:  user.StreakDays,
			})
		}
	case user.StreakDays > 0:
		events = append(events, generic.StreakBroken{
			Account:        user.Account,
			PreviousStreak: user.StreakDays,
		})
		user.StreakDays = 0
	}

	user.TodayIntake = 0
	user.LastUpdateDate = today
	return events
}

// =============================================================================
// GOAL
// =============================================================================

// UpdateGoal replaces the account's daily goal.
// Today's intake, streak and history are untouched; the new goal is first
// evaluated at the next LogIntake.
func (l *Ledger) UpdateGoal(ctx context.Context, account generic.AccountID, newGoal generic.Milliliters) error {
	if err := validateGoal(newGoal); err != nil {
		return err
	}

	err := l.store.WithTx(ctx, func(tx generic.Tx) error {
		user, err := loadRegistered(ctx, tx, account)
		if err != nil {
			return err
		}
		user.DailyGoal = newGoal
		return tx.PutUser(ctx, *user)
	})
	if err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "daily goal updated", "account", account, "daily_goal", newGoal)
	l.publish(ctx, generic.GoalUpdated{Account: account, NewGoal: newGoal})
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// loadRegistered returns the account's record or ErrNotRegistered.
func loadRegistered(ctx context.Context, s generic.Store, account generic.AccountID) (*generic.User, error) {
	user, err := s.GetUser(ctx, account)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsRegistered {
		return nil, fmt.Errorf("%w: %s", generic.ErrNotRegistered, account)
	}
	return user, nil
}

// publish hands committed events to the publisher. A delivery failure is
// logged; the ledger state is already committed and stays as it is.
func (l *Ledger) publish(ctx context.Context, events ...generic.Event) {
	if len(events) == 0 {
		return
	}
	if err := l.publisher.Publish(ctx, events); err != nil {
		l.logger.WarnContext(ctx, "failed to publish events",
			"account", events[0].Subject(),
			"count", len(events),
			"error", err)
	}
}
