/*
Package hydration implements the hydration ledger rules.

PURPOSE:
  Records daily water intake per account against a registered goal,
  tracks consecutive days on which the goal was met (the streak), and
  exposes read-only projections over the records.

COMPONENTS:
  Ledger (ledger.go): Register, LogIntake, UpdateGoal and the internal
                      day-rollover transition. The only writer.
  Query  (query.go):  User stats, sparse history lookups, global counters.

DAY ROLLOVER:
  Every LogIntake asks the Clock for today. If today differs from the
  account's LastUpdateDate, the previous tracked day is evaluated once
  (streak +1 or reset) and today's counter starts from zero. Days with no
  activity in between are not evaluated individually.

LIMITS:
  Daily goal:        500 - 10000 ml
  Single intake:     1 - 2000 ml (per entry, not per day)
  History lookup:    at most 30 day keys per call

SEE ALSO:
  - generic/store.go: Persistence contracts
  - generic/events.go: Emitted notifications
*/
package hydration

import (
	"github.com/warp/hydration-engine/generic"
)

const (
	MinDailyGoal    generic.Milliliters = 500
	MaxDailyGoal    generic.Milliliters = 10000
	MaxIntakeAmount generic.Milliliters = 2000
	MaxHistoryDates                     = 30
)

func validateGoal(goal generic.Milliliters) error {
	if goal < MinDailyGoal || goal > MaxDailyGoal {
		return &generic.GoalError{Goal: goal, Min: MinDailyGoal, Max: MaxDailyGoal}
	}
	return nil
}

func validateAmount(amount generic.Milliliters) error {
	if amount <= 0 || amount > MaxIntakeAmount {
		return &generic.AmountError{Amount: amount, Max: MaxIntakeAmount}
	}
	return nil
}

func validateDateCount(n int) error {
	if n > MaxHistoryDates {
		return &generic.DateLimitError{Requested: n, Max: MaxHistoryDates}
	}
	return nil
}
