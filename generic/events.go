package generic

import (
	"context"
	"sync"
)

// =============================================================================
// EVENTS - Observable side effects of ledger operations
// =============================================================================

// Event is a notification produced by a successful ledger operation.
type Event interface {
	// Name is the stable wire name of the event (e.g. "water_logged").
	Name() string

	// Subject is the account the event is about.
	Subject() AccountID
}

const (
	EventUserRegistered = "user_registered"
	EventWaterLogged    = "water_logged"
	EventGoalAchieved   = "goal_achieved"
	EventGoalUpdated    = "goal_updated"
	EventStreakBroken   = "streak_broken"
)

type UserRegistered struct {
	Account   AccountID   `json:"account"`
	DailyGoal Milliliters `json:"daily_goal"`
}

type WaterLogged struct {
	Account    AccountID   `json:"account"`
	Amount     Milliliters `json:"amount"`
	TotalToday Milliliters `json:"total_today"`
}

// GoalAchieved is emitted when a day is credited to the streak.
// Day is the day being credited, which is the previous day when the
// credit happens at rollover.
type GoalAchieved struct {
	Account AccountID `json:"account"`
	Day     DayKey    `json:"day"`
	Streak  int       `json:"streak"`
}

type GoalUpdated struct {
	Account AccountID   `json:"account"`
	NewGoal Milliliters `json:"new_goal"`
}

type StreakBroken struct {
	Account        AccountID `json:"account"`
	PreviousStreak int       `json:"previous_streak"`
}

func (e UserRegistered) Name() string { return EventUserRegistered }
func (e WaterLogged) Name() string    { return EventWaterLogged }
func (e GoalAchieved) Name() string   { return EventGoalAchieved }
func (e GoalUpdated) Name() string    { return EventGoalUpdated }
func (e StreakBroken) Name() string   { return EventStreakBroken }

func (e UserRegistered) Subject() AccountID { return e.Account }
func (e WaterLogged) Subject() AccountID    { return e.Account }
func (e GoalAchieved) Subject() AccountID   { return e.Account }
func (e GoalUpdated) Subject() AccountID    { return e.Account }
func (e StreakBroken) Subject() AccountID   { return e.Account }

// =============================================================================
// PUBLISHER
// =============================================================================

// Publisher delivers the events of one operation, in order.
// It is only called after the operation has been committed.
type Publisher interface {
	Publish(ctx context.Context, events []Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []Event) error { return nil }

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, events []Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset forgets recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
