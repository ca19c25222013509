// Package store provides Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/hydration-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements generic.TxStore. One mutex serializes every
// transaction, which also serializes the global counters.
type Memory struct {
	mu      sync.RWMutex
	users   map[generic.AccountID]generic.User
	history map[generic.HistoryKey]generic.Milliliters
	stats   generic.GlobalStats
}

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[generic.AccountID]generic.User),
		history: make(map[generic.HistoryKey]generic.Milliliters),
	}
}

func (m *Memory) GetUser(_ context.Context, account generic.AccountID) (*generic.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getUserLocked(account), nil
}

func (m *Memory) getUserLocked(account generic.AccountID) *generic.User {
	u, ok := m.users[account]
	if !ok {
		return nil
	}
	return &u
}

func (m *Memory) DailyIntakes(_ context.Context, account generic.AccountID, days []generic.DayKey) ([]generic.Milliliters, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]generic.Milliliters, len(days))
	for i, day := range days {
		result[i] = m.history[generic.HistoryKey{Account: account, Day: day}]
	}
	return result, nil
}

func (m *Memory) GlobalStats(_ context.Context) (generic.GlobalStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats, nil
}

// Reset drops all records.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = make(map[generic.AccountID]generic.User)
	m.history = make(map[generic.HistoryKey]generic.Milliliters)
	m.stats = generic.GlobalStats{}
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// Writes are staged in an overlay and applied only if fn returns nil,
// so a failed fn leaves the store untouched.
func (m *Memory) WithTx(ctx context.Context, fn func(generic.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := &txMemoryView{
		parent:  m,
		users:   make(map[generic.AccountID]generic.User),
		history: make(map[generic.HistoryKey]generic.Milliliters),
	}

	if err := fn(view); err != nil {
		return err
	}

	view.commit()
	return nil
}

type txMemoryView struct {
	parent *Memory

	users       map[generic.AccountID]generic.User
	history     map[generic.HistoryKey]generic.Milliliters
	newUsers    int64
	waterLogged generic.Milliliters
}

func (tv *txMemoryView) GetUser(_ context.Context, account generic.AccountID) (*generic.User, error) {
	if u, ok := tv.users[account]; ok {
		return &u, nil
	}
	return tv.parent.getUserLocked(account), nil
}

func (tv *txMemoryView) DailyIntakes(_ context.Context, account generic.AccountID, days []generic.DayKey) ([]generic.Milliliters, error) {
	result := make([]generic.Milliliters, len(days))
	for i, day := range days {
		key := generic.HistoryKey{Account: account, Day: day}
		result[i] = tv.parent.history[key] + tv.history[key]
	}
	return result, nil
}

func (tv *txMemoryView) GlobalStats(_ context.Context) (generic.GlobalStats, error) {
	stats := tv.parent.stats
	stats.TotalUsers += tv.newUsers
	stats.TotalWaterLogged += tv.waterLogged
	return stats, nil
}

func (tv *txMemoryView) PutUser(_ context.Context, user generic.User) error {
	tv.users[user.Account] = user
	return nil
}

func (tv *txMemoryView) AddDailyIntake(_ context.Context, key generic.HistoryKey, amount generic.Milliliters) error {
	tv.history[key] += amount
	return nil
}

func (tv *txMemoryView) IncrementUsers(_ context.Context) error {
	tv.newUsers++
	return nil
}

func (tv *txMemoryView) AddWaterLogged(_ context.Context, amount generic.Milliliters) error {
	tv.waterLogged += amount
	return nil
}

// commit applies the overlay. Caller holds parent.mu.
func (tv *txMemoryView) commit() {
	p := tv.parent
	for account, u := range tv.users {
		p.users[account] = u
	}
	for key, amount := range tv.history {
		p.history[key] += amount
	}
	p.stats.TotalUsers += tv.newUsers
	p.stats.TotalWaterLogged += tv.waterLogged
}
