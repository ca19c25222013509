package generic

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// DAY KEY - Calendar day as a YYYYMMDD integer
// =============================================================================

// DayKey identifies a calendar day as YYYYMMDD (e.g. 20250310).
// Keys order the same way the days do, so plain integer comparison works.
type DayKey int

// DayKeyOf returns the key of the calendar day t falls on, in t's location.
func DayKeyOf(t time.Time) DayKey {
	y, m, d := t.Date()
	return DayKey(y*10000 + int(m)*100 + d)
}

// NewDayKey builds a key from its calendar parts.
// Out-of-range parts are normalized the way time.Date does.
func NewDayKey(year int, month time.Month, day int) DayKey {
	return DayKeyOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDayKey accepts "20250310" or "2025-03-10".
func ParseDayKey(s string) (DayKey, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "-") {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDayKey, s)
		}
		return DayKeyOf(t), nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDayKey, s)
	}
	k := DayKey(n)
	if !k.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDayKey, s)
	}
	return k, nil
}

func (k DayKey) Year() int { return int(k) / 10000 }
func (k DayKey) Month() time.Month { return time.Month(int(k) / 100 % 100) }
func (k DayKey) Day() int { return int(k) % 100 }
func (k DayKey) IsZero() bool { return k == 0 }
func (k DayKey) Before(o DayKey) bool { return k < o }
func (k DayKey) After(o DayKey) bool { return k > o }

// Time returns midnight UTC of the day.
func (k DayKey) Time() time.Time {
	return time.Date(k.Year(), k.Month(), k.Day(), 0, 0, 0, 0, time.UTC)
}

// Valid reports whether the key names a real calendar day.
func (k DayKey) Valid() bool {
	if k <= 0 {
		return false
	}
	return DayKeyOf(k.Time()) == k
}

// AddDays moves the key by n calendar days.
func (k DayKey) AddDays(n int) DayKey {
	return DayKeyOf(k.Time().AddDate(0, 0, n))
}

func (k DayKey) String() string {
	if k.IsZero() {
		return ""
	}
	return k.Time().Format("2006-01-02")
}

// =============================================================================
// CLOCK - Injected source of "today"
// =============================================================================

// Clock tells the ledger which day it is.
// Implementations must never go backwards for the same real-world progression.
type Clock interface {
	Today() DayKey
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Today() DayKey {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return DayKeyOf(time.Now().In(loc))
}

// ManualClock is a settable clock for tests and demos.
type ManualClock struct {
	mu    sync.RWMutex
	today DayKey
}

func NewManualClock(start DayKey) *ManualClock {
	return &ManualClock{today: start}
}

func (c *ManualClock) Today() DayKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.today
}

// Set moves the clock to an arbitrary day.
func (c *ManualClock) Set(day DayKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.today = day
}

// Advance moves the clock forward by n days and returns the new day.
func (c *ManualClock) Advance(n int) DayKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.today = c.today.AddDays(n)
	return c.today
}
