// Package clock injects the current time so lead-time and expiry rules stay
// testable without sleeping.
package clock

import "time"

// Clock is the single source of "now" for domain rules.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func NewRealClock() Clock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

// MockClock is a settable clock for tests.
type MockClock struct {
	currentTime time.Time
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

func (c *MockClock) Now() time.Time {
	return c.currentTime
}

func (c *MockClock) Set(t time.Time) {
	c.currentTime = t
}

// Add advances the clock, e.g. to cross a lead-time or expiry boundary.
func (c *MockClock) Add(d time.Duration) {
	c.currentTime = c.currentTime.Add(d)
}
