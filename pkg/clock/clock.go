// Package clock abstracts the wall clock so that time-dependent policy can be
// exercised deterministically.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// InLocation reports every instant in loc. A nil loc leaves the wrapped
// clock untouched.
type InLocation struct {
	Clock    Clock
	Location *time.Location
}

func (c InLocation) Now() time.Time {
	now := c.Clock.Now()
	if c.Location == nil {
		return now
	}
	return now.In(c.Location)
}

// MockClock is safe for concurrent use.
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTime
}

func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = t
}

func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = c.currentTime.Add(d)
}
