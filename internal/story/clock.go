package story

import (
	"sync"
	"time"

	"github.com/opencode-ai/cradle/internal/cues"
)

// Clock supplies the session time.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// ManualClock is a Clock advanced explicitly by the host or tests.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a clock stopped at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Delay returns a suspension that finishes once d has elapsed on the
// session clock. Update resumes the session when it does.
func Delay(s *Session, d time.Duration) cues.Suspension {
	deadline := s.clock.Now().Add(d)
	return cues.SuspensionFunc(func() bool {
		return !s.clock.Now().Before(deadline)
	})
}
