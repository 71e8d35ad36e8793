package util

import (
	"fmt"
	"sync"
	"time"
)

// Clock supplies the current time. Components that depend on wall-clock
// time accept a Clock so tests can drive it.
type Clock interface {
	Now() time.Time
}

// TimeProvider is a Clock bound to a configurable timezone
type TimeProvider struct {
	location *time.Location
	mu       sync.RWMutex
}

var (
	globalTimeProvider *TimeProvider
	providerMu         sync.Mutex
)

// NewTimeProvider creates a provider for the named timezone ("Local" or "" for the system zone)
func NewTimeProvider(timezone string) (*TimeProvider, error) {
	provider := &TimeProvider{}
	if err := provider.SetTimezone(timezone); err != nil {
		return nil, err
	}
	return provider, nil
}

// InitializeTimeProvider sets the process-wide time provider
func InitializeTimeProvider(timezone string) error {
	provider, err := NewTimeProvider(timezone)
	if err != nil {
		return err
	}

	providerMu.Lock()
	defer providerMu.Unlock()
	globalTimeProvider = provider
	return nil
}

// GetTimeProvider returns the process-wide time provider, defaulting to Local
func GetTimeProvider() *TimeProvider {
	providerMu.Lock()
	defer providerMu.Unlock()
	if globalTimeProvider == nil {
		globalTimeProvider = &TimeProvider{location: time.Local}
	}
	return globalTimeProvider
}

// SetTimezone updates the timezone for the time provider
func (tp *TimeProvider) SetTimezone(timezone string) error {
	loc := time.Local
	if timezone != "" && timezone != "Local" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone '%s': %w\nValid examples: Local, UTC, America/New_York, Asia/Shanghai, Europe/London", timezone, err)
		}
		loc = l
	}

	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.location = loc
	return nil
}

// Location returns the configured timezone
func (tp *TimeProvider) Location() *time.Location {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return tp.location
}

// Now returns the current time in the configured timezone
func (tp *TimeProvider) Now() time.Time {
	return time.Now().In(tp.Location())
}

// ManualClock is a Clock that only moves when told to
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock frozen at start
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
