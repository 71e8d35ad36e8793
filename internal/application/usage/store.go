package usage

import (
	"fmt"
	"sync"

	"github.com/penwyp/go-usage-board/internal/core/daterange"
	"github.com/penwyp/go-usage-board/internal/core/model"
	"github.com/penwyp/go-usage-board/internal/data/aggregator"
	"github.com/penwyp/go-usage-board/internal/util"
)

// UserErrorMessage is the single error shown when a load fails.
const UserErrorMessage = "Failed to load usage statistics. Please try again."

// Snapshot is a copy of the dashboard state at one point in time
type Snapshot struct {
	Range       daterange.Range
	Epoch       uint64
	Loading     bool
	Error       string
	Primary     *model.UsageStats
	Sessions    []model.ProjectUsage
	Secondaries map[model.Engine]model.SecondaryResult
}

// View derives the presentation view for filter from the snapshot.
func (s Snapshot) View(filter aggregator.Filter) (*aggregator.View, error) {
	if s.Primary == nil {
		return nil, fmt.Errorf("no usage data loaded")
	}
	view, err := aggregator.Select(filter, s.Primary, s.Secondaries)
	if err != nil {
		return nil, err
	}
	view.Sessions = s.Sessions
	return view, nil
}

// Store holds dashboard state and drops results from superseded requests.
// Every publish carries the epoch of the request that produced it; only
// the latest epoch is accepted.
type Store struct {
	mu sync.RWMutex

	rng         daterange.Range
	epoch       uint64
	loading     bool
	errMsg      string
	primary     *model.UsageStats
	sessions    []model.ProjectUsage
	secondaries map[model.Engine]model.SecondaryResult

	staleDrops  int64
	subscribers []chan struct{}
}

func NewStore() *Store {
	return &Store{
		secondaries: make(map[model.Engine]model.SecondaryResult),
	}
}

// Begin starts a new request for rng and returns its epoch. Previous primary
// data stays visible while loading; secondary results reset to pending.
func (s *Store) Begin(rng daterange.Range) uint64 {
	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.rng = rng
	s.loading = true
	s.errMsg = ""
	s.secondaries = make(map[model.Engine]model.SecondaryResult)
	s.mu.Unlock()

	s.notify()
	return epoch
}

// Current returns the latest issued epoch.
func (s *Store) Current() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// PublishPrimary records the primary stats and sessions of request epoch.
func (s *Store) PublishPrimary(epoch uint64, primary *model.UsageStats, sessions []model.ProjectUsage) bool {
	return s.apply(epoch, "primary", func() {
		s.primary = primary
		s.sessions = sessions
		s.loading = false
	})
}

// PublishSecondary records one secondary engine's outcome for request epoch.
func (s *Store) PublishSecondary(epoch uint64, engine model.Engine, result model.SecondaryResult) bool {
	return s.apply(epoch, string(engine), func() {
		s.secondaries[engine] = result
	})
}

// Fail records the user-facing error for request epoch.
func (s *Store) Fail(epoch uint64, msg string) bool {
	return s.apply(epoch, "error", func() {
		s.errMsg = msg
		s.loading = false
	})
}

func (s *Store) apply(epoch uint64, what string, update func()) bool {
	s.mu.Lock()
	if epoch != s.epoch {
		s.staleDrops++
		latest := s.epoch
		s.mu.Unlock()
		util.LogDebug("Dropping stale result",
			util.F("source", what), util.F("epoch", epoch), util.F("latest", latest))
		return false
	}
	update()
	s.mu.Unlock()

	s.notify()
	return true
}

// StaleDrops counts results discarded because a newer request had begun.
func (s *Store) StaleDrops() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.staleDrops
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	secondaries := make(map[model.Engine]model.SecondaryResult, len(s.secondaries))
	for engine, result := range s.secondaries {
		secondaries[engine] = result
	}
	sessions := make([]model.ProjectUsage, len(s.sessions))
	copy(sessions, s.sessions)

	return Snapshot{
		Range:       s.rng,
		Epoch:       s.epoch,
		Loading:     s.loading,
		Error:       s.errMsg,
		Primary:     s.primary,
		Sessions:    sessions,
		Secondaries: secondaries,
	}
}

// Subscribe returns a channel that receives a signal after every accepted
// change. Signals coalesce when the receiver falls behind.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
