package usage

import (
	"context"
	"fmt"
	"sync"

	"github.com/penwyp/go-usage-board/internal/core/cache"
	"github.com/penwyp/go-usage-board/internal/core/daterange"
	"github.com/penwyp/go-usage-board/internal/core/model"
	"github.com/penwyp/go-usage-board/internal/data/client"
	"github.com/penwyp/go-usage-board/internal/util"
	"golang.org/x/sync/errgroup"
)

// Source names the kind of payload stored under a cache key.
type Source string

const (
	SourceStats    Source = "stats"
	SourceSessions Source = "sessions"
	SourceCodex    Source = Source(model.EngineCodex)
	SourceGemini   Source = Source(model.EngineGemini)
)

// CacheKey identifies one cached payload.
type CacheKey struct {
	Range  daterange.Range
	Source Source
}

func (k CacheKey) String() string {
	return fmt.Sprintf("usage-%s-%s", k.Range.Short(), k.Source)
}

// cachedPayload holds whichever field matches the key's Source.
type cachedPayload struct {
	primary   *model.UsageStats
	sessions  []model.ProjectUsage
	secondary model.EngineStats
}

// Cache is the read-through cache shared by loaders.
type Cache = cache.MemoryCache[CacheKey, cachedPayload]

// NewCache creates a loader cache.
func NewCache(opts ...cache.Option) *Cache {
	return cache.NewMemoryCache[CacheKey, cachedPayload](opts...)
}

// Loader fetches usage for a date range, serving from cache where it can.
type Loader struct {
	client client.StatsClient
	cache  *Cache
	store  *Store
	clock  util.Clock
}

func NewLoader(c client.StatsClient, cache *Cache, store *Store, clock util.Clock) *Loader {
	if clock == nil {
		clock = util.GetTimeProvider()
	}
	return &Loader{
		client: c,
		cache:  cache,
		store:  store,
		clock:  clock,
	}
}

// Store returns the state store results are published to.
func (l *Loader) Store() *Store { return l.store }

// Request tracks the background secondary fetches started by Load.
type Request struct {
	Epoch  uint64
	Range  daterange.Range
	Window daterange.Window
	done   chan struct{}
}

// Done is closed once every secondary engine has settled.
func (r *Request) Done() <-chan struct{} { return r.done }

// Wait blocks until every secondary engine has settled.
func (r *Request) Wait() { <-r.done }

// Load fetches primary stats and sessions for rng, publishes them, then
// starts best-effort secondary fetches without waiting for them. A primary
// failure records UserErrorMessage in the store and is returned; nothing
// from a failed load is cached.
func (l *Loader) Load(ctx context.Context, rng daterange.Range) (*Request, error) {
	epoch := l.store.Begin(rng)
	window := rng.Resolve(l.clock.Now())
	logger := util.Log()
	if logger != nil {
		logger = logger.WithContext(context.WithValue(ctx, util.RequestEpochKey, epoch))
	}

	primary, sessions, err := l.loadPrimary(ctx, rng, window)
	if err != nil {
		if logger != nil {
			logger.Error("Failed to load usage statistics", util.F("range", rng), util.F("error", err))
		}
		l.store.Fail(epoch, UserErrorMessage)
		return nil, err
	}
	l.store.PublishPrimary(epoch, primary, sessions)

	req := &Request{
		Epoch:  epoch,
		Range:  rng,
		Window: window,
		done:   make(chan struct{}),
	}

	var wg sync.WaitGroup
	for _, engine := range model.SecondaryEngines {
		key := CacheKey{Range: rng, Source: Source(engine)}
		if cached, ok := l.cache.Get(key); ok {
			l.store.PublishSecondary(epoch, engine, model.SecondaryResult{Stats: cached.secondary, Settled: true})
			continue
		}

		wg.Add(1)
		go func(engine model.Engine, key CacheKey) {
			defer wg.Done()
			l.loadSecondary(ctx, epoch, engine, key, window)
		}(engine, key)
	}

	go func() {
		wg.Wait()
		close(req.done)
	}()

	return req, nil
}

func (l *Loader) loadPrimary(ctx context.Context, rng daterange.Range, window daterange.Window) (*model.UsageStats, []model.ProjectUsage, error) {
	statsKey := CacheKey{Range: rng, Source: SourceStats}
	sessionsKey := CacheKey{Range: rng, Source: SourceSessions}

	cachedStats, statsOK := l.cache.Get(statsKey)
	cachedSessions, sessionsOK := l.cache.Get(sessionsKey)
	if statsOK && sessionsOK {
		util.LogDebug("Serving primary usage from cache", util.F("range", rng))
		return cachedStats.primary, cachedSessions.sessions, nil
	}

	var (
		primary  *model.UsageStats
		sessions []model.ProjectUsage
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if window.Bounded() {
			start, end := window.StatsBounds()
			primary, err = l.client.FetchPrimaryStatsForRange(gctx, start, end)
		} else {
			primary, err = l.client.FetchPrimaryStats(gctx)
		}
		if err != nil {
			return fmt.Errorf("fetching primary stats: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		since, until := window.SessionBounds()
		order := ""
		if rng.Days() > 0 {
			order = "desc"
		}
		var err error
		sessions, err = l.client.FetchSessionStats(gctx, since, until, order)
		if err != nil {
			return fmt.Errorf("fetching session stats: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	l.cache.Put(statsKey, cachedPayload{primary: primary})
	l.cache.Put(sessionsKey, cachedPayload{sessions: sessions})
	return primary, sessions, nil
}

func (l *Loader) loadSecondary(ctx context.Context, epoch uint64, engine model.Engine, key CacheKey, window daterange.Window) {
	start, end := window.StatsBounds()
	stats, err := l.client.FetchSecondaryStats(ctx, engine, start, end)
	if err != nil {
		util.LogDebug("Secondary engine unavailable",
			util.F("engine", engine), util.F("epoch", epoch), util.F("error", err))
		l.store.PublishSecondary(epoch, engine, model.SecondaryResult{Err: err, Settled: true})
		return
	}

	l.cache.Put(key, cachedPayload{secondary: stats})
	l.store.PublishSecondary(epoch, engine, model.SecondaryResult{Stats: stats, Settled: true})
}
