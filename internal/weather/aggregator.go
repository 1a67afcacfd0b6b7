package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrNoProvider is returned by RefreshAll when the aggregator has no forecast provider.
var ErrNoProvider = errors.New("no forecast provider configured")

// Aggregator keeps the snapshot store current for the locations it is given.
type Aggregator struct {
	provider  ForecastProvider
	store     SnapshotStore
	locations func() []Location
	timeout   time.Duration

	mu       sync.RWMutex
	onUpdate func(map[string]WeatherSnapshot)
}

// AggregatorOption customises an Aggregator.
type AggregatorOption func(*Aggregator)

// WithCycleTimeout bounds a whole refresh cycle.
func WithCycleTimeout(d time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAggregator creates an Aggregator. locations is read at the start of every cycle.
func NewAggregator(provider ForecastProvider, store SnapshotStore, locations func() []Location, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		provider:  provider,
		store:     store,
		locations: locations,
		timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// OnUpdate registers the callback fired after every successful replacement.
func (a *Aggregator) OnUpdate(fn func(map[string]WeatherSnapshot)) {
	a.mu.Lock()
	a.onUpdate = fn
	a.mu.Unlock()
}

// RefreshAll fetches a forecast for every current location concurrently.
// The store is replaced only if every fetch succeeds; a single failure
// discards the whole cycle and leaves the previous map untouched.
func (a *Aggregator) RefreshAll(ctx context.Context) error {
	if a.provider == nil {
		return ErrNoProvider
	}

	locs := a.locations()
	if len(locs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var (
		mu    sync.Mutex
		fresh = make(map[string]WeatherSnapshot, len(locs))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, loc := range locs {
		g.Go(func() error {
			snap, err := a.provider.FetchForecast(gctx, loc.Lat, loc.Lon)
			if err != nil {
				return fmt.Errorf("forecast for %s (%s): %w", loc.Name, loc.ID, err)
			}
			snap.LocationID = loc.ID
			if snap.FetchedAt.IsZero() {
				snap.FetchedAt = time.Now().UTC()
			}

			mu.Lock()
			fresh[loc.ID] = snap
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Printf("aggregator: refresh of %d locations discarded: %v", len(locs), err)
		return err
	}

	a.store.Replace(fresh)
	log.Printf("aggregator: refreshed %d locations via %s", len(fresh), a.provider.Name())

	a.mu.RLock()
	fn := a.onUpdate
	a.mu.RUnlock()
	if fn != nil {
		fn(a.store.All())
	}
	return nil
}

// Snapshots returns a copy of the current map.
func (a *Aggregator) Snapshots() map[string]WeatherSnapshot {
	return a.store.All()
}

// Snapshot returns the snapshot for one location, if any.
func (a *Aggregator) Snapshot(locationID string) (WeatherSnapshot, bool) {
	return a.store.Get(locationID)
}
