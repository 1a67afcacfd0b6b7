// Package dashboard wires the roster, weather, consensus and search
// components into the single view shared by every member.
package dashboard

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/i474232898/team-weather/internal/registry"
	"github.com/i474232898/team-weather/internal/scheduler"
	"github.com/i474232898/team-weather/internal/search"
	"github.com/i474232898/team-weather/internal/weather"
)

// Notices shown after a failed roster write.
const (
	NoticeAddFailed    = "Could not save new member."
	NoticeRemoveFailed = "Could not remove member."
	NoticeRenameFailed = "Could not rename member."
)

// Options configures a Dashboard.
type Options struct {
	Registry       *registry.Engine
	Provider       weather.ForecastProvider
	Store          weather.SnapshotStore
	Geocoder       weather.Geocoder
	PollInterval   time.Duration
	RefreshTimeout time.Duration
	SearchOptions  []search.Option
}

// Dashboard owns the components of one running session.
type Dashboard struct {
	registry   *registry.Engine
	aggregator *weather.Aggregator
	consensus  *weather.Consensus
	search     *search.Controller
	scheduler  *scheduler.Scheduler
	timeout    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	notice  string
	stopped bool
}

// New builds a Dashboard. Nothing runs until Start.
func New(opts Options) *Dashboard {
	timeout := opts.RefreshTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		registry:  opts.Registry,
		consensus: weather.NewConsensus(),
		timeout:   timeout,
		ctx:       ctx,
		cancel:    cancel,
	}

	d.aggregator = weather.NewAggregator(opts.Provider, opts.Store, d.registry.Locations, weather.WithCycleTimeout(timeout))
	d.aggregator.OnUpdate(func(snaps map[string]weather.WeatherSnapshot) {
		d.consensus.Update(d.registry.Locations(), snaps)
	})
	d.search = search.New(opts.Geocoder, d.adopt, opts.SearchOptions...)
	d.scheduler = scheduler.New(d.aggregator, opts.PollInterval, timeout)
	return d
}

// Start subscribes to the roster and starts the poll.
func (d *Dashboard) Start(ctx context.Context) error {
	if err := d.scheduler.Start(); err != nil {
		return err
	}
	if err := d.registry.Start(ctx, d.onLocations); err != nil {
		log.Printf("dashboard: %v", err)
	}
	return nil
}

// Stop tears everything down and waits for in-flight refreshes.
func (d *Dashboard) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	d.search.Close()
	d.scheduler.Stop()
	d.registry.Stop()
	d.cancel()
	d.wg.Wait()
}

// spawn runs fn in a goroutine Stop waits for. It is a no-op after Stop.
func (d *Dashboard) spawn(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn()
	}()
}

func (d *Dashboard) onLocations(locs []weather.Location) {
	d.consensus.Update(locs, d.aggregator.Snapshots())
	d.Refresh()
}

// Refresh starts an aggregation cycle in the background.
func (d *Dashboard) Refresh() {
	d.spawn(func() {
		if err := d.aggregator.RefreshAll(d.ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("dashboard: refresh failed: %v", err)
		}
	})
}

// RefreshNow runs an aggregation cycle and waits for it.
func (d *Dashboard) RefreshNow(ctx context.Context) error {
	return d.aggregator.RefreshAll(ctx)
}

// adopt is the search controller's hand-off into the roster.
func (d *Dashboard) adopt(r weather.SearchResult) {
	if d.registry.Offline() {
		_, _ = d.AddLocation(d.ctx, r)
		return
	}
	d.spawn(func() {
		_, _ = d.AddLocation(d.ctx, r)
	})
}

// AddLocation adds a member pinned to r.
func (d *Dashboard) AddLocation(ctx context.Context, r weather.SearchResult) (weather.Location, error) {
	loc, err := d.registry.Add(ctx, r)
	if err != nil {
		d.fail(NoticeAddFailed, err)
		return weather.Location{}, err
	}
	return loc, nil
}

// RemoveLocation removes a member.
func (d *Dashboard) RemoveLocation(ctx context.Context, id string) error {
	err := d.registry.Remove(ctx, id)
	if errors.Is(err, registry.ErrWriteFailed) {
		d.fail(NoticeRemoveFailed, err)
	}
	return err
}

// RenameMember changes a member label.
func (d *Dashboard) RenameMember(ctx context.Context, id, name string) error {
	err := d.registry.Rename(ctx, id, name)
	if errors.Is(err, registry.ErrWriteFailed) {
		d.fail(NoticeRenameFailed, err)
	}
	return err
}

func (d *Dashboard) fail(notice string, err error) {
	log.Printf("dashboard: %s %v", notice, err)
	d.mu.Lock()
	d.notice = notice
	d.mu.Unlock()
}

// Notice returns the current error banner, or "".
func (d *Dashboard) Notice() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notice
}

// DismissNotice clears the error banner.
func (d *Dashboard) DismissNotice() {
	d.mu.Lock()
	d.notice = ""
	d.mu.Unlock()
}

// Search exposes the search controller.
func (d *Dashboard) Search() *search.Controller {
	return d.search
}

// Roster describes the registry state.
type Roster struct {
	Loaded    bool               `json:"loaded"`
	Offline   bool               `json:"offline"`
	Locations []weather.Location `json:"locations"`
}

// Roster returns the current roster.
func (d *Dashboard) Roster() Roster {
	return Roster{
		Loaded:    d.registry.Loaded(),
		Offline:   d.registry.Offline(),
		Locations: d.registry.Locations(),
	}
}
