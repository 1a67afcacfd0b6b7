package registry

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/i474232898/team-weather/internal/common"
	"github.com/i474232898/team-weather/internal/weather"
)

const (
	// DefaultMemberName replaces blank member names.
	DefaultMemberName = "New Member"
	unknownPlaceName  = "Unknown"
)

// DefaultRoster is written to an empty remote collection on first load.
var DefaultRoster = []weather.Location{
	{Name: "London", Lat: 51.5074, Lon: -0.1278, Member: "Sarah", Country: "GB", Admin: "England"},
	{Name: "New York", Lat: 40.7128, Lon: -74.0060, Member: "Alex", Country: "US", Admin: "NY"},
	{Name: "Tokyo", Lat: 35.6762, Lon: 139.6503, Member: "Kenji", Country: "JP", Admin: "Tokyo"},
}

type seedState int

const (
	seedNotAttempted seedState = iota
	seedInFlight
	seedDone
)

// Engine owns the local roster and mirrors the remote collection into it.
// With a nil Remote it runs in offline mode and every mutation is local.
type Engine struct {
	remote Remote
	newID  func() string
	roster []weather.Location

	mu          sync.RWMutex
	locations   []weather.Location
	loaded      bool
	seed        seedState
	onChange    func([]weather.Location)
	unsubscribe func()
	stopped     bool
	seedCtx     context.Context
	seedCancel  context.CancelFunc
	seeding     sync.WaitGroup
}

// Option customises an Engine.
type Option func(*Engine)

// WithIDGenerator replaces uuid-based id generation.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithDefaultRoster replaces the roster written by auto-seed.
func WithDefaultRoster(roster []weather.Location) Option {
	return func(e *Engine) { e.roster = slices.Clone(roster) }
}

// NewEngine creates an Engine. remote may be nil for offline mode.
func NewEngine(remote Remote, opts ...Option) *Engine {
	e := &Engine{
		remote: remote,
		newID:  uuid.NewString,
		roster: slices.Clone(DefaultRoster),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Offline reports whether the engine runs without a remote.
func (e *Engine) Offline() bool {
	return e.remote == nil
}

// Start begins mirroring. onChange receives a copy of the roster after every
// accepted snapshot or local mutation. Offline engines are loaded immediately.
func (e *Engine) Start(ctx context.Context, onChange func([]weather.Location)) error {
	e.mu.Lock()
	e.onChange = onChange
	e.seedCtx, e.seedCancel = context.WithCancel(ctx)
	if e.remote == nil {
		e.loaded = true
		e.mu.Unlock()
		log.Println("registry: no remote configured; running in offline mode")
		e.notify()
		return nil
	}
	e.mu.Unlock()

	unsubscribe, err := e.remote.Subscribe(ctx, e.handleSnapshot, e.handleSubscriptionError)
	if err != nil {
		e.handleSubscriptionError(err)
		return fmt.Errorf("registry subscribe: %w", err)
	}

	e.mu.Lock()
	e.unsubscribe = unsubscribe
	e.mu.Unlock()
	return nil
}

// Stop tears down the subscription, cancels a running auto-seed and waits
// for it. It is safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopped = true
	unsubscribe := e.unsubscribe
	e.unsubscribe = nil
	cancel := e.seedCancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
	e.seeding.Wait()
}

// Locations returns a copy of the current roster.
func (e *Engine) Locations() []weather.Location {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.locations)
}

// Loaded reports whether the first snapshot (or a subscription failure) has been seen.
func (e *Engine) Loaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loaded
}

func (e *Engine) handleSnapshot(locs []weather.Location) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	if len(locs) == 0 && !e.loaded {
		switch e.seed {
		case seedNotAttempted:
			e.seed = seedInFlight
			ctx := e.seedCtx
			e.seeding.Add(1)
			e.mu.Unlock()
			go func() {
				defer e.seeding.Done()
				e.autoSeed(ctx)
			}()
			return
		case seedInFlight:
			e.mu.Unlock()
			return
		}
		// seedDone and still empty: accept the empty roster.
	}

	e.locations = slices.Clone(locs)
	e.loaded = true
	e.mu.Unlock()

	e.notify()
}

func (e *Engine) autoSeed(ctx context.Context) {
	log.Printf("registry: remote collection empty; seeding %d default locations", len(e.roster))

	failed := 0
	for _, loc := range e.roster {
		if ctx.Err() != nil {
			log.Printf("registry: seeding cancelled: %v", ctx.Err())
			break
		}
		id := e.newID()
		if err := e.remote.Upsert(ctx, id, loc); err != nil {
			failed++
			log.Printf("registry: seeding %s failed: %v", loc.Name, err)
		}
	}

	e.mu.Lock()
	e.seed = seedDone
	e.mu.Unlock()

	if failed > 0 {
		log.Printf("registry: %d of %d seed writes failed", failed, len(e.roster))
	}
}

func (e *Engine) handleSubscriptionError(err error) {
	log.Printf("registry: subscription failed, keeping last known roster: %v", err)

	e.mu.Lock()
	e.loaded = true
	e.mu.Unlock()

	e.notify()
}

func (e *Engine) notify() {
	e.mu.RLock()
	fn := e.onChange
	locs := slices.Clone(e.locations)
	e.mu.RUnlock()

	if fn != nil {
		fn(locs)
	}
}

// Add creates a location from a search result. Online, the roster changes
// when the remote echoes the write back; offline, it changes immediately.
func (e *Engine) Add(ctx context.Context, r weather.SearchResult) (weather.Location, error) {
	loc := weather.Location{
		ID:      e.newID(),
		Name:    common.DefaultIfBlank(r.Name, unknownPlaceName),
		Lat:     r.Latitude,
		Lon:     r.Longitude,
		Member:  DefaultMemberName,
		Country: r.CountryCode,
		Admin:   r.Admin1,
	}

	if e.remote == nil {
		e.mu.Lock()
		e.locations = append(e.locations, loc)
		e.mu.Unlock()
		e.notify()
		return loc, nil
	}

	if err := e.remote.Upsert(ctx, loc.ID, loc); err != nil {
		return weather.Location{}, fmt.Errorf("%w: add %s: %v", ErrWriteFailed, loc.Name, err)
	}
	return loc, nil
}

// Remove deletes a location.
func (e *Engine) Remove(ctx context.Context, id string) error {
	if e.remote == nil {
		e.mu.Lock()
		before := len(e.locations)
		e.locations = slices.DeleteFunc(e.locations, func(l weather.Location) bool { return l.ID == id })
		removed := len(e.locations) != before
		e.mu.Unlock()

		if !removed {
			return ErrLocationNotFound
		}
		e.notify()
		return nil
	}

	if err := e.remote.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: remove %s: %v", ErrWriteFailed, id, err)
	}
	return nil
}

// Rename sets the member label of a location. Blank names become DefaultMemberName.
func (e *Engine) Rename(ctx context.Context, id, name string) error {
	member := common.DefaultIfBlank(name, DefaultMemberName)

	e.mu.Lock()
	idx := slices.IndexFunc(e.locations, func(l weather.Location) bool { return l.ID == id })
	if idx < 0 {
		e.mu.Unlock()
		return ErrLocationNotFound
	}
	if e.remote == nil {
		e.locations[idx].Member = member
		e.mu.Unlock()
		e.notify()
		return nil
	}
	e.mu.Unlock()

	if err := e.remote.Update(ctx, id, map[string]string{FieldMember: member}); err != nil {
		return fmt.Errorf("%w: rename %s: %v", ErrWriteFailed, id, err)
	}
	return nil
}
