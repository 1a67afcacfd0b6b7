// Package search implements the debounced place search that feeds the roster.
package search

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/i474232898/team-weather/internal/weather"
)

// State of the controller.
type State string

const (
	StateIdle       State = "idle"
	StateDebouncing State = "debouncing"
	StateQuerying   State = "querying"
	StateResults    State = "results"
	StateEmpty      State = "empty"
)

// ErrNoSuchResult is returned by Select for an index outside the result set.
var ErrNoSuchResult = errors.New("no such search result")

// Timer is the part of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Controller debounces keystrokes into geocode requests.
//
// Only the debounce timer can be cancelled; a request already sent always
// runs to completion, but its answer is dropped unless it belongs to the
// most recently issued query.
type Controller struct {
	geocoder  weather.Geocoder
	adopt     func(weather.SearchResult)
	debounce  time.Duration
	minLength int
	timeout   time.Duration
	afterFunc AfterFunc

	mu      sync.Mutex
	query   string
	results []weather.SearchResult
	state   State
	timer   Timer
	timerID uint64 // bumped on every (re)arm so stale fires are ignored
	seq     uint64 // bumped on every issued request and on clear
	closed  bool
}

// Option customises a Controller.
type Option func(*Controller)

// WithDebounce overrides the 300ms debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithMinLength overrides the two-character minimum query length.
func WithMinLength(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.minLength = n
		}
	}
}

// WithRequestTimeout bounds each geocode request.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithAfterFunc replaces the timer factory, mainly for tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Controller) { c.afterFunc = fn }
}

// New creates a Controller. adopt receives the result chosen by Select.
func New(geocoder weather.Geocoder, adopt func(weather.SearchResult), opts ...Option) *Controller {
	c := &Controller{
		geocoder:  geocoder,
		adopt:     adopt,
		debounce:  300 * time.Millisecond,
		minLength: 2,
		timeout:   10 * time.Second,
		afterFunc: realAfterFunc,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetQuery records a keystroke.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.query = q
	c.stopTimerLocked()

	if utf8.RuneCountInString(q) < c.minLength {
		c.results = nil
		c.seq++
		if q == "" {
			c.state = StateIdle
		} else {
			c.state = StateEmpty
		}
		return
	}

	c.timerID++
	id := c.timerID
	c.state = StateDebouncing
	c.timer = c.afterFunc(c.debounce, func() { c.fire(id) })
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) fire(timerID uint64) {
	c.mu.Lock()
	if c.closed || timerID != c.timerID {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.seq++
	seq := c.seq
	q := c.query
	c.state = StateQuerying
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	results, err := c.geocoder.Search(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || seq != c.seq {
		return
	}
	if err != nil {
		log.Printf("search: geocoding %q failed: %v", q, err)
		c.results = nil
		c.state = StateEmpty
		return
	}

	c.results = results
	c.state = StateResults
}

// Select adopts the i-th result, clearing the query and results first.
func (c *Controller) Select(i int) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.results) {
		c.mu.Unlock()
		return ErrNoSuchResult
	}
	chosen := c.results[i]

	c.stopTimerLocked()
	c.query = ""
	c.results = nil
	c.seq++
	c.state = StateIdle
	c.mu.Unlock()

	if c.adopt != nil {
		c.adopt(chosen)
	}
	return nil
}

// Query returns the current query text.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Results returns a copy of the current results.
func (c *Controller) Results() []weather.SearchResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.results)
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close cancels the pending debounce; later fires and answers are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopTimerLocked()
}
