package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/i474232898/team-weather/internal/weather"
)

// fakeClock runs timer callbacks synchronously from Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

type geocodeCall struct {
	query string
	at    time.Duration
}

// fakeGeocoder records calls; results and errors are keyed by query.
type fakeGeocoder struct {
	clock   *fakeClock
	mu      sync.Mutex
	calls   []geocodeCall
	results map[string][]weather.SearchResult
	err     error
	gate    chan struct{}
}

func (g *fakeGeocoder) Search(_ context.Context, q string) ([]weather.SearchResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, geocodeCall{query: q, at: g.clock.Now()})
	gate := g.gate
	g.mu.Unlock()

	if gate != nil {
		<-gate
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return g.results[q], nil
}

func (g *fakeGeocoder) callLog() []geocodeCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]geocodeCall(nil), g.calls...)
}

func newTestController(t *testing.T, adopt func(weather.SearchResult)) (*Controller, *fakeClock, *fakeGeocoder) {
	t.Helper()
	clock := &fakeClock{}
	geo := &fakeGeocoder{clock: clock, results: map[string][]weather.SearchResult{
		"Lon":   {{Name: "London", CountryCode: "GB"}, {Name: "Londrina", CountryCode: "BR"}},
		"Londo": {{Name: "London", CountryCode: "GB"}},
		"Xy":    {},
	}}
	c := New(geo, adopt, WithAfterFunc(clock.AfterFunc))
	t.Cleanup(c.Close)
	return c, clock, geo
}

func TestController_DebounceFiresOnce(t *testing.T) {
	c, clock, geo := newTestController(t, nil)

	for _, q := range []string{"Lo", "Lon", "Lond", "Londo"} {
		c.SetQuery(q)
		assert.Equal(t, StateDebouncing, c.State())
		clock.Advance(50 * time.Millisecond)
	}
	// keystrokes at 0, 50, 100, 150ms; clock now at 200ms
	clock.Advance(249 * time.Millisecond)
	assert.Empty(t, geo.callLog(), "no request before 150ms+300ms")

	clock.Advance(1 * time.Millisecond)
	calls := geo.callLog()
	require.Len(t, calls, 1)
	assert.Equal(t, "Londo", calls[0].query)
	assert.Equal(t, 450*time.Millisecond, calls[0].at)

	assert.Equal(t, StateResults, c.State())
	assert.Len(t, c.Results(), 1)

	clock.Advance(time.Second)
	assert.Len(t, geo.callLog(), 1)
}

func TestController_ShortQueryClearsSynchronously(t *testing.T) {
	c, clock, geo := newTestController(t, nil)

	c.SetQuery("Lon")
	clock.Advance(300 * time.Millisecond)
	require.Len(t, c.Results(), 2)

	c.SetQuery("Lo")
	c.SetQuery("L")
	assert.Equal(t, StateEmpty, c.State())
	assert.Empty(t, c.Results())

	// the timer armed by "Lo" was cancelled by "L"
	clock.Advance(time.Second)
	assert.Len(t, geo.callLog(), 1)

	c.SetQuery("")
	assert.Equal(t, StateIdle, c.State())
}

func TestController_EmptyResultIsValid(t *testing.T) {
	c, clock, _ := newTestController(t, nil)

	c.SetQuery("Xy")
	clock.Advance(300 * time.Millisecond)

	assert.Equal(t, StateResults, c.State())
	assert.Empty(t, c.Results())
}

func TestController_GeocodeFailureClearsResults(t *testing.T) {
	c, clock, geo := newTestController(t, nil)

	c.SetQuery("Lon")
	clock.Advance(300 * time.Millisecond)
	require.Len(t, c.Results(), 2)

	geo.mu.Lock()
	geo.err = errors.New("geocoding unavailable")
	geo.mu.Unlock()

	c.SetQuery("Londo")
	clock.Advance(300 * time.Millisecond)

	assert.Equal(t, StateEmpty, c.State())
	assert.Empty(t, c.Results())
}

func TestController_StaleResponseIsDropped(t *testing.T) {
	c, clock, geo := newTestController(t, nil)

	gate := make(chan struct{})
	geo.mu.Lock()
	geo.gate = gate
	geo.mu.Unlock()

	// First query goes in flight and blocks.
	c.SetQuery("Lon")
	go clock.Advance(300 * time.Millisecond)
	require.Eventually(t, func() bool { return len(geo.callLog()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, StateQuerying, c.State())

	// A newer query is issued and also blocks.
	c.SetQuery("Londo")
	go clock.Advance(300 * time.Millisecond)
	require.Eventually(t, func() bool { return len(geo.callLog()) == 2 }, time.Second, time.Millisecond)

	// Release both; only "Londo" may land regardless of completion order.
	close(gate)
	require.Eventually(t, func() bool { return c.State() == StateResults }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	results := c.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "London", results[0].Name)
}

func TestController_ClearDropsInFlightAnswer(t *testing.T) {
	c, clock, geo := newTestController(t, nil)

	gate := make(chan struct{})
	geo.mu.Lock()
	geo.gate = gate
	geo.mu.Unlock()

	c.SetQuery("Lon")
	done := make(chan struct{})
	go func() {
		clock.Advance(300 * time.Millisecond)
		close(done)
	}()
	require.Eventually(t, func() bool { return len(geo.callLog()) == 1 }, time.Second, time.Millisecond)

	c.SetQuery("")
	close(gate)
	<-done

	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.Results())
}

func TestController_SelectAdoptsAndClears(t *testing.T) {
	var adopted []weather.SearchResult
	c, clock, _ := newTestController(t, func(r weather.SearchResult) {
		adopted = append(adopted, r)
	})

	c.SetQuery("Lon")
	clock.Advance(300 * time.Millisecond)

	require.NoError(t, c.Select(1))
	require.Len(t, adopted, 1)
	assert.Equal(t, "Londrina", adopted[0].Name)
	assert.Equal(t, "", c.Query())
	assert.Empty(t, c.Results())
	assert.Equal(t, StateIdle, c.State())

	assert.ErrorIs(t, c.Select(0), ErrNoSuchResult)
	assert.ErrorIs(t, c.Select(-1), ErrNoSuchResult)
}

func TestController_CloseCancelsTimer(t *testing.T) {
	c, clock, geo := newTestController(t, nil)

	c.SetQuery("Lon")
	c.Close()
	clock.Advance(time.Second)

	assert.Empty(t, geo.callLog())
	c.SetQuery("Londo")
	assert.Equal(t, "Lon", c.Query())
}

func TestController_RealTimerNoLeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	geo := &fakeGeocoder{clock: &fakeClock{}, results: map[string][]weather.SearchResult{
		"Oslo": {{Name: "Oslo", CountryCode: "NO"}},
	}}
	c := New(geo, nil, WithDebounce(5*time.Millisecond))

	c.SetQuery("Os")
	c.SetQuery("Oslo")
	require.Eventually(t, func() bool { return c.State() == StateResults }, time.Second, time.Millisecond)
	assert.Len(t, geo.callLog(), 1)

	c.SetQuery("Oslo!")
	c.Close()
}
