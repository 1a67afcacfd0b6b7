package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/i474232898/team-weather/internal/registry"
	"github.com/i474232898/team-weather/internal/search"
	"github.com/i474232898/team-weather/internal/store"
	"github.com/i474232898/team-weather/internal/weather"
)

// codeProvider returns a fixed weather code per latitude.
type codeProvider struct {
	mu    sync.Mutex
	codes map[float64]int
	isDay bool
	calls int
}

func (p *codeProvider) Name() string { return "fake" }

func (p *codeProvider) FetchForecast(_ context.Context, lat, _ float64) (weather.WeatherSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return weather.WeatherSnapshot{
		Current: weather.CurrentConditions{
			Temperature:      20,
			RelativeHumidity: 40,
			IsDay:            p.isDay,
			WeatherCode:      p.codes[lat],
			WindSpeed:        5,
		},
		Daily: []weather.DailyForecast{
			{Date: "2026-10-17", WeatherCode: 0, TempMax: 21.4, TempMin: -0.5},
		},
		FetchedAt: time.Now().UTC(),
	}, nil
}

type staticGeocoder struct {
	results []weather.SearchResult
}

func (g staticGeocoder) Search(context.Context, string) ([]weather.SearchResult, error) {
	return g.results, nil
}

var (
	oslo  = weather.SearchResult{Name: "Oslo", Latitude: 59.91, Longitude: 10.75, CountryCode: "NO", Admin1: "Oslo"}
	lima  = weather.SearchResult{Name: "Lima", Latitude: -12.05, Longitude: -77.04, CountryCode: "PE", Admin1: "Lima"}
	perth = weather.SearchResult{Name: "Perth", Latitude: -31.95, Longitude: 115.86, CountryCode: "AU", Admin1: "Western Australia"}
)

func newOfflineDashboard(t *testing.T, p *codeProvider, geo weather.Geocoder) *Dashboard {
	t.Helper()
	d := New(Options{
		Registry:      registry.NewEngine(nil),
		Provider:      p,
		Store:         store.NewMemoryStore(),
		Geocoder:      geo,
		PollInterval:  time.Hour,
		SearchOptions: []search.Option{search.WithDebounce(time.Millisecond)},
	})
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(d.Stop)
	return d
}

func TestDashboard_OfflineAddDrivesWeatherAndAmbient(t *testing.T) {
	p := &codeProvider{isDay: true, codes: map[float64]int{
		oslo.Latitude:  61,
		lima.Latitude:  0,
		perth.Latitude: 63,
	}}
	d := newOfflineDashboard(t, p, nil)

	assert.Equal(t, "syncing", d.Ambient().Vibe)
	roster := d.Roster()
	assert.True(t, roster.Loaded)
	assert.True(t, roster.Offline)
	assert.Empty(t, roster.Locations)

	for _, r := range []weather.SearchResult{oslo, lima, perth} {
		_, err := d.AddLocation(context.Background(), r)
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return d.Ambient().Key == "rainy_day"
	}, 2*time.Second, 5*time.Millisecond)

	amb := d.Ambient()
	assert.Equal(t, weather.CategoryRainy, amb.Category)
	assert.Equal(t, "rainy day", amb.Vibe)
}

func TestDashboard_CardsShowSyncingThenWeather(t *testing.T) {
	p := &codeProvider{isDay: false, codes: map[float64]int{oslo.Latitude: 95}}
	d := newOfflineDashboard(t, p, nil)

	loc, err := d.AddLocation(context.Background(), oslo)
	require.NoError(t, err)
	assert.Equal(t, registry.DefaultMemberName, loc.Member)

	require.Eventually(t, func() bool {
		cards := d.Cards(weather.Celsius)
		return len(cards) == 1 && !cards[0].Syncing
	}, 2*time.Second, 5*time.Millisecond)

	card := d.Cards(weather.Fahrenheit)[0]
	info := weather.LookupCode(95)
	assert.Equal(t, info.Label, card.Label)
	assert.Equal(t, info.NightIcon, card.Icon)
	assert.Equal(t, weather.CategoryStormy, card.Category)
	require.NotNil(t, card.Temperature)
	assert.Equal(t, 68, *card.Temperature)
	require.Len(t, card.Daily, 1)
	assert.Equal(t, 71, card.Daily[0].Max)
	assert.Equal(t, 31, card.Daily[0].Min)
}

func TestDashboard_CardWithoutSnapshotIsSyncing(t *testing.T) {
	d := New(Options{
		Registry: registry.NewEngine(nil),
		Provider: &codeProvider{},
		Store:    store.NewMemoryStore(),
	})
	t.Cleanup(d.Stop)

	// Not started: the roster changes but no refresh is triggered.
	_, err := d.registry.Add(context.Background(), lima)
	require.NoError(t, err)

	cards := d.Cards(weather.Celsius)
	require.Len(t, cards, 1)
	assert.True(t, cards[0].Syncing)
	assert.Equal(t, SyncingLabel, cards[0].Label)
	assert.Nil(t, cards[0].Temperature)
}

func TestDashboard_SearchSelectAddsMember(t *testing.T) {
	p := &codeProvider{isDay: true}
	d := newOfflineDashboard(t, p, staticGeocoder{results: []weather.SearchResult{lima, perth}})

	d.Search().SetQuery("Pe")
	require.Eventually(t, func() bool {
		return d.Search().State() == search.StateResults
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, d.Search().Select(1))

	locs := d.Roster().Locations
	require.Len(t, locs, 1)
	assert.Equal(t, "Perth", locs[0].Name)
	assert.Equal(t, "Western Australia", locs[0].Admin)
}

func TestDashboard_RenameAndRemoveOffline(t *testing.T) {
	d := newOfflineDashboard(t, &codeProvider{isDay: true}, nil)

	loc, err := d.AddLocation(context.Background(), oslo)
	require.NoError(t, err)

	require.NoError(t, d.RenameMember(context.Background(), loc.ID, "  "))
	assert.Equal(t, registry.DefaultMemberName, d.Roster().Locations[0].Member)

	require.NoError(t, d.RenameMember(context.Background(), loc.ID, "Ingrid"))
	assert.Equal(t, "Ingrid", d.Roster().Locations[0].Member)

	assert.ErrorIs(t, d.RemoveLocation(context.Background(), "missing"), registry.ErrLocationNotFound)
	assert.Empty(t, d.Notice(), "not-found is not a write failure")

	require.NoError(t, d.RemoveLocation(context.Background(), loc.ID))
	assert.Empty(t, d.Roster().Locations)
}

func TestDashboard_WriteFailureSetsNotice(t *testing.T) {
	remote := registry.NewMemoryRemote()
	t.Cleanup(remote.Close)

	d := New(Options{
		Registry:     registry.NewEngine(remote),
		Provider:     &codeProvider{isDay: true},
		Store:        store.NewMemoryStore(),
		PollInterval: time.Hour,
	})
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(d.Stop)

	require.Eventually(t, func() bool {
		return len(d.Roster().Locations) == len(registry.DefaultRoster)
	}, 2*time.Second, 5*time.Millisecond)

	remote.FailWrites(errors.New("permission denied"))

	_, err := d.AddLocation(context.Background(), oslo)
	require.ErrorIs(t, err, registry.ErrWriteFailed)
	assert.Equal(t, NoticeAddFailed, d.Notice())

	id := d.Roster().Locations[0].ID
	require.ErrorIs(t, d.RenameMember(context.Background(), id, "Sam"), registry.ErrWriteFailed)
	assert.Equal(t, NoticeRenameFailed, d.Notice())

	require.ErrorIs(t, d.RemoveLocation(context.Background(), id), registry.ErrWriteFailed)
	assert.Equal(t, NoticeRemoveFailed, d.Notice())

	d.DismissNotice()
	assert.Empty(t, d.Notice())
	assert.Len(t, d.Roster().Locations, len(registry.DefaultRoster))
}

func TestDashboard_StopWaitsForBackgroundWork(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := &codeProvider{isDay: true}
	d := New(Options{
		Registry:     registry.NewEngine(nil),
		Provider:     p,
		Store:        store.NewMemoryStore(),
		PollInterval: time.Hour,
	})
	require.NoError(t, d.Start(context.Background()))

	_, err := d.AddLocation(context.Background(), oslo)
	require.NoError(t, err)
	d.Refresh()
	d.Stop()

	d.Refresh()
	d.Stop()
}
