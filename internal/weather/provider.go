package weather

import (
	"context"
)

// ForecastProvider abstracts the upstream forecast service.
// The returned snapshot has no LocationID; the caller assigns it.
type ForecastProvider interface {
	Name() string
	FetchForecast(ctx context.Context, lat, lon float64) (WeatherSnapshot, error)
}

// Geocoder abstracts the upstream place search service.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// SnapshotStore holds the current snapshot map keyed by Location.ID.
// Replace swaps the whole map; implementations must never merge.
type SnapshotStore interface {
	Replace(snapshots map[string]WeatherSnapshot)
	All() map[string]WeatherSnapshot
	Get(locationID string) (WeatherSnapshot, bool)
}
