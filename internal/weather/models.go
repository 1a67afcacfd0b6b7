package weather

import (
	"strings"
	"time"
)

// Category is the coarse weather bucket used for the ambient mood.
type Category string

const (
	CategoryDefault Category = "default"
	CategoryClear   Category = "clear"
	CategoryCloudy  Category = "cloudy"
	CategoryRainy   Category = "rainy"
	CategorySnowy   Category = "snowy"
	CategoryStormy  Category = "stormy"
)

// Phase is day or night at a location.
type Phase string

const (
	PhaseDay   Phase = "day"
	PhaseNight Phase = "night"
)

// PhaseFor maps the is_day flag reported by the forecast provider.
func PhaseFor(isDay bool) Phase {
	if isDay {
		return PhaseDay
	}
	return PhaseNight
}

// Location is one pinned member of the shared roster.
// ID is assigned once at creation and never changes.
type Location struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Member  string  `json:"member"`
	Country string  `json:"country"`
	Admin   string  `json:"admin"`
}

// CurrentConditions is the "current" block of a forecast response.
type CurrentConditions struct {
	Temperature      float64 `json:"temperature"`
	RelativeHumidity float64 `json:"relativeHumidity"`
	IsDay            bool    `json:"isDay"`
	WeatherCode      int     `json:"weatherCode"`
	WindSpeed        float64 `json:"windSpeed"`
}

// DailyForecast is one entry of the daily series; index 0 is today.
type DailyForecast struct {
	Date        string  `json:"date"`
	WeatherCode int     `json:"weatherCode"`
	TempMax     float64 `json:"tempMax"`
	TempMin     float64 `json:"tempMin"`
}

// WeatherSnapshot is the latest fetched weather for one location.
// Snapshots are replaced wholesale, never merged.
type WeatherSnapshot struct {
	LocationID string            `json:"locationId"`
	Current    CurrentConditions `json:"current"`
	Daily      []DailyForecast   `json:"daily"`
	FetchedAt  time.Time         `json:"fetchedAt"` // always UTC
}

// AmbientStyle is the derived (category, phase) pair driving the shared mood.
type AmbientStyle struct {
	Category Category `json:"category"`
	Phase    Phase    `json:"phase"`
}

// DefaultAmbient is shown until a style has been computed.
var DefaultAmbient = AmbientStyle{Category: CategoryDefault, Phase: PhaseDay}

// Key returns the tally key, e.g. "rainy_night".
func (a AmbientStyle) Key() string {
	return string(a.Category) + "_" + string(a.Phase)
}

// Vibe is the human readable form of Key, e.g. "rainy night".
func (a AmbientStyle) Vibe() string {
	return strings.Replace(a.Key(), "_", " ", 1)
}

// SearchResult is a geocoding candidate that can be adopted into the roster.
type SearchResult struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
	CountryCode string  `json:"country_code"`
	Admin1      string  `json:"admin1"`
	ProviderID  int64   `json:"id"`
}
