package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"

	"github.com/i474232898/team-weather/internal/weather"
)

const (
	// DefaultGeocodeBaseURL is the public Open-Meteo geocoding API.
	DefaultGeocodeBaseURL = "https://geocoding-api.open-meteo.com/v1/search"

	geocodeCacheTTL     = 10 * time.Minute
	geocodeCacheCleanup = 30 * time.Minute
)

// GeocodeOptions tunes the geocoding client.
type GeocodeOptions struct {
	BaseURL  string
	Count    int
	Language string
}

// OpenMeteoGeocoder implements weather.Geocoder for the Open-Meteo search API.
// Answers are kept for the session keyed by normalized query.
type OpenMeteoGeocoder struct {
	baseURL  string
	count    int
	language string
	client   *http.Client
	circuit  *gobreaker.CircuitBreaker
	cache    *gocache.Cache
}

// NewOpenMeteoGeocoder creates a geocoding client with defaults of 6 results in English.
func NewOpenMeteoGeocoder(client *http.Client, opts GeocodeOptions) *OpenMeteoGeocoder {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGeocodeBaseURL
	}
	if opts.Count <= 0 {
		opts.Count = 6
	}
	if opts.Language == "" {
		opts.Language = "en"
	}

	return &OpenMeteoGeocoder{
		baseURL:  opts.BaseURL,
		count:    opts.Count,
		language: opts.Language,
		client:   client,
		circuit:  newCircuitBreaker("openmeteo-geocoding"),
		cache:    gocache.New(geocodeCacheTTL, geocodeCacheCleanup),
	}
}

// Search returns up to the configured number of candidates for query.
// The query is trimmed and lower-cased before it is sent or cached.
// A response without a results array is an empty, successful answer.
func (g *OpenMeteoGeocoder) Search(ctx context.Context, query string) ([]weather.SearchResult, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if cached, ok := g.cache.Get(key); ok {
		if results, ok := cached.([]weather.SearchResult); ok {
			return slices.Clone(results), nil
		}
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("name", key)
		values.Set("count", strconv.Itoa(g.count))
		values.Set("language", g.language)
		values.Set("format", "json")

		u := fmt.Sprintf("%s?%s", g.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, g.client, g.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			ID          int64   `json:"id"`
			Name        string  `json:"name"`
			Latitude    float64 `json:"latitude"`
			Longitude   float64 `json:"longitude"`
			CountryCode string  `json:"country_code"`
			Admin1      string  `json:"admin1"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode geocoding response: %w", err)
	}

	results := make([]weather.SearchResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		results = append(results, weather.SearchResult{
			Name:        r.Name,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
			CountryCode: r.CountryCode,
			Admin1:      r.Admin1,
			ProviderID:  r.ID,
		})
	}

	g.cache.SetDefault(key, results)
	return slices.Clone(results), nil
}
