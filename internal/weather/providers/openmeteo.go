package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/team-weather/internal/weather"
	"github.com/sony/gobreaker"
)

const (
	// DefaultForecastBaseURL is the public Open-Meteo forecast API.
	DefaultForecastBaseURL = "https://api.open-meteo.com/v1/forecast"

	currentFields = "temperature_2m,relative_humidity_2m,is_day,weather_code,wind_speed_10m"
	dailyFields   = "weather_code,temperature_2m_max,temperature_2m_min"
	forecastDays  = 4
)

var errMalformedForecast = errors.New("malformed forecast response")

// OpenMeteoProvider implements weather.ForecastProvider for Open-Meteo.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoProvider creates a forecast client. An empty baseURL selects the public API.
func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultForecastBaseURL
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		client:  client,
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type forecastPayload struct {
	Current *struct {
		Temperature      float64 `json:"temperature_2m"`
		RelativeHumidity float64 `json:"relative_humidity_2m"`
		IsDay            int     `json:"is_day"`
		WeatherCode      int     `json:"weather_code"`
		WindSpeed        float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Daily struct {
		Time        []string  `json:"time"`
		WeatherCode []int     `json:"weather_code"`
		TempMax     []float64 `json:"temperature_2m_max"`
		TempMin     []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

// FetchForecast returns current conditions plus the daily series for a point.
func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, lat, lon float64) (weather.WeatherSnapshot, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
		values.Set("current", currentFields)
		values.Set("daily", dailyFields)
		values.Set("timezone", "auto")
		values.Set("forecast_days", strconv.Itoa(forecastDays))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.WeatherSnapshot{}, err
	}
	defer resp.Body.Close()

	var payload forecastPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.WeatherSnapshot{}, fmt.Errorf("%w: %v", errMalformedForecast, err)
	}

	return payload.toSnapshot()
}

func (f forecastPayload) toSnapshot() (weather.WeatherSnapshot, error) {
	if f.Current == nil {
		return weather.WeatherSnapshot{}, fmt.Errorf("%w: missing current block", errMalformedForecast)
	}

	n := len(f.Daily.Time)
	if len(f.Daily.WeatherCode) != n || len(f.Daily.TempMax) != n || len(f.Daily.TempMin) != n {
		return weather.WeatherSnapshot{}, fmt.Errorf("%w: daily series lengths differ", errMalformedForecast)
	}
	if n < forecastDays {
		return weather.WeatherSnapshot{}, fmt.Errorf("%w: %d daily entries, want %d", errMalformedForecast, n, forecastDays)
	}

	daily := make([]weather.DailyForecast, 0, n)
	for i := range n {
		daily = append(daily, weather.DailyForecast{
			Date:        f.Daily.Time[i],
			WeatherCode: f.Daily.WeatherCode[i],
			TempMax:     f.Daily.TempMax[i],
			TempMin:     f.Daily.TempMin[i],
		})
	}

	return weather.WeatherSnapshot{
		Current: weather.CurrentConditions{
			Temperature:      f.Current.Temperature,
			RelativeHumidity: f.Current.RelativeHumidity,
			IsDay:            f.Current.IsDay == 1,
			WeatherCode:      f.Current.WeatherCode,
			WindSpeed:        f.Current.WindSpeed,
		},
		Daily:     daily,
		FetchedAt: time.Now().UTC(),
	}, nil
}
