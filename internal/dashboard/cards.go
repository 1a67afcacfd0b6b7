package dashboard

import (
	"github.com/i474232898/team-weather/internal/weather"
)

// SyncingLabel is shown on a card whose weather has not arrived yet.
const SyncingLabel = "Syncing..."

// Card is the presentation data for one member.
type Card struct {
	Location    weather.Location `json:"location"`
	Syncing     bool             `json:"syncing"`
	Label       string           `json:"label"`
	Category    weather.Category `json:"category"`
	Icon        string           `json:"icon"`
	Color       string           `json:"color"`
	Unit        weather.Unit     `json:"unit"`
	Temperature *int             `json:"temperature,omitempty"`
	Humidity    float64          `json:"humidity"`
	WindSpeed   float64          `json:"windSpeed"`
	Daily       []DayCard        `json:"daily,omitempty"`
}

// DayCard is one entry of a card's daily strip.
type DayCard struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Max   int    `json:"max"`
	Min   int    `json:"min"`
}

// Ambient is the shared mood plus its display text.
type Ambient struct {
	Category weather.Category `json:"category"`
	Phase    weather.Phase    `json:"phase"`
	Key      string           `json:"key"`
	Vibe     string           `json:"vibe"`
}

// Cards renders one card per member, in roster order.
func (d *Dashboard) Cards(unit weather.Unit) []Card {
	locs := d.registry.Locations()
	snaps := d.aggregator.Snapshots()

	cards := make([]Card, 0, len(locs))
	for _, loc := range locs {
		snap, ok := snaps[loc.ID]
		if !ok {
			cards = append(cards, Card{
				Location: loc,
				Syncing:  true,
				Label:    SyncingLabel,
				Category: weather.CategoryDefault,
				Icon:     weather.UnknownCode.DayIcon,
				Color:    weather.UnknownCode.ColorToken,
				Unit:     unit,
			})
			continue
		}
		cards = append(cards, buildCard(loc, snap, unit))
	}
	return cards
}

func buildCard(loc weather.Location, snap weather.WeatherSnapshot, unit weather.Unit) Card {
	info := weather.LookupCode(snap.Current.WeatherCode)
	temp := weather.ConvertTemperature(snap.Current.Temperature, unit)

	days := make([]DayCard, 0, len(snap.Daily))
	for _, day := range snap.Daily {
		dayInfo := weather.LookupCode(day.WeatherCode)
		days = append(days, DayCard{
			Date:  day.Date,
			Label: dayInfo.Label,
			Icon:  dayInfo.DayIcon,
			Max:   weather.ConvertTemperature(day.TempMax, unit),
			Min:   weather.ConvertTemperature(day.TempMin, unit),
		})
	}

	return Card{
		Location:    loc,
		Label:       info.Label,
		Category:    info.Category,
		Icon:        info.Icon(snap.Current.IsDay),
		Color:       info.ColorToken,
		Unit:        unit,
		Temperature: &temp,
		Humidity:    snap.Current.RelativeHumidity,
		WindSpeed:   snap.Current.WindSpeed,
		Daily:       days,
	}
}

// Ambient returns the consensus style. Before the first computation the
// default style is reported with a "syncing" vibe.
func (d *Dashboard) Ambient() Ambient {
	style, ok := d.consensus.Current()
	vibe := style.Vibe()
	if !ok {
		style = weather.DefaultAmbient
		vibe = "syncing"
	}
	return Ambient{
		Category: style.Category,
		Phase:    style.Phase,
		Key:      style.Key(),
		Vibe:     vibe,
	}
}
