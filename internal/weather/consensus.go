package weather

import "sync"

// DeriveAmbient reduces the roster's weather into one dominant style by majority.
// Locations without a snapshot are skipped. Ties go to the style seen first while
// scanning locations in order. ok is false when no location contributed.
func DeriveAmbient(locations []Location, snapshots map[string]WeatherSnapshot) (style AmbientStyle, ok bool) {
	counts := make(map[AmbientStyle]int)
	var order []AmbientStyle

	for _, loc := range locations {
		snap, found := snapshots[loc.ID]
		if !found {
			continue
		}
		s := AmbientStyle{
			Category: CategoryOf(snap.Current.WeatherCode),
			Phase:    PhaseFor(snap.Current.IsDay),
		}
		if _, seen := counts[s]; !seen {
			order = append(order, s)
		}
		counts[s]++
	}

	if len(order) == 0 {
		return AmbientStyle{}, false
	}

	best := order[0]
	for _, s := range order[1:] {
		if counts[s] > counts[best] {
			best = s
		}
	}
	return best, true
}

// Consensus remembers the last derived style so data gaps do not flicker
// the mood back to the default.
type Consensus struct {
	mu       sync.RWMutex
	current  AmbientStyle
	computed bool
}

// NewConsensus starts at DefaultAmbient.
func NewConsensus() *Consensus {
	return &Consensus{current: DefaultAmbient}
}

// Update recomputes the style; an empty tally keeps the previous one.
func (c *Consensus) Update(locations []Location, snapshots map[string]WeatherSnapshot) AmbientStyle {
	style, ok := DeriveAmbient(locations, snapshots)

	c.mu.Lock()
	defer c.mu.Unlock()
	if ok {
		c.current = style
		c.computed = true
	}
	return c.current
}

// Current returns the last computed style and whether one was ever computed.
func (c *Consensus) Current() (AmbientStyle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.computed
}
