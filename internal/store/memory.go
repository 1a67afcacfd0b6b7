package store

import (
	"maps"
	"sync"

	"github.com/i474232898/team-weather/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory snapshot map for the current session.
// The map is swapped as a whole; readers always see one complete generation.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location id
	data map[string]weather.WeatherSnapshot

	// generation counts successful replacements.
	generation uint64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]weather.WeatherSnapshot),
	}
}

// Replace installs snapshots as the new map. Ids absent from snapshots disappear.
func (s *MemoryStore) Replace(snapshots map[string]weather.WeatherSnapshot) {
	next := maps.Clone(snapshots)
	if next == nil {
		next = make(map[string]weather.WeatherSnapshot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = next
	s.generation++
}

// All returns a copy of the current map.
func (s *MemoryStore) All() map[string]weather.WeatherSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.data)
}

// Get returns the snapshot for a location.
func (s *MemoryStore) Get(locationID string) (weather.WeatherSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.data[locationID]
	return snap, ok
}

// Generation reports how many times the map has been replaced.
func (s *MemoryStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}
