package registry

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/i474232898/team-weather/internal/weather"
)

// MemoryRemote is an in-process Remote shared by every engine holding it.
// Each subscriber has a one-slot mailbox that always holds the newest
// snapshot, so writers never block on slow subscribers.
type MemoryRemote struct {
	mu     sync.Mutex
	docs   map[string]weather.Location
	subs   map[chan []weather.Location]struct{}
	done   chan struct{}
	failOn error
}

// NewMemoryRemote creates an empty collection.
func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{
		docs: make(map[string]weather.Location),
		subs: make(map[chan []weather.Location]struct{}),
		done: make(chan struct{}),
	}
}

// FailWrites makes every later write return err. Pass nil to recover.
func (m *MemoryRemote) FailWrites(err error) {
	m.mu.Lock()
	m.failOn = err
	m.mu.Unlock()
}

// Subscribe implements Remote.
func (m *MemoryRemote) Subscribe(ctx context.Context, onSnapshot func([]weather.Location), onError func(error)) (func(), error) {
	m.mu.Lock()
	select {
	case <-m.done:
		m.mu.Unlock()
		return nil, ErrClosed
	default:
	}

	mailbox := make(chan []weather.Location, 1)
	mailbox <- m.snapshotLocked()
	m.subs[mailbox] = struct{}{}
	m.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer m.unsubscribe(mailbox)
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.done:
				if onError != nil {
					onError(ErrClosed)
				}
				return
			case snap := <-mailbox:
				onSnapshot(snap)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}, nil
}

func (m *MemoryRemote) unsubscribe(mailbox chan []weather.Location) {
	m.mu.Lock()
	delete(m.subs, mailbox)
	m.mu.Unlock()
}

// Upsert implements Remote.
func (m *MemoryRemote) Upsert(_ context.Context, id string, loc weather.Location) error {
	return m.write(func() {
		loc.ID = id
		m.docs[id] = loc
	})
}

// Update implements Remote.
func (m *MemoryRemote) Update(_ context.Context, id string, fields map[string]string) error {
	var applyErr error
	err := m.write(func() {
		loc := m.docs[id]
		loc.ID = id
		if applyErr = applyFields(&loc, fields); applyErr == nil {
			m.docs[id] = loc
		}
	})
	if err != nil {
		return err
	}
	return applyErr
}

// Delete implements Remote.
func (m *MemoryRemote) Delete(_ context.Context, id string) error {
	return m.write(func() {
		delete(m.docs, id)
	})
}

// Close ends every subscription with ErrClosed.
func (m *MemoryRemote) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-m.done:
	default:
		close(m.done)
	}
}

func (m *MemoryRemote) write(mutate func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.done:
		return ErrClosed
	default:
	}
	if m.failOn != nil {
		return m.failOn
	}

	mutate()

	snap := m.snapshotLocked()
	for mailbox := range m.subs {
		select {
		case <-mailbox:
		default:
		}
		mailbox <- snap
	}
	return nil
}

func (m *MemoryRemote) snapshotLocked() []weather.Location {
	out := make([]weather.Location, 0, len(m.docs))
	for _, loc := range m.docs {
		out = append(out, loc)
	}
	sortByID(out)
	return out
}

func sortByID(locs []weather.Location) {
	slices.SortFunc(locs, func(a, b weather.Location) int {
		return strings.Compare(a.ID, b.ID)
	})
}

// applyFields merges string-encoded fields into loc.
func applyFields(loc *weather.Location, fields map[string]string) error {
	for k, v := range fields {
		switch k {
		case FieldName:
			loc.Name = v
		case FieldMember:
			loc.Member = v
		case FieldCountry:
			loc.Country = v
		case FieldAdmin:
			loc.Admin = v
		case FieldLat, FieldLon:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("field %s: %w", k, err)
			}
			if k == FieldLat {
				loc.Lat = f
			} else {
				loc.Lon = f
			}
		default:
			return fmt.Errorf("unknown field %q", k)
		}
	}
	return nil
}
