// Package registry keeps the shared location roster in sync with a remote collection.
package registry

import (
	"context"
	"errors"

	"github.com/i474232898/team-weather/internal/weather"
)

var (
	// ErrLocationNotFound is returned when a mutation names an id that is not in the roster.
	ErrLocationNotFound = errors.New("location not found")
	// ErrWriteFailed wraps any failed remote write.
	ErrWriteFailed = errors.New("registry write failed")
	// ErrClosed is returned by remotes that have been shut down.
	ErrClosed = errors.New("registry remote closed")
)

// Field names accepted by Remote.Update.
const (
	FieldName    = "name"
	FieldLat     = "lat"
	FieldLon     = "lon"
	FieldMember  = "member"
	FieldCountry = "country"
	FieldAdmin   = "admin"
)

// Remote is the shared document collection the roster mirrors.
//
// Subscribe delivers the whole collection, ordered by id, on every change,
// starting with the current contents. onSnapshot and onError are never called
// concurrently for one subscription. After onError the subscription is dead.
type Remote interface {
	Subscribe(ctx context.Context, onSnapshot func([]weather.Location), onError func(error)) (unsubscribe func(), err error)
	Upsert(ctx context.Context, id string, loc weather.Location) error
	// Update merges fields into the document, creating it if missing.
	Update(ctx context.Context, id string, fields map[string]string) error
	Delete(ctx context.Context, id string) error
}
