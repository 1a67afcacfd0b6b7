package registry

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/i474232898/team-weather/internal/weather"
)

// RedisRemote stores the collection in Redis: a set of ids plus one hash per
// location, with a pub/sub channel announcing every write.
type RedisRemote struct {
	client *redis.Client
	path   string
}

// CollectionPath is the key prefix for an app's roster.
func CollectionPath(appID string) string {
	return "teamweather:" + appID + ":locations"
}

// NewRedisRemote wraps an existing client.
func NewRedisRemote(client *redis.Client, appID string) *RedisRemote {
	return &RedisRemote{
		client: client,
		path:   CollectionPath(appID),
	}
}

// DialRedis connects and pings the server. A failed ping means the remote is
// unusable and the caller should fall back to offline mode.
func DialRedis(ctx context.Context, redisURL, appID string) (*RedisRemote, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisRemote(client, appID), nil
}

// Close releases the underlying client.
func (r *RedisRemote) Close() error {
	return r.client.Close()
}

func (r *RedisRemote) idsKey() string { return r.path + ":ids" }

func (r *RedisRemote) eventsChannel() string { return r.path + ":events" }

func (r *RedisRemote) docKey(id string) string { return r.path + ":doc:" + id }

// Upsert implements Remote.
func (r *RedisRemote) Upsert(ctx context.Context, id string, loc weather.Location) error {
	fields := map[string]interface{}{
		FieldName:    loc.Name,
		FieldLat:     strconv.FormatFloat(loc.Lat, 'f', -1, 64),
		FieldLon:     strconv.FormatFloat(loc.Lon, 'f', -1, 64),
		FieldMember:  loc.Member,
		FieldCountry: loc.Country,
		FieldAdmin:   loc.Admin,
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.docKey(id))
		pipe.HSet(ctx, r.docKey(id), fields)
		pipe.SAdd(ctx, r.idsKey(), id)
		return nil
	})
	if err != nil {
		return err
	}
	return r.announce(ctx, id)
}

// Update implements Remote.
func (r *RedisRemote) Update(ctx context.Context, id string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	var parsed weather.Location
	if err := applyFields(&parsed, fields); err != nil {
		return err
	}

	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.docKey(id), values)
		pipe.SAdd(ctx, r.idsKey(), id)
		return nil
	})
	if err != nil {
		return err
	}
	return r.announce(ctx, id)
}

// Delete implements Remote.
func (r *RedisRemote) Delete(ctx context.Context, id string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.docKey(id))
		pipe.SRem(ctx, r.idsKey(), id)
		return nil
	})
	if err != nil {
		return err
	}
	return r.announce(ctx, id)
}

func (r *RedisRemote) announce(ctx context.Context, id string) error {
	return r.client.Publish(ctx, r.eventsChannel(), id).Err()
}

// Snapshot reads the whole collection ordered by id.
func (r *RedisRemote) Snapshot(ctx context.Context) ([]weather.Location, error) {
	ids, err := r.client.SMembers(ctx, r.idsKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []weather.Location{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.docKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	locs := make([]weather.Location, 0, len(ids))
	for i, id := range ids {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue // deleted between SMEMBERS and HGETALL
		}
		loc := weather.Location{ID: id}
		if err := applyFields(&loc, fields); err != nil {
			log.Printf("registry: skipping malformed document %s: %v", id, err)
			continue
		}
		locs = append(locs, loc)
	}
	sortByID(locs)
	return locs, nil
}

// Subscribe implements Remote. Bursts of events collapse into one re-read.
func (r *RedisRemote) Subscribe(ctx context.Context, onSnapshot func([]weather.Location), onError func(error)) (func(), error) {
	ps := r.client.Subscribe(ctx, r.eventsChannel())
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", r.eventsChannel(), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	events := ps.Channel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		deliver := func() bool {
			locs, err := r.Snapshot(ctx)
			if err != nil {
				if ctx.Err() == nil && onError != nil {
					onError(err)
				}
				return false
			}
			onSnapshot(locs)
			return true
		}

		if !deliver() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					if ctx.Err() == nil && onError != nil {
						onError(ErrClosed)
					}
					return
				}
			drain:
				for {
					select {
					case _, open := <-events:
						if !open {
							break drain
						}
					default:
						break drain
					}
				}
				if !deliver() {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			ps.Close()
			wg.Wait()
		})
	}, nil
}
