// Package names resolves account ids to display names for audit views,
// caching results in Redis when a client is configured.
package names

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ChunkSize is the largest batch sent to the source in one query.
const ChunkSize = 50

const keyPrefix = "unionhub:name:"

// Source loads names from the system of record.
type Source interface {
	NamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error)
}

// Resolver looks names up in Redis first, then in the source.
type Resolver struct {
	src Source
	rdb redis.UniversalClient
	ttl time.Duration
	log *zap.Logger
}

// New creates a Resolver. rdb may be nil to disable caching.
func New(src Source, rdb redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Resolver{src: src, rdb: rdb, ttl: ttl, log: logger}
}

func key(id primitive.ObjectID) string { return keyPrefix + id.Hex() }

// Names returns the display name of every known id. Unknown ids are absent.
// Cache failures are logged and fall through to the source.
func (r *Resolver) Names(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	missing := dedupe(ids)
	if len(missing) == 0 {
		return out, nil
	}

	if r.rdb != nil {
		missing = r.fromCache(ctx, missing, out)
	}

	fetched := map[primitive.ObjectID]string{}
	for start := 0; start < len(missing); start += ChunkSize {
		end := start + ChunkSize
		if end > len(missing) {
			end = len(missing)
		}
		got, err := r.src.NamesByIDs(ctx, missing[start:end])
		if err != nil {
			return nil, err
		}
		for id, name := range got {
			fetched[id] = name
			out[id] = name
		}
	}

	if r.rdb != nil && len(fetched) > 0 {
		pipe := r.rdb.Pipeline()
		for id, name := range fetched {
			pipe.Set(ctx, key(id), name, r.ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			r.log.Warn("name cache write failed", zap.Error(err))
		}
	}
	return out, nil
}

// fromCache fills out from Redis and returns the ids it did not find.
func (r *Resolver) fromCache(ctx context.Context, ids []primitive.ObjectID, out map[primitive.ObjectID]string) []primitive.ObjectID {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		r.log.Warn("name cache read failed", zap.Error(err))
		return ids
	}
	var missing []primitive.ObjectID
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[ids[i]] = s
			continue
		}
		missing = append(missing, ids[i])
	}
	return missing
}

// Invalidate drops a cached name after the account's name changes.
func (r *Resolver) Invalidate(ctx context.Context, id primitive.ObjectID) {
	if r.rdb == nil {
		return
	}
	if err := r.rdb.Del(ctx, key(id)).Err(); err != nil && err != redis.Nil {
		r.log.Warn("name cache invalidate failed", zap.Error(err))
	}
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
