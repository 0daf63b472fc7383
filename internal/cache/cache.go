package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"admission-workers/internal/common/logger"
	"admission-workers/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

// jsonStore is the shared read-through plumbing. Redis failures are logged and
// reported as misses so a cache outage never fails a prediction.
type jsonStore struct {
	client *redis.Client
	ttl    time.Duration
	name   string
	logger logger.Logger
}

func (s *jsonStore) get(ctx context.Context, key string, dest interface{}) bool {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cache read failed", map[string]interface{}{"cache": s.name, "key": key, "error": err})
		}
		metrics.RecordCacheLookup(s.name, false)
		return false
	}

	if err := json.Unmarshal(val, dest); err != nil {
		s.logger.Warn("cache entry corrupt, ignoring", map[string]interface{}{"cache": s.name, "key": key, "error": err})
		metrics.RecordCacheLookup(s.name, false)
		return false
	}

	metrics.RecordCacheLookup(s.name, true)
	return true
}

func (s *jsonStore) set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache encode failed", map[string]interface{}{"cache": s.name, "key": key, "error": err})
		return
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("cache write failed", map[string]interface{}{"cache": s.name, "key": key, "error": err})
	}
}
