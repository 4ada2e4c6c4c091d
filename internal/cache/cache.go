package cache

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"strconv"       // Cache key construction
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// StatsTTL is how long a cached stats response stays valid.
const StatsTTL = 60 * time.Second

// StatsKey is the cache key for one user's stats response.
func StatsKey(userID int64) string {
	return "stats:user:" + strconv.FormatInt(userID, 10)
}

// Get retrieves a value and unmarshals it into dest. A nil client
// (caching disabled) reports a miss.
func Get(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	val, err := rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(val), dest)
}

// Set stores a value with the given TTL. No-op with a nil client.
func Set(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

// Invalidate drops a user's cached stats after a mutation.
func Invalidate(ctx context.Context, rdb *redis.Client, userID int64) error {
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, StatsKey(userID)).Err()
}
