package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockScript deletes the lock only if it still holds the caller's token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCache implements Client interface using Redis
type RedisCache struct {
	client *redis.Client
	config *Config
	logger Logger
}

func NewRedisCache(config *Config, logger Logger) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	cache := &RedisCache{
		client: rdb,
		config: config,
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cache.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return cache, nil
}

func (r *RedisCache) key(k string) string {
	return r.config.Prefix + k
}

func (r *RedisCache) ttl(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return r.config.DefaultTTL
	}
	if ttl < 0 {
		return 0
	}
	return ttl
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, &Error{Operation: "get", Key: key, Err: err}
	}
	return result, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl(ttl)).Err(); err != nil {
		return &Error{Operation: "set", Key: key, Err: err}
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return &Error{Operation: "delete", Key: strings.Join(keys, ","), Err: err}
	}
	return nil
}

func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	result, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, &Error{Operation: "exists", Key: key, Err: err}
	}
	return result > 0, nil
}

// DeletePattern walks the keyspace with SCAN so large databases are not blocked.
func (r *RedisCache) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	var deleted int64
	iter := r.client.Scan(ctx, 0, r.key(pattern), 500).Iterator()
	batch := make([]string, 0, 500)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := r.client.Unlink(ctx, batch...).Result()
		deleted += n
		batch = batch[:0]
		return err
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return deleted, &Error{Operation: "delete_pattern", Key: pattern, Err: err}
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, &Error{Operation: "delete_pattern", Key: pattern, Err: err}
	}
	if err := flush(); err != nil {
		return deleted, &Error{Operation: "delete_pattern", Key: pattern, Err: err}
	}
	return deleted, nil
}

func (r *RedisCache) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	full := r.key(key)
	pipe := r.client.TxPipeline()
	incrCmd := pipe.IncrBy(ctx, full, delta)
	if expiration := r.ttl(ttl); expiration > 0 {
		pipe.ExpireNX(ctx, full, expiration)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, &Error{Operation: "increment", Key: key, Err: err}
	}
	return incrCmd.Val(), nil
}

func (r *RedisCache) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	result, err := r.client.TTL(ctx, r.key(key)).Result()
	if err != nil {
		return 0, &Error{Operation: "ttl", Key: key, Err: err}
	}
	// -2 means the key does not exist
	if result == -2 || result == -2*time.Second {
		return 0, ErrKeyNotFound
	}
	return result, nil
}

func (r *RedisCache) Lock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, r.key(LockKey(key)), token, ttl).Result()
	if err != nil {
		return "", false, &Error{Operation: "lock", Key: key, Err: err}
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (r *RedisCache) Unlock(ctx context.Context, key, token string) error {
	n, err := unlockScript.Run(ctx, r.client, []string{r.key(LockKey(key))}, token).Int64()
	if err != nil {
		return &Error{Operation: "unlock", Key: key, Err: err}
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

func (r *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &Error{Operation: "serialize", Key: key, Err: ErrSerialization}
	}
	return r.Set(ctx, key, data, ttl)
}

func (r *RedisCache) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return &Error{Operation: "ping", Err: err}
	}
	return nil
}

func (r *RedisCache) Stats(ctx context.Context) (Stats, error) {
	info, err := r.client.Info(ctx, "memory", "stats", "server").Result()
	if err != nil {
		return Stats{}, &Error{Operation: "stats", Err: err}
	}

	poolStats := r.client.PoolStats()
	hits := parseInfoInt(info, "keyspace_hits")
	misses := parseInfoInt(info, "keyspace_misses")

	stats := Stats{
		Hits:        hits,
		Misses:      misses,
		Connections: int64(poolStats.TotalConns),
		Metadata: map[string]string{
			"type":              "redis",
			"redis_version":     parseInfoField(info, "redis_version"),
			"used_memory":       parseInfoField(info, "used_memory"),
			"uptime_in_seconds": parseInfoField(info, "uptime_in_seconds"),
		},
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	if dbSize, err := r.client.DBSize(ctx).Result(); err == nil {
		stats.Keys = dbSize
	}

	return stats, nil
}

func parseInfoField(info, field string) string {
	for _, line := range strings.Split(info, "\r\n") {
		if value, ok := strings.CutPrefix(line, field+":"); ok {
			return value
		}
	}
	return ""
}

func parseInfoInt(info, field string) int64 {
	n, _ := parseInt64([]byte(parseInfoField(info, field)))
	return n
}
