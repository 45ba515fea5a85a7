package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript checks every budget and only then increments all of them,
// so partial consumption is never observable even across instances.
// KEYS[i] is the window counter; ARGV holds (limit, resetAtMillis) pairs.
// Returns {1, 0} when allowed, {0, resetAtMillis} of the nearest exhausted
// window when denied.
const consumeScript = `
local deniedReset = 0
for i = 1, #KEYS do
  local count = tonumber(redis.call('GET', KEYS[i]) or '0')
  local limit = tonumber(ARGV[i*2-1])
  local resetAt = tonumber(ARGV[i*2])
  if count >= limit then
    if deniedReset == 0 or resetAt < deniedReset then
      deniedReset = resetAt
    end
  end
end
if deniedReset > 0 then
  return {0, deniedReset}
end
for i = 1, #KEYS do
  redis.call('INCR', KEYS[i])
  redis.call('PEXPIREAT', KEYS[i], tonumber(ARGV[i*2]))
end
return {1, 0}
`

// RedisStore keeps window counters in Redis. Stale windows expire through
// Redis TTLs; the consume operation is a single Lua script so budgets stay
// atomic across serving instances.
type RedisStore struct {
	client *redis.Client
	script *redis.Script
	prefix string
	now    func() time.Time
}

// RedisStoreConfig configures the Redis-backed store.
type RedisStoreConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisStoreConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "volatiq"
	}
	return &RedisStore{
		client: client,
		script: redis.NewScript(consumeScript),
		prefix: prefix,
		now:    time.Now,
	}, nil
}

// ConsumeAll implements Store.
func (s *RedisStore) ConsumeAll(ctx context.Context, demands []Demand) (Verdict, error) {
	keys := make([]string, len(demands))
	argv := make([]interface{}, 0, len(demands)*2)
	for i, d := range demands {
		keys[i] = s.prefix + ":" + d.Key
		argv = append(argv, strconv.Itoa(d.Limit), strconv.FormatInt(d.ResetAt.UnixMilli(), 10))
	}

	res, err := s.script.Run(ctx, s.client, keys, argv...).Int64Slice()
	if err != nil {
		return Verdict{}, fmt.Errorf("ratelimit script: %w", err)
	}
	if len(res) != 2 {
		return Verdict{}, fmt.Errorf("ratelimit script: unexpected reply %v", res)
	}

	if res[0] == 1 {
		return Verdict{Allowed: true}, nil
	}
	retryAfter := time.UnixMilli(res[1]).Sub(s.now().UTC())
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Verdict{Allowed: false, RetryAfter: retryAfter}, nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
