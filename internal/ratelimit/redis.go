package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// slidingWindow атомарно чистит окно, проверяет лимит и записывает событие.
// Время передаётся в миллисекундах.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  if #oldest < 2 then
    return {0, window, 0}
  end
  return {0, tonumber(oldest[2]) + window - now, 0}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, 0, limit - count - 1}
`)

// Redis хранит окна в сортированных множествах, чтобы несколько
// экземпляров сервиса разделяли одни счётчики.
type Redis struct {
	db  redis.Scripter
	now func() time.Time
}

// NewRedis создаёт лимитер поверх клиента Redis.
func NewRedis(db redis.Scripter) *Redis {
	return &Redis{db: db, now: time.Now}
}

// Check реализует Limiter.
func (r *Redis) Check(ctx context.Context, key string, rule Rule) (Decision, error) {
	const op = "ratelimit.Redis.Check"
	if rule.unlimited() {
		return Decision{Allowed: true}, nil
	}

	nowMs := r.now().UnixMilli()
	member := fmt.Sprintf("%d-%s", nowMs, uuid.NewString())
	res, err := slidingWindow.Run(ctx, r.db, []string{keyPrefix + key},
		nowMs, rule.Window.Milliseconds(), rule.Max, member).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("%s: unexpected script result %v", op, res)
	}

	if res[0] == 0 {
		return Decision{Allowed: false, RetryAfter: time.Duration(res[1]) * time.Millisecond}, nil
	}
	return Decision{Allowed: true, Remaining: int(res[2])}, nil
}
