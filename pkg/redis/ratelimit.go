package redis

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/ecorank/backend/pkg/config"
)

// slidingWindow trims the window, counts it and records the request when
// under the limit, atomically. Returns {allowed, remaining}.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	end
	return {0, 0}
`)

// RateLimiter is a sliding-window limiter shared by every server instance
// ⭐ SSOT: server-side request limits live here
type RateLimiter struct {
	client *Client
	prefix string
	now    func() time.Time
	seq    atomic.Int64
}

// RateLimitConfig defines one limit
type RateLimitConfig struct {
	Key    string        // limit name, combined with the caller identity
	Limit  int           // maximum requests per window
	Window time.Duration // window length
}

// AnalysisRateLimit is the limit applied to the narrative endpoint
func AnalysisRateLimit(cfg *config.Config) RateLimitConfig {
	return RateLimitConfig{
		Key:    "llm_analysis",
		Limit:  cfg.Redis.AnalysisLimit,
		Window: cfg.Redis.AnalysisWindow,
	}
}

// NewRateLimiter creates a limiter whose keys start with prefix
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// Allow records a request from identity and reports whether it is within the
// limit, with the number of requests left in the window
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig, identity string) (bool, int, error) {
	if !r.client.Enabled() || cfg.Limit <= 0 {
		return true, cfg.Limit, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s:%s", r.prefix, cfg.Key, identity)
	now := r.now().UnixMilli()
	// Distinct members so two requests in the same millisecond both count
	member := fmt.Sprintf("%d-%d", now, r.seq.Add(1))

	result, err := slidingWindow.Run(ctx, r.client.rdb, []string{key},
		now,
		now-cfg.Window.Milliseconds(),
		cfg.Limit,
		cfg.Window.Milliseconds(),
		member,
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	return result[0] == 1, int(result[1]), nil
}
