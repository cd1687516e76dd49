// Package ratelimit limits requests per key with a Redis sorted-set sliding window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result of one admission check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// Keep entries inside the window, count them and admit when under the limit.
// The counter key makes members unique when two requests share a millisecond.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local counter_key = KEYS[2]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local count = redis.call('ZCARD', key)

	if count < limit then
		local counter = redis.call('INCR', counter_key)
		redis.call('ZADD', key, now, now .. ':' .. counter)
		redis.call('PEXPIRE', key, window_ms)
		redis.call('PEXPIRE', counter_key, window_ms)
		return {1, limit - count - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local retry_after = 0
	if #oldest >= 2 then
		retry_after = oldest[2] + window_ms - now
	end
	return {0, 0, retry_after}
`)

// SlidingWindow admits at most Limit requests per key within Window.
type SlidingWindow struct {
	client redis.Scripter
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewSlidingWindow(client redis.Scripter, limit int, window time.Duration, prefix string) *SlidingWindow {
	return &SlidingWindow{client: client, limit: limit, window: window, prefix: prefix, now: time.Now}
}

// Limit returns the number of requests admitted per window.
func (l *SlidingWindow) Limit() int { return l.limit }

func (l *SlidingWindow) Allow(ctx context.Context, key string) (*Result, error) {
	now := l.now()
	redisKey := l.prefix + key

	res, err := slidingWindowScript.Run(ctx, l.client, []string{redisKey, redisKey + ":counter"},
		now.UnixMilli(),
		now.Add(-l.window).UnixMilli(),
		l.limit,
		l.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("run rate limit script: %w", err)
	}
	if len(res) < 3 {
		return nil, fmt.Errorf("unexpected rate limit result length: %d", len(res))
	}

	out := &Result{
		Allowed:   res[0] == 1,
		Remaining: int(res[1]),
		ResetAt:   now.Add(l.window),
	}
	if !out.Allowed && res[2] > 0 {
		out.RetryAfter = time.Duration(res[2]) * time.Millisecond
	}
	return out, nil
}
