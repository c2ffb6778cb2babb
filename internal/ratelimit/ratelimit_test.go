package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_BurstThenDeny(t *testing.T) {
	s := NewMemoryStore(3)
	fixed := time.Date(2025, 9, 12, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	for i := 0; i < 3; i++ {
		ok, err := s.Allow(context.Background(), "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, _ := s.Allow(context.Background(), "1.2.3.4")
	assert.False(t, ok)

	ok, _ = s.Allow(context.Background(), "5.6.7.8")
	assert.True(t, ok, "keys are independent")
}

func TestMemoryStore_Refills(t *testing.T) {
	s := NewMemoryStore(60)
	now := time.Date(2025, 9, 12, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	for i := 0; i < 60; i++ {
		_, _ = s.Allow(context.Background(), "k")
	}
	ok, _ := s.Allow(context.Background(), "k")
	require.False(t, ok)

	now = now.Add(2 * time.Second)
	ok, _ = s.Allow(context.Background(), "k")
	assert.True(t, ok, "one token per second at 60/min")
}

func TestMemoryStore_EvictsIdleKeys(t *testing.T) {
	s := NewMemoryStore(10)
	now := time.Date(2025, 9, 12, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, _ = s.Allow(context.Background(), "a")
	_, _ = s.Allow(context.Background(), "b")
	require.Equal(t, 2, s.Len())

	now = now.Add(10 * time.Minute)
	_, _ = s.Allow(context.Background(), "c")
	assert.Equal(t, 1, s.Len())
}

type fakeCounter struct {
	counts  map[string]int64
	expired []string
	err     error
}

func (f *fakeCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "incr", key)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.counts[key]++
	cmd.SetVal(f.counts[key])
	return cmd
}

func (f *fakeCounter) Expire(ctx context.Context, key string, _ time.Duration) *redis.BoolCmd {
	f.expired = append(f.expired, key)
	cmd := redis.NewBoolCmd(ctx, "expire", key)
	cmd.SetVal(true)
	return cmd
}

func TestRedisStore_FixedWindow(t *testing.T) {
	fc := &fakeCounter{counts: map[string]int64{}}
	now := time.Date(2025, 9, 12, 10, 0, 5, 0, time.UTC)
	s := &RedisStore{client: fc, limit: 2, window: time.Minute, prefix: "t:", now: func() time.Time { return now }}

	for i, want := range []bool{true, true, false} {
		ok, err := s.Allow(context.Background(), "ip")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "request %d", i)
	}
	assert.Len(t, fc.expired, 1, "expiry set once per window")

	now = now.Add(time.Minute)
	ok, err := s.Allow(context.Background(), "ip")
	require.NoError(t, err)
	assert.True(t, ok, "new window resets the count")
}

func TestRedisStore_Error(t *testing.T) {
	fc := &fakeCounter{counts: map[string]int64{}, err: errors.New("conn refused")}
	s := &RedisStore{client: fc, limit: 2, window: time.Minute, now: time.Now}
	_, err := s.Allow(context.Background(), "ip")
	require.Error(t, err)
}

func TestNewRedisStore(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer func() { _ = client.Close() }()
	s := NewRedisStore(client, 10)
	assert.Equal(t, int64(10), s.limit)
}
