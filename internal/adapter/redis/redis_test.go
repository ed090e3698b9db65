package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/el-rey08/EDHF-logistics/internal/config"
	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return m, client
}

func TestNewClient(t *testing.T) {
	m := miniredis.RunT(t)
	client, err := NewClient(context.Background(), config.RedisConfig{Addr: m.Addr()})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = NewClient(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestLocationStore_SaveGetExpire(t *testing.T) {
	m, client := newTestClient(t)
	store := NewLocationStore(client, time.Minute)
	ctx := context.Background()

	_, err := store.Get(ctx, "r1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	loc := domain.RiderLocation{RiderID: "r1", PublicID: "RID-001", Lat: 6.5244, Lng: 3.3792, UpdatedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Save(ctx, loc))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, loc, *got)
	assert.Equal(t, time.Minute, m.TTL(locationKeyPrefix+"r1"))

	m.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, "r1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFixedWindowLimiter(t *testing.T) {
	m, client := newTestClient(t)
	limiter := NewFixedWindowLimiter(client, "rl_test", 2, time.Minute)
	ctx := context.Background()

	d, err := limiter.Allow(ctx, "ip:login")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, err = limiter.Allow(ctx, "ip:login")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, err = limiter.Allow(ctx, "ip:login")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)

	// Other keys have their own window.
	d, err = limiter.Allow(ctx, "other")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	m.FastForward(61 * time.Second)
	d, err = limiter.Allow(ctx, "ip:login")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestFixedWindowLimiter_Errors(t *testing.T) {
	_, err := NewFixedWindowLimiter(nil, "", 0, 0).Allow(context.Background(), "k")
	assert.Error(t, err)

	bad := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 20 * time.Millisecond})
	t.Cleanup(func() { _ = bad.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = NewFixedWindowLimiter(bad, "", 1, time.Second).Allow(ctx, "k")
	assert.Error(t, err)
}
