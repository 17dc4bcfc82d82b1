package infra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestMemoryCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "short", []byte("x"), time.Millisecond))
	require.NoError(t, c.Set(ctx, "forever", []byte("y"), 0))
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, "short")
	assert.False(t, ok, "expired entry should miss")
	_, ok = c.Get(ctx, "forever")
	assert.True(t, ok, "zero ttl never expires")

	c.Cleanup()
	assert.Equal(t, 1, c.Len())
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	type payload struct {
		Closes map[string]float64 `json:"closes"`
	}
	require.NoError(t, SetJSON(ctx, c, "p", payload{Closes: map[string]float64{"2024-01-02": 150}}, time.Minute))

	var out payload
	require.True(t, GetJSON(ctx, c, "p", &out))
	assert.Equal(t, 150.0, out.Closes["2024-01-02"])

	require.NoError(t, c.Set(ctx, "bad", []byte("{"), time.Minute))
	assert.False(t, GetJSON(ctx, c, "bad", &out))
}

func TestNewCacheFallsBackToMemory(t *testing.T) {
	c := NewCache(context.Background(), "")
	_, ok := c.(*MemoryCache)
	assert.True(t, ok)

	c = NewCache(context.Background(), "not a url")
	_, ok = c.(*MemoryCache)
	assert.True(t, ok)
}

func TestBackoff(t *testing.T) {
	base := 500 * time.Millisecond
	assert.Equal(t, 500*time.Millisecond, Backoff(base, 0))
	assert.Equal(t, time.Second, Backoff(base, 1))
	assert.Equal(t, 2*time.Second, Backoff(base, 2))
	assert.Equal(t, 500*time.Millisecond, Backoff(base, -1))
}

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1000, 2)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, rl.Wait(ctx))
	}

	var nilLimiter *RateLimiter
	assert.NoError(t, nilLimiter.Wait(ctx))

	slow := NewRateLimiter(0.001, 1)
	require.NoError(t, slow.Wait(ctx)) // burst token
	cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.Error(t, slow.Wait(cctx))
}

func TestRateLimiterUnlimited(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.NoError(t, rl.Wait(context.Background()))
	}
}

func TestRedisCacheIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	ctr, err := testcontainers.Run(ctx, "redis:7-alpine",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { ctr.Terminate(context.Background()) })

	endpoint, err := ctr.PortEndpoint(ctx, "6379/tcp", "redis")
	require.NoError(t, err)

	c, err := NewRedisCache(ctx, endpoint)
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get(ctx, "absent")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "gdelt:amazon", []byte(`{"articles":[]}`), time.Minute))
	got, ok := c.Get(ctx, "gdelt:amazon")
	require.True(t, ok)
	assert.JSONEq(t, `{"articles":[]}`, string(got))

	_, isRedis := NewCache(ctx, endpoint).(*RedisCache)
	assert.True(t, isRedis)
}
