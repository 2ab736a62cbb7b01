package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"stablecoin-risk-monitor/internal/scoring"
)

// setupRedis starts a Redis container and returns its address.
func setupRedis(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisMemo_RoundTrip(t *testing.T) {
	addr := setupRedis(t)
	ctx := context.Background()

	m, err := NewRedisMemo(ctx, RedisConfig{Addr: addr, TTL: time.Minute})
	require.NoError(t, err)
	defer m.Close()

	scored := sampleScored(t)
	key := Key(sampleTable(), scoring.DefaultPolicy())

	_, ok, err := m.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, key, scored))

	got, ok, err := m.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, len(scored))

	for i := range scored {
		assert.Equal(t, scored[i].TxID, got[i].TxID)
		assert.True(t, scored[i].Date.Equal(got[i].Date))
		assert.Equal(t, scored[i].Hour, got[i].Hour)
		assert.Equal(t, scored[i].Sanctioned, got[i].Sanctioned)
		assert.Equal(t, scored[i].Scores, got[i].Scores)
	}
}

func TestRedisMemo_TTL(t *testing.T) {
	addr := setupRedis(t)
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: addr})
	m := NewRedisMemoWithClient(client, 30*time.Second)
	defer m.Close()

	require.NoError(t, m.Set(ctx, "ttl-key", sampleScored(t)))

	ttl, err := client.TTL(ctx, redisKeyPrefix+"ttl-key").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 30*time.Second)
}

func TestRedisMemo_CorruptPayloadIsMiss(t *testing.T) {
	addr := setupRedis(t)
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: addr})
	m := NewRedisMemoWithClient(client, time.Minute)
	defer m.Close()

	require.NoError(t, client.Set(ctx, redisKeyPrefix+"bad", "not json", time.Minute).Err())

	_, ok, err := m.Get(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisMemo_RequiresAddr(t *testing.T) {
	_, err := NewRedisMemo(context.Background(), RedisConfig{})
	assert.Error(t, err)
}
