//go:build integration

package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"

	"github.com/eshashah22/131-Insight/config"
)

var (
	testRedisAddr  string
	redisContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	redisContainer, err = rediscontainer.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "启动 redis 容器失败: %v\n", err)
		os.Exit(1)
	}

	testRedisAddr, err = redisContainer.Endpoint(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 redis 地址失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := redisContainer.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "关闭 redis 容器失败: %v\n", err)
	}
	os.Exit(code)
}

func setupTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(&config.RedisConfig{Addr: testRedisAddr}, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.rdb.FlushAll(ctx).Err())

	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClient_Unreachable(t *testing.T) {
	_, err := NewClient(&config.RedisConfig{Addr: "127.0.0.1:1"}, zap.NewNop())
	assert.Error(t, err)
}

func TestCheckRateLimit_AllowsThenBlocks(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()
	key := "rate_limit:127.0.0.1:/api/v1/sentiment"

	for i := 0; i < 3; i++ {
		allowed, err := client.CheckRateLimit(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "第 %d 次请求应放行", i+1)
	}

	allowed, err := client.CheckRateLimit(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed, "超过上限后应拒绝")

	// 被拒绝的请求不计入窗口
	count, err := client.rdb.ZCard(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	ttl, err := client.rdb.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "窗口 key 应设置过期时间")

	// 其他路由 / IP 互不影响
	allowed, err = client.CheckRateLimit(ctx, "rate_limit:127.0.0.1:/api/v1/summary", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCheckRateLimit_WindowSlides(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()
	key := "rate_limit:10.0.0.1:/api/v1/summary"
	window := 300 * time.Millisecond

	allowed, err := client.CheckRateLimit(ctx, key, 1, window)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = client.CheckRateLimit(ctx, key, 1, window)
	require.NoError(t, err)
	assert.False(t, allowed)

	time.Sleep(window + 100*time.Millisecond)

	allowed, err = client.CheckRateLimit(ctx, key, 1, window)
	require.NoError(t, err)
	assert.True(t, allowed, "窗口滑过后应重新放行")
}

func TestSummaryCache_RoundTrip(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	_, ok, err := client.GetSummary(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, ok, "未写入时应未命中")

	require.NoError(t, client.SetSummary(ctx, "abc123", "Students are engaged.", time.Minute))

	got, ok, err := client.GetSummary(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Students are engaged.", got)

	ttl, err := client.rdb.TTL(ctx, summaryPrefix+"abc123").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
}

func TestSummaryCache_ZeroTTLSkipsWrite(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SetSummary(ctx, "no-ttl", "ignored", 0))

	_, ok, err := client.GetSummary(ctx, "no-ttl")
	require.NoError(t, err)
	assert.False(t, ok)
}
