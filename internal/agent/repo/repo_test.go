package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nba-agent/server/internal/agent/model"
)

func exercise(t *testing.T, r model.ConversationRepository) {
	t.Helper()
	ctx := context.Background()

	h, err := r.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, h.Messages)
	assert.NotNil(t, h.Messages)

	require.NoError(t, r.AddMessage(ctx, "c1", schema.UserMessage("LeBron stats")))
	require.NoError(t, r.AddMessage(ctx, "c1", schema.AssistantMessage("24.4 ppg", nil)))
	require.NoError(t, r.AddMessage(ctx, "c2", schema.UserMessage("Curry")))

	h, err = r.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, "c1", h.ConversationID)
	assert.Equal(t, schema.User, h.Messages[0].Role)
	assert.Equal(t, "LeBron stats", h.Messages[0].Content)
	assert.Equal(t, schema.Assistant, h.Messages[1].Role)

	n, err := r.GetMessageCount(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, r.ClearHistory(ctx, "c1"))
	n, err = r.GetMessageCount(ctx, "c1")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = r.GetMessageCount(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRedisConversationRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	r := NewRedisConversationRepository(rdb, 30*time.Minute)
	exercise(t, r)

	assert.Equal(t, 30*time.Minute, mr.TTL("nba:conversation:c2:messages"))

	mr.FastForward(31 * time.Minute)
	n, err := r.GetMessageCount(context.Background(), "c2")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisSkipsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	r := NewRedisConversationRepository(rdb, 0)
	require.NoError(t, r.AddMessage(ctx, "c1", schema.UserMessage("first")))
	_, err := mr.RPush("nba:conversation:c1:messages", "{broken")
	require.NoError(t, err)
	require.NoError(t, r.AddMessage(ctx, "c1", schema.UserMessage("second")))

	h, err := r.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, "second", h.Messages[1].Content)
}

func TestRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	mr.Close()

	err := NewRedisConversationRepository(rdb, 0).AddMessage(context.Background(), "c1", schema.UserMessage("hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis operation failed")
}

func TestMemoryConversationRepository(t *testing.T) {
	exercise(t, NewMemoryConversationRepository(0))
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	r := NewMemoryConversationRepository(10 * time.Minute)
	r.now = func() time.Time { return now }

	require.NoError(t, r.AddMessage(ctx, "c1", schema.UserMessage("hi")))
	now = now.Add(9 * time.Minute)
	require.NoError(t, r.AddMessage(ctx, "c1", schema.UserMessage("still here")))

	now = now.Add(9 * time.Minute)
	h, err := r.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, h.Messages, 2, "writes extend the idle timeout")

	now = now.Add(2 * time.Minute)
	h, err = r.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, h.Messages)
}
