package cache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stats struct {
	PPG float64 `json:"ppg"`
	GP  int     `json:"games_played"`
}

func TestFingerprint(t *testing.T) {
	// md5("stats_2544_2024-25")
	fp := Fingerprint("stats_2544_2024-25")
	assert.Len(t, fp, 32)
	assert.Equal(t, fp, Fingerprint("stats_2544_2024-25"))
	assert.NotEqual(t, fp, Fingerprint("stats_2544_2023-24"))
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", Fingerprint(""))
}

func TestMemoryOnly(t *testing.T) {
	ctx := context.Background()
	c := New(nil, 0)

	var got stats
	found, err := c.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "stats_1", stats{PPG: 24.4, GP: 70}))
	found, err = c.Get(ctx, "stats_1", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, stats{PPG: 24.4, GP: 70}, got)
	assert.Equal(t, 1, c.Len())
}

func TestFileStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, New(fs, 0).Set(ctx, "roster_1610612747", []string{"LeBron James"}))

	_, err = os.Stat(filepath.Join(dir, Fingerprint("roster_1610612747")+".json"))
	require.NoError(t, err)

	fresh := New(fs, 0)
	var roster []string
	found, err := fresh.Get(ctx, "roster_1610612747", &roster)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"LeBron James"}, roster)
	assert.Equal(t, 1, fresh.Len(), "disk hit populates memory")
}

func TestCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, Fingerprint("bad")+".json"), []byte("{not json"), 0o644))

	var v stats
	found, err := New(fs, 0).Get(ctx, "bad", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	c := New(nil, time.Hour, WithClock(func() time.Time { return now }))

	require.NoError(t, c.Set(ctx, "standings_2024-25", map[string]int{"wins": 40}))

	now = now.Add(59 * time.Minute)
	var v map[string]int
	found, err := c.Get(ctx, "standings_2024-25", &v)
	require.NoError(t, err)
	assert.True(t, found)

	now = now.Add(2 * time.Minute)
	found, err = c.Get(ctx, "standings_2024-25", &v)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, c.Len())
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	ss, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	_, found, err := ss.Get(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, ss.Set(ctx, "k", []byte("one")))
	require.NoError(t, ss.Set(ctx, "k", []byte("two")))
	b, found, err := ss.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "two", string(b))

	c := New(ss, 0)
	require.NoError(t, c.Set(ctx, "stats_203999", stats{PPG: 29.6, GP: 70}))
	var got stats
	found, err = New(ss, 0).Get(ctx, "stats_203999", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 29.6, got.PPG)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	c := New(NewRedisStore(rdb, time.Minute), time.Minute)
	require.NoError(t, c.Set(ctx, "schedule_1610612744", "GSW vs LAL today"))

	key := "nbacache:" + Fingerprint("schedule_1610612744")
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	var got string
	found, err := New(NewRedisStore(rdb, time.Minute), time.Minute).Get(ctx, "schedule_1610612744", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "GSW vs LAL today", got)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := New(nil, 0)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Set(ctx, "shared", stats{GP: i})
			var v stats
			_, _ = c.Get(ctx, "shared", &v)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, Config{Backend: "memory"}, nil)
	require.NoError(t, err)
	assert.Nil(t, c.store)

	c, err = Open(ctx, Config{Backend: "file", Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, c.store)

	_, err = Open(ctx, Config{Backend: "redis"}, nil)
	assert.Error(t, err)

	_, err = Open(ctx, Config{Backend: "etcd"}, nil)
	assert.Error(t, err)
}
