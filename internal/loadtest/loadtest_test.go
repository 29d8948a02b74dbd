package loadtest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nba-agent/server/internal/agent/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingAssistant struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	ids      map[string]bool
	fail     string
	delay    time.Duration
}

func (c *countingAssistant) Invoke(ctx context.Context, in model.QueryInput) (*model.Reply, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}

	c.mu.Lock()
	if c.ids == nil {
		c.ids = map[string]bool{}
	}
	c.ids[in.ConversationID] = true
	c.mu.Unlock()

	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if in.Query == c.fail {
		return nil, errors.New("upstream down")
	}
	return &model.Reply{Output: "ok", Route: model.RouteDirect}, nil
}

func TestRunHonorsConcurrency(t *testing.T) {
	a := &countingAssistant{delay: 5 * time.Millisecond, fail: "broken"}
	rep, err := Run(context.Background(), a, Options{
		Queries:     []string{"a b", "c d", "e f", "broken"},
		Concurrency: 2,
		Iterations:  3,
	})
	require.NoError(t, err)

	assert.Equal(t, 12, rep.Total)
	assert.Equal(t, 3, rep.Failures)
	assert.InDelta(t, 0.75, rep.SuccessRate, 1e-9)
	assert.Equal(t, 9, rep.Routes[model.RouteDirect])
	assert.LessOrEqual(t, a.peak.Load(), int32(2))
	assert.Len(t, a.ids, 12, "each question gets its own conversation")
	assert.GreaterOrEqual(t, rep.P95, rep.P50)
	assert.GreaterOrEqual(t, rep.Max, rep.P95)
	assert.Contains(t, rep.String(), "failures:     3")
}

func TestRunDefaults(t *testing.T) {
	a := &countingAssistant{}
	rep, err := Run(context.Background(), a, Options{})
	require.NoError(t, err)
	assert.Equal(t, len(DefaultQueries), rep.Total)
	assert.Equal(t, int32(1), a.peak.Load())
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &countingAssistant{delay: time.Second}
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	rep, err := Run(ctx, a, Options{Queries: []string{"a b"}, Concurrency: 2, Iterations: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, rep.Total, 10)
}

func TestSummarize(t *testing.T) {
	var results []Result
	for i := 1; i <= 20; i++ {
		results = append(results, Result{Query: "q", Route: model.RouteAgent, Latency: time.Duration(i) * time.Millisecond})
	}
	results = append(results, Result{Query: "bad", Err: errors.New("boom")})

	rep := Summarize(results, time.Second)
	assert.Equal(t, 21, rep.Total)
	assert.Equal(t, 1, rep.Failures)
	assert.Equal(t, 10*time.Millisecond, rep.P50)
	assert.Equal(t, 19*time.Millisecond, rep.P95)
	assert.Equal(t, 20*time.Millisecond, rep.Max)
	assert.Equal(t, 10500*time.Microsecond, rep.Mean)
	assert.True(t, strings.HasPrefix(rep.Errors[0], "bad: boom"))

	empty := Summarize(nil, 0)
	assert.Zero(t, empty.P50)
	assert.Zero(t, empty.SuccessRate)
}
