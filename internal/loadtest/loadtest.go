// Package loadtest fires a fixed question set at the assistant concurrently
// and reports latency and failures.
package loadtest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nba-agent/server/internal/agent/model"
	logx "github.com/nba-agent/server/pkg/logger"
)

// Assistant is the part of the agent the driver exercises.
type Assistant interface {
	Invoke(ctx context.Context, in model.QueryInput) (*model.Reply, error)
}

// DefaultQueries is the mixed question set used when none is given.
var DefaultQueries = []string{
	"What are LeBron's stats?",
	"How many assists did Haliburton have?",
	"When do the Warriors play next?",
	"Show me Giannis rebounds",
	"What are Curry's points this season?",
	"Compare Luka and Giannis stats",
	"What are the Celtics standings?",
	"What are Kevin Durant's stats?",
}

type Options struct {
	Queries     []string
	Concurrency int
	// Iterations repeats the whole question set.
	Iterations int
}

// Result is the outcome of one question.
type Result struct {
	Query   string
	Route   model.Route
	Latency time.Duration
	Err     error
}

// Report aggregates a run. Latency percentiles cover successful questions only.
type Report struct {
	Total       int
	Failures    int
	P50         time.Duration
	P95         time.Duration
	Max         time.Duration
	Mean        time.Duration
	Wall        time.Duration
	Routes      map[model.Route]int
	Errors      []string
	SuccessRate float64
}

// Run sends every question Iterations times with at most Concurrency in
// flight. Each question gets its own conversation. Failed questions are
// counted, they do not stop the run; cancelling ctx does.
func Run(ctx context.Context, a Assistant, opts Options) (Report, error) {
	queries := opts.Queries
	if len(queries) == 0 {
		queries = DefaultQueries
	}
	iterations := max(opts.Iterations, 1)
	concurrency := max(opts.Concurrency, 1)

	var (
		mu      sync.Mutex
		results = make([]Result, 0, len(queries)*iterations)
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := 0; i < iterations; i++ {
		for _, q := range queries {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				t0 := time.Now()
				reply, err := a.Invoke(gctx, model.QueryInput{ConversationID: uuid.NewString(), Query: q})
				r := Result{Query: q, Latency: time.Since(t0), Err: err}
				if reply != nil {
					r.Route = reply.Route
				}
				if err != nil {
					logx.Warn().Str("query", q).Err(err).Msg("Load test question failed")
				}
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
				return nil
			})
		}
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	report := Summarize(results, time.Since(start))
	if err != nil {
		return report, fmt.Errorf("load test interrupted: %w", err)
	}
	return report, nil
}

// Summarize computes the report for a set of results.
func Summarize(results []Result, wall time.Duration) Report {
	rep := Report{Total: len(results), Wall: wall, Routes: map[model.Route]int{}}
	var ok []time.Duration
	var sum time.Duration
	for _, r := range results {
		if r.Err != nil {
			rep.Failures++
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: %v", r.Query, r.Err))
			continue
		}
		rep.Routes[r.Route]++
		ok = append(ok, r.Latency)
		sum += r.Latency
	}
	if rep.Total > 0 {
		rep.SuccessRate = float64(len(ok)) / float64(rep.Total)
	}
	if len(ok) == 0 {
		return rep
	}
	sort.Slice(ok, func(i, j int) bool { return ok[i] < ok[j] })
	rep.P50 = percentile(ok, 0.50)
	rep.P95 = percentile(ok, 0.95)
	rep.Max = ok[len(ok)-1]
	rep.Mean = sum / time.Duration(len(ok))
	return rep
}

// percentile uses the nearest-rank method on sorted values.
func percentile(sorted []time.Duration, p float64) time.Duration {
	rank := int(math.Ceil(p * float64(len(sorted))))
	rank = min(max(rank, 1), len(sorted))
	return sorted[rank-1]
}

// String renders the report for the terminal.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "questions:    %d\n", r.Total)
	fmt.Fprintf(&b, "success rate: %.1f%%\n", r.SuccessRate*100)
	fmt.Fprintf(&b, "failures:     %d\n", r.Failures)
	fmt.Fprintf(&b, "wall time:    %s\n", r.Wall.Round(time.Millisecond))
	fmt.Fprintf(&b, "latency:      mean %s  p50 %s  p95 %s  max %s\n",
		r.Mean.Round(time.Millisecond), r.P50.Round(time.Millisecond),
		r.P95.Round(time.Millisecond), r.Max.Round(time.Millisecond))
	routes := make([]string, 0, len(r.Routes))
	for route, n := range r.Routes {
		routes = append(routes, fmt.Sprintf("%s=%d", route, n))
	}
	sort.Strings(routes)
	fmt.Fprintf(&b, "routes:       %s\n", strings.Join(routes, " "))
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "  error: %s\n", e)
	}
	return b.String()
}
