package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nba-agent/server/internal/agent/model"
	"github.com/nba-agent/server/internal/nba"
	"github.com/nba-agent/server/internal/nba/nbatest"
)

func newTestService(t *testing.T) *nba.Service {
	t.Helper()
	srv := nbatest.NewServer(t)
	cfg := nba.Config{
		StatsBaseURL:   srv.StatsURL(),
		LiveBaseURL:    srv.LiveURL(),
		RequestTimeout: 5 * time.Second,
		MaxRetries:     1,
		CurrentSeason:  "2024-25",
	}
	ref, err := nba.LoadReference()
	require.NoError(t, err)
	now := func() time.Time { return time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC) }
	return nba.NewService(nba.NewClient(cfg), nil, ref, cfg, nba.WithNow(now))
}

func run(t *testing.T, bt tool.BaseTool, args string, out any) {
	t.Helper()
	it, ok := bt.(tool.InvokableTool)
	require.True(t, ok)
	raw, err := it.InvokableRun(context.Background(), args)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(raw), out), raw)
}

func TestGetToolInfos(t *testing.T) {
	infos, err := GetToolInfos(context.Background(), GetQueryTools(newTestService(t)))
	require.NoError(t, err)

	var names []string
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{
		ToolPlayerStats, ToolComparePlayers, ToolTeamSchedule,
		ToolTeamStandings, ToolTeamRoster, ToolTeamArena,
	}, names)
}

func TestPlayerStatsTool(t *testing.T) {
	svc := newTestService(t)

	var report model.PlayerStatsReport
	run(t, createPlayerStatsTool(svc), `{"player":"lebron","stat_type":"ppg"}`, &report)
	assert.Equal(t, "LeBron James", report.Player)
	assert.Equal(t, "2024-25", report.Season)
	assert.Equal(t, model.StatPoints, report.StatType)
	assert.Equal(t, map[string]float64{"ppg": 24.4, "total_points": 1710}, report.Stats)

	var fail Failure
	run(t, createPlayerStatsTool(svc), `{"player":"lebron","season":"2024"}`, &fail)
	assert.Contains(t, fail.Error, "YYYY-YY")

	fail = Failure{}
	run(t, createPlayerStatsTool(svc), `{"player":"<script>"}`, &fail)
	assert.NotEmpty(t, fail.Error)

	fail = Failure{}
	run(t, createPlayerStatsTool(svc), `{"player":"Zzyzx Qwertyuiop"}`, &fail)
	assert.Contains(t, fail.Error, "couldn't find")
}

func TestComparePlayersTool(t *testing.T) {
	svc := newTestService(t)

	var cmp model.PlayerComparison
	run(t, createComparePlayersTool(svc), `{"player1":"LeBron James","player2":"Steph","stat_type":"points"}`, &cmp)
	assert.Equal(t, "2024-25", cmp.Season)
	require.Contains(t, cmp.Comparison, "ppg")
	assert.Equal(t, "Stephen Curry", cmp.Comparison["ppg"].Winner)
	assert.Equal(t, -0.1, cmp.Comparison["ppg"].Difference)
}

func TestTeamTools(t *testing.T) {
	svc := newTestService(t)

	var standing model.Standing
	run(t, createTeamStandingsTool(svc), `{"team":"lakers"}`, &standing)
	assert.Equal(t, 50, standing.Wins)
	assert.Equal(t, 32, standing.Losses)

	var roster model.Roster
	run(t, createTeamRosterTool(svc), `{"team":"LAL","season":"2024-25"}`, &roster)
	assert.Contains(t, roster.Players, "LeBron James")

	var sched model.Schedule
	run(t, createTeamScheduleTool(svc), `{"team":"Warriors"}`, &sched)
	assert.Equal(t, "GSW", sched.Abbreviation)
	assert.Len(t, sched.UpcomingGames, 1)

	var arena model.Arena
	run(t, createTeamArenaTool(svc), `{"team":"Golden State Warriors"}`, &arena)
	assert.Equal(t, "Chase Center", arena.Arena)

	var fail Failure
	run(t, createTeamArenaTool(svc), `{"team":"Qqqqqq"}`, &fail)
	assert.Contains(t, fail.Error, "couldn't find")
}
