package nba

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nba-agent/server/internal/agent/model"
	errx "github.com/nba-agent/server/internal/core/error"
	"github.com/nba-agent/server/internal/nba/nbatest"
)

func newTestService(t *testing.T) (*Service, *nbatest.Server) {
	t.Helper()
	srv := nbatest.NewServer(t)
	cfg := Config{
		StatsBaseURL:   srv.StatsURL(),
		LiveBaseURL:    srv.LiveURL(),
		RequestTimeout: 5 * time.Second,
		MaxRetries:     2,
		CurrentSeason:  "2024-25",
	}
	ref, err := LoadReference()
	require.NoError(t, err)
	now := func() time.Time { return time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC) }
	return NewService(NewClient(cfg), nil, ref, cfg, WithNow(now)), srv
}

func TestSeasonFor(t *testing.T) {
	assert.Equal(t, "2024-25", SeasonFor(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-26", SeasonFor(time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1999-00", FormatSeason(1999))

	y, ok := SeasonStart("2023-24")
	assert.True(t, ok)
	assert.Equal(t, 2023, y)
	_, ok = SeasonStart("abc")
	assert.False(t, ok)

	assert.Equal(t, "2030-31", Config{CurrentSeason: "2030-31"}.Season(time.Now()))
}

func TestPlayerStats(t *testing.T) {
	svc, srv := newTestService(t)
	ctx := context.Background()

	report, err := svc.PlayerStats(ctx, "LeBron James", "2024-25", model.StatAll)
	require.NoError(t, err)
	assert.Equal(t, "LeBron James", report.Player)
	assert.Equal(t, "Los Angeles Lakers", report.Team)
	assert.Equal(t, "2024-25", report.Season)
	assert.Empty(t, report.RequestedSeason)
	assert.Equal(t, 24.4, report.Stats["ppg"])
	assert.Equal(t, 8.2, report.Stats["apg"])
	assert.Equal(t, 7.8, report.Stats["rpg"])
	assert.Equal(t, 1.0, report.Stats["spg"])
	assert.Equal(t, 0.6, report.Stats["bpg"])
	assert.Equal(t, 51.3, report.Stats["fg_pct"])
	assert.Equal(t, 37.6, report.Stats["fg3_pct"])
	assert.Equal(t, 78.2, report.Stats["ft_pct"])
	assert.Equal(t, 70.0, report.Stats["games_played"])

	points, err := svc.PlayerStats(ctx, "lebron", "2024-25", model.StatPoints)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"ppg": 24.4, "total_points": 1710}, points.Stats)

	assert.Equal(t, 1, srv.Hits(nbatest.CareerStats), "second lookup is served from cache")
}

func TestPlayerStatsSeasonSelection(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("traded player uses TOT row", func(t *testing.T) {
		report, err := svc.PlayerStats(ctx, "Luka", "2024-25", model.StatAll)
		require.NoError(t, err)
		assert.Equal(t, 26.7, report.Stats["ppg"])
		assert.Equal(t, 50.0, report.Stats["games_played"])
		assert.Equal(t, "Los Angeles Lakers", report.Team)
	})

	t.Run("missing season falls back to most recent", func(t *testing.T) {
		report, err := svc.PlayerStats(ctx, "LeBron James", "2019-20", model.StatAll)
		require.NoError(t, err)
		assert.Equal(t, "2024-25", report.Season)
		assert.Equal(t, "2019-20", report.RequestedSeason)
	})

	t.Run("empty season is current", func(t *testing.T) {
		report, err := svc.PlayerStats(ctx, "LeBron James", "", model.StatAll)
		require.NoError(t, err)
		assert.Equal(t, "2024-25", report.Season)
	})

	t.Run("no rows at all", func(t *testing.T) {
		_, err := svc.PlayerStats(ctx, "Joel Embiid", "2024-25", model.StatAll)
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, errx.StatusOf(err))
	})
}

func TestPlayerNotFound(t *testing.T) {
	svc, srv := newTestService(t)

	_, err := svc.PlayerStats(context.Background(), "Lebrn Jams Jr Sr", "2024-25", model.StatAll)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPlayerNotFound))
	assert.Equal(t, http.StatusNotFound, errx.StatusOf(err))

	var lookupErr *LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, model.EntityPlayer, lookupErr.Kind)
	assert.Contains(t, lookupErr.Suggestions, "LeBron James")
	assert.Zero(t, srv.Hits(nbatest.CareerStats))
}

func TestComparePlayers(t *testing.T) {
	svc, srv := newTestService(t)

	cmp, err := svc.ComparePlayers(context.Background(), "LeBron James", "Stephen Curry", "2024-25", model.StatPoints)
	require.NoError(t, err)
	assert.Equal(t, "2024-25", cmp.Season)
	assert.Equal(t, "LeBron James", cmp.Player1.Player)
	assert.Equal(t, "Stephen Curry", cmp.Player2.Player)

	require.Contains(t, cmp.Comparison, "ppg")
	ppg := cmp.Comparison["ppg"]
	assert.Equal(t, 24.4, ppg.Player1)
	assert.Equal(t, 24.5, ppg.Player2)
	assert.Equal(t, -0.1, ppg.Difference)
	assert.Equal(t, "Stephen Curry", ppg.Winner)
	assert.Len(t, cmp.Comparison, 1)
	assert.Equal(t, map[string]float64{"ppg": 24.4, "total_points": 1710}, cmp.Player1.Stats)
	assert.Equal(t, 2, srv.Hits(nbatest.CareerStats))

	all, err := svc.ComparePlayers(context.Background(), "LeBron James", "Stephen Curry", "2024-25", model.StatAll)
	require.NoError(t, err)
	assert.Len(t, all.Comparison, 8)
	assert.Equal(t, "LeBron James", all.Comparison["apg"].Winner)

	_, err = svc.ComparePlayers(context.Background(), "LeBron James", "Zzyzx Qwerty", "", model.StatAll)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestTeamSchedule(t *testing.T) {
	svc, srv := newTestService(t)
	ctx := context.Background()

	gsw, err := svc.TeamSchedule(ctx, "Warriors")
	require.NoError(t, err)
	require.Len(t, gsw.UpcomingGames, 1)
	assert.Equal(t, "Next Golden State Warriors game: GSW vs LAL today (7:30 pm ET)", gsw.Summary)
	assert.Equal(t, "Los Angeles Lakers", gsw.UpcomingGames[0].AwayTeam)

	lal, err := svc.TeamSchedule(ctx, "LAL")
	require.NoError(t, err)
	assert.Equal(t, "Next Los Angeles Lakers game: LAL @ GSW today (7:30 pm ET)", lal.Summary)

	bos, err := svc.TeamSchedule(ctx, "Celtics")
	require.NoError(t, err)
	assert.Equal(t, "Boston Celtics played today: BOS 112 - MIA 104 (Final)", bos.Summary)

	den, err := svc.TeamSchedule(ctx, "Nuggets")
	require.NoError(t, err)
	assert.Empty(t, den.UpcomingGames)
	assert.Contains(t, den.Summary, "No Denver Nuggets game")

	assert.Equal(t, 1, srv.Hits(nbatest.Scoreboard))
}

func TestTeamStandingsAndRoster(t *testing.T) {
	svc, srv := newTestService(t)
	ctx := context.Background()

	st, err := svc.TeamStandings(ctx, "Lakers", "")
	require.NoError(t, err)
	assert.Equal(t, "Los Angeles Lakers", st.Team)
	assert.Equal(t, 50, st.Wins)
	assert.Equal(t, 32, st.Losses)
	assert.Equal(t, 0.61, st.WinPct)
	assert.Equal(t, 3, st.ConferenceRank)
	assert.Equal(t, 1, st.DivisionRank)

	_, err = svc.TeamStandings(ctx, "Celtics", "2024-25")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Hits(nbatest.Standings))

	_, err = svc.TeamStandings(ctx, "Jazz", "2024-25")
	assert.Equal(t, http.StatusNotFound, errx.StatusOf(err))

	roster, err := svc.TeamRoster(ctx, "Lakers", "2024-25")
	require.NoError(t, err)
	assert.Equal(t, []string{"LeBron James", "Luka Doncic"}, roster.Players)
	_, err = svc.TeamRoster(ctx, "Lakers", "2024-25")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Hits(nbatest.Roster))

	arena, err := svc.TeamArena("Warriors")
	require.NoError(t, err)
	assert.Equal(t, &model.Arena{Team: "Golden State Warriors", Arena: "Chase Center", City: "San Francisco", State: "California"}, arena)

	_, err = svc.TeamArena("Quidditch United")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestFilterStats(t *testing.T) {
	st := ComputeStats(SeasonLine{GP: 10, PTS: 255, AST: 50, REB: 80, STL: 12, BLK: 7, FGPct: 0.4567, FG3Pct: 0.35, FTPct: 0.9})

	assert.Equal(t, 25.5, st.PPG)
	assert.Equal(t, 45.7, st.FGPct)
	assert.Equal(t, map[string]float64{"fg_pct": 45.7, "fg3_pct": 35, "ft_pct": 90}, FilterStats(st, model.StatShooting))
	assert.Equal(t, map[string]float64{"fg_pct": 45.7, "fg3_pct": 35, "ft_pct": 90, "ppg": 25.5}, FilterStats(st, model.StatEfficiency))
	assert.Equal(t, map[string]float64{"bpg": 0.7}, FilterStats(st, model.StatBlocks))
	assert.Len(t, FilterStats(st, model.StatAll), 12)

	zero := ComputeStats(SeasonLine{GP: 0, PTS: 12})
	assert.Equal(t, 12.0, zero.PPG, "zero games counts as one")
}
