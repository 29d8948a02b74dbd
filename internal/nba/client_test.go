package nba

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/nba-agent/server/internal/core/error"
	"github.com/nba-agent/server/internal/nba/nbatest"
)

func newTestClient(t *testing.T, retries uint) (*Client, *nbatest.Server) {
	t.Helper()
	srv := nbatest.NewServer(t)
	return NewClient(Config{
		StatsBaseURL:   srv.StatsURL(),
		LiveBaseURL:    srv.LiveURL(),
		RequestTimeout: 5 * time.Second,
		MaxRetries:     retries,
	}), srv
}

func TestClientResultSet(t *testing.T) {
	c, _ := newTestClient(t, 1)

	table, err := c.PlayerCareerStats(context.Background(), 2544)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, 1, table.Col("SEASON_ID"))
	assert.Equal(t, -1, table.Col("NOPE"))
	assert.Equal(t, "2024-25", table.Get(1, "SEASON_ID").String())
	assert.Equal(t, int64(1710), table.Get(1, "PTS").Int())
	assert.Equal(t, int64(70), table.Get(1, "gp").Int(), "headers match case-insensitively")
	assert.False(t, table.Get(5, "PTS").Exists())

	standings, err := c.LeagueStandings(context.Background(), "2024-25")
	require.NoError(t, err)
	assert.Equal(t, int64(3), standings.Get(0, "ConferenceRank", "PlayoffRank").Int())

	board, err := c.TodaysScoreboard(context.Background())
	require.NoError(t, err)
	assert.Len(t, board.Get("games").Array(), 2)
}

func TestClientRetriesTransientFailures(t *testing.T) {
	c, srv := newTestClient(t, 3)
	srv.FailNext(nbatest.Roster, http.StatusServiceUnavailable, http.StatusTooManyRequests)

	table, err := c.CommonTeamRoster(context.Background(), 1610612747, "2024-25")
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, 3, srv.Hits(nbatest.Roster))
}

func TestClientGivesUp(t *testing.T) {
	t.Run("client errors are permanent", func(t *testing.T) {
		c, srv := newTestClient(t, 3)
		srv.FailNext(nbatest.CareerStats, http.StatusBadRequest)

		_, err := c.PlayerCareerStats(context.Background(), 2544)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))
		assert.Equal(t, 1, srv.Hits(nbatest.CareerStats))
	})

	t.Run("throttling after the last try", func(t *testing.T) {
		c, srv := newTestClient(t, 2)
		srv.FailNext(nbatest.Standings, http.StatusTooManyRequests, http.StatusTooManyRequests)

		_, err := c.LeagueStandings(context.Background(), "2024-25")
		require.Error(t, err)
		assert.Equal(t, http.StatusTooManyRequests, errx.StatusOf(err))
		assert.Equal(t, 2, srv.Hits(nbatest.Standings))
	})

	t.Run("cancelled context", func(t *testing.T) {
		c, _ := newTestClient(t, 3)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.TodaysScoreboard(ctx)
		assert.Error(t, err)
	})
}
