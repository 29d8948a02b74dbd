package nba

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/tidwall/gjson"

	errx "github.com/nba-agent/server/internal/core/error"
	logx "github.com/nba-agent/server/pkg/logger"
)

// stats.nba.com rejects requests that do not look like they come from a browser.
var browserHeaders = map[string]string{
	"User-Agent":         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Accept":             "application/json, text/plain, */*",
	"Accept-Language":    "en-US,en;q=0.9",
	"Origin":             "https://www.nba.com",
	"Referer":            "https://www.nba.com/",
	"x-nba-stats-origin": "stats",
	"x-nba-stats-token":  "true",
}

// Table is one named result set of a stats.nba.com response.
type Table struct {
	Headers []string
	Rows    []gjson.Result
}

// Col returns the index of the first header present among names, or -1.
func (t Table) Col(names ...string) int {
	for _, name := range names {
		for i, h := range t.Headers {
			if strings.EqualFold(h, name) {
				return i
			}
		}
	}
	return -1
}

// Get returns the cell of row under the first matching header.
func (t Table) Get(row int, names ...string) gjson.Result {
	i := t.Col(names...)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return gjson.Result{}
	}
	return t.Rows[row].Get(strconv.Itoa(i))
}

// Client talks to stats.nba.com and the cdn.nba.com live feed.
type Client struct {
	http       *http.Client
	statsBase  string
	liveBase   string
	maxRetries uint
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

func NewClient(cfg Config, opts ...ClientOption) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		http:       &http.Client{Timeout: timeout},
		statsBase:  strings.TrimRight(cfg.StatsBaseURL, "/"),
		liveBase:   strings.TrimRight(cfg.LiveBaseURL, "/"),
		maxRetries: cfg.MaxRetries,
	}
	if c.maxRetries == 0 {
		c.maxRetries = 1
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PlayerCareerStats returns the regular-season totals per season for a player.
func (c *Client) PlayerCareerStats(ctx context.Context, playerID int) (Table, error) {
	q := url.Values{}
	q.Set("PlayerID", strconv.Itoa(playerID))
	q.Set("PerMode", "Totals")
	q.Set("LeagueID", "00")
	return c.resultSet(ctx, "playercareerstats", q, "SeasonTotalsRegularSeason")
}

// CommonTeamRoster returns a team's roster for a season.
func (c *Client) CommonTeamRoster(ctx context.Context, teamID int, season string) (Table, error) {
	q := url.Values{}
	q.Set("TeamID", strconv.Itoa(teamID))
	q.Set("Season", season)
	q.Set("LeagueID", "00")
	return c.resultSet(ctx, "commonteamroster", q, "CommonTeamRoster")
}

// LeagueStandings returns the standings table for a season.
func (c *Client) LeagueStandings(ctx context.Context, season string) (Table, error) {
	q := url.Values{}
	q.Set("LeagueID", "00")
	q.Set("Season", season)
	q.Set("SeasonType", "Regular Season")
	return c.resultSet(ctx, "leaguestandingsv3", q, "Standings")
}

// TodaysScoreboard returns the raw live scoreboard document.
func (c *Client) TodaysScoreboard(ctx context.Context) (gjson.Result, error) {
	body, err := c.get(ctx, c.liveBase+"/scoreboard/todaysScoreboard_00.json", false)
	if err != nil {
		return gjson.Result{}, err
	}
	doc := gjson.ParseBytes(body)
	if !doc.Get("scoreboard").Exists() {
		return gjson.Result{}, errx.WrapUpstream(errors.New("scoreboard missing from live response"), http.StatusOK)
	}
	return doc.Get("scoreboard"), nil
}

func (c *Client) resultSet(ctx context.Context, endpoint string, q url.Values, name string) (Table, error) {
	body, err := c.get(ctx, c.statsBase+"/"+endpoint+"?"+q.Encode(), true)
	if err != nil {
		return Table{}, err
	}
	if !gjson.ValidBytes(body) {
		return Table{}, errx.WrapUpstream(fmt.Errorf("%s: invalid json", endpoint), http.StatusOK)
	}

	set := gjson.GetBytes(body, `resultSets.#(name=="`+name+`")`)
	if !set.Exists() {
		// a few endpoints return a single resultSet object
		set = gjson.GetBytes(body, "resultSet")
	}
	if !set.Exists() {
		return Table{}, errx.WrapUpstream(fmt.Errorf("%s: result set %q missing", endpoint, name), http.StatusOK)
	}

	var t Table
	for _, h := range set.Get("headers").Array() {
		t.Headers = append(t.Headers, h.String())
	}
	t.Rows = set.Get("rowSet").Array()
	return t, nil
}

// get fetches url with retries. Network errors, 429 and 5xx are retried with
// exponential backoff; other statuses fail immediately.
func (c *Client) get(ctx context.Context, rawURL string, stats bool) ([]byte, error) {
	var lastStatus int
	op := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if stats {
			for k, v := range browserHeaders {
				req.Header.Set(k, v)
			}
		} else {
			req.Header.Set("Accept", "application/json")
			req.Header.Set("User-Agent", browserHeaders["User-Agent"])
		}

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			logx.Warn().Err(err).Str("url", rawURL).Msg("NBA API request failed, retrying")
			return nil, err
		}
		defer resp.Body.Close()

		lastStatus = resp.StatusCode
		logx.Debug().
			Str("url", rawURL).
			Int("status", resp.StatusCode).
			Dur("duration", time.Since(start)).
			Msg("NBA API call")

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return nil, fmt.Errorf("nba api: status %d", resp.StatusCode)
		case resp.StatusCode >= 300:
			return nil, backoff.Permanent(fmt.Errorf("nba api: status %d", resp.StatusCode))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return body, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxInterval = 4 * time.Second

	body, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.maxRetries),
	)
	if err != nil {
		return nil, errx.WrapUpstream(err, lastStatus)
	}
	return body, nil
}
