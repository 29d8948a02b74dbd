package nba

import (
	"fmt"
	"time"
)

// Config binds the NBA data sources.
type Config struct {
	StatsBaseURL   string        `envconfig:"NBA_STATS_BASE_URL" default:"https://stats.nba.com/stats"`
	LiveBaseURL    string        `envconfig:"NBA_LIVE_BASE_URL" default:"https://cdn.nba.com/static/json/liveData"`
	RequestTimeout time.Duration `envconfig:"NBA_REQUEST_TIMEOUT" default:"30s"`
	MaxRetries     uint          `envconfig:"NBA_MAX_RETRIES" default:"3"`
	// CurrentSeason pins the season treated as "this season", e.g. 2025-26.
	// Empty derives it from the clock.
	CurrentSeason string `envconfig:"NBA_CURRENT_SEASON"`
}

// SeasonFor returns the season in progress at t. A season starts in October.
func SeasonFor(t time.Time) string {
	start := t.Year()
	if t.Month() < time.October {
		start--
	}
	return FormatSeason(start)
}

// FormatSeason renders a start year as YYYY-YY.
func FormatSeason(start int) string {
	return fmt.Sprintf("%d-%02d", start, (start+1)%100)
}

// SeasonStart parses the start year of a YYYY-YY season.
func SeasonStart(season string) (int, bool) {
	var y int
	if len(season) < 4 {
		return 0, false
	}
	if _, err := fmt.Sscanf(season[:4], "%d", &y); err != nil {
		return 0, false
	}
	return y, true
}

// Season returns the configured current season or derives it from now.
func (c Config) Season(now time.Time) string {
	if c.CurrentSeason != "" {
		return c.CurrentSeason
	}
	return SeasonFor(now)
}
