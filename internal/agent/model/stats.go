package model

import "context"

// StatsService answers the NBA lookups exposed to the agent as tools.
type StatsService interface {
	PlayerStats(ctx context.Context, name, season string, stat StatType) (*PlayerStatsReport, error)
	ComparePlayers(ctx context.Context, a, b, season string, stat StatType) (*PlayerComparison, error)
	TeamSchedule(ctx context.Context, team string) (*Schedule, error)
	TeamStandings(ctx context.Context, team, season string) (*Standing, error)
	TeamRoster(ctx context.Context, team, season string) (*Roster, error)
	TeamArena(team string) (*Arena, error)

	// CurrentSeason is the season used when a question names none.
	CurrentSeason() string
}
