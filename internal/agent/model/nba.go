package model

// Team is a static reference entry for one franchise.
type Team struct {
	ID           int      `json:"id" yaml:"id"`
	Abbreviation string   `json:"abbreviation" yaml:"abbreviation"`
	FullName     string   `json:"full_name" yaml:"full_name"`
	Nickname     string   `json:"nickname" yaml:"nickname"`
	City         string   `json:"city" yaml:"city"`
	State        string   `json:"state" yaml:"state"`
	Arena        string   `json:"arena" yaml:"arena"`
	Aliases      []string `json:"aliases,omitempty" yaml:"aliases"`
}

// Player is a static reference entry for one player.
type Player struct {
	ID               int      `json:"id" yaml:"id"`
	FullName         string   `json:"full_name" yaml:"full_name"`
	FirstName        string   `json:"first_name" yaml:"first_name"`
	LastName         string   `json:"last_name" yaml:"last_name"`
	TeamAbbreviation string   `json:"team" yaml:"team"`
	Aliases          []string `json:"aliases,omitempty" yaml:"aliases"`
	Active           bool     `json:"is_active" yaml:"active"`
}

// PlayerSeasonStats are per-game averages plus a few totals for one season.
type PlayerSeasonStats struct {
	PPG           float64 `json:"ppg"`
	APG           float64 `json:"apg"`
	RPG           float64 `json:"rpg"`
	SPG           float64 `json:"spg"`
	BPG           float64 `json:"bpg"`
	FGPct         float64 `json:"fg_pct"`
	FG3Pct        float64 `json:"fg3_pct"`
	FTPct         float64 `json:"ft_pct"`
	GamesPlayed   int     `json:"games_played"`
	TotalPoints   int     `json:"total_points"`
	TotalAssists  int     `json:"total_assists"`
	TotalRebounds int     `json:"total_rebounds"`
}

// Map returns every stat keyed by its short name.
func (s PlayerSeasonStats) Map() map[string]float64 {
	return map[string]float64{
		"ppg":            s.PPG,
		"apg":            s.APG,
		"rpg":            s.RPG,
		"spg":            s.SPG,
		"bpg":            s.BPG,
		"fg_pct":         s.FGPct,
		"fg3_pct":        s.FG3Pct,
		"ft_pct":         s.FTPct,
		"games_played":   float64(s.GamesPlayed),
		"total_points":   float64(s.TotalPoints),
		"total_assists":  float64(s.TotalAssists),
		"total_rebounds": float64(s.TotalRebounds),
	}
}

// PlayerStatsReport is the answer to a player stats lookup.
type PlayerStatsReport struct {
	Player string `json:"player"`
	Team   string `json:"team"`
	Season string `json:"season"`
	// RequestedSeason is set when the requested season had no data and
	// Season fell back to the most recent one.
	RequestedSeason string             `json:"requested_season,omitempty"`
	StatType        StatType           `json:"stat_type"`
	Stats           map[string]float64 `json:"stats"`
}

// MetricComparison is one stat compared across two players.
type MetricComparison struct {
	Player1    float64 `json:"player1"`
	Player2    float64 `json:"player2"`
	Difference float64 `json:"difference"`
	Winner     string  `json:"winner"`
}

// PlayerComparison compares two players over the same season.
type PlayerComparison struct {
	Season     string                      `json:"season"`
	Player1    PlayerStatsReport           `json:"player1"`
	Player2    PlayerStatsReport           `json:"player2"`
	Comparison map[string]MetricComparison `json:"comparison"`
}

// Game is one entry of a team's schedule.
type Game struct {
	GameID      string `json:"game_id"`
	Date        string `json:"date"`
	HomeTeam    string `json:"home_team"`
	AwayTeam    string `json:"away_team"`
	HomeTricode string `json:"home_tricode"`
	AwayTricode string `json:"away_tricode"`
	HomeScore   int    `json:"home_score"`
	AwayScore   int    `json:"away_score"`
	Status      string `json:"status"`
	// StatusCode is 1 before tip-off, 2 live, 3 final.
	StatusCode int `json:"status_code"`
}

// Schedule lists the team's games on today's scoreboard.
type Schedule struct {
	Team          string `json:"team"`
	Abbreviation  string `json:"abbreviation"`
	Summary       string `json:"summary"`
	UpcomingGames []Game `json:"upcoming_games"`
}

// Standing is a team's record in the league table.
type Standing struct {
	TeamID         int     `json:"team_id"`
	Team           string  `json:"team"`
	Season         string  `json:"season"`
	Conference     string  `json:"conference"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinPct         float64 `json:"win_pct"`
	ConferenceRank int     `json:"conference_rank"`
	DivisionRank   int     `json:"division_rank"`
}

// Roster is a team's player list for a season.
type Roster struct {
	Team    string   `json:"team"`
	Season  string   `json:"season"`
	Players []string `json:"roster"`
}

// Arena describes a team's home venue.
type Arena struct {
	Team  string `json:"team"`
	Arena string `json:"arena"`
	City  string `json:"city"`
	State string `json:"state"`
}
