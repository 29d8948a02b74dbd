package nba

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nba-agent/server/internal/agent/model"
	"github.com/nba-agent/server/internal/cache"
	errx "github.com/nba-agent/server/internal/core/error"
	logx "github.com/nba-agent/server/pkg/logger"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrTeamNotFound   = errors.New("team not found")
)

// LookupError reports a name that matched no reference entry, with close matches.
type LookupError struct {
	Kind        model.EntityKind
	Query       string
	Suggestions []string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Query)
}

func (e *LookupError) Unwrap() error {
	if e.Kind == model.EntityTeam {
		return ErrTeamNotFound
	}
	return ErrPlayerNotFound
}

// SeasonLine is one row of a player's career totals.
type SeasonLine struct {
	SeasonID string  `json:"season_id"`
	Team     string  `json:"team"`
	GP       int     `json:"gp"`
	PTS      int     `json:"pts"`
	AST      int     `json:"ast"`
	REB      int     `json:"reb"`
	STL      int     `json:"stl"`
	BLK      int     `json:"blk"`
	FGPct    float64 `json:"fg_pct"`
	FG3Pct   float64 `json:"fg3_pct"`
	FTPct    float64 `json:"ft_pct"`
}

// Service answers NBA questions from the API through the cache.
type Service struct {
	client  *Client
	cache   *cache.Cache
	ref     *Reference
	matcher *Matcher
	cfg     Config
	now     func() time.Time
}

type ServiceOption func(*Service)

// WithNow replaces time.Now, for tests.
func WithNow(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(client *Client, c *cache.Cache, ref *Reference, cfg Config, opts ...ServiceOption) *Service {
	if c == nil {
		c = cache.New(nil, 0)
	}
	s := &Service{
		client:  client,
		cache:   c,
		ref:     ref,
		matcher: NewMatcher(ref),
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Matcher() *Matcher { return s.matcher }

func (s *Service) Reference() *Reference { return s.ref }

// CurrentSeason is the season "this season" refers to.
func (s *Service) CurrentSeason() string { return s.cfg.Season(s.now()) }

// ResolvePlayer matches name against the reference list.
func (s *Service) ResolvePlayer(name string) (model.Player, error) {
	p, ok := s.matcher.FindPlayer(name)
	if ok {
		return p, nil
	}
	lookupErr := &LookupError{
		Kind:        model.EntityPlayer,
		Query:       name,
		Suggestions: s.matcher.SuggestPlayers(name, DefaultSuggestions),
	}
	return model.Player{}, errx.NotFound(lookupErr, fmt.Sprintf("no player matching %q", name))
}

// ResolveTeam matches name against the reference list.
func (s *Service) ResolveTeam(name string) (model.Team, error) {
	t, ok := s.matcher.FindTeam(name)
	if ok {
		return t, nil
	}
	lookupErr := &LookupError{
		Kind:        model.EntityTeam,
		Query:       name,
		Suggestions: s.matcher.SuggestTeams(name, DefaultSuggestions),
	}
	return model.Team{}, errx.NotFound(lookupErr, fmt.Sprintf("no team matching %q", name))
}

// PlayerStats returns per-game stats for name in season, filtered to stat.
// An empty season means the current one.
func (s *Service) PlayerStats(ctx context.Context, name, season string, stat model.StatType) (*model.PlayerStatsReport, error) {
	p, err := s.ResolvePlayer(name)
	if err != nil {
		return nil, err
	}
	return s.playerReport(ctx, p, season, stat)
}

func (s *Service) playerReport(ctx context.Context, p model.Player, season string, stat model.StatType) (*model.PlayerStatsReport, error) {
	if season == "" {
		season = s.CurrentSeason()
	}
	lines, err := s.careerLines(ctx, p)
	if err != nil {
		return nil, err
	}
	line, used, ok := SelectSeason(lines, season)
	if !ok {
		return nil, errx.NotFound(nil, fmt.Sprintf("no stats recorded for %s", p.FullName))
	}

	team := line.Team
	if t, ok := s.ref.TeamOf(p); ok && (team == "TOT" || strings.EqualFold(team, t.Abbreviation)) {
		team = t.FullName
	}

	report := &model.PlayerStatsReport{
		Player:   p.FullName,
		Team:     team,
		Season:   used,
		StatType: stat,
		Stats:    FilterStats(ComputeStats(line), stat),
	}
	if used != season {
		report.RequestedSeason = season
	}
	return report, nil
}

// careerLines returns the regular-season rows for a player, cached per player.
func (s *Service) careerLines(ctx context.Context, p model.Player) ([]SeasonLine, error) {
	key := fmt.Sprintf("stats_%d", p.ID)
	var lines []SeasonLine
	if found, _ := s.cache.Get(ctx, key, &lines); found {
		logx.Debug().Str("player", p.FullName).Msg("Cache hit for career stats")
		return lines, nil
	}

	table, err := s.client.PlayerCareerStats(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	for i := range table.Rows {
		lines = append(lines, SeasonLine{
			SeasonID: table.Get(i, "SEASON_ID").String(),
			Team:     table.Get(i, "TEAM_ABBREVIATION").String(),
			GP:       int(table.Get(i, "GP").Int()),
			PTS:      int(table.Get(i, "PTS").Int()),
			AST:      int(table.Get(i, "AST").Int()),
			REB:      int(table.Get(i, "REB").Int()),
			STL:      int(table.Get(i, "STL").Int()),
			BLK:      int(table.Get(i, "BLK").Int()),
			FGPct:    table.Get(i, "FG_PCT").Float(),
			FG3Pct:   table.Get(i, "FG3_PCT").Float(),
			FTPct:    table.Get(i, "FT_PCT").Float(),
		})
	}
	if err := s.cache.Set(ctx, key, lines); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("Failed to cache career stats")
	}
	return lines, nil
}

// SelectSeason picks the row for season. A traded player has one row per team
// plus a TOT row; TOT wins. When season has no rows the most recent season is
// used instead. The returned string is the season actually used.
func SelectSeason(lines []SeasonLine, season string) (SeasonLine, string, bool) {
	if len(lines) == 0 {
		return SeasonLine{}, "", false
	}
	pick := func(id string) (SeasonLine, bool) {
		var (
			found SeasonLine
			ok    bool
		)
		for _, l := range lines {
			if l.SeasonID != id {
				continue
			}
			if l.Team == "TOT" {
				return l, true
			}
			if !ok {
				found, ok = l, true
			}
		}
		return found, ok
	}

	if l, ok := pick(season); ok {
		return l, season, true
	}
	latest := lines[len(lines)-1].SeasonID
	l, _ := pick(latest)
	return l, latest, true
}

// ComputeStats converts season totals to per-game averages and percentages.
func ComputeStats(l SeasonLine) model.PlayerSeasonStats {
	gp := l.GP
	if gp < 1 {
		gp = 1
	}
	perGame := func(total int) float64 { return round1(float64(total) / float64(gp)) }
	return model.PlayerSeasonStats{
		PPG:           perGame(l.PTS),
		APG:           perGame(l.AST),
		RPG:           perGame(l.REB),
		SPG:           perGame(l.STL),
		BPG:           perGame(l.BLK),
		FGPct:         round1(l.FGPct * 100),
		FG3Pct:        round1(l.FG3Pct * 100),
		FTPct:         round1(l.FTPct * 100),
		GamesPlayed:   l.GP,
		TotalPoints:   l.PTS,
		TotalAssists:  l.AST,
		TotalRebounds: l.REB,
	}
}

// FilterStats keeps the stats relevant to stat.
func FilterStats(st model.PlayerSeasonStats, stat model.StatType) map[string]float64 {
	all := st.Map()
	keys := statKeys(stat)
	if keys == nil {
		return all
	}
	out := make(map[string]float64, len(keys))
	for _, k := range keys {
		out[k] = all[k]
	}
	return out
}

func statKeys(stat model.StatType) []string {
	switch stat {
	case model.StatPoints:
		return []string{"ppg", "total_points"}
	case model.StatAssists:
		return []string{"apg", "total_assists"}
	case model.StatRebounds:
		return []string{"rpg", "total_rebounds"}
	case model.StatSteals:
		return []string{"spg"}
	case model.StatBlocks:
		return []string{"bpg"}
	case model.StatShooting:
		return []string{"fg_pct", "fg3_pct", "ft_pct"}
	case model.StatEfficiency:
		return []string{"fg_pct", "fg3_pct", "ft_pct", "ppg"}
	default:
		return nil
	}
}

// comparisonMetrics are the per-game stats compared head to head.
func comparisonMetrics(stat model.StatType) []string {
	switch stat {
	case model.StatPoints:
		return []string{"ppg"}
	case model.StatAssists:
		return []string{"apg"}
	case model.StatRebounds:
		return []string{"rpg"}
	case model.StatSteals:
		return []string{"spg"}
	case model.StatBlocks:
		return []string{"bpg"}
	case model.StatShooting:
		return []string{"fg_pct", "fg3_pct", "ft_pct"}
	case model.StatEfficiency:
		return []string{"fg_pct", "fg3_pct", "ft_pct", "ppg"}
	default:
		return []string{"ppg", "apg", "rpg", "spg", "bpg", "fg_pct", "fg3_pct", "ft_pct"}
	}
}

// ComparePlayers fetches both players concurrently and compares them metric by metric.
func (s *Service) ComparePlayers(ctx context.Context, a, b, season string, stat model.StatType) (*model.PlayerComparison, error) {
	p1, err := s.ResolvePlayer(a)
	if err != nil {
		return nil, err
	}
	p2, err := s.ResolvePlayer(b)
	if err != nil {
		return nil, err
	}
	if season == "" {
		season = s.CurrentSeason()
	}

	var r1, r2 *model.PlayerStatsReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		r1, err = s.playerReport(gctx, p1, season, model.StatAll)
		return err
	})
	g.Go(func() error {
		var err error
		r2, err = s.playerReport(gctx, p2, season, model.StatAll)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cmp := &model.PlayerComparison{
		Season:     season,
		Comparison: make(map[string]model.MetricComparison),
	}
	for _, m := range comparisonMetrics(stat) {
		v1, ok1 := r1.Stats[m]
		v2, ok2 := r2.Stats[m]
		if !ok1 || !ok2 {
			continue
		}
		winner := "tie"
		switch {
		case v1 > v2:
			winner = r1.Player
		case v2 > v1:
			winner = r2.Player
		}
		cmp.Comparison[m] = model.MetricComparison{
			Player1:    v1,
			Player2:    v2,
			Difference: round1(v1 - v2),
			Winner:     winner,
		}
	}

	r1.Stats = FilterStats(statsFromMap(r1.Stats), stat)
	r2.Stats = FilterStats(statsFromMap(r2.Stats), stat)
	r1.StatType, r2.StatType = stat, stat
	cmp.Player1, cmp.Player2 = *r1, *r2
	return cmp, nil
}

func statsFromMap(m map[string]float64) model.PlayerSeasonStats {
	return model.PlayerSeasonStats{
		PPG:           m["ppg"],
		APG:           m["apg"],
		RPG:           m["rpg"],
		SPG:           m["spg"],
		BPG:           m["bpg"],
		FGPct:         m["fg_pct"],
		FG3Pct:        m["fg3_pct"],
		FTPct:         m["ft_pct"],
		GamesPlayed:   int(m["games_played"]),
		TotalPoints:   int(m["total_points"]),
		TotalAssists:  int(m["total_assists"]),
		TotalRebounds: int(m["total_rebounds"]),
	}
}

// TeamSchedule lists the team's games on today's live scoreboard.
func (s *Service) TeamSchedule(ctx context.Context, name string) (*model.Schedule, error) {
	t, err := s.ResolveTeam(name)
	if err != nil {
		return nil, err
	}
	games, err := s.scoreboard(ctx)
	if err != nil {
		return nil, err
	}

	sched := &model.Schedule{Team: t.FullName, Abbreviation: t.Abbreviation, UpcomingGames: []model.Game{}}
	for _, g := range games {
		if g.HomeTricode == t.Abbreviation || g.AwayTricode == t.Abbreviation {
			sched.UpcomingGames = append(sched.UpcomingGames, g)
		}
	}
	sched.Summary = scheduleSummary(t, sched.UpcomingGames)
	return sched, nil
}

func scheduleSummary(t model.Team, games []model.Game) string {
	if len(games) == 0 {
		return fmt.Sprintf("No %s game on today's scoreboard. Check the NBA schedule for upcoming games.", t.FullName)
	}
	g := games[0]
	home := g.HomeTricode == t.Abbreviation
	opponent, where := g.HomeTricode, "@"
	if home {
		opponent, where = g.AwayTricode, "vs"
	}
	switch g.StatusCode {
	case 1:
		return fmt.Sprintf("Next %s game: %s %s %s today (%s)", t.FullName, t.Abbreviation, where, opponent, g.Status)
	case 2:
		return fmt.Sprintf("%s are playing now: %s %d - %s %d (%s)", t.FullName, g.AwayTricode, g.AwayScore, g.HomeTricode, g.HomeScore, g.Status)
	default:
		return fmt.Sprintf("%s played today: %s %d - %s %d (%s)", t.FullName, g.AwayTricode, g.AwayScore, g.HomeTricode, g.HomeScore, g.Status)
	}
}

func (s *Service) scoreboard(ctx context.Context) ([]model.Game, error) {
	key := "scoreboard_" + s.now().UTC().Format("2006-01-02")
	var games []model.Game
	if found, _ := s.cache.Get(ctx, key, &games); found {
		return games, nil
	}

	board, err := s.client.TodaysScoreboard(ctx)
	if err != nil {
		return nil, err
	}
	date := board.Get("gameDate").String()
	games = []model.Game{}
	for _, g := range board.Get("games").Array() {
		games = append(games, model.Game{
			GameID:      g.Get("gameId").String(),
			Date:        date,
			HomeTeam:    strings.TrimSpace(g.Get("homeTeam.teamCity").String() + " " + g.Get("homeTeam.teamName").String()),
			AwayTeam:    strings.TrimSpace(g.Get("awayTeam.teamCity").String() + " " + g.Get("awayTeam.teamName").String()),
			HomeTricode: g.Get("homeTeam.teamTricode").String(),
			AwayTricode: g.Get("awayTeam.teamTricode").String(),
			HomeScore:   int(g.Get("homeTeam.score").Int()),
			AwayScore:   int(g.Get("awayTeam.score").Int()),
			Status:      strings.TrimSpace(g.Get("gameStatusText").String()),
			StatusCode:  int(g.Get("gameStatus").Int()),
		})
	}
	if err := s.cache.Set(ctx, key, games); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("Failed to cache scoreboard")
	}
	return games, nil
}

// TeamStandings returns the team's record for season. An empty season means the current one.
func (s *Service) TeamStandings(ctx context.Context, name, season string) (*model.Standing, error) {
	t, err := s.ResolveTeam(name)
	if err != nil {
		return nil, err
	}
	if season == "" {
		season = s.CurrentSeason()
	}
	table, err := s.standings(ctx, season)
	if err != nil {
		return nil, err
	}
	for _, st := range table {
		if st.TeamID == t.ID {
			st.Team = t.FullName
			return &st, nil
		}
	}
	return nil, errx.NotFound(nil, fmt.Sprintf("no standings data for %s in %s", t.FullName, season))
}

func (s *Service) standings(ctx context.Context, season string) ([]model.Standing, error) {
	key := "standings_" + season
	var rows []model.Standing
	if found, _ := s.cache.Get(ctx, key, &rows); found {
		return rows, nil
	}

	table, err := s.client.LeagueStandings(ctx, season)
	if err != nil {
		return nil, err
	}
	for i := range table.Rows {
		rows = append(rows, model.Standing{
			TeamID:         int(table.Get(i, "TeamID").Int()),
			Team:           strings.TrimSpace(table.Get(i, "TeamCity").String() + " " + table.Get(i, "TeamName").String()),
			Season:         season,
			Conference:     table.Get(i, "Conference").String(),
			Wins:           int(table.Get(i, "WINS").Int()),
			Losses:         int(table.Get(i, "LOSSES").Int()),
			WinPct:         math.Round(table.Get(i, "WinPCT").Float()*1000) / 1000,
			ConferenceRank: int(table.Get(i, "PlayoffRank", "ConferenceRank").Int()),
			DivisionRank:   int(table.Get(i, "DivisionRank").Int()),
		})
	}
	if err := s.cache.Set(ctx, key, rows); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("Failed to cache standings")
	}
	return rows, nil
}

// TeamRoster returns the team's player list for season. An empty season means the current one.
func (s *Service) TeamRoster(ctx context.Context, name, season string) (*model.Roster, error) {
	t, err := s.ResolveTeam(name)
	if err != nil {
		return nil, err
	}
	if season == "" {
		season = s.CurrentSeason()
	}

	key := fmt.Sprintf("roster_%d_%s", t.ID, season)
	roster := &model.Roster{}
	if found, _ := s.cache.Get(ctx, key, roster); found {
		return roster, nil
	}

	table, err := s.client.CommonTeamRoster(ctx, t.ID, season)
	if err != nil {
		return nil, err
	}
	roster = &model.Roster{Team: t.FullName, Season: season, Players: []string{}}
	for i := range table.Rows {
		if player := table.Get(i, "PLAYER").String(); player != "" {
			roster.Players = append(roster.Players, player)
		}
	}
	if err := s.cache.Set(ctx, key, roster); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("Failed to cache roster")
	}
	return roster, nil
}

// TeamArena returns the team's home venue from the reference data.
func (s *Service) TeamArena(name string) (*model.Arena, error) {
	t, err := s.ResolveTeam(name)
	if err != nil {
		return nil, err
	}
	arena := t.Arena
	if arena == "" {
		arena = "Arena information not available"
	}
	return &model.Arena{Team: t.FullName, Arena: arena, City: t.City, State: t.State}, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
