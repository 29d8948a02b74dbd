package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nba-agent/server/internal/agent/model"
	errx "github.com/nba-agent/server/internal/core/error"
	"github.com/nba-agent/server/internal/nba"
	"github.com/nba-agent/server/internal/validation"
)

// statOrder is the display order of stat keys.
var statOrder = []string{
	"ppg", "apg", "rpg", "spg", "bpg", "fg_pct", "fg3_pct", "ft_pct",
	"games_played", "total_points", "total_assists", "total_rebounds",
}

var statLabels = map[string]string{
	"ppg":            "points per game",
	"apg":            "assists per game",
	"rpg":            "rebounds per game",
	"spg":            "steals per game",
	"bpg":            "blocks per game",
	"fg_pct":         "FG%",
	"fg3_pct":        "3P%",
	"ft_pct":         "FT%",
	"games_played":   "games played",
	"total_points":   "total points",
	"total_assists":  "total assists",
	"total_rebounds": "total rebounds",
}

// answerDirect answers a simple single-entity question from one lookup.
func answerDirect(ctx context.Context, svc model.StatsService, pq model.ParsedQuery) (string, error) {
	if len(pq.Entities) != 1 {
		return "", fmt.Errorf("direct answer needs exactly one entity, got %d", len(pq.Entities))
	}
	name := pq.Entities[0].Name()

	switch pq.QueryType {
	case model.QueryPlayerStats:
		r, err := svc.PlayerStats(ctx, name, pq.Season, pq.StatType)
		if err != nil {
			return "", err
		}
		if err := validation.PlayerStats(r.Player, r.Season, r.Stats); err != nil {
			return "", err
		}
		return formatPlayerStats(r), nil
	case model.QueryTeamSchedule:
		s, err := svc.TeamSchedule(ctx, name)
		if err != nil {
			return "", err
		}
		return s.Summary, nil
	case model.QueryTeamStandings:
		s, err := svc.TeamStandings(ctx, name, pq.Season)
		if err != nil {
			return "", err
		}
		return formatStanding(s), nil
	case model.QueryTeamRoster:
		r, err := svc.TeamRoster(ctx, name, pq.Season)
		if err != nil {
			return "", err
		}
		return formatRoster(r), nil
	case model.QueryTeamArena:
		a, err := svc.TeamArena(name)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("The %s play their home games at %s in %s, %s.", a.Team, a.Arena, a.City, a.State), nil
	}
	return "", fmt.Errorf("no direct answer for query type %q", pq.QueryType)
}

func formatPlayerStats(r *model.PlayerStatsReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (%s, %s)", r.Player, r.Team, r.Season)
	if r.RequestedSeason != "" {
		fmt.Fprintf(&b, ", no data for %s so showing the latest season", r.RequestedSeason)
	}
	b.WriteString(":\n")
	for _, k := range statOrder {
		v, ok := r.Stats[k]
		if !ok {
			continue
		}
		switch {
		case strings.HasSuffix(k, "_pct"):
			fmt.Fprintf(&b, "- %s: %.1f%%\n", statLabels[k], v)
		case strings.HasPrefix(k, "total_") || k == "games_played":
			fmt.Fprintf(&b, "- %s: %d\n", statLabels[k], int(v))
		default:
			fmt.Fprintf(&b, "- %s: %.1f\n", statLabels[k], v)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatStanding(s *model.Standing) string {
	out := fmt.Sprintf("The %s are %d-%d (%.3f) in %s", s.Team, s.Wins, s.Losses, s.WinPct, s.Season)
	if s.ConferenceRank > 0 {
		out += fmt.Sprintf(", %s in the %s", ordinal(s.ConferenceRank), s.Conference)
		if s.DivisionRank > 0 {
			out += fmt.Sprintf(" and %s in their division", ordinal(s.DivisionRank))
		}
	}
	return out + "."
}

func formatRoster(r *model.Roster) string {
	if len(r.Players) == 0 {
		return fmt.Sprintf("No roster is listed for the %s in %s.", r.Team, r.Season)
	}
	return fmt.Sprintf("%s roster (%s): %s.", r.Team, r.Season, strings.Join(r.Players, ", "))
}

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// failureText turns a lookup error into a chat reply, offering close matches.
func failureText(err error) string {
	text := errx.UserMessage(err)
	var le *nba.LookupError
	if errors.As(err, &le) && len(le.Suggestions) > 0 {
		text += " Did you mean: " + strings.Join(le.Suggestions, ", ") + "?"
	}
	return text
}
