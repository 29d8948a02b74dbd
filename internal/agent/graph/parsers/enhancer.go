package parsers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nba-agent/server/internal/agent/model"
)

// UrgentPrefix marks replies to time-sensitive questions.
const UrgentPrefix = "🚨 "

var statsWordRe = regexp.MustCompile(`(?i)\bstats\b`)

// ExampleGroup is a labelled set of sample questions.
type ExampleGroup struct {
	Category string   `json:"category"`
	Queries  []string `json:"queries"`
}

// Suggest proposes follow-up questions related to pq.
func Suggest(pq model.ParsedQuery) []string {
	players := pq.EntitiesOf(model.EntityPlayer)
	teams := pq.EntitiesOf(model.EntityTeam)

	switch {
	case pq.QueryType == model.QueryPlayerComparison && len(players) >= 2:
		a, b := players[0].Name(), players[1].Name()
		return []string{
			fmt.Sprintf("Who averages more assists: %s or %s?", a, b),
			fmt.Sprintf("%s vs %s shooting percentages", a, b),
			fmt.Sprintf("%s vs %s last season", a, b),
		}
	case pq.QueryType == model.QueryPlayerStats && len(players) > 0:
		name := players[0].Name()
		return []string{
			fmt.Sprintf("What are %s's shooting percentages?", name),
			fmt.Sprintf("How many assists does %s average?", name),
			fmt.Sprintf("Show me %s's complete stats", name),
		}
	case len(teams) > 0:
		return teamSuggestions(pq.QueryType, teams[0].Name())
	}
	return nil
}

func teamSuggestions(current model.QueryType, team string) []string {
	all := []struct {
		qt model.QueryType
		q  string
	}{
		{model.QueryTeamSchedule, "When do the %s play next?"},
		{model.QueryTeamStandings, "What is the %s record this season?"},
		{model.QueryTeamRoster, "Who is on the %s roster?"},
		{model.QueryTeamArena, "Where do the %s play their home games?"},
	}
	out := make([]string, 0, len(all))
	for _, s := range all {
		if s.qt != current {
			out = append(out, fmt.Sprintf(s.q, team))
		}
	}
	return out
}

// Expand returns query followed by narrower rewrites of a generic "stats" question.
func Expand(query string) []string {
	out := []string{query}
	if statsWordRe.MatchString(query) {
		out = append(out,
			statsWordRe.ReplaceAllString(query, "shooting percentages"),
			statsWordRe.ReplaceAllString(query, "assists and rebounds"),
		)
	}
	return out
}

// VisualSuggestions lists the views that fit a question asking for a chart.
// Only set when the question has the visual hint.
func VisualSuggestions(pq model.ParsedQuery) []string {
	if !pq.Context.Visual {
		return nil
	}
	switch pq.QueryType {
	case model.QueryPlayerStats:
		return []string{
			"📊 Bar chart of key stats",
			"📈 Trend line of performance over time",
			"🎯 Radar chart of shooting percentages",
		}
	case model.QueryPlayerComparison:
		return []string{
			"⚖️ Side-by-side comparison chart",
			"📊 Radar chart comparison",
			"📈 Performance trend comparison",
		}
	}
	return nil
}

// FallbackSuggestions are shown when a question could not be answered.
func FallbackSuggestions() []string {
	return []string{
		"Try asking about a specific player: 'LeBron James stats'",
		"Ask about team schedules: 'When do the Warriors play next?'",
		"Compare players: 'LeBron vs Curry'",
		"Get shooting stats: 'Curry shooting percentages'",
	}
}

// Examples returns sample questions grouped by category.
func Examples() []ExampleGroup {
	return []ExampleGroup{
		{"player_stats", []string{
			"What are LeBron's stats this season?",
			"How many points does Curry average?",
			"Show me Giannis' shooting percentages",
			"Embiid rebounds and assists",
		}},
		{"comparisons", []string{
			"Compare LeBron and Curry",
			"Who's better: Giannis or Embiid?",
			"LeBron vs Durant stats",
			"Jokic vs Luka comparison",
		}},
		{"team_info", []string{
			"When do the Warriors play next?",
			"What are the Celtics standings?",
			"Who is on the Lakers roster?",
			"Where do the Knicks play?",
		}},
		{"advanced", []string{
			"LeBron's shooting efficiency this season",
			"Curry's detailed stats last season",
			"Giannis vs Embiid head to head",
			"Jokic stats 2023-24",
		}},
	}
}

// Decorate applies the urgent prefix when the question asked for live or current data.
func Decorate(output string, pq model.ParsedQuery) string {
	if !pq.Context.Urgent || strings.HasPrefix(output, UrgentPrefix) {
		return output
	}
	return UrgentPrefix + output
}
