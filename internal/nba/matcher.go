package nba

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/nba-agent/server/internal/agent/model"
)

const (
	fullNameThreshold   = 0.6
	partNameThreshold   = 0.8
	suggestionThreshold = 0.3

	DefaultSuggestions = 5
)

// Matcher resolves free-text names against the reference lists.
type Matcher struct {
	ref    *Reference
	metric strutil.StringMetric
}

func NewMatcher(ref *Reference) *Matcher {
	return &Matcher{ref: ref, metric: metrics.NewLevenshtein()}
}

// Similarity is the case-insensitive Levenshtein similarity of a and b in [0,1].
func (m *Matcher) Similarity(a, b string) float64 {
	a, b = normalizeName(a), normalizeName(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return strutil.Similarity(a, b, m.metric)
}

// FindPlayer tries exact, alias, first/last name, substring and finally fuzzy matching.
func (m *Matcher) FindPlayer(name string) (model.Player, bool) {
	n := normalizeName(name)
	if n == "" {
		return model.Player{}, false
	}
	players := m.ref.Players()

	for _, p := range players {
		if normalizeName(p.FullName) == n {
			return p, true
		}
	}
	for _, p := range players {
		for _, a := range p.Aliases {
			if normalizeName(a) == n {
				return p, true
			}
		}
	}
	for _, p := range players {
		if normalizeName(p.FirstName) == n || normalizeName(p.LastName) == n {
			return p, true
		}
	}
	if len(n) >= 3 {
		for _, p := range players {
			if strings.Contains(normalizeName(p.FullName), n) {
				return p, true
			}
		}
	}

	var (
		best      model.Player
		bestScore float64
	)
	for _, p := range players {
		score := 0.0
		if s := m.Similarity(n, p.FullName); s > fullNameThreshold {
			score = s
		}
		if s := m.Similarity(n, p.FirstName); s > partNameThreshold && s > score {
			score = s
		}
		if s := m.Similarity(n, p.LastName); s > partNameThreshold && s > score {
			score = s
		}
		if score > bestScore {
			best, bestScore = p, score
		}
	}
	return best, bestScore > 0
}

// FindTeam matches full name, nickname, abbreviation, alias or an unambiguous
// city, then substrings of the full name, then fuzzy full name or nickname.
func (m *Matcher) FindTeam(name string) (model.Team, bool) {
	n := normalizeName(name)
	if n == "" {
		return model.Team{}, false
	}
	teams := m.ref.Teams()

	for _, t := range teams {
		if normalizeName(t.FullName) == n || normalizeName(t.Nickname) == n || strings.ToLower(t.Abbreviation) == n {
			return t, true
		}
		for _, a := range t.Aliases {
			if normalizeName(a) == n {
				return t, true
			}
		}
	}

	var byCity []model.Team
	for _, t := range teams {
		if normalizeName(t.City) == n {
			byCity = append(byCity, t)
		}
	}
	if len(byCity) == 1 {
		return byCity[0], true
	}

	if len(n) >= 3 {
		for _, t := range teams {
			if strings.Contains(normalizeName(t.FullName), n) {
				return t, true
			}
		}
	}

	var (
		best      model.Team
		bestScore float64
	)
	for _, t := range teams {
		score := 0.0
		if s := m.Similarity(n, t.FullName); s > fullNameThreshold {
			score = s
		}
		if s := m.Similarity(n, t.Nickname); s > partNameThreshold && s > score {
			score = s
		}
		if score > bestScore {
			best, bestScore = t, score
		}
	}
	return best, bestScore > 0
}

type scored struct {
	name  string
	score float64
}

// SuggestPlayers returns up to n player names scoring above the suggestion threshold.
func (m *Matcher) SuggestPlayers(name string, n int) []string {
	var out []scored
	for _, p := range m.ref.Players() {
		s := maxScore(m.Similarity(name, p.FullName), m.Similarity(name, p.FirstName), m.Similarity(name, p.LastName))
		if s > suggestionThreshold {
			out = append(out, scored{p.FullName, s})
		}
	}
	return topNames(out, n)
}

// SuggestTeams returns up to n team names scoring above the suggestion threshold.
func (m *Matcher) SuggestTeams(name string, n int) []string {
	var out []scored
	for _, t := range m.ref.Teams() {
		s := maxScore(m.Similarity(name, t.FullName), m.Similarity(name, t.Nickname), m.Similarity(name, t.City))
		if s > suggestionThreshold {
			out = append(out, scored{t.FullName, s})
		}
	}
	return topNames(out, n)
}

func topNames(in []scored, n int) []string {
	if n <= 0 {
		n = DefaultSuggestions
	}
	sort.Slice(in, func(i, j int) bool {
		if in[i].score != in[j].score {
			return in[i].score > in[j].score
		}
		return in[i].name < in[j].name
	})
	if len(in) > n {
		in = in[:n]
	}
	names := make([]string, len(in))
	for i, s := range in {
		names[i] = s.name
	}
	return names
}

func maxScore(vals ...float64) float64 {
	var best float64
	for _, v := range vals {
		if v > best {
			best = v
		}
	}
	return best
}

// normalizeName lower-cases, strips a trailing possessive and collapses whitespace.
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "'s")
	s = strings.TrimSuffix(s, "’s")
	s = strings.TrimSuffix(s, "'")
	return strings.Join(strings.Fields(s), " ")
}
