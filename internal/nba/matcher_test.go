package nba

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	ref, err := LoadReference()
	require.NoError(t, err)
	return NewMatcher(ref)
}

func TestLoadReference(t *testing.T) {
	ref, err := LoadReference()
	require.NoError(t, err)

	assert.Len(t, ref.Teams(), 30)
	assert.NotEmpty(t, ref.Players())

	lakers, ok := ref.TeamByAbbreviation("lal")
	require.True(t, ok)
	assert.Equal(t, 1610612747, lakers.ID)
	assert.Equal(t, "Crypto.com Arena", lakers.Arena)

	gsw, ok := ref.TeamByID(1610612744)
	require.True(t, ok)
	assert.Equal(t, "Golden State Warriors", gsw.FullName)

	for _, p := range ref.Players() {
		_, ok := ref.TeamOf(p)
		assert.True(t, ok, "%s lists unknown team %s", p.FullName, p.TeamAbbreviation)
	}
}

func TestNewReferenceRejectsBadData(t *testing.T) {
	_, err := NewReference([]byte("- full_name: Nowhere Team\n"), []byte("[]"))
	assert.Error(t, err)

	_, err = NewReference([]byte("not: [valid"), []byte("[]"))
	assert.Error(t, err)
}

func TestSimilarity(t *testing.T) {
	m := newTestMatcher(t)

	assert.Equal(t, 1.0, m.Similarity("Curry", "curry"))
	assert.InDelta(t, 0.833, m.Similarity("currry", "curry"), 0.001)
	assert.InDelta(t, 0.857, m.Similarity("golden st warriors", "Golden State Warriors"), 0.001)
	assert.InDelta(t, 0.917, m.Similarity("lebron jame", "LeBron James"), 0.001)
	assert.Zero(t, m.Similarity("", "curry"))
}

func TestFindPlayer(t *testing.T) {
	m := newTestMatcher(t)

	tests := []struct {
		name   string
		input  string
		wantID int
	}{
		{"exact full name", "LeBron James", 2544},
		{"case insensitive", "stephen curry", 201939},
		{"alias", "Greek Freak", 203507},
		{"nickname alias", "lebron", 2544},
		{"possessive", "Giannis's", 203507},
		{"last name", "Jokic", 203999},
		{"first name", "Zion", 1629627},
		{"hyphenated", "Gilgeous-Alexander", 1628983},
		{"substring", "Antetokoun", 203507},
		{"fuzzy last name", "currry", 201939},
		{"fuzzy full name", "Kevn Durnt", 201142},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := m.FindPlayer(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.wantID, p.ID)
		})
	}

	_, ok := m.FindPlayer("Zzyzx Qwerty")
	assert.False(t, ok)
	_, ok = m.FindPlayer("   ")
	assert.False(t, ok)
}

func TestFindTeam(t *testing.T) {
	m := newTestMatcher(t)

	tests := []struct {
		input string
		want  string
	}{
		{"Lakers", "LAL"},
		{"LAL", "LAL"},
		{"gsw", "GSW"},
		{"Golden State Warriors", "GSW"},
		{"golden state", "GSW"},
		{"Sixers", "PHI"},
		{"Blazers", "POR"},
		{"Trail Blazers", "POR"},
		{"Boston", "BOS"},
		{"Celtics'", "BOS"},
		{"golden st warriors", "GSW"},
		{"Lakrs", "LAL"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			team, ok := m.FindTeam(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.want, team.Abbreviation)
		})
	}

	_, ok := m.FindTeam("Quidditch United")
	assert.False(t, ok)
}

func TestSuggestions(t *testing.T) {
	m := newTestMatcher(t)

	players := m.SuggestPlayers("Lebrn Jams", 0)
	require.NotEmpty(t, players)
	assert.LessOrEqual(t, len(players), DefaultSuggestions)
	assert.Equal(t, "LeBron James", players[0])

	teams := m.SuggestTeams("Lakrs", 3)
	require.NotEmpty(t, teams)
	assert.LessOrEqual(t, len(teams), 3)
	assert.Equal(t, "Los Angeles Lakers", teams[0])

	assert.Empty(t, m.SuggestPlayers("", 5))
}
