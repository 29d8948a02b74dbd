package validation

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/nba-agent/server/internal/core/error"
)

func TestSanitizeString(t *testing.T) {
	got, err := SanitizeString("  Tom & Jerry  ", 100)
	require.NoError(t, err)
	assert.Equal(t, "Tom &amp; Jerry", got)

	rejected := []string{
		"",
		"   ",
		"<script>alert(1)</script>",
		"javascript:void(0)",
		`say "hi"`,
		"a; rm -rf",
		"a | b",
		"1 -- comment",
		"x UNION   SELECT y",
		"drop table players",
		strings.Repeat("a", 101),
	}
	for _, in := range rejected {
		_, err := SanitizeString(in, 100)
		assert.Error(t, err, in)
		assert.Equal(t, http.StatusBadRequest, errx.StatusOf(err), in)
	}
}

func TestQuery(t *testing.T) {
	got, err := Query("  What are   LeBron's stats?  ")
	require.NoError(t, err)
	assert.Equal(t, "What are LeBron's stats?", got)

	got, err = Query("LeBron")
	assert.True(t, errors.Is(err, ErrQueryTooShort))
	assert.Equal(t, "LeBron", got, "the cleaned word is still returned")

	_, err = Query(strings.Repeat("word ", 101))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrQueryTooShort))
}

func TestPlayerName(t *testing.T) {
	tests := map[string]string{
		"lebron james":            "Lebron James",
		"  DE'AARON fox ":         "De'aaron Fox",
		"shai gilgeous-alexander": "Shai Gilgeous-Alexander",
		"jaren jackson jr.":       "Jaren Jackson Jr.",
		"nikola jokić":            "Nikola Jokić",
	}
	for in, want := range tests {
		got, err := PlayerName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"LeBron23", "a b c d e", "<b>", strings.Repeat("x", 51)} {
		_, err := PlayerName(bad)
		assert.Error(t, err, bad)
	}
}

func TestTeamName(t *testing.T) {
	got, err := TeamName("gsw")
	require.NoError(t, err)
	assert.Equal(t, "GSW", got)

	got, err = TeamName("golden state warriors")
	require.NoError(t, err)
	assert.Equal(t, "Golden State Warriors", got)

	got, err = TeamName("philadelphia 76ers")
	require.NoError(t, err)
	assert.Equal(t, "Philadelphia 76ers", got)

	_, err = TeamName("Lakers!")
	assert.Error(t, err)
}

func TestSeason(t *testing.T) {
	for _, ok := range []string{"2024-25", "1946-47", "1999-00", "2030-31"} {
		got, err := Season(ok)
		require.NoError(t, err, ok)
		assert.Equal(t, ok, got)
	}

	for _, bad := range []string{"2024", "24-25", "1945-46", "2031-32", "2024-26", "2024/25"} {
		_, err := Season(bad)
		assert.Error(t, err, bad)
	}
}

func TestStatType(t *testing.T) {
	got, err := StatType("PPG")
	require.NoError(t, err)
	assert.Equal(t, "ppg", got)

	_, err = StatType("vibes")
	require.Error(t, err)
	assert.Contains(t, errx.MessageOf(err), "valid options: 3p%, all, apg")
}

func TestPlayerStats(t *testing.T) {
	ok := map[string]float64{"ppg": 24.4, "fg_pct": 51.3}
	assert.NoError(t, PlayerStats("LeBron James", "2024-25", ok))

	assert.Error(t, PlayerStats("", "2024-25", ok))
	assert.Error(t, PlayerStats("LeBron James", "", ok))
	assert.Error(t, PlayerStats("LeBron James", "2024-25", nil))
	assert.Error(t, PlayerStats("LeBron James", "2024-25", map[string]float64{"apg": -1}))
	assert.Error(t, PlayerStats("LeBron James", "2024-25", map[string]float64{"ft_pct": 100.5}))
	assert.Error(t, PlayerStats("LeBron James", "2024-25", map[string]float64{"ppg": 101}))
}
