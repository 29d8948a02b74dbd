// Package validation checks and cleans user input before it reaches the NBA
// service, and sanity checks what comes back.
package validation

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	errx "github.com/nba-agent/server/internal/core/error"
)

const (
	MaxQueryLength = 500
	MaxNameLength  = 50
	MaxSeasonYear  = 2030
	FirstSeason    = 1946
)

// ErrQueryTooShort marks a query of fewer than two words. Callers may still
// accept it when the single word names a known player or team.
var ErrQueryTooShort = errors.New("query too short")

var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script.*?>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile("[<>\"`]"),
	regexp.MustCompile(`;`),
	regexp.MustCompile(`\|`),
	regexp.MustCompile(`--`),
	regexp.MustCompile(`(?i)union\s+select`),
	regexp.MustCompile(`(?i)drop\s+table`),
}

var (
	playerNameRe = regexp.MustCompile(`^[\p{L}\s\-'.]+$`)
	teamNameRe   = regexp.MustCompile(`^[\p{L}0-9\s\-.]+$`)
	seasonRe     = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
)

var teamAbbreviations = map[string]bool{
	"ATL": true, "BOS": true, "BKN": true, "CHA": true, "CHI": true, "CLE": true,
	"DAL": true, "DEN": true, "DET": true, "GSW": true, "HOU": true, "IND": true,
	"LAC": true, "LAL": true, "MEM": true, "MIA": true, "MIL": true, "MIN": true,
	"NOP": true, "NYK": true, "OKC": true, "ORL": true, "PHI": true, "PHX": true,
	"POR": true, "SAC": true, "SAS": true, "TOR": true, "UTA": true, "WAS": true,
}

var statTypes = map[string]bool{
	"points": true, "ppg": true, "assists": true, "apg": true, "rebounds": true, "rpg": true,
	"steals": true, "spg": true, "blocks": true, "bpg": true, "fg%": true, "fg_pct": true,
	"3p%": true, "fg3_pct": true, "ft%": true, "ft_pct": true, "shooting": true,
	"efficiency": true, "all": true, "everything": true,
}

// check trims v and rejects empty, oversized or suspicious input.
func check(v string, max int) (string, error) {
	cleaned := strings.TrimSpace(v)
	if cleaned == "" {
		return "", errx.Validation("input cannot be empty")
	}
	if len([]rune(cleaned)) > max {
		return "", errx.Validation(fmt.Sprintf("input too long (max %d characters)", max))
	}
	for _, re := range suspiciousPatterns {
		if re.MatchString(cleaned) {
			return "", errx.Validation("input contains invalid characters")
		}
	}
	return cleaned, nil
}

// SanitizeString validates v and HTML-escapes it.
func SanitizeString(v string, max int) (string, error) {
	cleaned, err := check(v, max)
	if err != nil {
		return "", err
	}
	return html.EscapeString(cleaned), nil
}

// Query validates a free-text question. The result is trimmed with inner
// whitespace collapsed but not escaped, so the parser sees the original text.
func Query(q string) (string, error) {
	cleaned, err := check(q, MaxQueryLength)
	if err != nil {
		return "", err
	}
	words := strings.Fields(cleaned)
	cleaned = strings.Join(words, " ")
	if len(words) < 2 {
		return cleaned, errx.New(ErrQueryTooShort, http.StatusBadRequest, "query too short, please provide more details")
	}
	return cleaned, nil
}

// PlayerName validates a player name and title-cases each part.
func PlayerName(name string) (string, error) {
	cleaned, err := check(name, MaxNameLength)
	if err != nil {
		return "", err
	}
	if !playerNameRe.MatchString(cleaned) {
		return "", errx.Validation("player name contains invalid characters")
	}
	parts := strings.Fields(cleaned)
	if len(parts) > 4 {
		return "", errx.Validation("player name has too many parts")
	}
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " "), nil
}

// TeamName upper-cases known abbreviations and title-cases anything else.
func TeamName(name string) (string, error) {
	cleaned, err := check(name, MaxNameLength)
	if err != nil {
		return "", err
	}
	if up := strings.ToUpper(cleaned); teamAbbreviations[up] {
		return up, nil
	}
	if !teamNameRe.MatchString(cleaned) {
		return "", errx.Validation("team name contains invalid characters")
	}
	parts := strings.Fields(cleaned)
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " "), nil
}

// Season validates a YYYY-YY season between 1946 and 2030.
func Season(season string) (string, error) {
	cleaned, err := check(season, 10)
	if err != nil {
		return "", err
	}
	m := seasonRe.FindStringSubmatch(cleaned)
	if m == nil {
		return "", errx.Validation("season must be in format YYYY-YY (e.g., 2024-25)")
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if start < FirstSeason {
		return "", errx.Validation("NBA seasons start from 1946")
	}
	if start > MaxSeasonYear {
		return "", errx.Validation("season year is too far in the future")
	}
	if (start+1)%100 != end {
		return "", errx.Validation("season format is invalid (must be consecutive years)")
	}
	return cleaned, nil
}

// StatType validates a stat name or short code and lower-cases it.
func StatType(stat string) (string, error) {
	cleaned, err := check(stat, 20)
	if err != nil {
		return "", err
	}
	cleaned = strings.ToLower(cleaned)
	if !statTypes[cleaned] {
		valid := make([]string, 0, len(statTypes))
		for k := range statTypes {
			valid = append(valid, k)
		}
		sort.Strings(valid)
		return "", errx.Validation("invalid stat type, valid options: " + strings.Join(valid, ", "))
	}
	return cleaned, nil
}

var percentStats = map[string]bool{"fg_pct": true, "fg3_pct": true, "ft_pct": true}

// PlayerStats sanity checks a stats response before it is shown.
func PlayerStats(player, season string, stats map[string]float64) error {
	switch {
	case strings.TrimSpace(player) == "":
		return errx.Validation("missing required field: player")
	case strings.TrimSpace(season) == "":
		return errx.Validation("missing required field: season")
	case len(stats) == 0:
		return errx.Validation("missing required field: stats")
	}
	for name, v := range stats {
		if v < 0 {
			return errx.Validation(fmt.Sprintf("invalid %s: cannot be negative", name))
		}
		if percentStats[name] && v > 100 {
			return errx.Validation(fmt.Sprintf("invalid %s: above 100%%", name))
		}
		if name == "ppg" && v > 100 {
			return errx.Validation("ppg seems unreasonably high")
		}
	}
	return nil
}

// capitalize upper-cases the first letter and lower-cases the rest.
// Hyphenated parts are capitalized separately.
func capitalize(word string) string {
	segs := strings.Split(word, "-")
	for i, s := range segs {
		r := []rune(strings.ToLower(s))
		if len(r) > 0 {
			r[0] = unicode.ToUpper(r[0])
		}
		segs[i] = string(r)
	}
	return strings.Join(segs, "-")
}
