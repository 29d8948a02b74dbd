package parsers

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/nba-agent/server/internal/agent/model"
	"github.com/nba-agent/server/internal/nba"
)

// maxGroup bounds how many adjacent capitalized words are tried as one name.
const maxGroup = 3

// words builds a case-insensitive pattern that matches any of alts on word boundaries.
func words(alts ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}])(?:` + strings.Join(alts, "|") + `)(?:[^\p{L}\p{N}]|$)`)
}

var (
	scheduleRe = words(`schedule`, `next games?`, `upcoming games?`, `when (?:do|does|is|are)`,
		`plays? next`, `playing next`, `tonight`, `tomorrow`, `next week`, `this week`, `fixtures?`,
		`(?:game|play|playing) today`)
	standingsRe = words(`standings?`, `rankings?`, `ranked`, `rank`, `position`, `record`, `how good`,
		`what place`, `seed(?:ed|ing)?`, `league table`, `win-loss`, `wins and losses`, `conference`, `division`)
	rosterRe = words(`roster`, `players (?:on|for)`, `who plays for`, `who(?:'s| is|s) on`, `team members`,
		`squad`, `line-?up`, `team list`)
	arenaRe = words(`arena`, `stadium`, `venue`, `home (?:court|floor|games?)`,
		`where (?:do|does) (?:[\p{L}\p{N}'’.-]+ ){1,4}play`)

	comparisonRe = words(`compare`, `comparison`, `vs\.?`, `versus`, `against`, `head[- ]to[- ]head`,
		`match-?up`, `who(?:'s|’s| is|s) better`, `better than`, `difference between`)

	urgentRe   = words(`now`, `today`, `tonight`, `live`, `current`, `currently`, `asap`, `urgent`)
	detailedRe = words(`detailed`, `details?`, `full`, `complete`, `all`, `everything`, `breakdown`, `in[- ]depth`)
	summaryRe  = words(`summary`, `summari[sz]e`, `overview`, `quick`, `brief(?:ly)?`)
	visualRe   = words(`charts?`, `graphs?`, `visual`, `visuali[sz]e`, `plots?`)

	spanSeasonRe = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})\s*[-/–]\s*(?:\d{4}|\d{2})(?:\D|$)`)
	yearRe       = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})(?:\D|$)`)
	lastSeasonRe = words(`last season`, `previous season`, `past season`, `last year`)
	nextSeasonRe = words(`next season`, `upcoming season`, `next year`)

	tokenRe = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}'’.\-%]*`)
)

// statGroups are checked in order; the more specific families come first.
var statGroups = []struct {
	stat model.StatType
	re   *regexp.Regexp
}{
	{model.StatEfficiency, words(`efficiency`, `efficient`, `true shooting`, `ts%`)},
	{model.StatShooting, words(`shooting`, `shoot`, `fg%?`, `field goals?`, `3pt`, `3p%`, `3-point`,
		`three[- ]points?`, `threes`, `free throws?`, `ft%`, `percentages?`, `splits`)},
	{model.StatPoints, words(`points`, `point`, `ppg`, `pts`, `scoring`, `scorer`, `scores?`, `buckets`)},
	{model.StatAssists, words(`assists?`, `apg`, `ast`, `dimes`, `passing`, `playmaking`)},
	{model.StatRebounds, words(`rebounds?`, `rebounding`, `rpg`, `reb`, `boards`, `glass`)},
	{model.StatSteals, words(`steals?`, `spg`, `stl`, `thefts`)},
	{model.StatBlocks, words(`blocks?`, `blocked`, `bpg`, `blk`, `rejections`, `shot blocking`)},
}

// stopwords are capitalized words that never start a name.
var stopwords = toSet(
	"a", "about", "after", "against", "all", "also", "am", "an", "and", "any", "are", "arena", "as",
	"assists", "at", "average", "averages", "be", "been", "before", "best", "better", "between",
	"blocks", "breakdown", "brief", "but", "by", "can", "career", "chart", "compare", "comparison",
	"complete", "conference", "could", "current", "detailed", "did", "do", "does", "during",
	"east", "eastern", "efficiency", "for", "from", "full", "game", "games", "get", "give", "graph",
	"had", "has", "have", "he", "head", "hello", "her", "hey", "hi", "him", "his", "home", "how",
	"i", "if", "in", "is", "it", "its", "just", "last", "league", "let", "like", "list", "live",
	"look", "many", "matchup", "me", "more", "most", "much", "my", "next", "now", "of", "on", "or",
	"our", "overview", "please", "plot", "points", "previous", "quick", "rebounds", "record", "regular",
	"roster", "schedule", "score", "scoring", "season", "seasons", "she", "should", "show", "so",
	"standings", "stats", "statistics", "steals", "summary", "tell", "than", "thank", "thanks", "that",
	"the", "their", "them", "then", "there", "these", "they", "this", "those", "to", "today",
	"tomorrow", "tonight", "top", "up", "upcoming", "us", "versus", "visual", "vs", "was", "we",
	"week", "were", "west", "western", "what", "whats", "what's", "when", "where", "which", "who",
	"whos", "who's", "why", "will", "with", "would", "year", "you", "your",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"january", "february", "march", "april", "may", "june", "july", "august", "september",
	"october", "november", "december",
)

func toSet(vals ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

type token struct {
	text       string // surface form
	word       string // lower-cased, possessive and trailing dots removed
	start, end int
}

type phrase struct {
	words []string
	kind  model.EntityKind
	name  string
	id    int
}

// QueryParser turns free-text basketball questions into a ParsedQuery.
// It is safe for concurrent use once built.
type QueryParser struct {
	ref     *nba.Reference
	matcher *nba.Matcher
	season  func() string
	phrases map[string][]phrase
}

// NewQueryParser indexes the reference names. currentSeason supplies the
// season that relative expressions ("this season", "last season") refer to.
func NewQueryParser(ref *nba.Reference, currentSeason func() string) *QueryParser {
	p := &QueryParser{
		ref:     ref,
		matcher: nba.NewMatcher(ref),
		season:  currentSeason,
		phrases: make(map[string][]phrase),
	}
	p.index()
	return p
}

func (p *QueryParser) index() {
	add := func(s string, kind model.EntityKind, name string, id int) {
		ws := normalizeWords(s)
		if len(ws) == 0 {
			return
		}
		p.phrases[ws[0]] = append(p.phrases[ws[0]], phrase{words: ws, kind: kind, name: name, id: id})
	}

	cities := make(map[string]int)
	for _, t := range p.ref.Teams() {
		cities[strings.ToLower(t.City)]++
	}
	for _, t := range p.ref.Teams() {
		add(t.FullName, model.EntityTeam, t.FullName, t.ID)
		add(t.Nickname, model.EntityTeam, t.FullName, t.ID)
		for _, a := range t.Aliases {
			add(a, model.EntityTeam, t.FullName, t.ID)
		}
		if cities[strings.ToLower(t.City)] == 1 {
			add(t.City, model.EntityTeam, t.FullName, t.ID)
		}
	}
	for _, pl := range p.ref.Players() {
		add(pl.FullName, model.EntityPlayer, pl.FullName, pl.ID)
		for _, a := range pl.Aliases {
			add(a, model.EntityPlayer, pl.FullName, pl.ID)
		}
	}
}

// Parse reads intent, entities, stat family, season and presentation hints from query.
func (p *QueryParser) Parse(query string) model.ParsedQuery {
	q := strings.Join(strings.Fields(query), " ")
	lower := strings.ToLower(q)
	current := p.season()

	out := model.ParsedQuery{
		Raw:        q,
		Entities:   p.extractEntities(q),
		StatType:   detectStatType(lower),
		Season:     detectSeason(lower, current),
		Comparison: comparisonRe.MatchString(lower),
		Context:    detectContext(lower),
	}
	out.QueryType = detectQueryType(lower, out)
	out.Confidence = Confidence(out, current)
	return out
}

func detectQueryType(lower string, pq model.ParsedQuery) model.QueryType {
	if pq.Comparison {
		if len(pq.EntitiesOf(model.EntityPlayer)) >= 2 {
			return model.QueryPlayerComparison
		}
		if len(pq.EntitiesOf(model.EntityTeam)) >= 2 {
			return model.QueryTeamComparison
		}
	}
	switch {
	case scheduleRe.MatchString(lower):
		return model.QueryTeamSchedule
	case standingsRe.MatchString(lower):
		return model.QueryTeamStandings
	case rosterRe.MatchString(lower):
		return model.QueryTeamRoster
	case arenaRe.MatchString(lower):
		return model.QueryTeamArena
	}
	return model.QueryPlayerStats
}

func detectStatType(lower string) model.StatType {
	for _, g := range statGroups {
		if g.re.MatchString(lower) {
			return g.stat
		}
	}
	return model.StatAll
}

func detectSeason(lower, current string) string {
	if m := spanSeasonRe.FindStringSubmatch(lower); m != nil {
		y, _ := strconv.Atoi(m[1])
		return nba.FormatSeason(y)
	}
	if m := yearRe.FindStringSubmatch(lower); m != nil {
		y, _ := strconv.Atoi(m[1])
		return nba.FormatSeason(y)
	}
	start, ok := nba.SeasonStart(current)
	if !ok {
		return current
	}
	switch {
	case lastSeasonRe.MatchString(lower):
		return nba.FormatSeason(start - 1)
	case nextSeasonRe.MatchString(lower):
		return nba.FormatSeason(start + 1)
	}
	return current
}

func detectContext(lower string) model.QueryContext {
	c := model.QueryContext{
		Urgent:   urgentRe.MatchString(lower),
		Detailed: detailedRe.MatchString(lower),
		Visual:   visualRe.MatchString(lower),
	}
	c.Summary = !c.Detailed && summaryRe.MatchString(lower)
	return c
}

func (p *QueryParser) extractEntities(q string) []model.Entity {
	type hit struct {
		pos int
		e   model.Entity
	}
	toks := tokenize(q)
	used := make([]bool, len(toks))
	var hits []hit

	for i := 0; i < len(toks); i++ {
		if ph, n := p.longestPhrase(toks, i); n > 0 {
			hits = append(hits, hit{i, model.Entity{
				Text:      trimPossessive(q[toks[i].start:toks[i+n-1].end]),
				Kind:      ph.kind,
				Canonical: ph.name,
				ID:        ph.id,
			}})
			for j := i; j < i+n; j++ {
				used[j] = true
			}
			i += n - 1
			continue
		}
		if isAbbreviation(toks[i].text) {
			if t, ok := p.ref.TeamByAbbreviation(toks[i].text); ok {
				hits = append(hits, hit{i, model.Entity{Text: toks[i].text, Kind: model.EntityTeam, Canonical: t.FullName, ID: t.ID}})
				used[i] = true
			}
		}
	}

	for i := 0; i < len(toks); {
		if used[i] || !candidate(toks[i]) {
			i++
			continue
		}
		j := i + 1
		for j < len(toks) && j-i < maxGroup && !used[j] && candidate(toks[j]) &&
			strings.TrimSpace(q[toks[j-1].end:toks[j].start]) == "" {
			j++
		}
		text := trimPossessive(q[toks[i].start:toks[j-1].end])
		if e, ok := p.resolve(text); ok {
			hits = append(hits, hit{i, e})
		} else if j-i > 1 || !sentenceStart(q, toks[i].start) {
			hits = append(hits, hit{i, model.Entity{Text: text, Kind: model.EntityUnknown}})
		}
		i = j
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].pos < hits[b].pos })

	out := make([]model.Entity, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		key := string(h.e.Kind) + ":" + strings.ToLower(h.e.Name())
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h.e)
	}
	return out
}

func (p *QueryParser) longestPhrase(toks []token, i int) (phrase, int) {
	var (
		best phrase
		n    int
	)
	for _, ph := range p.phrases[toks[i].word] {
		if len(ph.words) <= n || i+len(ph.words) > len(toks) {
			continue
		}
		match := true
		for k, w := range ph.words {
			if toks[i+k].word != w {
				match = false
				break
			}
		}
		if match {
			best, n = ph, len(ph.words)
		}
	}
	return best, n
}

// resolve tries the text as a player first, then as a team.
func (p *QueryParser) resolve(text string) (model.Entity, bool) {
	if pl, ok := p.matcher.FindPlayer(text); ok {
		return model.Entity{Text: text, Kind: model.EntityPlayer, Canonical: pl.FullName, ID: pl.ID}, true
	}
	if t, ok := p.matcher.FindTeam(text); ok {
		return model.Entity{Text: text, Kind: model.EntityTeam, Canonical: t.FullName, ID: t.ID}, true
	}
	return model.Entity{}, false
}

// Confidence scores how specific a parsed query is, in [0.5, 1].
func Confidence(pq model.ParsedQuery, currentSeason string) float64 {
	c := 0.5
	if len(pq.Entities) > 0 {
		c += 0.2
	}
	if pq.StatType != "" && pq.StatType != model.StatAll {
		c += 0.1
	}
	if pq.Season != "" && pq.Season != currentSeason {
		c += 0.1
	}
	if pq.Comparison {
		c += 0.1
	}
	return math.Min(math.Round(c*100)/100, 1)
}

// IsSimple reports whether the query can be answered from one lookup without the model.
func IsSimple(pq model.ParsedQuery) bool {
	if pq.Comparison || len(pq.Entities) != 1 {
		return false
	}
	e := pq.Entities[0]
	switch {
	case e.Kind == model.EntityPlayer:
		return pq.QueryType == model.QueryPlayerStats && pq.StatType != model.StatAll
	case e.Kind == model.EntityTeam:
		return pq.QueryType.IsTeamQuery()
	}
	return false
}

func tokenize(q string) []token {
	locs := tokenRe.FindAllStringIndex(q, -1)
	toks := make([]token, 0, len(locs))
	for _, l := range locs {
		text := strings.TrimRight(q[l[0]:l[1]], ".-")
		toks = append(toks, token{
			text:  text,
			word:  normalizeWord(text),
			start: l[0],
			end:   l[0] + len(text),
		})
	}
	return toks
}

func normalizeWords(s string) []string {
	var out []string
	for _, f := range strings.Fields(s) {
		if w := normalizeWord(f); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func normalizeWord(s string) string {
	return strings.TrimRight(strings.ToLower(trimPossessive(s)), ".-")
}

func trimPossessive(s string) string {
	for _, suf := range []string{"'s", "’s", "'", "’"} {
		if strings.HasSuffix(s, suf) {
			return s[:len(s)-len(suf)]
		}
	}
	return s
}

// candidate reports whether a token may be part of a name the reference lists
// do not spell out: capitalized, not all caps, not a stopword.
func candidate(t token) bool {
	if t.text == "" {
		return false
	}
	first := []rune(t.text)[0]
	if !unicode.IsUpper(first) || allCaps(t.text) {
		return false
	}
	_, stop := stopwords[t.word]
	return !stop
}

func allCaps(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 2
}

func isAbbreviation(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func sentenceStart(q string, start int) bool {
	prev := strings.TrimRight(q[:start], " ")
	if prev == "" {
		return true
	}
	switch prev[len(prev)-1] {
	case '.', '?', '!', ':':
		return true
	}
	return false
}
