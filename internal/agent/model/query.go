package model

// QueryType is the coarse intent of a user question.
type QueryType string

const (
	QueryPlayerStats      QueryType = "player_stats"
	QueryTeamSchedule     QueryType = "team_schedule"
	QueryTeamStandings    QueryType = "team_standings"
	QueryTeamRoster       QueryType = "team_roster"
	QueryTeamArena        QueryType = "team_arena"
	QueryPlayerComparison QueryType = "player_comparison"
	QueryTeamComparison   QueryType = "team_comparison"
	QueryUnknown          QueryType = "unknown"
)

// IsTeamQuery reports whether the query is about a single team.
func (q QueryType) IsTeamQuery() bool {
	switch q {
	case QueryTeamSchedule, QueryTeamStandings, QueryTeamRoster, QueryTeamArena:
		return true
	}
	return false
}

// StatType is the statistic family a question asks about.
type StatType string

const (
	StatPoints     StatType = "points"
	StatAssists    StatType = "assists"
	StatRebounds   StatType = "rebounds"
	StatSteals     StatType = "steals"
	StatBlocks     StatType = "blocks"
	StatAll        StatType = "all"
	StatShooting   StatType = "shooting"
	StatEfficiency StatType = "efficiency"
)

// ParseStatType maps a stat name or short code (ppg, apg, fg%, ...) to a StatType.
// Unknown values map to StatAll.
func ParseStatType(s string) StatType {
	switch s {
	case "points", "ppg", "pts":
		return StatPoints
	case "assists", "apg", "ast":
		return StatAssists
	case "rebounds", "rpg", "reb":
		return StatRebounds
	case "steals", "spg", "stl":
		return StatSteals
	case "blocks", "bpg", "blk":
		return StatBlocks
	case "shooting", "fg%", "fg_pct", "3p%", "fg3_pct", "ft%", "ft_pct":
		return StatShooting
	case "efficiency":
		return StatEfficiency
	default:
		return StatAll
	}
}

// EntityKind classifies an extracted name.
type EntityKind string

const (
	EntityPlayer  EntityKind = "player"
	EntityTeam    EntityKind = "team"
	EntityUnknown EntityKind = "unknown"
)

// Entity is a player or team mention found in a question.
type Entity struct {
	Text      string     `json:"text"`
	Kind      EntityKind `json:"kind"`
	Canonical string     `json:"canonical,omitempty"`
	ID        int        `json:"id,omitempty"`
}

// Name returns the canonical name when resolved, else the surface text.
func (e Entity) Name() string {
	if e.Canonical != "" {
		return e.Canonical
	}
	return e.Text
}

// QueryContext holds presentation hints found in a question.
type QueryContext struct {
	Urgent   bool `json:"urgent,omitempty"`
	Detailed bool `json:"detailed,omitempty"`
	Summary  bool `json:"summary,omitempty"`
	Visual   bool `json:"visual,omitempty"`
}

// ParsedQuery is the structured reading of a free-text question.
type ParsedQuery struct {
	Raw        string       `json:"raw"`
	QueryType  QueryType    `json:"query_type"`
	Entities   []Entity     `json:"entities"`
	StatType   StatType     `json:"stat_type"`
	Season     string       `json:"season"`
	Comparison bool         `json:"comparison"`
	Context    QueryContext `json:"context"`
	Confidence float64      `json:"confidence"`

	// Rejection is set when the question failed validation.
	Rejection string `json:"rejection,omitempty"`
}

// EntitiesOf returns the entities of the given kind, in query order.
func (p ParsedQuery) EntitiesOf(kind EntityKind) []Entity {
	var out []Entity
	for _, e := range p.Entities {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// EntityNames returns the display names of all entities.
func (p ParsedQuery) EntityNames() []string {
	out := make([]string, 0, len(p.Entities))
	for _, e := range p.Entities {
		out = append(out, e.Name())
	}
	return out
}
