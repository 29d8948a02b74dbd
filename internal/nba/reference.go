package nba

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nba-agent/server/internal/agent/model"
)

//go:embed data/teams.yaml
var teamsYAML []byte

//go:embed data/players.yaml
var playersYAML []byte

// Reference holds the static team and player lists used for name resolution.
type Reference struct {
	teams   []model.Team
	players []model.Player

	teamsByAbbr map[string]model.Team
	teamsByID   map[int]model.Team
}

// LoadReference decodes the embedded reference lists.
func LoadReference() (*Reference, error) {
	return NewReference(teamsYAML, playersYAML)
}

// NewReference decodes team and player YAML documents.
func NewReference(teamsDoc, playersDoc []byte) (*Reference, error) {
	var teams []model.Team
	if err := yaml.Unmarshal(teamsDoc, &teams); err != nil {
		return nil, fmt.Errorf("decode teams: %w", err)
	}
	var players []model.Player
	if err := yaml.Unmarshal(playersDoc, &players); err != nil {
		return nil, fmt.Errorf("decode players: %w", err)
	}

	r := &Reference{
		teams:       teams,
		players:     players,
		teamsByAbbr: make(map[string]model.Team, len(teams)),
		teamsByID:   make(map[int]model.Team, len(teams)),
	}
	for _, t := range teams {
		if t.ID == 0 || t.Abbreviation == "" {
			return nil, fmt.Errorf("team %q: missing id or abbreviation", t.FullName)
		}
		r.teamsByAbbr[strings.ToUpper(t.Abbreviation)] = t
		r.teamsByID[t.ID] = t
	}
	for _, p := range players {
		if p.ID == 0 || p.FullName == "" {
			return nil, fmt.Errorf("player %q: missing id or name", p.FullName)
		}
	}
	return r, nil
}

// MustLoadReference is LoadReference that panics on error.
func MustLoadReference() *Reference {
	r, err := LoadReference()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Reference) Teams() []model.Team { return r.teams }

func (r *Reference) Players() []model.Player { return r.players }

func (r *Reference) TeamByAbbreviation(abbr string) (model.Team, bool) {
	t, ok := r.teamsByAbbr[strings.ToUpper(strings.TrimSpace(abbr))]
	return t, ok
}

func (r *Reference) TeamByID(id int) (model.Team, bool) {
	t, ok := r.teamsByID[id]
	return t, ok
}

// TeamOf returns the team a player is listed with.
func (r *Reference) TeamOf(p model.Player) (model.Team, bool) {
	return r.TeamByAbbreviation(p.TeamAbbreviation)
}
