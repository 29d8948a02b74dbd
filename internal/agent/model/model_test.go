package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestComputeCost(t *testing.T) {
	usage := &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 200_000}

	in, out, total := ComputeCost(usage, ResolvePricing("gemini-2.5-flash"))
	assert.InDelta(t, 0.30, in, 1e-9)
	assert.InDelta(t, 0.50, out, 1e-9)
	assert.InDelta(t, 0.80, total, 1e-9)

	_, _, total = ComputeCost(usage, ResolvePricing("models/gemini-2.5-flash"))
	assert.InDelta(t, 0.80, total, 1e-9)

	_, _, total = ComputeCost(usage, ResolvePricing("unknown-model"))
	assert.Zero(t, total)

	_, _, total = ComputeCost(nil, ResolvePricing("gemini-2.5-flash"))
	assert.Zero(t, total)
}

func TestParseStatType(t *testing.T) {
	cases := map[string]StatType{
		"ppg":        StatPoints,
		"assists":    StatAssists,
		"reb":        StatRebounds,
		"stl":        StatSteals,
		"blocks":     StatBlocks,
		"fg%":        StatShooting,
		"efficiency": StatEfficiency,
		"":           StatAll,
		"vibes":      StatAll,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseStatType(in), in)
	}
}

func TestParsedQueryHelpers(t *testing.T) {
	p := ParsedQuery{Entities: []Entity{
		{Text: "lebron", Kind: EntityPlayer, Canonical: "LeBron James"},
		{Text: "Lakers", Kind: EntityTeam, Canonical: "Los Angeles Lakers"},
		{Text: "Zorp", Kind: EntityUnknown},
	}}

	assert.Len(t, p.EntitiesOf(EntityPlayer), 1)
	assert.Equal(t, []string{"LeBron James", "Los Angeles Lakers", "Zorp"}, p.EntityNames())
	assert.True(t, QueryTeamRoster.IsTeamQuery())
	assert.False(t, QueryPlayerComparison.IsTeamQuery())
}
