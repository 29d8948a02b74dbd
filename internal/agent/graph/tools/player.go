package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/nba-agent/server/internal/agent/model"
	"github.com/nba-agent/server/internal/validation"
)

// ===================================
// Player Stats Tool
// ===================================

type PlayerStatsInput struct {
	Player   string `json:"player"`
	Season   string `json:"season,omitempty"`
	StatType string `json:"stat_type,omitempty"`
}

var (
	seasonParam = &schema.ParameterInfo{
		Type: "string",
		Desc: "Season in YYYY-YY format, e.g. 2024-25. Omit for the current season.",
	}
	statParam = &schema.ParameterInfo{
		Type: "string",
		Desc: "Stat family to focus on: points, assists, rebounds, steals, blocks, shooting, efficiency or all (default).",
		Enum: []string{"points", "assists", "rebounds", "steals", "blocks", "shooting", "efficiency", "all"},
	}
)

func createPlayerStatsTool(svc model.StatsService) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolPlayerStats,
			Desc: "Get a player's per-game averages for one regular season: points, assists, rebounds, steals, blocks, " +
				"shooting percentages and games played. Accepts full names, first or last names and common nicknames " +
				"(e.g. 'LeBron', 'Steph', 'KD', 'Greek Freak'). When the season has no data the most recent season is returned " +
				"and requested_season is set.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"player": {
					Type:     "string",
					Desc:     "Player name or nickname.",
					Required: true,
				},
				"season":    seasonParam,
				"stat_type": statParam,
			}),
		},
		func(ctx context.Context, in *PlayerStatsInput) (any, error) {
			name, err := validation.PlayerName(in.Player)
			if err != nil {
				return failure(err), nil
			}
			season, err := resolveSeason(svc, in.Season)
			if err != nil {
				return failure(err), nil
			}
			stat, err := resolveStat(in.StatType)
			if err != nil {
				return failure(err), nil
			}

			report, err := svc.PlayerStats(ctx, name, season, stat)
			if err != nil {
				return failure(err), nil
			}
			if err := validation.PlayerStats(report.Player, report.Season, report.Stats); err != nil {
				return failure(err), nil
			}
			return report, nil
		},
	)
}

// ===================================
// Compare Players Tool
// ===================================

type ComparePlayersInput struct {
	Player1  string `json:"player1"`
	Player2  string `json:"player2"`
	Season   string `json:"season,omitempty"`
	StatType string `json:"stat_type,omitempty"`
}

func createComparePlayersTool(svc model.StatsService) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolComparePlayers,
			Desc: "Compare two players over the same season. Returns both stat lines and, per metric, each value, " +
				"the difference (player1 - player2) and the winner ('tie' when equal).",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"player1": {
					Type:     "string",
					Desc:     "First player name or nickname.",
					Required: true,
				},
				"player2": {
					Type:     "string",
					Desc:     "Second player name or nickname.",
					Required: true,
				},
				"season":    seasonParam,
				"stat_type": statParam,
			}),
		},
		func(ctx context.Context, in *ComparePlayersInput) (any, error) {
			a, err := validation.PlayerName(in.Player1)
			if err != nil {
				return failure(err), nil
			}
			b, err := validation.PlayerName(in.Player2)
			if err != nil {
				return failure(err), nil
			}
			season, err := resolveSeason(svc, in.Season)
			if err != nil {
				return failure(err), nil
			}
			stat, err := resolveStat(in.StatType)
			if err != nil {
				return failure(err), nil
			}
			cmp, err := svc.ComparePlayers(ctx, a, b, season, stat)
			return result(cmp, err)
		},
	)
}
