package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/nba-agent/server/internal/agent/model"
	"github.com/nba-agent/server/internal/validation"
)

type TeamInput struct {
	Team   string `json:"team"`
	Season string `json:"season,omitempty"`
}

var teamParam = &schema.ParameterInfo{
	Type:     "string",
	Desc:     "Team name, nickname, city or abbreviation, e.g. 'Lakers', 'Golden State Warriors', 'Boston', 'NYK'.",
	Required: true,
}

func teamTool(name, desc string, withSeason bool, fn func(ctx context.Context, team, season string) (any, error), svc model.StatsService) tool.BaseTool {
	params := map[string]*schema.ParameterInfo{"team": teamParam}
	if withSeason {
		params["season"] = seasonParam
	}
	return utils.NewTool(
		&schema.ToolInfo{
			Name:        name,
			Desc:        desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		},
		func(ctx context.Context, in *TeamInput) (any, error) {
			team, err := validation.TeamName(in.Team)
			if err != nil {
				return failure(err), nil
			}
			season := ""
			if withSeason {
				if season, err = resolveSeason(svc, in.Season); err != nil {
					return failure(err), nil
				}
			}
			return fn(ctx, team, season)
		},
	)
}

func createTeamScheduleTool(svc model.StatsService) tool.BaseTool {
	return teamTool(ToolTeamSchedule,
		"Get a team's games on today's scoreboard with tip-off status or live/final score, plus a one-line summary.",
		false,
		func(ctx context.Context, team, _ string) (any, error) {
			s, err := svc.TeamSchedule(ctx, team)
			return result(s, err)
		}, svc)
}

func createTeamStandingsTool(svc model.StatsService) tool.BaseTool {
	return teamTool(ToolTeamStandings,
		"Get a team's record for a season: wins, losses, win percentage, conference and conference/division rank.",
		true,
		func(ctx context.Context, team, season string) (any, error) {
			s, err := svc.TeamStandings(ctx, team, season)
			return result(s, err)
		}, svc)
}

func createTeamRosterTool(svc model.StatsService) tool.BaseTool {
	return teamTool(ToolTeamRoster,
		"Get the list of players on a team's roster for a season.",
		true,
		func(ctx context.Context, team, season string) (any, error) {
			r, err := svc.TeamRoster(ctx, team, season)
			return result(r, err)
		}, svc)
}

func createTeamArenaTool(svc model.StatsService) tool.BaseTool {
	return teamTool(ToolTeamArena,
		"Get a team's home arena with its city and state.",
		false,
		func(_ context.Context, team, _ string) (any, error) {
			a, err := svc.TeamArena(team)
			return result(a, err)
		}, svc)
}
