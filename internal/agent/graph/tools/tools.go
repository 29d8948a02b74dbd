package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/nba-agent/server/internal/agent/model"
	errx "github.com/nba-agent/server/internal/core/error"
	"github.com/nba-agent/server/internal/nba"
	"github.com/nba-agent/server/internal/validation"
)

// Tool names as seen by the response model.
const (
	ToolPlayerStats    = "nba_stats"
	ToolComparePlayers = "nba_compare"
	ToolTeamSchedule   = "nba_schedule"
	ToolTeamStandings  = "nba_standings"
	ToolTeamRoster     = "nba_roster"
	ToolTeamArena      = "nba_arena"
)

// Failure is returned to the model in place of a result so it can explain
// the problem or retry with one of the suggested names.
type Failure struct {
	Error       string   `json:"error"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// GetQueryTools returns every NBA lookup tool backed by svc.
func GetQueryTools(svc model.StatsService) []tool.BaseTool {
	return []tool.BaseTool{
		createPlayerStatsTool(svc),
		createComparePlayersTool(svc),
		createTeamScheduleTool(svc),
		createTeamStandingsTool(svc),
		createTeamRosterTool(svc),
		createTeamArenaTool(svc),
	}
}

// GetToolInfos collects the schema of each tool for binding to a chat model.
func GetToolInfos(ctx context.Context, tools []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func failure(err error) Failure {
	f := Failure{Error: errx.UserMessage(err)}
	var le *nba.LookupError
	if errors.As(err, &le) {
		f.Suggestions = le.Suggestions
	}
	return f
}

// result converts a lookup outcome into what the tool hands back to the model.
func result[T any](v T, err error) (any, error) {
	if err != nil {
		return failure(err), nil
	}
	return v, nil
}

func resolveSeason(svc model.StatsService, season string) (string, error) {
	if strings.TrimSpace(season) == "" {
		return svc.CurrentSeason(), nil
	}
	return validation.Season(season)
}

func resolveStat(stat string) (model.StatType, error) {
	if strings.TrimSpace(stat) == "" {
		return model.StatAll, nil
	}
	v, err := validation.StatType(stat)
	if err != nil {
		return "", err
	}
	return model.ParseStatType(v), nil
}
