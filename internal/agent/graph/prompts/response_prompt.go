package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/nba-agent/server/internal/agent/graph/tools"
	"github.com/nba-agent/server/internal/agent/model"
)

//go:embed template/response_prompt.txt
var coreSystemPrompt string

// RenderResponseSystem renders the response system prompt for one parsed question
// and triggers prompt callbacks.
func RenderResponseSystem(ctx context.Context, config model.ResponsePromptConfig, currentSeason string, pq model.ParsedQuery) (string, error) {
	name := strings.TrimSpace(config.AssistantName)
	if name == "" {
		name = "Courtside"
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(coreSystemPrompt),
	)
	vars := map[string]any{
		"AssistantName": name,
		"CurrentSeason": currentSeason,
		"StatsTool":     tools.ToolPlayerStats,
		"CompareTool":   tools.ToolComparePlayers,
		"ScheduleTool":  tools.ToolTeamSchedule,
		"StandingsTool": tools.ToolTeamStandings,
		"RosterTool":    tools.ToolTeamRoster,
		"ArenaTool":     tools.ToolTeamArena,
		"QueryType":     string(pq.QueryType),
		"Entities":      strings.Join(pq.EntityNames(), ", "),
		"StatType":      string(pq.StatType),
		"Season":        pq.Season,
		"Comparison":    pq.Comparison,
		"Detailed":      pq.Context.Detailed,
		"Summary":       pq.Context.Summary,
		"Visual":        pq.Context.Visual,
		"Urgent":        pq.Context.Urgent,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("response prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("response prompt render: empty result")
	}
	return msgs[0].Content, nil
}
