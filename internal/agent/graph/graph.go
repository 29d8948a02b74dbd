package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/nba-agent/server/internal/agent/graph/conversations"
	"github.com/nba-agent/server/internal/agent/graph/nodes"
	"github.com/nba-agent/server/internal/agent/graph/observers"
	"github.com/nba-agent/server/internal/agent/graph/parsers"
	"github.com/nba-agent/server/internal/agent/graph/tools"
	"github.com/nba-agent/server/internal/agent/model"
	"github.com/nba-agent/server/internal/nba"
	logx "github.com/nba-agent/server/pkg/logger"
)

// Runner answers one question of a conversation.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (*model.Reply, error)
	// Reset forgets the conversation history for id.
	Reset(ctx context.Context, conversationID string) error
}

// Config holds everything needed to compose the full response graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs ChatModels and MessagesManager.
type Config struct {
	APIKey           string
	BaseURL          string
	ResponseModel    model.ResponseModelConfig
	ResponsePrompt   model.ResponsePromptConfig
	Conversation     model.ConversationConfig
	ConversationRepo model.ConversationRepository
	Stats            model.StatsService
	Parser           *parsers.QueryParser
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels           *nodes.ChatModels
	MessagesManager      *conversations.MessagesManager
	Stats                model.StatsService
	Parser               *parsers.QueryParser
	ResponsePromptConfig *model.ResponsePromptConfig
	ToolMaxCalls         int
}

// GraphBuilder handles the construction of the agent conversation graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.QueryInput, *schema.Message]
}

type graphRunner struct {
	runnable compose.Runnable[model.QueryInput, *schema.Message]
	mm       *conversations.MessagesManager
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (*model.Reply, error) {
	out, err := r.runnable.Invoke(ctx, model.QueryInput{
		ConversationID: in.ConversationID,
		Query:          in.Query,
	}, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return nil, err
	}
	return buildReply(in.ConversationID, out), nil
}

func (r *graphRunner) Reset(ctx context.Context, conversationID string) error {
	return r.mm.Reset(ctx, conversationID)
}

// buildReply reads the route, parsed question and cost left on the terminal message.
func buildReply(conversationID string, out *schema.Message) *model.Reply {
	reply := &model.Reply{ConversationID: conversationID, Route: model.RouteAgent}
	if out == nil {
		return reply
	}
	reply.Output = out.Content

	if route, ok := out.Extra[model.ExtraRoute].(model.Route); ok {
		reply.Route = route
	}
	if cost, ok := out.Extra[model.ExtraCostTotal].(float64); ok {
		reply.CostUSD = cost
	}
	pq, _ := out.Extra[model.ExtraParsedQuery].(*model.ParsedQuery)
	if pq == nil {
		return reply
	}

	reply.ParsedQuery = pq
	reply.QueryConfidence = pq.Confidence
	reply.Urgent = pq.Context.Urgent
	if reply.Route == model.RouteRejected {
		reply.Suggestions = parsers.FallbackSuggestions()
		return reply
	}
	reply.Suggestions = parsers.Suggest(*pq)
	reply.VisualSuggestions = parsers.VisualSuggestions(*pq)
	reply.Output = parsers.Decorate(reply.Output, *pq)
	return reply
}

// BuildResponseGraph composes ChatModels, MessagesManager, builds the graph, and returns a Runner.
func BuildResponseGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		RespConfig: &cfg.ResponseModel,
	})
	if err != nil {
		return nil, err
	}

	mm := conversations.NewMessagesManager(cfg.ConversationRepo, cfg.Conversation)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:           cms,
		MessagesManager:      mm,
		Stats:                cfg.Stats,
		Parser:               cfg.Parser,
		ResponsePromptConfig: &cfg.ResponsePrompt,
		ToolMaxCalls:         cfg.Conversation.Tools.MaxCalls,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Response graph built successfully")
	return NewRunner(runnable, mm), nil
}

// NewRunner wraps a compiled graph.
func NewRunner(runnable compose.Runnable[model.QueryInput, *schema.Message], mm *conversations.MessagesManager) Runner {
	return &graphRunner{runnable: runnable, mm: mm}
}

// BuildGraph constructs and returns the compiled agent graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Response == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if config.Stats == nil || config.Parser == nil {
		return nil, fmt.Errorf("stats service and query parser are required")
	}
	if config.ResponsePromptConfig == nil {
		return nil, fmt.Errorf("response prompt config is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.QueryInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.setupTools(ctx); err != nil {
		return nil, err
	}
	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupTools configures the NBA tools and binds them to the response model
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	queryTools := tools.GetQueryTools(b.config.Stats)
	toolInfos, err := tools.GetToolInfos(ctx, queryTools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return fmt.Errorf("failed to get tool infos: %w", err)
	}

	if err := b.config.ChatModels.BindToolsToResponseModel(ctx, toolInfos); err != nil {
		return fmt.Errorf("failed to bind tools to response model: %w", err)
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               queryTools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning fallback result")
			return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
		},
		ToolArgumentsHandler: func(ctx context.Context, name, arguments string) (string, error) {
			return normalizeArguments(name, arguments), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	return b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(b.config.ToolMaxCalls)),
	)
}

var toolStringArgs = map[string][]string{
	tools.ToolPlayerStats:    {"player", "season", "stat_type"},
	tools.ToolComparePlayers: {"player1", "player2", "season", "stat_type"},
	tools.ToolTeamSchedule:   {"team"},
	tools.ToolTeamStandings:  {"team", "season"},
	tools.ToolTeamRoster:     {"team", "season"},
	tools.ToolTeamArena:      {"team"},
}

// normalizeArguments trims and coerces the string arguments a model sends.
// A bare start year becomes a season and stat names are lower-cased.
// Anything it cannot read is passed through unchanged.
func normalizeArguments(name, arguments string) string {
	keys, ok := toolStringArgs[name]
	if !ok {
		return arguments
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		return arguments
	}

	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		var s string
		switch vv := v.(type) {
		case string:
			s = strings.TrimSpace(vv)
		case nil:
			delete(m, k)
			continue
		case float64:
			s = fmt.Sprintf("%d", int(vv))
		default:
			s = strings.TrimSpace(fmt.Sprint(vv))
		}
		switch k {
		case "season":
			if len(s) == 4 {
				if start, err := strconv.Atoi(s); err == nil {
					s = nba.FormatSeason(start)
				}
			}
		case "stat_type":
			s = strings.ToLower(s)
		}
		if s == "" {
			delete(m, k)
			continue
		}
		m[k] = s
	}

	out, err := json.Marshal(m)
	if err != nil {
		return arguments
	}
	return string(out)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	cfg := b.config
	add := []func() error{
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeQueryParser,
				nodes.NewQueryParserNode(cfg.MessagesManager, cfg.Parser),
				compose.WithStatePreHandler(nodes.NewQueryParserPreHandler()),
				compose.WithStatePostHandler(nodes.NewQueryParserPostHandler()),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeRejection, nodes.NewRejectionNode())
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeDirectAnswer,
				nodes.NewDirectAnswerNode(cfg.MessagesManager, cfg.Stats),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeResponseAssembler,
				nodes.NewResponseAssemblerNode(cfg.MessagesManager, cfg.ResponsePromptConfig, cfg.Stats.CurrentSeason),
			)
		},
		func() error {
			return b.graph.AddChatModelNode(nodes.NodeResponseChatModel,
				cfg.ChatModels.Response,
				compose.WithStatePreHandler(nodes.NewResponseChatModelPreHandler(cfg.ToolMaxCalls)),
				compose.WithStatePostHandler(nodes.NewResponseChatModelPostHandler(cfg.MessagesManager, cfg.ChatModels.ResponseModelName)),
			)
		},
	}
	for _, fn := range add {
		if err := fn(); err != nil {
			logx.Error().Err(err).Msg("Error adding node")
			return fmt.Errorf("error adding node: %w", err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeQueryParser},
		{nodes.NodeRejection, compose.END},
		{nodes.NodeDirectAnswer, compose.END},
		{nodes.NodeResponseAssembler, nodes.NodeResponseChatModel},
		{nodes.NodeToolExecutor, nodes.NodeResponseChatModel},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	routeBranch := compose.NewGraphBranch(
		nodes.NewRouteCondition(b.config.ResponsePromptConfig.DirectAnswers),
		map[string]bool{
			nodes.NodeRejection:         true,
			nodes.NodeDirectAnswer:      true,
			nodes.NodeResponseAssembler: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeQueryParser, routeBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding route branch")
		return fmt.Errorf("error adding route branch: %w", err)
	}

	decisionBranch := compose.NewGraphBranch(
		nodes.NewToolExecutorCondition(),
		map[string]bool{
			nodes.NodeToolExecutor: true,
			compose.END:            true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeResponseChatModel, decisionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	// Bound total steps so a model that keeps calling tools cannot loop forever.
	maxSteps := max(20, 10+b.config.ToolMaxCalls*2)

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
