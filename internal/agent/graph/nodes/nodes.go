package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/nba-agent/server/internal/agent/graph/conversations"
	"github.com/nba-agent/server/internal/agent/graph/parsers"
	"github.com/nba-agent/server/internal/agent/graph/prompts"
	"github.com/nba-agent/server/internal/agent/model"
	errx "github.com/nba-agent/server/internal/core/error"
	"github.com/nba-agent/server/internal/validation"
	logx "github.com/nba-agent/server/pkg/logger"
)

// NewQueryParserPreHandler creates the pre-handler for QueryParser node
func NewQueryParserPreHandler() func(context.Context, model.QueryInput, *model.AppState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.AppState) (model.QueryInput, error) {
		if s.ConversationID == "" {
			s.ConversationID = in.ConversationID
		}
		resetTurn(s)
		return in, nil
	}
}

// NewQueryParserNode validates the question, reads it into a ParsedQuery and
// stores it in the conversation. Rejected questions are not stored.
func NewQueryParserNode(mm *conversations.MessagesManager, parser *parsers.QueryParser) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.QueryInput) (model.ParsedQuery, error) {
		cleaned, err := validation.Query(input.Query)
		if err != nil && !acceptShort(err, parser, cleaned) {
			logx.Debug().
				Str("conversation_id", input.ConversationID).
				Err(err).
				Msg("Query rejected")
			return model.ParsedQuery{
				Raw:       strings.TrimSpace(input.Query),
				QueryType: model.QueryUnknown,
				Entities:  []model.Entity{},
				Rejection: errx.UserMessage(err),
			}, nil
		}

		pq := parser.Parse(cleaned)
		logx.Debug().
			Str("conversation_id", input.ConversationID).
			Str("query_type", string(pq.QueryType)).
			Strs("entities", pq.EntityNames()).
			Str("stat_type", string(pq.StatType)).
			Str("season", pq.Season).
			Float64("confidence", pq.Confidence).
			Msg("Query parsed")

		if err := mm.SaveQuery(ctx, input.ConversationID, cleaned); err != nil {
			return model.ParsedQuery{}, fmt.Errorf("save query: %w", err)
		}
		return pq, nil
	})
}

// acceptShort lets a one-word question through when that word names exactly
// one known player or team.
func acceptShort(err error, parser *parsers.QueryParser, cleaned string) bool {
	if !errors.Is(err, validation.ErrQueryTooShort) {
		return false
	}
	pq := parser.Parse(cleaned)
	return len(pq.Entities) == 1 && pq.Entities[0].Kind != model.EntityUnknown
}

// NewQueryParserPostHandler creates the post-handler for QueryParser node
func NewQueryParserPostHandler() func(context.Context, model.ParsedQuery, *model.AppState) (model.ParsedQuery, error) {
	return func(ctx context.Context, out model.ParsedQuery, state *model.AppState) (model.ParsedQuery, error) {
		parsed := out
		state.Parsed = &parsed
		return out, nil
	}
}

// NewRouteCondition picks the path for a parsed question: rejection, a direct
// lookup, or the tool-calling model.
func NewRouteCondition(directAnswers bool) func(context.Context, model.ParsedQuery) (string, error) {
	return func(ctx context.Context, pq model.ParsedQuery) (string, error) {
		switch {
		case pq.Rejection != "":
			logx.Debug().Str("reason", pq.Rejection).Msg("Routing to Rejection")
			return NodeRejection, nil
		case directAnswers && parsers.IsSimple(pq):
			logx.Debug().Str("query_type", string(pq.QueryType)).Msg("Routing to DirectAnswer")
			return NodeDirectAnswer, nil
		}
		logx.Debug().Str("query_type", string(pq.QueryType)).Msg("Routing to Response Assembler")
		return NodeResponseAssembler, nil
	}
}

// NewRejectionNode answers a question that failed validation.
func NewRejectionNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, pq model.ParsedQuery) (*schema.Message, error) {
		msg := schema.AssistantMessage(pq.Rejection, nil)
		msg.Extra = map[string]any{
			model.ExtraRoute:       model.RouteRejected,
			model.ExtraParsedQuery: &pq,
		}
		return msg, nil
	})
}

// NewDirectAnswerNode answers a simple question with a single lookup and no model call.
func NewDirectAnswerNode(mm *conversations.MessagesManager, svc model.StatsService) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, pq model.ParsedQuery) (*schema.Message, error) {
		var conversationID string
		_ = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			conversationID = state.ConversationID
			return nil
		})

		text, err := answerDirect(ctx, svc, pq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logx.Warn().
				Str("conversation_id", conversationID).
				Str("query_type", string(pq.QueryType)).
				Err(err).
				Msg("Direct lookup failed")
			text = failureText(err)
		}

		if err := mm.SaveResponse(ctx, conversationID, text); err != nil {
			logx.Error().
				Str("conversation_id", conversationID).
				Err(err).
				Msg("Error saving direct answer")
		}

		msg := schema.AssistantMessage(text, nil)
		msg.Extra = map[string]any{
			model.ExtraRoute:       model.RouteDirect,
			model.ExtraParsedQuery: &pq,
		}
		return msg, nil
	})
}

// NewResponseAssemblerNode creates the ResponseAssembler node for building response context
func NewResponseAssemblerNode(
	mm *conversations.MessagesManager,
	responsePromptConfig *model.ResponsePromptConfig,
	currentSeason func() string,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, pq model.ParsedQuery) ([]*schema.Message, error) {
		var conversationID string
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			conversationID = state.ConversationID
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		// Render via Eino prompt component (enables prompt callbacks)
		respSysPrompt, err := prompts.RenderResponseSystem(ctx, *responsePromptConfig, currentSeason(), pq)
		if err != nil {
			return nil, fmt.Errorf("generate response prompt: %w", err)
		}

		messages, err := mm.BuildResponseContext(ctx, conversationID, respSysPrompt)
		if err != nil {
			return nil, fmt.Errorf("build response context: %w", err)
		}
		return messages, nil
	})
}

// NewResponseChatModelPreHandler creates the pre-handler for ResponseChatModel node
func NewResponseChatModelPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		// Tool results must carry the id of the call they answer.
		if len(in) > 0 {
			last := in[len(in)-1]
			if last != nil && last.Role == schema.Tool && strings.TrimSpace(last.ToolCallID) == "" {
				for i := len(state.History) - 1; i >= 0; i-- {
					msg := state.History[i]
					if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) == 0 {
						continue
					}
					if id := msg.ToolCalls[0].ID; strings.TrimSpace(id) != "" {
						last.ToolCallID = id
					}
					break
				}
			}
		}

		state.History = append(state.History, in...)

		if checkAndMarkToolLimit(state, maxToolCalls) {
			maxToolCalls = normalizeMaxToolCalls(maxToolCalls)
			wrapUp := &schema.Message{
				Role: schema.System,
				Content: fmt.Sprintf(
					"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
						"Answer now using only the statistics you have already retrieved. "+
						"Say so if some of the requested numbers could not be looked up.",
					maxToolCalls,
				),
			}
			state.History = append(state.History, wrapUp)
		}

		logx.Debug().Msg("AI thinking...")

		return state.History, nil
	}
}

// NewResponseChatModelPostHandler creates the post-handler for ResponseChatModel node
func NewResponseChatModelPostHandler(
	mm *conversations.MessagesManager,
	modelName string,
) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		if out == nil {
			return nil, fmt.Errorf("response model returned no message")
		}
		if out.Extra == nil {
			out.Extra = map[string]any{}
		}

		if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			usage := out.ResponseMeta.Usage
			pricing := model.ResolvePricing(modelName)
			inC, outC, totalC := model.ComputeCost(usage, pricing)
			out.Extra["usage_cost"] = map[string]any{
				"currency":          "USD",
				"model":             modelName,
				"prompt_tokens":     usage.PromptTokens,
				"completion_tokens": usage.CompletionTokens,
				"total_tokens":      usage.TotalTokens,
				"input_cost":        inC,
				"output_cost":       outC,
				"total_cost":        totalC,
			}
			logx.Debug().
				Str("conversation_id", state.ConversationID).
				Str("node", NodeResponseChatModel).
				Str("model", modelName).
				Int("prompt_tokens", usage.PromptTokens).
				Int("completion_tokens", usage.CompletionTokens).
				Int("total_tokens", usage.TotalTokens).
				Float64("input_cost_usd", inC).
				Float64("output_cost_usd", outC).
				Float64("total_cost_usd", totalC).
				Msg("LLM usage")

			state.TotalCostUSD += totalC
		}
		out.Extra[model.ExtraCostTotal] = state.TotalCostUSD
		out.Extra[model.ExtraRoute] = model.RouteAgent
		if state.Parsed != nil {
			out.Extra[model.ExtraParsedQuery] = state.Parsed
		}

		// Some providers omit tool call ids.
		for i := range out.ToolCalls {
			if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
				state.ToolCallIDSeq++
				out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
			}
		}

		state.History = append(state.History, out)

		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			logx.Debug().Msg("AI response ready")
		}

		// Persist only the final answer, or the last one produced after the tool limit.
		if out.Role == schema.Assistant && (len(out.ToolCalls) == 0 || state.ToolCallLimitReached) && strings.TrimSpace(out.Content) != "" {
			if err := mm.SaveResponse(ctx, state.ConversationID, out.Content); err != nil {
				logx.Error().
					Str("conversation_id", state.ConversationID).
					Err(err).
					Msg("Error saving assistant response")
			} else {
				logx.Debug().
					Str("conversation_id", state.ConversationID).
					Msg("Saved assistant response")
			}
		}

		return out, nil
	}
}

// NewToolExecutorCondition creates the condition function for tool execution routing
func NewToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		var limitReached bool
		_ = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			limitReached = state.ToolCallLimitReached
			return nil
		})

		if limitReached {
			logx.Debug().Msg("Tool limit reached previously - routing to end")
			return compose.END, nil
		}

		if len(input.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(input.ToolCalls)).Msg("Routing to ToolExecutor")
			return NodeToolExecutor, nil
		}

		logx.Debug().Msg("No tool calls - continuing to end")
		return compose.END, nil
	}
}

// NewToolExecutorPreHandler creates the pre-handler for ToolExecutor node
func NewToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.AppState) (*schema.Message, error) {
		exceeded := incrementToolCallAndCheck(state, maxToolCalls)

		logx.Debug().
			Int("tool_call_count", state.ToolCallCount).
			Str("conversation_id", state.ConversationID).
			Msg("Tool execution attempt")

		if exceeded {
			logx.Warn().
				Int("tool_call_count", state.ToolCallCount).
				Int("max_tool_calls", normalizeMaxToolCalls(maxToolCalls)).
				Str("conversation_id", state.ConversationID).
				Msg("Tool call limit exceeded - flagging and continuing")
		}
		return in, nil
	}
}
