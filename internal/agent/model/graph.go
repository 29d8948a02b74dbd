package model

import (
	"github.com/cloudwego/eino/schema"
)

// AppState stores per-invocation state for the Eino Graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Do not access AppState directly from outside handlers. For persistence,
//     use the MessagesManager.
type AppState struct {
	ConversationID       string
	History              []*schema.Message // mutated only inside Eino state handlers
	Parsed               *ParsedQuery      // set by parser post-handler, read by assembler
	ToolCallCount        int
	ToolCallLimitReached bool
	ToolCallIDSeq        int // synthesizes tool_call_id when the provider omits one

	// Accumulated total LLM cost (USD) across model invocations for this query
	TotalCostUSD float64
}

// QueryInput represents the input for processing user queries.
type QueryInput struct {
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query"`
}

// Route names the path a query took through the graph.
type Route string

const (
	RouteDirect   Route = "direct"
	RouteAgent    Route = "agent"
	RouteRejected Route = "rejected"
)

// Keys set on the terminal message Extra so the runner can build a Reply.
const (
	ExtraParsedQuery = "parsed_query"
	ExtraRoute       = "route"
	ExtraCostTotal   = "usage_cost_total_usd"
)

// Reply is the answer returned to the web and terminal front ends.
type Reply struct {
	ConversationID  string       `json:"conversation_id"`
	Output          string       `json:"output"`
	Route           Route        `json:"route"`
	ParsedQuery     *ParsedQuery `json:"parsed_query,omitempty"`
	Suggestions     []string     `json:"suggestions,omitempty"`
	QueryConfidence float64      `json:"query_confidence"`
	Urgent          bool         `json:"urgent,omitempty"`
	CostUSD         float64      `json:"cost_usd"`

	VisualSuggestions []string `json:"visual_suggestions,omitempty"`
}
