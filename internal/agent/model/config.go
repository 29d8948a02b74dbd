package model

// ================ Config ================
type ConversationConfig struct {
	TTL      string `envconfig:"CONVERSATION_TTL" default:"30m"`
	MaxTurns int    `envconfig:"CONVERSATION_MAX_TURNS" default:"10"`
	Tools    struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"6"`
	}
}

type ResponseModelConfig struct {
	Model          string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"RESPONSE_MAX_TOKENS" default:"2000"`
	Temperature    float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.3"`
	ThinkingBudget int32   `envconfig:"RESPONSE_THINKING_BUDGET" default:"1024"`
}

type ResponsePromptConfig struct {
	AssistantName string `envconfig:"PROMPT_ASSISTANT_NAME" default:"Courtside"`
	// DirectAnswers lets simple single-entity questions skip the LLM.
	DirectAnswers bool `envconfig:"PROMPT_DIRECT_ANSWERS" default:"true"`
}
