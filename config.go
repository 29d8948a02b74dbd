package main

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/nba-agent/server/internal/agent/model"
	"github.com/nba-agent/server/internal/cache"
	"github.com/nba-agent/server/internal/core"
	"github.com/nba-agent/server/internal/nba"
	"github.com/nba-agent/server/internal/web"
	logx "github.com/nba-agent/server/pkg/logger"
	pkgredis "github.com/nba-agent/server/pkg/redis"
)

// AppConfig defines all configurable parameters, sourced from environment
// variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	// Redis is optional; without REDIS_URL conversations are kept in memory.
	Redis pkgredis.Config
	Cache cache.Config
	NBA   nba.Config
	Web   web.Config
	Log   logx.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Response     model.ResponseModelConfig
	Prompt       model.ResponsePromptConfig
	Conversation model.ConversationConfig
}

// loadConfig reads envFile when present, then the environment.
func loadConfig(envFile string) (*AppConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			logx.Debug().Str("file", envFile).Err(err).Msg("No env file loaded")
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	if _, err := cfg.conversationTTL(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) environment() core.Environment {
	return core.ParseEnvironment(c.Environment)
}

func (c *AppConfig) conversationTTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(c.Conversation.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid CONVERSATION_TTL %q: %w", c.Conversation.TTL, err)
	}
	return ttl, nil
}
