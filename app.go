package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nba-agent/server/internal/agent/graph"
	"github.com/nba-agent/server/internal/agent/graph/parsers"
	"github.com/nba-agent/server/internal/agent/model"
	"github.com/nba-agent/server/internal/agent/repo"
	"github.com/nba-agent/server/internal/cache"
	"github.com/nba-agent/server/internal/nba"
	logx "github.com/nba-agent/server/pkg/logger"
)

// app holds the wired services for one command.
type app struct {
	cfg    *AppConfig
	rdb    *redis.Client
	cache  *cache.Cache
	stats  *nba.Service
	parser *parsers.QueryParser
	runner graph.Runner
}

// newApp wires the NBA service and parser. The agent graph is built only when
// withAgent is set, so commands that never call the model need no API key.
func newApp(ctx context.Context, cfg *AppConfig, withAgent bool) (*app, error) {
	a := &app{cfg: cfg}

	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.rdb = rdb
		logx.Debug().Msg("Connected to Redis")
	}

	var rdb redis.Cmdable
	if a.rdb != nil {
		rdb = a.rdb
	}
	c, err := cache.Open(ctx, cfg.Cache, rdb)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}
	a.cache = c

	ref, err := nba.LoadReference()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load reference data: %w", err)
	}
	a.stats = nba.NewService(nba.NewClient(cfg.NBA), c, ref, cfg.NBA)
	a.parser = parsers.NewQueryParser(ref, a.stats.CurrentSeason)

	if !withAgent {
		return a, nil
	}
	if cfg.APIKey == "" {
		a.Close()
		return nil, errors.New("GEMINI_API_KEY is required")
	}

	ttl, err := cfg.conversationTTL()
	if err != nil {
		a.Close()
		return nil, err
	}
	var conversations model.ConversationRepository
	if a.rdb != nil {
		conversations = repo.NewRedisConversationRepository(a.rdb, ttl)
	} else {
		conversations = repo.NewMemoryConversationRepository(ttl)
		logx.Debug().Msg("REDIS_URL not set, keeping conversations in memory")
	}

	runner, err := graph.BuildResponseGraph(ctx, graph.Config{
		APIKey:           cfg.APIKey,
		BaseURL:          cfg.BaseURL,
		ResponseModel:    cfg.Response,
		ResponsePrompt:   cfg.Prompt,
		Conversation:     cfg.Conversation,
		ConversationRepo: conversations,
		Stats:            a.stats,
		Parser:           a.parser,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build agent graph: %w", err)
	}
	a.runner = runner
	return a, nil
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logx.Warn().Err(err).Msg("Close cache")
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			logx.Warn().Err(err).Msg("Close redis")
		}
	}
}
