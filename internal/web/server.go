// Package web serves the chat page and its JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nba-agent/server/internal/agent/model"
	logx "github.com/nba-agent/server/pkg/logger"
)

//go:embed static/index.html
var staticFS embed.FS

// Assistant answers chat messages. graph.Runner satisfies it.
type Assistant interface {
	Invoke(ctx context.Context, in model.QueryInput) (*model.Reply, error)
	Reset(ctx context.Context, conversationID string) error
}

// Config binds the HTTP listener.
type Config struct {
	Addr              string        `envconfig:"WEB_ADDR" default:":8080"`
	ReadHeaderTimeout time.Duration `envconfig:"WEB_READ_HEADER_TIMEOUT" default:"10s"`
	RequestTimeout    time.Duration `envconfig:"WEB_REQUEST_TIMEOUT" default:"90s"`
	ShutdownTimeout   time.Duration `envconfig:"WEB_SHUTDOWN_TIMEOUT" default:"10s"`
}

// Server hosts the chat page.
type Server struct {
	addr            string
	shutdownTimeout time.Duration
	httpServer      *http.Server
}

// NewServer wires the handler into an http.Server.
func NewServer(cfg Config, assistant Assistant) (*Server, error) {
	if assistant == nil {
		return nil, errors.New("assistant is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}
	return &Server{
		addr:            cfg.Addr,
		shutdownTimeout: cfg.ShutdownTimeout,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewHandler(assistant, cfg.RequestTimeout),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
	}, nil
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	serveErr := make(chan error, 1)
	logx.Info().Str("addr", s.addr).Msg("Web chat listening")
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logx.Info().Msg("Web chat stopped")
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
