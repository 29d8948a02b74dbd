package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nba-agent/server/internal/agent/model"
	"github.com/nba-agent/server/internal/loadtest"
	"github.com/nba-agent/server/internal/repl"
	"github.com/nba-agent/server/internal/web"
	logx "github.com/nba-agent/server/pkg/logger"
)

var (
	envFile  string
	cfg      *AppConfig
	logClose func() error
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nba-agent",
		Short: "Courtside - an NBA stats assistant",
		Long: `Courtside answers questions about NBA players and teams from live NBA data.

Simple lookups are answered directly; everything else goes through a Gemini
model that calls the NBA tools. Run without arguments to start the terminal chat.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = loadConfig(envFile); err != nil {
				return err
			}
			return initLogger(cfg, cmd.Name() == "chat" || cmd.Name() == "nba-agent")
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logClose != nil {
				return logClose()
			}
			return nil
		},
		RunE: runChat,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newAskCmd(),
		newParseCmd(),
		newLoadTestCmd(),
	)
	return root
}

// initLogger sets up zerolog. The terminal chat owns the screen, so its logs
// go to LOG_FILE (nba-agent.log when unset).
func initLogger(cfg *AppConfig, tui bool) error {
	opts := logx.LoggerOpts{
		Environment: cfg.environment(),
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
	}
	file := cfg.Log.File
	if tui && file == "" {
		file = "nba-agent.log"
	}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		opts.Output = f
		if opts.Format == "" {
			opts.Format = "json"
		}
		logClose = f.Close
	}
	logx.Init(opts)
	return nil
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat web page",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			webCfg := cfg.Web
			if addr != "" {
				webCfg.Addr = addr
			}
			srv, err := web.NewServer(webCfg, a.runner)
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides WEB_ADDR)")
	return cmd
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the terminal chat (default)",
		RunE:  runChat,
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()
	return repl.Run(ctx, a.runner, repl.Options{Timeout: cfg.Web.RequestTimeout})
}

func newAskCmd() *cobra.Command {
	var (
		conversationID string
		asJSON         bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if conversationID == "" {
				conversationID = fmt.Sprintf("cli-%d", time.Now().UnixNano())
			}
			reply, err := a.runner.Invoke(ctx, model.QueryInput{
				ConversationID: conversationID,
				Query:          strings.Join(args, " "),
			})
			if err != nil {
				return err
			}
			return printReply(cmd.OutOrStdout(), reply, asJSON)
		},
	}
	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation id to continue")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full reply as JSON")
	return cmd
}

func printReply(w io.Writer, reply *model.Reply, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reply)
	}
	fmt.Fprintln(w, reply.Output)
	if len(reply.Suggestions) > 0 {
		fmt.Fprintln(w)
		for _, s := range reply.Suggestions {
			fmt.Fprintln(w, "  •", s)
		}
	}
	return nil
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <question>",
		Short: "Print how a question is read, without calling the model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			pq := a.parser.Parse(strings.Join(args, " "))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(pq)
		},
	}
}

func newLoadTestCmd() *cobra.Command {
	var opts loadtest.Options
	var queriesFile string
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Send a batch of questions concurrently and report latency",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if queriesFile != "" {
				qs, err := readQueries(queriesFile)
				if err != nil {
					return err
				}
				opts.Queries = qs
			}
			a, err := newApp(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := loadtest.Run(ctx, a.runner, opts)
			fmt.Fprint(cmd.OutOrStdout(), report.String())
			return err
		},
	}
	cmd.Flags().IntVarP(&opts.Concurrency, "concurrency", "c", 5, "questions in flight at once")
	cmd.Flags().IntVarP(&opts.Iterations, "iterations", "n", 3, "times to repeat the question set")
	cmd.Flags().StringVar(&queriesFile, "queries", "", "file with one question per line (default: built-in set)")
	return cmd
}

func readQueries(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no questions in %s", path)
	}
	return out, nil
}
