package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/learnchat/internal/config"
	"github.com/diogo/learnchat/internal/knowledge"
	"github.com/diogo/learnchat/internal/responder"
	"github.com/diogo/learnchat/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		host      string
		port      int
		dbPath    string
		responses string
		rateLimit float64
		proxies   []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the learning backend",
		Long: `Run the HTTP backend the chat widget talks to.

Answers come from the knowledge base when a learned question matches, then
from OpenAI when OPENAI_API_KEY is set, then from the demo table. Every
exchange is recorded so it can be answered from memory next time.

Endpoints:
  POST /api/chat        {"message": "..."}
  GET  /api/health
  GET  /api/stats
  GET  /api/knowledge`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.config()
			flags := cmd.Flags()
			if flags.Changed("host") {
				cfg.Server.Host = host
			}
			if flags.Changed("port") {
				cfg.Server.Port = port
			}
			if flags.Changed("db") {
				cfg.Server.DatabasePath = dbPath
			}
			if flags.Changed("responses") {
				cfg.Server.ResponsesPath = responses
			}
			if flags.Changed("rate-limit") {
				cfg.Server.RateLimit = rateLimit
			}
			if flags.Changed("trusted-proxy") {
				cfg.Server.TrustedProxies = proxies
			}

			level := zap.InfoLevel
			if cfg.Verbose {
				level = zap.DebugLevel
			}
			logger := newLogger(a.deps.Stderr, level, true)
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, closeBackend, err := newBackend(ctx, cfg.Server, logger)
			if err != nil {
				return err
			}
			defer closeBackend()

			return srv.ListenAndServe(ctx, cfg.Server.Addr())
		},
	}

	def := config.DefaultServerConfig()
	cmd.Flags().StringVar(&host, "host", def.Host, "Address to listen on")
	cmd.Flags().IntVarP(&port, "port", "p", def.Port, "Port to listen on")
	cmd.Flags().StringVar(&dbPath, "db", def.DatabasePath, "Knowledge base path (\":memory:\" for a throwaway store)")
	cmd.Flags().StringVar(&responses, "responses", "", "YAML file overriding the demo answers")
	cmd.Flags().Float64Var(&rateLimit, "rate-limit", def.RateLimit, "Chat requests per second per client (0 disables)")
	cmd.Flags().StringSliceVar(&proxies, "trusted-proxy", nil, "Proxy address or CIDR whose X-Forwarded-For is trusted (repeatable)")
	return cmd
}

// newBackend opens the knowledge base and assembles the responder chain and
// HTTP server. The returned func closes the knowledge base.
func newBackend(ctx context.Context, cfg config.ServerConfig, logger *zap.Logger) (*server.Server, func(), error) {
	proxies, err := server.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, nil, err
	}

	store, err := knowledge.Open(ctx, cfg.DatabasePath, knowledge.WithLogger(logger.Named("knowledge")))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing knowledge base", zap.Error(err))
		}
	}

	chainOpts := []responder.ChainOption{responder.WithLogger(logger.Named("responder"))}

	if cfg.ResponsesPath != "" {
		demo, err := responder.LoadDemo(cfg.ResponsesPath)
		if err != nil {
			closeStore()
			return nil, nil, fmt.Errorf("failed to load demo responses: %w", err)
		}
		chainOpts = append(chainOpts, responder.WithDemo(demo))
	}

	if cfg.OpenAIKey != "" {
		upstream := responder.NewOpenAI(cfg.OpenAIKey,
			responder.WithModel(cfg.OpenAIModel),
			responder.WithMaxTokens(cfg.MaxTokens),
			responder.WithTemperature(cfg.Temperature),
		)
		chainOpts = append(chainOpts, responder.WithUpstream(upstream))
		logger.Info("upstream model configured", zap.String("model", upstream.Model()))
	} else {
		logger.Info("no OPENAI_API_KEY set, running in demo mode")
	}

	chain := responder.NewChain(store, chainOpts...)
	srv := server.New(chain, store,
		server.WithLogger(logger.Named("http")),
		server.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		server.WithTrustedProxies(proxies...),
	)

	logger.Info("backend ready",
		zap.String("database", cfg.DatabasePath),
		zap.Bool("demo_mode", chain.DemoMode()),
	)
	return srv, closeStore, nil
}
