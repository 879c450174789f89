package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ashureev/feedback-coach/internal/agent"
	"github.com/ashureev/feedback-coach/internal/api"
	"github.com/ashureev/feedback-coach/internal/auth"
	"github.com/ashureev/feedback-coach/internal/config"
	"github.com/ashureev/feedback-coach/internal/llm"
	"github.com/ashureev/feedback-coach/internal/middleware"
	"github.com/ashureev/feedback-coach/internal/observability/metrics"
	"github.com/ashureev/feedback-coach/internal/practice"
	"github.com/ashureev/feedback-coach/internal/scenario"
	"github.com/ashureev/feedback-coach/internal/store"
	"github.com/ashureev/feedback-coach/web"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), logger)
		},
	}
}

// app holds the wired components behind the HTTP router.
type app struct {
	cfg       *config.Config
	store     store.SessionStore
	catalog   *scenario.Catalog
	practice  *practice.Manager
	agent     *agent.Handler
	limiter   *middleware.RateLimiter
	convLog   agent.ConversationLogger
	registry  *prometheus.Registry
	llmCloser func()
}

func runServe(parent context.Context, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return err
	}
	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "store", cfg.StoreDriver)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: a.router(),
		// WebSocket feeds are long-lived, so no WriteTimeout.
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.MetricsAddr != "" {
		msrv := &http.Server{
			Addr:        cfg.MetricsAddr,
			Handler:     a.metricsRouter(),
			ReadTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			slog.Info("Metrics listening", "addr", msrv.Addr)
			if err := msrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
			defer cancel()
			return msrv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		return a.practice.RunSweeper(gctx, practice.DefaultSweepInterval, cfg.PracticeIdleTTL)
	})
	g.Go(func() error { return a.limiter.Run(gctx) })
	if cfg.ScenariosFile != "" {
		g.Go(func() error {
			if err := a.catalog.Watch(gctx, cfg.ScenariosFile); err != nil {
				// A broken watcher leaves the loaded pool in place.
				slog.Warn("Scenario watcher stopped", "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		return err
	}
	slog.Info("Server stopped successfully")
	return nil
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	st, err := store.Open(cfg.StoreDriver, cfg.SessionsFile, cfg.DBPath,
		store.WithLogger(logger), store.WithMetrics(m))
	if err != nil {
		slog.Error("Failed to initialize session store", "error", err)
		return nil, err
	}
	if err := st.Ping(ctx); err != nil {
		_ = st.Close()
		slog.Error("Session store health check failed", "error", err)
		return nil, err
	}
	slog.Info("Session store ready", "driver", cfg.StoreDriver)

	catalog := scenario.NewCatalog(scenario.WithLogger(logger))
	if cfg.ScenariosFile != "" {
		if err := catalog.LoadFile(cfg.ScenariosFile); err != nil {
			slog.Warn("Using built-in scenario presets", "error", err)
		}
	}

	client, closeLLM, err := buildLLMClient(ctx, cfg.LLM, logger)
	if err != nil {
		_ = st.Close()
		slog.Error("Failed to initialize language model client", "error", err)
		return nil, err
	}

	convLog, err := agent.NewConversationLogger(agent.ConversationLogConfig{
		Enabled:   cfg.ConversationLog.Enabled,
		Dir:       cfg.ConversationLog.Dir,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		closeLLM()
		_ = st.Close()
		slog.Error("Failed to initialize conversation logger", "error", err)
		return nil, err
	}

	service := agent.NewService(client,
		agent.WithMetrics(m),
		agent.WithTimeout(cfg.LLM.Timeout),
		agent.WithLogger(logger))

	mgr := practice.NewManager(practice.Deps{
		Scenarios:       catalog,
		Collaborator:    service,
		Store:           st,
		Metrics:         m,
		ConversationLog: convLog,
		Logger:          logger,
	})

	return &app{
		cfg:       cfg,
		store:     st,
		catalog:   catalog,
		practice:  mgr,
		agent:     agent.NewHandler(service, convLog),
		limiter:   middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		convLog:   convLog,
		registry:  registry,
		llmCloser: closeLLM,
	}, nil
}

// buildLLMClient returns the configured provider, wrapped in a failover
// client when a fallback provider is set.
func buildLLMClient(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (llm.Client, func(), error) {
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	open := func(name string) (llm.Client, error) {
		switch name {
		case config.ProviderGemini:
			c, err := llm.NewGeminiClient(ctx, cfg.GeminiKey, cfg.GeminiModel)
			if err != nil {
				return nil, err
			}
			closers = append(closers, func() {
				if err := c.Close(); err != nil {
					slog.Debug("Failed to close gemini client", "error", err)
				}
			})
			return c, nil
		case config.ProviderOpenAI:
			return llm.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.Timeout)
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}

	primary, err := open(cfg.Provider)
	if err != nil {
		return nil, closeAll, fmt.Errorf("primary provider %s: %w", cfg.Provider, err)
	}
	slog.Info("Language model ready", "provider", cfg.Provider)
	if cfg.FallbackProvider == "" {
		return primary, closeAll, nil
	}

	fallback, err := open(cfg.FallbackProvider)
	if err != nil {
		closeAll()
		return nil, func() {}, fmt.Errorf("fallback provider %s: %w", cfg.FallbackProvider, err)
	}
	slog.Info("Language model fallback ready", "provider", cfg.FallbackProvider)
	return llm.NewFallbackClient(primary, fallback, logger), closeAll, nil
}

// router builds the public HTTP surface.
func (a *app) router() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(a.cfg.AllowedOrigins()))
	r.Use(auth.Gate())

	auth.NewHandler(a.cfg.AuthUsername, a.cfg.AuthPassword, a.cfg.IsDevelopment()).RegisterRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(a.limiter.Middleware)
		a.agent.RegisterRoutes(r)
	})
	api.NewSessionsHandler(a.store).RegisterRoutes(r)
	api.NewScenariosHandler(a.catalog).RegisterRoutes(r)
	practice.NewHandler(a.practice).RegisterRoutes(r, a.limiter.Middleware)

	ws := practice.NewWebSocketHandler(a.practice, a.cfg.FrontendURL, a.cfg.IsDevelopment())
	r.Get("/ws/practice/{id}", ws.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())
	return r
}

// metricsRouter serves Prometheus metrics and store readiness on the
// internal listener.
func (a *app) metricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	api.NewHealthHandler(a.store, 0).RegisterHealth(r)
	return r
}

func (a *app) close() {
	a.practice.CloseAll()
	if err := a.convLog.Close(); err != nil {
		slog.Error("Failed to close conversation logger", "error", err)
	}
	a.llmCloser()
	if err := a.store.Close(); err != nil {
		slog.Error("Failed to close session store", "error", err)
	}
}
