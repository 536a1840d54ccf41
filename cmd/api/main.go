// Package main is the entry point for the chat sync server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hexchat/chat-sync/internal/config"
	"github.com/hexchat/chat-sync/internal/handler"
	"github.com/hexchat/chat-sync/internal/identity"
	"github.com/hexchat/chat-sync/internal/llm"
	"github.com/hexchat/chat-sync/internal/middleware"
	"github.com/hexchat/chat-sync/internal/remote"
	"github.com/hexchat/chat-sync/internal/service"
	"github.com/hexchat/chat-sync/internal/share"
	"github.com/hexchat/chat-sync/internal/store"
	"github.com/hexchat/chat-sync/internal/syncer"
	"github.com/hexchat/chat-sync/internal/title"
	"github.com/hexchat/chat-sync/pkg/logger"
	"github.com/hexchat/chat-sync/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting chat sync server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "chat-sync", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the local thread store
	st, err := store.Open(cfg.StorePath)
	if err != nil {
		log.Error("failed to open local store", zap.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	// Connect to the remote store. The server stays useful without it:
	// saves, history and inline share links all work against the local
	// store alone, so a failed connection downgrades to offline mode
	// instead of aborting.
	var rs remote.Store
	natsStore, err := remote.Connect(ctx, remote.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
		Bucket:   cfg.ChatsBucket,
	}, log)
	if err != nil {
		log.Warn("remote store unavailable, running offline", zap.Error(err))
		rs = remote.NewMemory()
	} else {
		defer natsStore.Close()
		rs = natsStore
	}

	// Initialize LLM client for title generation
	var titler title.Generator
	llmClient, err := llm.NewClient(llm.Provider(cfg.DefaultLLM), llmAPIKey(cfg))
	if err != nil {
		log.Warn("LLM client unavailable, saved threads keep the default title", zap.Error(err))
	} else {
		titler = title.NewLLMGenerator(llmClient)
	}

	// Identity comes from the JWT the auth middleware verified.
	ident := identity.ContextProvider{Lookup: middleware.GetUserID}

	// Initialize services
	engine := syncer.New(rs, st, ident, log, cfg.RemoteTimeout)
	resolver := share.NewResolver(rs, st, log, cfg.RemoteTimeout)
	historySvc := service.NewHistoryService(st, titler, engine, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(rs)
	threadHandler := handler.NewThreadHandler(historySvc, log)
	syncHandler := handler.NewSyncHandler(historySvc, log)
	shareHandler := handler.NewShareHandler(historySvc, resolver, cfg.ShareBaseURL, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Share links resolve and import for anonymous recipients too.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWTSecret))

			r.Get("/share/resolve", shareHandler.Resolve)
			r.Post("/share/import", shareHandler.Import)
		})

		// Everything else requires a signed-in user.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))

			r.Post("/sync", syncHandler.Sync)

			r.Route("/threads", func(r chi.Router) {
				r.Get("/", threadHandler.List)
				r.Delete("/", threadHandler.ClearAll)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", threadHandler.Get)
					r.Put("/", threadHandler.Save)
					r.Delete("/", threadHandler.Delete)

					r.Post("/actions", threadHandler.Action)
					r.Get("/export", threadHandler.Export)
					r.Post("/share", shareHandler.Create)
				})
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func llmAPIKey(cfg *config.Config) string {
	switch llm.Provider(cfg.DefaultLLM) {
	case llm.ProviderOpenAI:
		return cfg.OpenAIAPIKey
	default:
		return cfg.AnthropicAPIKey
	}
}
