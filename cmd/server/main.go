package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/calebhsu/swarmdesk/internal/api/routes"
	"github.com/calebhsu/swarmdesk/internal/config"
	"github.com/calebhsu/swarmdesk/internal/gateway"
	"github.com/calebhsu/swarmdesk/internal/knowledge"
	"github.com/calebhsu/swarmdesk/internal/reasoning"
	"github.com/calebhsu/swarmdesk/internal/reasoning/openai"
	"github.com/calebhsu/swarmdesk/internal/security"
	"github.com/calebhsu/swarmdesk/internal/swarm"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize knowledge store
	store, err := knowledge.NewStore(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open knowledge store", zap.Error(err))
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	if err := store.Seed(context.Background(), cfg.KBSeedFile); err != nil {
		logger.Fatal("failed to seed knowledge base", zap.Error(err))
	}
	if count, err := store.Count(context.Background()); err == nil {
		logger.Info("knowledge base ready", zap.Int("documents", count))
	}

	// Live backend is optional; without a key the pipeline runs on the
	// deterministic fallback
	var live reasoning.Backend
	if cfg.OpenAIAPIKey != "" {
		live = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.OpenAITimeout)
		logger.Info("live backend configured", zap.String("model", cfg.OpenAIModel))
	} else {
		logger.Info("no backend credential, running fallback-only")
	}

	// The gateway client models the unconfigured state itself, so it is
	// always constructed; an empty URL yields a permanently unconfigured
	// client
	gw := gateway.NewClient(cfg.GatewayURL, cfg.GatewayTransport, cfg.GatewayTimeout)
	if gw.Enabled() {
		logger.Info("tool gateway configured",
			zap.String("url", cfg.GatewayURL),
			zap.String("transport", cfg.GatewayTransport))
	} else {
		logger.Info("tool gateway not configured")
	}

	// Initialize orchestrator
	orchestrator := swarm.New(swarm.Config{
		Live:              live,
		Retriever:         store,
		Gateway:           gw,
		Logger:            logger,
		TopK:              cfg.RetrieveTopK,
		EvidenceThreshold: cfg.EvidenceThreshold,
	})

	// API auth is optional
	var tokens *security.TokenService
	if cfg.APIAuthSecret != "" {
		tokens = security.NewTokenService(cfg.APIAuthSecret, cfg.APITokenExpiry)
		logger.Info("api auth enabled")
	}

	// Setup routes
	deps := &routes.Dependencies{
		Config:       cfg,
		Logger:       logger,
		Orchestrator: orchestrator,
		Store:        store,
		Gateway:      gw,
		Tokens:       tokens,
	}

	app := routes.Setup(deps)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("gracefully shutting down")

		if err := app.Shutdown(); err != nil {
			logger.Error("error during shutdown", zap.Error(err))
		}
	}()

	// Start server
	addr := cfg.Host + ":" + cfg.Port
	logger.Info("starting swarmdesk server",
		zap.String("addr", addr),
		zap.String("environment", cfg.Environment))

	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
