package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/xeo-app/xeo-backend/internal/api"
	"github.com/xeo-app/xeo-backend/internal/cache"
	"github.com/xeo-app/xeo-backend/internal/config"
	"github.com/xeo-app/xeo-backend/internal/llm"
	"github.com/xeo-app/xeo-backend/internal/models"
	"github.com/xeo-app/xeo-backend/internal/notifications"
	"github.com/xeo-app/xeo-backend/internal/predictor"
	"github.com/xeo-app/xeo-backend/internal/profile"
	"github.com/xeo-app/xeo-backend/internal/rewrite"
	"github.com/xeo-app/xeo-backend/internal/scheduler"
	"github.com/xeo-app/xeo-backend/internal/sources"
	"github.com/xeo-app/xeo-backend/internal/storage"
	"github.com/xeo-app/xeo-backend/internal/tips"
	"github.com/xeo-app/xeo-backend/internal/usage"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting XEO API")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, err := storage.New(ctx, storage.Options{
		AzureAccount:   cfg.StorageAccount,
		AzureContainer: cfg.StorageContainer,
		SQLitePath:     cfg.CacheDBPath,
	})
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	// Cache tiers: process-local in front of the shared store
	local := cache.NewLocal(nil)
	tiers := cache.NewTiers(local, cache.NewShared(store, nil))
	go local.RunSweeper(ctx, cfg.LocalCacheSweep)

	profiles := cache.NewTyped[models.Profile](tiers, "profile", cfg.ProfileCacheTTL)
	targets := cache.NewTyped[models.Tweet](tiers, "context", cfg.ContextCacheTTL)
	suggestions := cache.NewTyped[[]models.Tip](tiers, "suggestion", cfg.SuggestionCacheTTL)

	sela := sources.NewSelaClient(sources.SelaOptions{
		BaseURL:       cfg.SelaBaseURL,
		APIKey:        cfg.SelaAPIKey,
		PrincipalID:   cfg.SelaPrincipalID,
		RateLimit:     cfg.SelaRateLimit,
		Burst:         cfg.SelaBurst,
		ScrapeTimeout: cfg.SelaScrapeTimeout,
	})
	if !sela.IsEnabled() {
		logrus.Warn("Scrape API is not configured; predictions will use the default profile")
	}

	llmClient, err := llm.New(llm.Options{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
		Timeout:  cfg.LLMTimeout,
	})
	if err != nil {
		logrus.Fatalf("Failed to initialize LLM client: %v", err)
	}

	recorder := usage.NewRecorder(store, nil)
	if err := recorder.Load(ctx); err != nil {
		logrus.Warnf("Failed to load usage history: %v", err)
	}

	analyzer := profile.NewAnalyzer(sela, profiles, cfg.ProfilePostCount)
	predictorService := predictor.NewService(analyzer, sela, targets, tips.NewGenerator(llmClient, suggestions, cfg.SuggestionTimeout), recorder, predictor.Options{
		FetchTimeout:    cfg.FetchTimeout,
		DefaultLanguage: cfg.DefaultLanguage,
	})

	var notifier notifications.NotificationInterface
	if cfg.NotificationsEnabled() {
		notifier = notifications.NewService(cfg)
	}

	schedulerService := scheduler.NewService(cfg, tiers, recorder, notifier)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	apiServer := api.NewServer(api.Deps{
		Predictor:       predictorService,
		Profiles:        analyzer,
		Rewriter:        rewrite.NewRewriter(llmClient),
		Cleaner:         schedulerService,
		Usage:           recorder,
		Local:           local,
		CORSOrigins:     cfg.CORSOrigins,
		DefaultLanguage: cfg.DefaultLanguage,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      apiServer.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}
	recorder.Wait()

	logrus.Info("Server exited")
}
