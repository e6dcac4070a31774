package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shahadulhaider/meeting-note-taker/internal/ai"
	"github.com/shahadulhaider/meeting-note-taker/internal/api"
	"github.com/shahadulhaider/meeting-note-taker/internal/config"
	"github.com/shahadulhaider/meeting-note-taker/internal/identity"
	applog "github.com/shahadulhaider/meeting-note-taker/internal/logger"
	"github.com/shahadulhaider/meeting-note-taker/internal/pipeline"
	"github.com/shahadulhaider/meeting-note-taker/internal/queue"
	"github.com/shahadulhaider/meeting-note-taker/internal/realtime"
	"github.com/shahadulhaider/meeting-note-taker/internal/repository"
	"github.com/shahadulhaider/meeting-note-taker/internal/storage"
	"github.com/shahadulhaider/meeting-note-taker/internal/worker"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := applog.New(applog.LoadFromEnv())
	applog.SetDefaultLogger(logger)
	defer applog.Sync()

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}

	meetingRepo := repository.NewMeetingRepository(db)
	transcriptRepo := repository.NewTranscriptRepository(db)

	redisClient, err := queue.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	jobQueue := queue.NewRedisQueue(redisClient, &queue.Options{
		MaxAttempts: cfg.Worker.MaxAttempts,
		BackoffBase: cfg.Worker.BackoffBase,
	})

	objectStorage, err := storage.NewS3Storage(&storage.S3Config{
		Type:      storage.StorageType(cfg.Storage.Type),
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize storage")
	}

	ctx := context.Background()
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to ensure storage bucket")
	}

	verifier := identity.NewVerifier(&identity.Config{
		BaseURL:    cfg.Identity.BaseURL,
		ServiceKey: cfg.Identity.ServiceKey,
	})

	// Provider order is the fallback order: OpenAI first, then Gemini.
	var providers []ai.Provider
	if cfg.AI.OpenAI.APIKey != "" {
		providers = append(providers, ai.NewOpenAIProvider(&ai.OpenAIConfig{
			APIKey:          cfg.AI.OpenAI.APIKey,
			BaseURL:         cfg.AI.OpenAI.BaseURL,
			ChatModel:       cfg.AI.OpenAI.ChatModel,
			TranscribeModel: cfg.AI.OpenAI.TranscribeModel,
		}))
	}
	if cfg.AI.Gemini.APIKey != "" {
		providers = append(providers, ai.NewGeminiProvider(&ai.GeminiConfig{
			APIKey:  cfg.AI.Gemini.APIKey,
			BaseURL: cfg.AI.Gemini.BaseURL,
			Model:   cfg.AI.Gemini.Model,
		}))
	}
	chain := ai.NewChain(providers...)
	if !chain.HasProviders() {
		logger.Warn("No AI providers configured, transcription will use canned output")
	}

	hub := realtime.NewHub()
	pool := worker.NewPool(jobQueue, pipeline.New(chain), meetingRepo, transcriptRepo, hub, cfg.Worker.Concurrency)

	router := api.SetupRouter(api.Deps{
		Config:      cfg,
		Log:         logger,
		DB:          db,
		Redis:       redisClient,
		Meetings:    meetingRepo,
		Transcripts: transcriptRepo,
		Storage:     objectStorage,
		Queue:       jobQueue,
		Verifier:    verifier,
		Hub:         hub,
	})

	// Background loops share one cancellable context.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		hub.Run(runCtx)
	}()
	go func() {
		defer wg.Done()
		pool.Run(runCtx)
	}()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.WithFields(applog.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	// Stop workers and the hub after the HTTP surface is drained so
	// in-flight uploads can still enqueue.
	cancel()
	wg.Wait()

	logger.Info("Server exited")
}
