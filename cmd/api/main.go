package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/selahlabs/selah/internal/api"
	"github.com/selahlabs/selah/internal/config"
	"github.com/selahlabs/selah/internal/imagegen"
	"github.com/selahlabs/selah/internal/llm"
	"github.com/selahlabs/selah/internal/logger"
	"github.com/selahlabs/selah/internal/prompts"
	"github.com/selahlabs/selah/internal/repository"
	"github.com/selahlabs/selah/internal/service"
	"github.com/selahlabs/selah/internal/storage"
	"github.com/selahlabs/selah/internal/tts"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(logger.LoadFromEnv())
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	devotionalRepo := repository.NewDevotionalRepository(db)
	playlistRepo := repository.NewPlaylistRepository(db)

	// Initialize durable storage when configured; without it the image
	// migrator degrades to ephemeral URLs.
	var objectStorage storage.ObjectStorage
	if cfg.Storage.Configured() {
		objectStorage, err = storage.NewStorage(&storage.S3Config{
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
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		if err := objectStorage.EnsureBucket(context.Background()); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
	} else {
		appLogger.Warn("Object storage not configured, cover images will keep ephemeral URLs")
	}

	// Initialize generation backends
	textGenerator := llm.NewGenerator(
		llm.NewClient(&llm.ClientConfig{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Temperature: cfg.LLM.Temperature,
		}),
		cfg.LLM.PreferredModel,
		cfg.LLM.BaselineModels,
	)

	ttsClient := tts.NewClient(&tts.ClientConfig{
		APIKey:       cfg.TTS.APIKey,
		BaseURL:      cfg.TTS.BaseURL,
		DefaultVoice: cfg.TTS.DefaultVoice,
	})

	imageService := imagegen.NewService(
		imagegen.NewClient(&imagegen.ClientConfig{
			APIKey:  cfg.Image.APIKey,
			BaseURL: cfg.Image.BaseURL,
			Model:   cfg.Image.Model,
		}),
		imagegen.NewMigrator(objectStorage),
	)

	// Initialize pipeline and batch orchestration
	imageTemplate := cfg.Image.PromptTemplate
	if imageTemplate == "" {
		imageTemplate = prompts.ImageGenerationTemplate
	}

	fieldTemplates := make(map[service.Field]string, len(cfg.Generation.FieldTemplates))
	for name, tpl := range cfg.Generation.FieldTemplates {
		fieldTemplates[service.Field(name)] = tpl
	}

	pipeline := service.NewPipeline(
		textGenerator,
		ttsClient,
		imageService,
		devotionalRepo,
		service.NewReconciler(playlistRepo),
		&service.PipelineConfig{
			FieldTemplates:       fieldTemplates,
			ImageTemplate:        imageTemplate,
			MinImagePromptLength: cfg.Image.MinPromptLength,
			DefaultVoice:         cfg.TTS.DefaultVoice,
			MainTextMaxTokens:    cfg.LLM.MainTextMaxTokens,
			FieldMaxTokens:       cfg.LLM.FieldMaxTokens,
		},
	)

	orchestrator := service.NewOrchestrator(pipeline, &service.OrchestratorConfig{
		MaxBatchSize:      cfg.Generation.MaxBatchSize,
		ItemDelay:         cfg.Generation.ItemDelay,
		PausePollInterval: cfg.Generation.PausePollInterval,
	})
	registry := service.NewBatchRegistry()

	// Setup router
	router := api.SetupRouter(pipeline, orchestrator, registry, appLogger, cfg.Server)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
