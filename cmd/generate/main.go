package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

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
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "selah-generate",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	requestsFile := flag.String("file", "", "Path to a JSON file with the batch requests")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *requestsFile == "" {
		appLogger.Fatal("Missing required -file flag")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	requests, err := loadRequests(*requestsFile)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load batch requests")
	}

	appLogger.WithFields(logger.Fields{
		"file":  *requestsFile,
		"items": len(requests),
	}).Info("Starting batch generation")

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	devotionalRepo := repository.NewDevotionalRepository(db)
	playlistRepo := repository.NewPlaylistRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Durable storage is optional; without it cover images keep their
	// ephemeral URLs.
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
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
	}

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

	job, err := orchestrator.NewJob(requests)
	if err != nil {
		appLogger.WithError(err).Fatal("Rejected batch submission")
	}

	// Handle graceful shutdown. A signal cancels the job between items;
	// the in-flight item is allowed to finish.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, cancelling batch...")
		job.Cancel()
		cancel()
	}()

	orchestrator.Run(ctx, job)

	progress := job.Progress()
	succeeded := 0
	for _, item := range progress.Items {
		if item.Status == service.StatusSuccess {
			succeeded++
		}
	}
	appLogger.WithFields(logger.Fields{
		"state":     string(progress.State),
		"total":     progress.Total,
		"attempted": progress.Completed,
		"succeeded": succeeded,
	}).Info("Batch finished")
}

func loadRequests(path string) ([]service.GenerationRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var requests []service.GenerationRequest
	if err := json.Unmarshal(data, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}
