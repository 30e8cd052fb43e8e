package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/anubhavg-in/receipt-extraction-service/internal/classifier"
	"github.com/anubhavg-in/receipt-extraction-service/internal/config"
	"github.com/anubhavg-in/receipt-extraction-service/internal/database"
	"github.com/anubhavg-in/receipt-extraction-service/internal/handler"
	"github.com/anubhavg-in/receipt-extraction-service/internal/imageutil"
	"github.com/anubhavg-in/receipt-extraction-service/internal/logger"
	"github.com/anubhavg-in/receipt-extraction-service/internal/ocr"
	"github.com/anubhavg-in/receipt-extraction-service/internal/pipeline"
	"github.com/anubhavg-in/receipt-extraction-service/internal/repository"
	"github.com/anubhavg-in/receipt-extraction-service/internal/server"
	"github.com/anubhavg-in/receipt-extraction-service/internal/service"
	"github.com/anubhavg-in/receipt-extraction-service/internal/storage"
)

// @title Receipt Extraction Service API
// @version 1.0
// @description Turns photographed purchase receipts into structured,
// @description categorized line items.
// @BasePath /
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	store, err := storage.NewS3Storage(&storage.Config{
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		AccessKeySecret: cfg.S3AccessKeySecret,
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	db, err := database.NewPostgresDB(context.Background(), cfg.PostgresURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	recognizer := ocr.NewRetryingRecognizer(
		ocr.NewTesseractRecognizer(),
		cfg.MaxRetries,
		cfg.RetryBaseDelay,
		logger.WithComponent("ocr"),
	)

	coordinator := pipeline.NewCoordinator(
		store,
		recognizer,
		classifier.New(classifier.DefaultConfig()),
		logger.WithComponent("pipeline"),
	)

	receiptService := service.NewReceiptService(
		repository.NewPostgresReceiptRepository(db.Pool()),
		coordinator,
		store,
		service.Options{
			Languages:     cfg.OCRLanguages,
			MaxImageBytes: cfg.MaxImageBytes,
			Thumbnail: &imageutil.ThumbnailConfig{
				MaxWidth:  cfg.ThumbnailMaxWidth,
				MaxHeight: cfg.ThumbnailMaxHeight,
				Quality:   cfg.ThumbnailQuality,
			},
			FetchTimeout: cfg.FetchTimeout,
		},
		cfg.MaxWorkers,
		logger.WithComponent("service"),
	)

	appServer := server.NewServer(cfg, handler.NewReceiptHandler(receiptService))

	if err := appServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
