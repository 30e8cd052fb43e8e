package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/anubhavg-in/receipt-extraction-service/internal/domain"
	"github.com/anubhavg-in/receipt-extraction-service/internal/imageutil"
	"github.com/anubhavg-in/receipt-extraction-service/internal/ocr"
	"github.com/anubhavg-in/receipt-extraction-service/internal/pipeline"
	"github.com/anubhavg-in/receipt-extraction-service/internal/repository"
	"github.com/anubhavg-in/receipt-extraction-service/internal/storage"
)

// ReceiptServiceError represents an error in the receipt service.
type ReceiptServiceError struct {
	Op  string
	Err error
}

func (e *ReceiptServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *ReceiptServiceError) Unwrap() error {
	return e.Err
}

// Options holds the per-run tunables the service passes to the pipeline.
type Options struct {
	Languages     []string
	MaxImageBytes int64
	Thumbnail     *imageutil.ThumbnailConfig
	FetchTimeout  time.Duration
}

// ReceiptService defines the receipt extraction business logic.
type ReceiptService interface {
	// ScanReceipt validates the upload, acknowledges immediately with a
	// processing receipt, and runs extraction in the background.
	ScanReceipt(ctx context.Context, imageData []byte, contentType string) (*domain.Receipt, error)

	// ReprocessReceipt re-runs recognition onward for a previously
	// uploaded receipt using its stored enhanced derivative.
	ReprocessReceipt(ctx context.Context, receiptID string) (*domain.Receipt, error)

	// GetReceiptByID fetches a receipt row with its extraction result.
	GetReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, error)

	// PresignImageURL returns a time-limited URL for the stored original.
	PresignImageURL(receiptID string, ttl time.Duration) (string, error)
}

// ReceiptServiceImpl implements ReceiptService with a bounded worker pool
// capping the number of concurrently active pipeline runs.
type ReceiptServiceImpl struct {
	repository  repository.ReceiptRepository
	coordinator *pipeline.Coordinator
	store       storage.ObjectStorage
	options     Options
	workerPool  chan struct{}
	logger      zerolog.Logger
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(repo repository.ReceiptRepository, coordinator *pipeline.Coordinator, store storage.ObjectStorage, options Options, maxWorkers int, logger zerolog.Logger) ReceiptService {
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	if options.FetchTimeout <= 0 {
		options.FetchTimeout = 30 * time.Second
	}
	return &ReceiptServiceImpl{
		repository:  repo,
		coordinator: coordinator,
		store:       store,
		options:     options,
		workerPool:  make(chan struct{}, maxWorkers),
		logger:      logger,
	}
}

// ScanReceipt validates the buffer up front so fatal validation errors are
// reported immediately, then schedules the pipeline off the request path.
// Once started, a run completes or fails; it is not interruptible.
func (s *ReceiptServiceImpl) ScanReceipt(ctx context.Context, imageData []byte, contentType string) (*domain.Receipt, error) {
	if _, err := imageutil.Validate(imageData, s.options.MaxImageBytes); err != nil {
		return nil, &ReceiptServiceError{Op: "validate_image", Err: err}
	}

	receipt := &domain.Receipt{
		ID:     storage.NewReceiptID(),
		Status: domain.StatusProcessing,
	}
	if err := s.repository.CreateReceipt(ctx, receipt); err != nil {
		return nil, &ReceiptServiceError{Op: "create_receipt", Err: err}
	}

	// Fire and forget: the caller gets an immediate acknowledgment while
	// recognition proceeds. The run owns its buffer exclusively.
	go s.runExtraction(receipt.ID, imageData)

	return receipt, nil
}

// runExtraction executes one pipeline run in the background, bounded by
// the worker pool, and records the terminal state on the receipt row.
func (s *ReceiptServiceImpl) runExtraction(receiptID string, imageData []byte) {
	s.workerPool <- struct{}{}
	defer func() { <-s.workerPool }()

	ctx := context.Background()

	result, err := s.coordinator.Run(ctx, receiptID, imageData, pipeline.Options{
		Languages:     s.options.Languages,
		MaxImageBytes: s.options.MaxImageBytes,
		Thumbnail:     s.options.Thumbnail,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("receipt_id", receiptID).Msg("extraction failed")
		if ferr := s.repository.FailReceipt(ctx, receiptID, FailureKind(err)); ferr != nil {
			s.logger.Error().Err(ferr).Str("receipt_id", receiptID).Msg("failed to mark receipt failed")
		}
		return
	}

	if err := s.repository.CompleteReceipt(ctx, receiptID, result); err != nil {
		s.logger.Error().Err(err).Str("receipt_id", receiptID).Msg("failed to persist extraction result")
	}
}

// ReprocessReceipt re-fetches the stored enhanced derivative and re-runs
// recognition onward in the background.
func (s *ReceiptServiceImpl) ReprocessReceipt(ctx context.Context, receiptID string) (*domain.Receipt, error) {
	receipt, err := s.repository.GetReceiptByID(ctx, receiptID)
	if err != nil {
		return nil, &ReceiptServiceError{Op: "get_receipt", Err: err}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.options.FetchTimeout)
	defer cancel()

	enhanced, err := s.store.Get(fetchCtx, storage.DerivativeKey(receiptID, domain.RoleEnhanced))
	if err != nil {
		return nil, &ReceiptServiceError{Op: "fetch_enhanced_image", Err: err}
	}

	go func() {
		s.workerPool <- struct{}{}
		defer func() { <-s.workerPool }()

		bgCtx := context.Background()
		result, err := s.coordinator.RunFromEnhanced(bgCtx, receiptID, enhanced, s.options.Languages)
		if err != nil {
			s.logger.Error().Err(err).Str("receipt_id", receiptID).Msg("reprocessing failed")
			if ferr := s.repository.FailReceipt(bgCtx, receiptID, FailureKind(err)); ferr != nil {
				s.logger.Error().Err(ferr).Str("receipt_id", receiptID).Msg("failed to mark receipt failed")
			}
			return
		}
		if err := s.repository.CompleteReceipt(bgCtx, receiptID, result); err != nil {
			s.logger.Error().Err(err).Str("receipt_id", receiptID).Msg("failed to persist extraction result")
		}
	}()

	receipt.Status = domain.StatusProcessing
	return receipt, nil
}

// GetReceiptByID retrieves a receipt by ID.
func (s *ReceiptServiceImpl) GetReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, error) {
	receipt, err := s.repository.GetReceiptByID(ctx, receiptID)
	if err != nil {
		return nil, &ReceiptServiceError{Op: "get_receipt", Err: err}
	}
	return receipt, nil
}

// PresignImageURL returns a time-limited URL for the stored original image.
func (s *ReceiptServiceImpl) PresignImageURL(receiptID string, ttl time.Duration) (string, error) {
	url, err := s.store.Presign(storage.DerivativeKey(receiptID, domain.RoleOriginal), ttl)
	if err != nil {
		return "", &ReceiptServiceError{Op: "presign_image_url", Err: err}
	}
	return url, nil
}

// FailureKind maps pipeline errors to the stable error kinds exposed on
// the receipt's user-facing status field.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, imageutil.ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, imageutil.ErrTooLarge):
		return "too_large"
	case errors.Is(err, imageutil.ErrCorrupted):
		return "corrupted"
	case errors.Is(err, ocr.ErrRecognitionFailed):
		return "recognition_failed"
	default:
		return "internal_error"
	}
}
