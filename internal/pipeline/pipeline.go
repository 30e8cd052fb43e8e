// Package pipeline sequences the image-to-structured-receipt extraction:
// validate, normalize, store, recognize with retry, parse, classify,
// extract metadata, total. One Run per uploaded receipt; runs share no
// mutable state.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/anubhavg-in/receipt-extraction-service/internal/classifier"
	"github.com/anubhavg-in/receipt-extraction-service/internal/domain"
	"github.com/anubhavg-in/receipt-extraction-service/internal/imageutil"
	"github.com/anubhavg-in/receipt-extraction-service/internal/ocr"
	"github.com/anubhavg-in/receipt-extraction-service/internal/parser"
	"github.com/anubhavg-in/receipt-extraction-service/internal/storage"
)

// Options tune one pipeline run. Zero values fall back to defaults.
type Options struct {
	Languages     []string
	MaxImageBytes int64
	Thumbnail     *imageutil.ThumbnailConfig
}

// Coordinator wires the extraction stages together. Construct once and
// share across runs; all fields are read-only after construction.
type Coordinator struct {
	store      storage.ObjectStorage
	recognizer ocr.Recognizer
	classifier *classifier.Classifier
	logger     zerolog.Logger
}

// NewCoordinator builds a pipeline coordinator. The recognizer is expected
// to carry its own retry policy (see ocr.RetryingRecognizer).
func NewCoordinator(store storage.ObjectStorage, recognizer ocr.Recognizer, cls *classifier.Classifier, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:      store,
		recognizer: recognizer,
		classifier: cls,
		logger:     logger,
	}
}

// Run executes the full extraction for one uploaded image buffer.
//
// Validation errors and recognition exhaustion are fatal and returned
// typed; rotation, metadata stripping, thumbnailing and store/metadata
// extraction degrade silently to best-effort output. The returned result
// is constructed once and never mutated afterwards.
func (c *Coordinator) Run(ctx context.Context, receiptID string, buf []byte, opts Options) (*domain.ReceiptExtractionResult, error) {
	meta, err := imageutil.Validate(buf, opts.MaxImageBytes)
	if err != nil {
		return nil, fmt.Errorf("validate image: %w", err)
	}
	c.logger.Debug().
		Str("receipt_id", receiptID).
		Str("format", meta.Format).
		Int("width", meta.Width).
		Int("height", meta.Height).
		Msg("image validated")

	// Normalize: rotate upright, then strip privacy metadata. Both are
	// non-fatal; each falls back to its input on failure.
	upright := imageutil.RotateUpright(buf)
	stripped := imageutil.StripMetadata(upright)

	// Thumbnail and enhanced derivation are independent of each other.
	var (
		wg         sync.WaitGroup
		thumb      []byte
		thumbErr   error
		enhanced   []byte
		enhanceErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		thumb, thumbErr = imageutil.Thumbnail(stripped, opts.Thumbnail)
	}()
	go func() {
		defer wg.Done()
		enhanced, enhanceErr = imageutil.EnhanceForRecognition(stripped)
	}()
	wg.Wait()

	if enhanceErr != nil {
		// Recognition quality suffers without enhancement but the raw
		// buffer still recognizes; degrade rather than fail.
		c.logger.Warn().Err(enhanceErr).Str("receipt_id", receiptID).Msg("enhancement failed, using stripped original")
		enhanced = stripped
	}

	originalType := "image/jpeg"
	if meta.Format == "png" {
		originalType = "image/png"
	}
	assets := c.storeDerivatives(ctx, receiptID, stripped, originalType, thumb, thumbErr, enhanced)

	recognition, err := c.recognizer.Recognize(ctx, enhanced, opts.Languages)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	items := c.classifier.Classify(parser.ParseItems(recognition.Text))

	var total float64
	for _, item := range items {
		total += item.TotalPrice
	}

	result := &domain.ReceiptExtractionResult{
		Text:            recognition.Text,
		Confidence:      recognition.Confidence,
		Items:           items,
		Store:           parser.ExtractStoreInfo(recognition.Text),
		Metadata:        parser.ExtractMetadata(recognition.Text),
		CalculatedTotal: total,
		Assets:          assets,
	}

	c.logger.Info().
		Str("receipt_id", receiptID).
		Int("items", len(result.Items)).
		Float64("calculated_total", result.CalculatedTotal).
		Float64("confidence", result.Confidence).
		Msg("extraction completed")

	return result, nil
}

// RunFromEnhanced re-runs recognition and everything downstream of it on
// an already-stored enhanced derivative, skipping validation, normalization
// and storage. Used when recognition is invoked on a previously uploaded
// receipt rather than inline at upload time.
func (c *Coordinator) RunFromEnhanced(ctx context.Context, receiptID string, enhanced []byte, languages []string) (*domain.ReceiptExtractionResult, error) {
	recognition, err := c.recognizer.Recognize(ctx, enhanced, languages)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	items := c.classifier.Classify(parser.ParseItems(recognition.Text))

	var total float64
	for _, item := range items {
		total += item.TotalPrice
	}

	return &domain.ReceiptExtractionResult{
		Text:            recognition.Text,
		Confidence:      recognition.Confidence,
		Items:           items,
		Store:           parser.ExtractStoreInfo(recognition.Text),
		Metadata:        parser.ExtractMetadata(recognition.Text),
		CalculatedTotal: total,
	}, nil
}

// storeDerivatives uploads each derivative under a deterministic key.
// Upload failures are non-fatal: the extraction result is still usable
// without archived derivatives.
func (c *Coordinator) storeDerivatives(ctx context.Context, receiptID string, original []byte, originalType string, thumb []byte, thumbErr error, enhanced []byte) []domain.StoredAsset {
	derivatives := []domain.ImageDerivative{
		{Role: domain.RoleOriginal, Bytes: original, ContentType: originalType},
		{Role: domain.RoleEnhanced, Bytes: enhanced, ContentType: "image/png"},
	}
	if thumbErr != nil {
		c.logger.Warn().Err(thumbErr).Str("receipt_id", receiptID).Msg("thumbnail generation failed")
	} else {
		derivatives = append(derivatives, domain.ImageDerivative{Role: domain.RoleThumbnail, Bytes: thumb, ContentType: "image/jpeg"})
	}

	assets := make([]domain.StoredAsset, 0, len(derivatives))
	for _, d := range derivatives {
		d.Width, d.Height = imageutil.Dimensions(d.Bytes)
		key := storage.DerivativeKey(receiptID, d.Role)
		asset, err := c.store.Put(ctx, key, d.Bytes, d.ContentType)
		if err != nil {
			c.logger.Warn().Err(err).Str("receipt_id", receiptID).Str("key", key).Msg("derivative upload failed")
			continue
		}
		asset.Role = d.Role
		c.logger.Debug().
			Str("receipt_id", receiptID).
			Str("key", key).
			Int("width", d.Width).
			Int("height", d.Height).
			Msg("derivative stored")
		assets = append(assets, asset)
	}
	return assets
}
