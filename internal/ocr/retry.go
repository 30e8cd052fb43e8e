package ocr

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/anubhavg-in/receipt-extraction-service/internal/domain"
)

const (
	// DefaultMaxAttempts bounds how many times the engine is invoked
	// before recognition is declared failed.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is multiplied by the attempt number for the
	// linear backoff between attempts.
	DefaultBaseDelay = time.Second
)

// RetryingRecognizer drives an underlying Recognizer with bounded,
// sequential retries and linear backoff. Each attempt observes the prior
// attempt's failure before backing off; attempts never overlap.
type RetryingRecognizer struct {
	engine      Recognizer
	maxAttempts int
	baseDelay   time.Duration
	logger      zerolog.Logger
}

// NewRetryingRecognizer wraps an engine with retry semantics. An attempt
// count below one and a negative delay fall back to the defaults; a zero
// delay disables the backoff waits.
func NewRetryingRecognizer(engine Recognizer, maxAttempts int, baseDelay time.Duration, logger zerolog.Logger) *RetryingRecognizer {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay < 0 {
		baseDelay = DefaultBaseDelay
	}
	return &RetryingRecognizer{
		engine:      engine,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      logger,
	}
}

// Recognize returns the first successful result. On failure it waits
// baseDelay * attemptNumber and retries; after the final attempt the last
// error is surfaced wrapped in ErrRecognitionFailed. The context gates the
// inter-attempt waits only; an attempt in flight runs to completion.
func (r *RetryingRecognizer) Recognize(ctx context.Context, image []byte, languages []string) (*domain.RecognitionResult, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		result, err := r.engine.Recognize(ctx, image, languages)
		if err == nil {
			return result, nil
		}
		lastErr = err

		r.logger.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", r.maxAttempts).
			Msg("recognition attempt failed")

		if attempt == r.maxAttempts {
			break
		}

		select {
		case <-time.After(r.baseDelay * time.Duration(attempt)):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrRecognitionFailed, ctx.Err())
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrRecognitionFailed, lastErr)
}
