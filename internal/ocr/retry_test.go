package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/anubhavg-in/receipt-extraction-service/internal/domain"
)

// flakyRecognizer fails a fixed number of times before succeeding.
type flakyRecognizer struct {
	failures int
	calls    int
	result   *domain.RecognitionResult
}

func (f *flakyRecognizer) Recognize(_ context.Context, _ []byte, _ []string) (*domain.RecognitionResult, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, &RecognitionError{Op: "extract_text", Err: ErrEngineUnavailable}
	}
	return f.result, nil
}

func TestRetryReturnsFirstSuccess(t *testing.T) {
	want := &domain.RecognitionResult{Text: "hello", Confidence: 91}

	tests := []struct {
		name      string
		failures  int
		wantCalls int
	}{
		{"immediate success", 0, 1},
		{"one transient failure", 1, 2},
		{"succeeds on final attempt", 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &flakyRecognizer{failures: tt.failures, result: want}
			r := NewRetryingRecognizer(engine, 3, 0, zerolog.Nop())

			got, err := r.Recognize(context.Background(), []byte("img"), []string{"eng"})
			if err != nil {
				t.Fatalf("Recognize() error = %v", err)
			}
			if got.Text != want.Text {
				t.Errorf("text = %q, want %q", got.Text, want.Text)
			}
			if engine.calls != tt.wantCalls {
				t.Errorf("engine invoked %d times, want %d", engine.calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryExhaustionRaisesRecognitionFailed(t *testing.T) {
	engine := &flakyRecognizer{failures: 100}
	r := NewRetryingRecognizer(engine, 3, 0, zerolog.Nop())

	_, err := r.Recognize(context.Background(), []byte("img"), []string{"eng"})
	if !errors.Is(err, ErrRecognitionFailed) {
		t.Fatalf("Recognize() error = %v, want ErrRecognitionFailed", err)
	}
	if engine.calls != 3 {
		t.Errorf("engine invoked %d times, want exactly 3", engine.calls)
	}
}

func TestRetryDefaultsApplyOnNonPositiveValues(t *testing.T) {
	engine := &flakyRecognizer{failures: 100}
	r := NewRetryingRecognizer(engine, 0, 0, zerolog.Nop())

	_, err := r.Recognize(context.Background(), []byte("img"), nil)
	if !errors.Is(err, ErrRecognitionFailed) {
		t.Fatalf("Recognize() error = %v, want ErrRecognitionFailed", err)
	}
	if engine.calls != DefaultMaxAttempts {
		t.Errorf("engine invoked %d times, want default %d", engine.calls, DefaultMaxAttempts)
	}
}

func TestRetryStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := &flakyRecognizer{failures: 100}
	r := NewRetryingRecognizer(engine, 3, DefaultBaseDelay, zerolog.Nop())

	_, err := r.Recognize(ctx, []byte("img"), nil)
	if !errors.Is(err, ErrRecognitionFailed) {
		t.Fatalf("Recognize() error = %v, want ErrRecognitionFailed", err)
	}
	// The in-flight attempt runs to completion; only the backoff wait is
	// interruptible.
	if engine.calls != 1 {
		t.Errorf("engine invoked %d times, want 1", engine.calls)
	}
}
