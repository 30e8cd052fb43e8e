package ocr

import (
	"errors"
	"fmt"
)

var (
	// ErrRecognitionFailed is returned by the retry orchestrator after
	// every attempt has been exhausted. It wraps the last engine error.
	ErrRecognitionFailed = errors.New("text recognition failed after retries")

	// ErrEngineUnavailable marks transient engine conditions (warm-up,
	// resource exhaustion) as opposed to permanent configuration errors.
	ErrEngineUnavailable = errors.New("recognition engine unavailable")
)

// RecognitionError wraps engine errors with the operation that failed.
type RecognitionError struct {
	Op  string
	Err error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("ocr: %s: %v", e.Op, e.Err)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}
