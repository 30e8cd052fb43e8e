// Package ocr wraps a pluggable text recognition engine and shields the
// extraction pipeline from its transient failure modes.
//
// The default engine is Tesseract via gosseract. Recognizers return the
// raw text of the page together with per-line and per-word confidence
// scores on a 0-100 scale, and accept a list of language profiles (ISO
// 639-2 codes such as "eng" and "hin") so bilingual receipts recognize
// both scripts in one pass.
package ocr

import (
	"context"

	"github.com/anubhavg-in/receipt-extraction-service/internal/domain"
)

// Recognizer converts an image into text plus confidence scores.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, languages []string) (*domain.RecognitionResult, error)
}
