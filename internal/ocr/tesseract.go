package ocr

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/anubhavg-in/receipt-extraction-service/internal/domain"
)

// TesseractRecognizer runs local Tesseract OCR through gosseract. A fresh
// client is created per call; gosseract clients are not safe for
// concurrent reuse and per-receipt pipelines own their buffers exclusively.
type TesseractRecognizer struct{}

// NewTesseractRecognizer creates the default local recognition engine.
func NewTesseractRecognizer() *TesseractRecognizer {
	return &TesseractRecognizer{}
}

// Recognize extracts text with per-line and per-word confidences. The
// overall confidence is the mean of word confidences, 0-100.
func (r *TesseractRecognizer) Recognize(_ context.Context, image []byte, languages []string) (*domain.RecognitionResult, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			return nil, &RecognitionError{Op: "set_language", Err: err}
		}
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return nil, &RecognitionError{Op: "set_page_seg_mode", Err: err}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, &RecognitionError{Op: "set_image", Err: err}
	}

	text, err := client.Text()
	if err != nil {
		return nil, &RecognitionError{Op: "extract_text", Err: err}
	}

	lines, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, &RecognitionError{Op: "extract_lines", Err: err}
	}
	words, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, &RecognitionError{Op: "extract_words", Err: err}
	}

	result := &domain.RecognitionResult{
		Text:  strings.TrimSpace(text),
		Lines: toSpans(lines),
		Words: toSpans(words),
	}

	var sum float64
	for _, w := range result.Words {
		sum += w.Confidence
	}
	if len(result.Words) > 0 {
		result.Confidence = sum / float64(len(result.Words))
	}

	return result, nil
}

func toSpans(boxes []gosseract.BoundingBox) []domain.RecognizedSpan {
	spans := make([]domain.RecognizedSpan, 0, len(boxes))
	for _, b := range boxes {
		spans = append(spans, domain.RecognizedSpan{
			Text:       strings.TrimSpace(b.Word),
			Confidence: b.Confidence,
			BoundingBox: domain.BoundingBox{
				X:      b.Box.Min.X,
				Y:      b.Box.Min.Y,
				Width:  b.Box.Dx(),
				Height: b.Box.Dy(),
			},
		})
	}
	return spans
}
