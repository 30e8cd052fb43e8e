package model

import (
	"time"

	"github.com/anubhavg-in/receipt-extraction-service/internal/domain"
)

// ErrorDetail provides field-level context for an error response.
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ScanAcceptedResponse acknowledges a scheduled extraction.
type ScanAcceptedResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ReceiptResponse is the API representation of a receipt row.
type ReceiptResponse struct {
	ID          string                          `json:"id"`
	Status      string                          `json:"status"`
	FailureKind string                          `json:"failure_kind,omitempty"`
	Extraction  *domain.ReceiptExtractionResult `json:"extraction,omitempty"`
	CreatedAt   time.Time                       `json:"created_at"`
	UpdatedAt   time.Time                       `json:"updated_at"`
}

// PresignedURLResponse carries a time-limited image URL.
type PresignedURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in_seconds"`
}

// FromDomain maps a domain receipt onto the API representation.
func (r *ReceiptResponse) FromDomain(receipt *domain.Receipt) {
	r.ID = receipt.ID
	r.Status = string(receipt.Status)
	r.FailureKind = receipt.FailureKind
	r.Extraction = receipt.Extraction
	r.CreatedAt = receipt.CreatedAt
	r.UpdatedAt = receipt.UpdatedAt
}
