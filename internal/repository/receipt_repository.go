package repository

import (
	"context"
	"errors"

	"github.com/anubhavg-in/receipt-extraction-service/internal/domain"
)

// ErrNotFound is returned when no receipt exists for the given ID.
var ErrNotFound = errors.New("receipt not found")

// ReceiptRepository persists receipt rows and their extraction results.
// The extraction core never calls this; the service layer owns it.
type ReceiptRepository interface {
	// CreateReceipt inserts a new row in processing state.
	CreateReceipt(ctx context.Context, receipt *domain.Receipt) error

	// CompleteReceipt stores the extraction result and marks the row
	// completed.
	CompleteReceipt(ctx context.Context, id string, result *domain.ReceiptExtractionResult) error

	// FailReceipt marks the row failed with the error kind exposed to
	// the user-facing status field.
	FailReceipt(ctx context.Context, id string, failureKind string) error

	// GetReceiptByID fetches one row with its extraction result.
	GetReceiptByID(ctx context.Context, id string) (*domain.Receipt, error)
}
