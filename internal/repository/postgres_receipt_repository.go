package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anubhavg-in/receipt-extraction-service/internal/domain"
)

// PostgresReceiptRepository implements ReceiptRepository using pgx.
// Extraction results are stored as a JSONB document alongside the row's
// status columns.
type PostgresReceiptRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresReceiptRepository creates a new PostgreSQL-backed repository.
func NewPostgresReceiptRepository(pool *pgxpool.Pool) *PostgresReceiptRepository {
	return &PostgresReceiptRepository{pool: pool}
}

// CreateReceipt inserts a new receipt row in processing state.
func (r *PostgresReceiptRepository) CreateReceipt(ctx context.Context, receipt *domain.Receipt) error {
	query := `
		INSERT INTO receipts (id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $3)`

	now := time.Now()
	receipt.CreatedAt = now
	receipt.UpdatedAt = now

	if _, err := r.pool.Exec(ctx, query, receipt.ID, receipt.Status, now); err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}
	return nil
}

// CompleteReceipt stores the extraction result and marks the row completed.
func (r *PostgresReceiptRepository) CompleteReceipt(ctx context.Context, id string, result *domain.ReceiptExtractionResult) error {
	extraction, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal extraction result: %w", err)
	}

	query := `
		UPDATE receipts
		SET status = $2, extraction = $3, failure_kind = NULL, updated_at = $4
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, domain.StatusCompleted, extraction, time.Now())
	if err != nil {
		return fmt.Errorf("failed to complete receipt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FailReceipt marks the row failed and records the error kind.
func (r *PostgresReceiptRepository) FailReceipt(ctx context.Context, id string, failureKind string) error {
	query := `
		UPDATE receipts
		SET status = $2, failure_kind = $3, updated_at = $4
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, domain.StatusFailed, failureKind, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark receipt failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetReceiptByID fetches one receipt row with its extraction result.
func (r *PostgresReceiptRepository) GetReceiptByID(ctx context.Context, id string) (*domain.Receipt, error) {
	query := `
		SELECT id, status, COALESCE(failure_kind, ''), extraction, created_at, updated_at
		FROM receipts
		WHERE id = $1`

	var (
		receipt    domain.Receipt
		extraction []byte
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&receipt.ID,
		&receipt.Status,
		&receipt.FailureKind,
		&extraction,
		&receipt.CreatedAt,
		&receipt.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch receipt: %w", err)
	}

	if len(extraction) > 0 {
		var result domain.ReceiptExtractionResult
		if err := json.Unmarshal(extraction, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal extraction result: %w", err)
		}
		receipt.Extraction = &result
	}

	return &receipt, nil
}
