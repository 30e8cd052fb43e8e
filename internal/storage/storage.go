// Package storage persists image derivatives in S3-compatible object
// storage and hands back retrievable locators.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anubhavg-in/receipt-extraction-service/internal/domain"
)

// ObjectStorage is the boundary the pipeline depends on: put, get and
// presign. Implementations must be safe for concurrent use.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (domain.StoredAsset, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Presign(key string, ttl time.Duration) (string, error)
}

// extensions maps derivative roles to the container each role is encoded
// in after normalization.
var extensions = map[domain.DerivativeRole]string{
	domain.RoleOriginal:  "jpg",
	domain.RoleThumbnail: "jpg",
	domain.RoleEnhanced:  "png",
}

// DerivativeKey builds the deterministic, collision-resistant object key
// for one derivative of a receipt. Keys group all derivatives of an upload
// under a single UUID prefix.
func DerivativeKey(receiptID string, role domain.DerivativeRole) string {
	ext := extensions[role]
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("receipts/%s/%s.%s", receiptID, role, ext)
}

// NewReceiptID mints the identifier that scopes a receipt's derivatives.
func NewReceiptID() string {
	return uuid.NewString()
}
