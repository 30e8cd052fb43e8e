package domain

import (
	"time"
)

// ReceiptStatus tracks the lifecycle of a receipt row owned by the service.
type ReceiptStatus string

const (
	StatusProcessing ReceiptStatus = "processing"
	StatusCompleted  ReceiptStatus = "completed"
	StatusFailed     ReceiptStatus = "failed"
)

// DerivativeRole identifies which processed copy of the upload an image is.
type DerivativeRole string

const (
	RoleOriginal  DerivativeRole = "original"
	RoleThumbnail DerivativeRole = "thumbnail"
	RoleEnhanced  DerivativeRole = "enhanced"
)

// ImageDerivative is one processed copy of an uploaded receipt image on
// its way to object storage. Derivatives are immutable once handed over.
type ImageDerivative struct {
	Role        DerivativeRole
	Bytes       []byte
	ContentType string
	Width       int
	Height      int
}

// StoredAsset locates a derivative after upload to object storage.
type StoredAsset struct {
	Role      DerivativeRole `json:"role"`
	Key       string         `json:"key"`
	URL       string         `json:"url"`
	SizeBytes int64          `json:"size_bytes"`
}

// BoundingBox is the pixel rectangle a recognized span occupies.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RecognizedSpan is a single line or word returned by the recognition engine.
type RecognizedSpan struct {
	Text        string      `json:"text"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

// RecognitionResult is the raw output of one successful recognition attempt.
// Confidence values are on a 0-100 scale.
type RecognitionResult struct {
	Text       string           `json:"text"`
	Confidence float64          `json:"confidence"`
	Lines      []RecognizedSpan `json:"lines,omitempty"`
	Words      []RecognizedSpan `json:"words,omitempty"`
}

// ParsedItem is one purchase line recovered from the recognized text.
// TotalPrice is the literal total printed on the receipt when the matching
// grammar captured one, otherwise quantity * unit price.
type ParsedItem struct {
	Name          string  `json:"name"`
	NameLocalized string  `json:"name_localized,omitempty"`
	Quantity      float64 `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	TotalPrice    float64 `json:"total_price"`
}

// CategorizedItem is a parsed item with its suggested spending category.
// CategoryConfidence is a normalized score in [0,1], not a probability.
type CategorizedItem struct {
	ParsedItem
	Category           string  `json:"category"`
	CategoryConfidence float64 `json:"category_confidence"`
}

// StoreInfo holds best-effort merchant identity fields. All fields are
// optional; an empty StoreInfo is a valid outcome, not an error.
type StoreInfo struct {
	Name          string `json:"name,omitempty"`
	NameLocalized string `json:"name_localized,omitempty"`
	Address       string `json:"address,omitempty"`
}

// ReceiptMetadata holds best-effort purchase metadata.
type ReceiptMetadata struct {
	ReceiptNumber    string     `json:"receipt_number,omitempty"`
	PurchaseDateTime *time.Time `json:"purchase_datetime,omitempty"`
}

// ReceiptExtractionResult is the pipeline's sole output. It is constructed
// once per run and never mutated afterwards.
type ReceiptExtractionResult struct {
	Text            string            `json:"text"`
	Confidence      float64           `json:"confidence"`
	Items           []CategorizedItem `json:"items"`
	Store           StoreInfo         `json:"store"`
	Metadata        ReceiptMetadata   `json:"metadata"`
	CalculatedTotal float64           `json:"calculated_total"`
	Assets          []StoredAsset     `json:"assets,omitempty"`
}

// Receipt is the persisted record the service keeps per upload. The
// extraction core never touches it; the service layer owns its lifecycle.
type Receipt struct {
	ID          string                   `json:"id"`
	Status      ReceiptStatus            `json:"status"`
	FailureKind string                   `json:"failure_kind,omitempty"`
	Extraction  *ReceiptExtractionResult `json:"extraction,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}
