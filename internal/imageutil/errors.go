package imageutil

import "errors"

// Validation errors. All three are fatal to the extraction pipeline and
// are never retried.
var (
	// ErrInvalidFormat is returned when the buffer is not one of the
	// supported image formats (JPEG, PNG, WEBP).
	ErrInvalidFormat = errors.New("unsupported image format")

	// ErrTooLarge is returned when the buffer exceeds the configured
	// size ceiling.
	ErrTooLarge = errors.New("image exceeds maximum allowed size")

	// ErrCorrupted is returned when the image cannot be decoded or
	// reports zero dimensions.
	ErrCorrupted = errors.New("image is corrupted or unreadable")
)
