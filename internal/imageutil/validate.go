package imageutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// DefaultMaxImageBytes is the default size ceiling for uploaded images.
const DefaultMaxImageBytes = 10 * 1024 * 1024

// supportedTypes maps accepted MIME types to their canonical format name.
var supportedTypes = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Meta describes a validated image buffer.
type Meta struct {
	Format string
	MIME   string
	Width  int
	Height int
}

// Validate checks that the buffer holds a supported, well-formed image no
// larger than maxBytes. The size check runs first so oversized uploads are
// rejected without decoding. The declared content type is a hint only; the
// actual bytes decide the format.
func Validate(buf []byte, maxBytes int64) (*Meta, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	if int64(len(buf)) > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, len(buf), maxBytes)
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrCorrupted)
	}

	mtype := mimetype.Detect(buf)
	format, ok := supportedTypes[mtype.String()]
	if !ok {
		return nil, fmt.Errorf("%w: detected %s", ErrInvalidFormat, mtype.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: zero dimensions", ErrCorrupted)
	}

	return &Meta{
		Format: format,
		MIME:   mtype.String(),
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}
