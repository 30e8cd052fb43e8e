package imageutil

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// ThumbnailConfig holds configuration for thumbnail generation.
type ThumbnailConfig struct {
	MaxWidth  int // Maximum width in pixels (default 320)
	MaxHeight int // Maximum height in pixels (default 320)
	Quality   int // JPEG quality 1-100 (default 80)
}

// DefaultThumbnailConfig returns the default thumbnail configuration.
func DefaultThumbnailConfig() *ThumbnailConfig {
	return &ThumbnailConfig{
		MaxWidth:  320,
		MaxHeight: 320,
		Quality:   80,
	}
}

// Thumbnail downscales an image to fit within the configured bounds while
// maintaining aspect ratio. Images already within bounds are returned
// unchanged; thumbnails never upscale.
func Thumbnail(imageData []byte, config *ThumbnailConfig) ([]byte, error) {
	if config == nil {
		config = DefaultThumbnailConfig()
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= config.MaxWidth && height <= config.MaxHeight {
		return imageData, nil
	}

	// Scale by whichever axis overflows the most.
	scaleW := float64(config.MaxWidth) / float64(width)
	scaleH := float64(config.MaxHeight) / float64(height)
	scale := scaleW
	if scaleH < scaleW {
		scale = scaleH
	}

	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))

	// High-quality resampling; CatmullRom is close to Lanczos.
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: config.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}
