package imageutil

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// RotateUpright reads the embedded EXIF orientation and returns the buffer
// rotated so that the image displays upright. Rotation never fails the
// pipeline: on any internal error, or when no rotation is needed, the
// input buffer is returned unchanged.
func RotateUpright(buf []byte) []byte {
	x, err := exif.Decode(bytes.NewReader(buf))
	if err != nil {
		return buf
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return buf
	}
	orientation, err := tag.Int(0)
	if err != nil || orientation <= 1 || orientation > 8 {
		return buf
	}

	img, err := imaging.Decode(bytes.NewReader(buf))
	if err != nil {
		return buf
	}

	switch orientation {
	case 2:
		img = imaging.FlipH(img)
	case 3:
		img = imaging.Rotate180(img)
	case 4:
		img = imaging.FlipV(img)
	case 5:
		img = imaging.Transpose(img)
	case 6:
		img = imaging.Rotate270(img)
	case 7:
		img = imaging.Transverse(img)
	case 8:
		img = imaging.Rotate90(img)
	}

	out, err := encodeJPEG(img, 95)
	if err != nil {
		return buf
	}
	return out
}

// StripMetadata removes all embedded metadata (EXIF, GPS, maker notes) by
// decoding and re-encoding the pixel data. Callers rotate upright first so
// orientation survives as pixels rather than as a tag. On error the input
// is returned unchanged; stripping is a best-effort privacy step, not a
// gate.
func StripMetadata(buf []byte) []byte {
	img, format, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return buf
	}

	var out []byte
	switch format {
	case "png":
		out, err = encodePNG(img)
	default:
		// JPEG in, JPEG out; WEBP has no encoder so it becomes JPEG.
		out, err = encodeJPEG(img, 95)
	}
	if err != nil {
		return buf
	}
	return out
}

// EnhanceForRecognition produces the OCR-optimized derivative: grayscale,
// upscaled when short, sharpened and contrast-normalized. This variant, not
// the original, is what feeds the recognition engine.
func EnhanceForRecognition(buf []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("decode for enhancement: %w", err)
	}

	gray := imaging.Grayscale(img)

	// Tesseract struggles below ~300dpi equivalents; upscale short scans.
	if gray.Bounds().Dy() < 800 {
		gray = imaging.Resize(gray, 0, 1200, imaging.Lanczos)
	}

	gray = imaging.Sharpen(gray, 1.0)
	gray = imaging.AdjustContrast(gray, 20)

	out, err := encodePNG(gray)
	if err != nil {
		return nil, fmt.Errorf("encode enhanced image: %w", err)
	}
	return out, nil
}

// Dimensions reports the pixel dimensions of an encoded image, or zeros
// when the buffer cannot be probed.
func Dimensions(buf []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var b bytes.Buffer
	if err := imaging.Encode(&b, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var b bytes.Buffer
	if err := imaging.Encode(&b, img, imaging.PNG); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
