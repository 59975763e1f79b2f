// Package encode turns composited frames into compressed images for
// streaming and snapshots.
package encode

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/HugoSmits86/nativewebp"
)

// Format names an output encoding.
type Format string

const (
	JPEG Format = "jpeg"
	WebP Format = "webp"
)

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == WebP {
		return "image/webp"
	}
	return "image/jpeg"
}

// Encoder writes frames in one format.
type Encoder struct {
	Format  Format
	Quality int // JPEG quality 1-100, ignored for WebP (always lossless)
}

// Encode writes img to w.
func (e Encoder) Encode(w io.Writer, img image.Image) error {
	switch e.Format {
	case JPEG, "":
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: e.Quality}); err != nil {
			return fmt.Errorf("encode: jpeg: %w", err)
		}
	case WebP:
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("encode: webp: %w", err)
		}
	default:
		return fmt.Errorf("encode: unknown format %q", e.Format)
	}
	return nil
}

// Bytes encodes img into a new buffer.
func (e Encoder) Bytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
