// Package ocr defines the OCR collaborator: something that turns a page image
// into text lines with bounding quads. Engines are small and transport
// agnostic so they can be backed by a native library or a remote service.
package ocr

import (
	"context"
	"image"

	"github.com/gonkalabs/gonka-redact-go/internal/redact"
)

// Engine recognizes text lines on a page image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) ([]redact.Line, error)
}

// Options configures an engine run.
type Options struct {
	// Languages are tesseract language codes (e.g. "eng", "msa").
	Languages []string
	// Preprocess is applied to the OCR copy of the image only.
	Preprocess Preprocess
}

// BoxToQuad converts an axis-aligned pixel rectangle into a line quad.
func BoxToQuad(r image.Rectangle) redact.Quad {
	return redact.Rect(float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y))
}
