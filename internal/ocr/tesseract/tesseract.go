// Package tesseract implements ocr.Engine with the gosseract client.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/gonkalabs/gonka-redact-go/internal/ocr"
	"github.com/gonkalabs/gonka-redact-go/internal/redact"
)

// Engine recognizes text lines with Tesseract.
type Engine struct {
	opts          ocr.Options
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract-backed engine.
func New(opts ocr.Options) *Engine {
	return &Engine{opts: opts, clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize runs line-level recognition on a preprocessed copy of img. Each
// client is used for one image only, so Recognize is safe for concurrent use.
func (e *Engine) Recognize(ctx context.Context, img image.Image) ([]redact.Line, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, e.opts.Preprocess.Apply(img)); err != nil {
		return nil, fmt.Errorf("tesseract: encode: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("tesseract: set image: %w", err)
	}
	if len(e.opts.Languages) > 0 {
		if err := c.SetLanguage(e.opts.Languages...); err != nil {
			return nil, fmt.Errorf("tesseract: set languages: %w", err)
		}
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("tesseract: recognize: %w", err)
	}
	return toLines(boxes), nil
}

// toLines drops empty boxes and scales confidence to [0,1].
func toLines(boxes []gosseract.BoundingBox) []redact.Line {
	lines := make([]redact.Line, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimRight(b.Word, "\r\n ")
		if text == "" || b.Box.Empty() {
			continue
		}
		lines = append(lines, redact.Line{
			Text:       text,
			Quad:       ocr.BoxToQuad(b.Box),
			Confidence: b.Confidence / 100.0,
		})
	}
	return lines
}
