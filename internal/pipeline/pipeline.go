// Package pipeline runs one document through rasterization, OCR, detection,
// rendering and signing.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gonkalabs/gonka-redact-go/internal/attest"
	"github.com/gonkalabs/gonka-redact-go/internal/ocr"
	"github.com/gonkalabs/gonka-redact-go/internal/rasterize"
	"github.com/gonkalabs/gonka-redact-go/internal/redact"
	"github.com/gonkalabs/gonka-redact-go/internal/render"
)

// Processor holds the shared collaborators. It is safe for concurrent use.
type Processor struct {
	OCR    ocr.Engine
	Engine *redact.Engine
	Signer *attest.Signer // optional
}

// Output is the result of one run.
type Output struct {
	JobID     string
	Format    render.Format
	Image     []byte // the redacted page, encoded as Format
	Lines     []redact.Line
	Regions   []redact.Region
	Manifest  attest.Manifest
	Signature string // empty when no signer is configured
	SignerID  string
}

// Run redacts the named document and encodes the page as format (PNG when
// empty). Errors from any step abort the run.
func (p *Processor) Run(ctx context.Context, name string, data []byte, cats redact.CategorySet, format render.Format) (*Output, error) {
	start := time.Now()
	jobID := uuid.NewString()

	img, err := rasterize.File(name, data)
	if err != nil {
		return nil, err
	}

	lines, err := p.OCR.Recognize(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("pipeline: ocr: %w", err)
	}

	regions, err := p.Engine.Compile(ctx, lines, cats)
	if err != nil {
		return nil, fmt.Errorf("pipeline: compile: %w", err)
	}

	if format == "" {
		format = render.FormatPNG
	}
	page, err := render.Encode(render.Regions(img, regions), format)
	if err != nil {
		return nil, err
	}

	out := &Output{
		JobID:    jobID,
		Format:   format,
		Image:    page,
		Lines:    lines,
		Regions:  regions,
		Manifest: attest.NewManifest(jobID, data, cats, regions),
	}
	if p.Signer != nil {
		sig, err := p.Signer.Sign(out.Manifest)
		if err != nil {
			return nil, err
		}
		out.Signature = sig
		out.SignerID = p.Signer.KeyID()
	}

	slog.Info("pipeline: document redacted",
		"job", jobID,
		"file", name,
		"format", format,
		"engine", p.OCR.Name(),
		"lines", len(lines),
		"regions", len(regions),
		"signed", out.Signature != "",
		"duration", time.Since(start),
	)
	return out, nil
}
