// Package render paints redaction regions onto page images.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gonkalabs/gonka-redact-go/internal/redact"
)

const (
	// LabelInset is the offset of a label from the region's top-left corner.
	LabelInset = 2
	// PDFResolution is the pixel density a page is placed at in PDF output.
	PDFResolution = 200
)

// Format is the encoding of a redacted page.
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("render: unknown output format")

// ParseFormat accepts "png" or "pdf" in any case. Empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "image/png"
}

// Filename is the download name used for a page encoded as f.
func (f Format) Filename() string {
	if f == FormatPDF {
		return "REDACTED_OUTPUT.pdf"
	}
	return "redacted.png"
}

var (
	fill      = &image.Uniform{C: color.White}
	labelInk  = &image.Uniform{C: color.RGBA{R: 255, A: 255}}
	labelFace = basicfont.Face7x13
)

// Regions returns a copy of img with each region filled white and its label
// drawn in red. img is returned unchanged when there is nothing to draw.
func Regions(img image.Image, regions []redact.Region) image.Image {
	if len(regions) == 0 {
		return img
	}

	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)

	ascent := labelFace.Metrics().Ascent.Ceil()
	d := &font.Drawer{Dst: out, Src: labelInk, Face: labelFace}
	for _, r := range regions {
		left, top, right, bottom := r.Quad.Bounds()
		rect := image.Rect(
			int(math.Floor(left)), int(math.Floor(top)),
			int(math.Ceil(right)), int(math.Ceil(bottom)),
		).Intersect(b)
		if rect.Empty() {
			continue
		}
		draw.Draw(out, rect, fill, image.Point{}, draw.Src)

		d.Dot = fixed.P(rect.Min.X+LabelInset, rect.Min.Y+LabelInset+ascent)
		d.DrawString(r.Label)
	}
	return out
}

// PNG encodes img.
func PNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("render: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode encodes img as f.
func Encode(img image.Image, f Format) ([]byte, error) {
	if f == FormatPDF {
		return PDF(img)
	}
	return PNG(img)
}

// PDF wraps img in a single-page PDF sized to the image at PDFResolution.
func PDF(img image.Image) ([]byte, error) {
	raw, err := PNG(img)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	w := float64(b.Dx()) * 72 / PDFResolution
	h := float64(b.Dy()) * 72 / PDFResolution

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("page", opts, bytes.NewReader(raw))
	doc.ImageOptions("page", 0, 0, w, h, false, opts, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render: encode pdf: %w", err)
	}
	return buf.Bytes(), nil
}
