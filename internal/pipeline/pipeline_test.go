package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"

	"github.com/gonkalabs/gonka-redact-go/internal/attest"
	"github.com/gonkalabs/gonka-redact-go/internal/rasterize"
	"github.com/gonkalabs/gonka-redact-go/internal/redact"
	"github.com/gonkalabs/gonka-redact-go/internal/render"
)

type fakeOCR struct {
	lines []redact.Line
	err   error
}

func (f fakeOCR) Name() string { return "fake" }

func (f fakeOCR) Recognize(context.Context, image.Image) ([]redact.Line, error) {
	return f.lines, f.err
}

func grayPage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 300, 40))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.Gray{Y: 128}}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func emailLine() []redact.Line {
	return []redact.Line{{Text: "Email: jane@example.com", Quad: redact.Rect(0, 0, 200, 20), Confidence: 0.9}}
}

func TestRun(t *testing.T) {
	signer, err := attest.NewSigner("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	require.NoError(t, err)

	p := &Processor{OCR: fakeOCR{lines: emailLine()}, Engine: redact.New(), Signer: signer}
	doc := grayPage(t)
	out, err := p.Run(context.Background(), "scan.png", doc, redact.NewCategorySet("EMAIL"), "")
	require.NoError(t, err)

	require.Len(t, out.Regions, 1)
	assert.Equal(t, "<EMAIL>", out.Regions[0].Label)
	assert.InDelta(t, 200.0*7/23, out.Regions[0].Quad[0].X, 1e-9)
	assert.NotEmpty(t, out.JobID)
	assert.Equal(t, out.JobID, out.Manifest.JobID)
	assert.Equal(t, render.FormatPNG, out.Format)

	img, err := png.Decode(bytes.NewReader(out.Image))
	require.NoError(t, err)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	assert.Equal(t, white, color.RGBAModel.Convert(img.At(150, 18)))
	assert.NotEqual(t, white, color.RGBAModel.Convert(img.At(250, 18)))

	assert.Equal(t, signer.KeyID(), out.SignerID)
	require.NoError(t, attest.Verify(out.Manifest, out.Signature, out.SignerID))
}

func TestRunUnsigned(t *testing.T) {
	p := &Processor{OCR: fakeOCR{lines: emailLine()}, Engine: redact.New()}
	out, err := p.Run(context.Background(), "scan.png", grayPage(t), redact.NewCategorySet(), render.FormatPNG)
	require.NoError(t, err)
	assert.Empty(t, out.Regions)
	assert.Empty(t, out.Signature)
	assert.Empty(t, out.SignerID)
}

func TestRunPDF(t *testing.T) {
	p := &Processor{OCR: fakeOCR{lines: emailLine()}, Engine: redact.New()}
	out, err := p.Run(context.Background(), "scan.png", grayPage(t), redact.NewCategorySet("EMAIL"), render.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, render.FormatPDF, out.Format)
	assert.True(t, bytes.HasPrefix(out.Image, []byte("%PDF-")))
	require.Len(t, out.Regions, 1)
}

func TestRunDOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = io.WriteString(w, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`+
		`<w:body><w:p><w:r><w:t>Email: jane@example.com</w:t></w:r></w:p></w:body></w:document>`)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var seen image.Rectangle
	ocr := recordingOCR{fakeOCR: fakeOCR{lines: emailLine()}, bounds: &seen}
	p := &Processor{OCR: ocr, Engine: redact.New()}
	out, err := p.Run(context.Background(), "letter.docx", buf.Bytes(), redact.NewCategorySet("EMAIL"), "")
	require.NoError(t, err)
	assert.Len(t, out.Regions, 1)
	assert.Equal(t, rasterize.TextWidth, seen.Dx())
}

type recordingOCR struct {
	fakeOCR
	bounds *image.Rectangle
}

func (r recordingOCR) Recognize(ctx context.Context, img image.Image) ([]redact.Line, error) {
	*r.bounds = img.Bounds()
	return r.fakeOCR.Recognize(ctx, img)
}

func TestRunErrors(t *testing.T) {
	p := &Processor{OCR: fakeOCR{err: errors.New("engine crashed")}, Engine: redact.New()}

	_, err := p.Run(context.Background(), "scan.doc", []byte("legacy"), nil, "")
	assert.ErrorIs(t, err, rasterize.ErrUnsupportedFormat)

	_, err = p.Run(context.Background(), "scan.png", grayPage(t), nil, "")
	assert.ErrorContains(t, err, "engine crashed")
}
