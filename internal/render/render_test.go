package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"

	"github.com/gonkalabs/gonka-redact-go/internal/redact"
)

var (
	black = color.RGBA{A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	red   = color.RGBA{R: 255, A: 255}
)

func page() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 100, 40))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: black}, image.Point{}, draw.Src)
	return img
}

func at(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestRegionsEmpty(t *testing.T) {
	img := page()
	assert.Same(t, img, Regions(img, nil))
}

func TestRegions(t *testing.T) {
	img := page()
	out := Regions(img, []redact.Region{
		{Quad: redact.Rect(10, 10, 60.4, 30), Label: "<EMAIL>"},
	})

	assert.Equal(t, black, at(img, 20, 20), "input must not be modified")
	assert.Equal(t, black, at(out, 5, 5))
	assert.Equal(t, black, at(out, 61, 20))
	assert.Equal(t, white, at(out, 10, 10))
	assert.Equal(t, white, at(out, 60, 29))

	var reds int
	for y := 12; y < 30; y++ {
		for x := 12; x < 61; x++ {
			if at(out, x, y) == red {
				reds++
			}
		}
	}
	assert.Positive(t, reds, "label should be drawn inside the region")
	for x := 0; x < 100; x++ {
		assert.NotEqual(t, red, at(out, x, 11), "label starts below the inset")
	}
}

func TestRegionsOutsideImage(t *testing.T) {
	img := page()
	out := Regions(img, []redact.Region{
		{Quad: redact.Rect(200, 200, 300, 220), Label: "<PERSON>"},
		{Quad: redact.Rect(-20, 30, 5, 60), Label: "<DATE>"},
	})
	assert.Equal(t, white, at(out, 0, 39))
	assert.Equal(t, black, at(out, 6, 31))
	assert.Equal(t, black, at(out, 50, 10))
}

func TestPNG(t *testing.T) {
	raw, err := PNG(page())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 40), img.Bounds())
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"", FormatPNG},
		{"png", FormatPNG},
		{" PDF ", FormatPDF},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, err := ParseFormat("tiff")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	assert.Equal(t, "REDACTED_OUTPUT.pdf", FormatPDF.Filename())
	assert.Equal(t, "image/png", FormatPNG.ContentType())
}

func TestPDF(t *testing.T) {
	raw, err := Encode(page(), FormatPDF)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))
	assert.True(t, bytes.HasSuffix(bytes.TrimSpace(raw), []byte("%%EOF")))
	// 100x40 px at 200 dpi is 36x14.4 pt.
	assert.Regexp(t, regexp.MustCompile(`/MediaBox \[0 0 36(\.0+)? 14\.40*\]`), string(raw))
	assert.Contains(t, string(raw), "/Subtype /Image")
}
