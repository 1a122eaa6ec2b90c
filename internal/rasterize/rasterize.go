// Package rasterize turns uploaded files into page images.
package rasterize

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for inputs that cannot be turned into an
// image.
var ErrUnsupportedFormat = errors.New("rasterize: unsupported format")

const (
	// TextWidth is the canvas width used for plain-text files.
	TextWidth = 1200
	// TextPadding is the margin around rasterized text.
	TextPadding = 50
	// PDFResolution is the dpi the first page of a PDF is rendered at.
	PDFResolution = 200
)

// wordML is the namespace of the main WordprocessingML part.
const wordML = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

var textFace = basicfont.Face7x13

// File converts a named upload into an image. The extension decides how the
// bytes are read; unknown extensions are sniffed as images.
func File(name string, data []byte) (image.Image, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".txt":
		return Text(string(data)), nil
	case ".pdf":
		return PDF(data)
	case ".docx":
		return DOCX(data)
	case ".doc":
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	default:
		return Image(data)
	}
}

// Image decodes any registered image format into an RGBA copy.
func Image(data []byte) (image.Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("rasterize: decode: %w", err)
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst, nil
}

// PDF renders the first page of a PDF document.
func PDF(data []byte) (*image.RGBA, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("rasterize: open pdf: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() < 1 {
		return nil, errors.New("rasterize: pdf has no pages")
	}
	img, err := doc.ImageDPI(0, PDFResolution)
	if err != nil {
		return nil, fmt.Errorf("rasterize: render pdf page: %w", err)
	}
	return img, nil
}

// DOCX draws the paragraph text of a Word document the same way as a .txt
// file, one paragraph per row.
func DOCX(data []byte) (*image.RGBA, error) {
	text, err := docxText(data)
	if err != nil {
		return nil, err
	}
	return Text(text), nil
}

// docxText joins the paragraphs of word/document.xml with newlines. Tabs and
// breaks inside a run are kept as \t and \n.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("rasterize: open docx: %w", err)
	}
	f, err := zr.Open("word/document.xml")
	if err != nil {
		return "", fmt.Errorf("rasterize: docx: %w", err)
	}
	defer f.Close()

	var (
		paras  []string
		cur    strings.Builder
		inRun  bool
		inText bool
	)
	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("rasterize: docx: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordML {
				continue
			}
			switch t.Name.Local {
			case "r":
				inRun = true
			case "t":
				inText = inRun
			case "tab":
				if inRun {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if inRun {
					cur.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordML {
				continue
			}
			switch t.Name.Local {
			case "r":
				inRun = false
			case "t":
				inText = false
			case "p":
				paras = append(paras, cur.String())
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	return strings.Join(paras, "\n"), nil
}

// Text draws text black on white, one source line per row. The canvas is
// TextWidth wide and as tall as the text plus padding.
func Text(text string) *image.RGBA {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if len(lines) == 0 {
		lines = []string{""}
	}

	lineHeight := textFace.Metrics().Height.Ceil()
	ascent := textFace.Metrics().Ascent.Ceil()
	height := 2*TextPadding + len(lines)*lineHeight

	img := image.NewRGBA(image.Rect(0, 0, TextWidth, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	d := &font.Drawer{Dst: img, Src: image.Black, Face: textFace}
	for i, line := range lines {
		d.Dot = fixed.P(TextPadding, TextPadding+i*lineHeight+ascent)
		d.DrawString(line)
	}
	return img
}
