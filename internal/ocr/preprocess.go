package ocr

import (
	"image"

	"golang.org/x/image/draw"
)

// DefaultThreshold is the binarization cut-off on the 0-255 gray scale.
const DefaultThreshold = 127

// Preprocess describes how the OCR copy of a page is cleaned up. The zero
// value only converts to grayscale.
type Preprocess struct {
	Binarize  bool
	Invert    bool
	Threshold uint8 // zero means DefaultThreshold
}

// Apply returns a grayscale copy of img with the configured inversion and
// thresholding. img itself is never modified.
func (p Preprocess) Apply(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)

	if !p.Binarize && !p.Invert {
		return gray
	}
	threshold := p.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	for i, v := range gray.Pix {
		if p.Invert {
			v = 255 - v
		}
		if p.Binarize {
			if v > threshold {
				v = 255
			} else {
				v = 0
			}
		}
		gray.Pix[i] = v
	}
	return gray
}
