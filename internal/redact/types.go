package redact

import (
	"math"
	"unicode/utf8"
)

// Point is a 2-D pixel coordinate with the origin in the upper-left corner.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quad is a four-point polygon ordered top-left, top-right, bottom-right,
// bottom-left.
type Quad [4]Point

// Rect builds an axis-aligned quad from its left/top/right/bottom edges.
func Rect(left, top, right, bottom float64) Quad {
	return Quad{
		{X: left, Y: top},
		{X: right, Y: top},
		{X: right, Y: bottom},
		{X: left, Y: bottom},
	}
}

// Bounds returns left, top, right, bottom taken from points 0 and 2.
func (q Quad) Bounds() (left, top, right, bottom float64) {
	return q[0].X, q[0].Y, q[2].X, q[2].Y
}

// Skewed reports whether the quad deviates from an axis-aligned rectangle by
// more than tol pixels on any edge.
func (q Quad) Skewed(tol float64) bool {
	return math.Abs(q[0].Y-q[1].Y) > tol ||
		math.Abs(q[3].Y-q[2].Y) > tol ||
		math.Abs(q[0].X-q[3].X) > tol ||
		math.Abs(q[1].X-q[2].X) > tol
}

// Line is one OCR-recognized text region.
type Line struct {
	Text       string  `json:"text"`
	Quad       Quad    `json:"quad"`
	Confidence float64 `json:"confidence"`
}

// AnnotatedLine is a Line that may carry entities recognized upstream. A
// non-nil Entities replaces the NER collaborator for that line only.
type AnnotatedLine struct {
	Line
	Entities []Entity `json:"entities,omitempty"`
}

// Len returns the length of the line text in characters.
func (l Line) Len() int { return utf8.RuneCountInString(l.Text) }

// Finding is a sensitive span inside one line. Start and End are half-open
// character (rune) offsets into Line.Text.
type Finding struct {
	Start    int      `json:"start_char"`
	End      int      `json:"end_char"`
	Category Category `json:"category"`
}

// Label returns the finding's category in <CATEGORY> form.
func (f Finding) Label() string { return f.Category.Label() }

// Region is a projected redaction area ready for rendering.
type Region struct {
	Quad  Quad   `json:"quad"`
	Label string `json:"label"`
}

// runeOffset converts a byte offset in s into a rune offset.
func runeOffset(s string, b int) int {
	if b <= 0 {
		return 0
	}
	if b >= len(s) {
		return utf8.RuneCountInString(s)
	}
	return utf8.RuneCountInString(s[:b])
}
