package redact

import "log/slog"

// skewTolerance is how far, in pixels, a quad edge may stray from the axes
// before the line is reported as unsupported geometry.
const skewTolerance = 2.0

// Project maps each finding on line to a full-height horizontal slice of the
// line's box, assuming every character has the same width. Lines with no
// text or no width, and findings outside the text, produce nothing.
//
// Only left-to-right, unrotated lines are supported. Rotated quads are still
// projected from their first and third points but are logged.
func Project(line Line, findings []Finding) []Region {
	if len(findings) == 0 {
		return nil
	}
	n := line.Len()
	if n == 0 {
		return nil
	}
	left, top, right, bottom := line.Quad.Bounds()
	if right-left <= 0 {
		slog.Debug("redact: skipping line with no width", "left", left, "right", right)
		return nil
	}
	if line.Quad.Skewed(skewTolerance) {
		slog.Warn("redact: rotated line geometry is unsupported, projecting from bounding corners",
			"quad", line.Quad)
	}

	charWidth := (right - left) / float64(n)
	// The line's own corners are returned verbatim at offsets 0 and n.
	edge := func(k int) float64 {
		switch k {
		case 0:
			return left
		case n:
			return right
		}
		return left + float64(k)*charWidth
	}
	out := make([]Region, 0, len(findings))
	for _, f := range findings {
		if f.Start < 0 || f.End > n || f.Start >= f.End {
			continue
		}
		out = append(out, Region{
			Quad:  Rect(edge(f.Start), top, edge(f.End), bottom),
			Label: f.Label(),
		})
	}
	return out
}
