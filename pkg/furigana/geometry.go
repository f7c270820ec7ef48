package furigana

import (
	"math"
	"sort"

	"github.com/gardar/furiocr/pkg/ocr"
)

// box is a word outline measured along a line's orientation
type box struct {
	id    ocr.WordID
	bbox  ocr.BBox
	valid bool
}

// size is the glyph size across the reading direction
func (b box) size(vertical bool) float64 {
	if vertical {
		return b.bbox.Width()
	}
	return b.bbox.Height()
}

// extent returns the word's range along the reading direction
func (b box) extent(vertical bool) (float64, float64) {
	if vertical {
		return b.bbox.Y1, b.bbox.Y2
	}
	return b.bbox.X1, b.bbox.X2
}

// coverage is the share of a's reading-direction extent covered by b
func coverage(a, b box, vertical bool) float64 {
	a1, a2 := a.extent(vertical)
	b1, b2 := b.extent(vertical)
	inter := math.Min(a2, b2) - math.Max(a1, b1)
	if inter <= 0 || a2 <= a1 {
		return 0
	}
	return inter / (a2 - a1)
}

// gap is the distance between a and b across the reading direction
func gap(a, b box, vertical bool) float64 {
	var d float64
	if vertical {
		d = math.Max(a.bbox.X1, b.bbox.X1) - math.Min(a.bbox.X2, b.bbox.X2)
	} else {
		d = math.Max(a.bbox.Y1, b.bbox.Y1) - math.Min(a.bbox.Y2, b.bbox.Y2)
	}
	return math.Max(d, 0)
}

// percentile interpolates linearly between the closest ranks of values.
// It returns 0 for an empty slice.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

// measureLine computes word boxes for a line. Words with malformed geometry
// are kept with valid=false so they stay addressable.
func measureLine(line ocr.Line, lineIdx int) []box {
	boxes := make([]box, len(line.Words))
	for i, w := range line.Words {
		b, err := w.Polygon.Bounds()
		boxes[i] = box{id: ocr.WordID{Line: lineIdx, Word: i}, bbox: b, valid: err == nil}
	}
	return boxes
}

// lineBounds returns the line's own outline, falling back to the union of
// its valid word boxes
func lineBounds(line ocr.Line, boxes []box) (ocr.BBox, bool) {
	if b, err := line.Polygon.Bounds(); err == nil {
		return b, true
	}
	var out ocr.BBox
	found := false
	for _, b := range boxes {
		if !b.valid {
			continue
		}
		if !found {
			out, found = b.bbox, true
			continue
		}
		out = out.Union(b.bbox)
	}
	return out, found
}

// isVertical reports whether a line runs top to bottom
func isVertical(bounds ocr.BBox, ok bool, aspect float64) bool {
	if !ok || bounds.Width() <= 0 {
		return false
	}
	return bounds.Height() > aspect*bounds.Width()
}
