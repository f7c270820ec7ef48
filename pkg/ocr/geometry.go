package ocr

import (
	"fmt"
	"math"
)

// Polygon is a flat list of x,y pairs in page units, as emitted by the
// recognizers (x1, y1, x2, y2, ...). OCR services usually report
// quadrilaterals which may be rotated.
type Polygon []float64

// BBox is an axis-aligned rectangle in page units
type BBox struct {
	X1 float64 // Left
	Y1 float64 // Top
	X2 float64 // Right
	Y2 float64 // Bottom
}

// NewBoundingBox creates a bounding box from its corner coordinates
func NewBoundingBox(x1, y1, x2, y2 float64) BBox {
	return BBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width returns the horizontal extent of the box
func (b BBox) Width() float64 { return b.X2 - b.X1 }

// Height returns the vertical extent of the box
func (b BBox) Height() float64 { return b.Y2 - b.Y1 }

// Empty reports whether the box encloses no area
func (b BBox) Empty() bool { return b.Width() <= 0 || b.Height() <= 0 }

// Union returns the smallest box containing both boxes
func (b BBox) Union(o BBox) BBox {
	return BBox{
		X1: math.Min(b.X1, o.X1),
		Y1: math.Min(b.Y1, o.Y1),
		X2: math.Max(b.X2, o.X2),
		Y2: math.Max(b.Y2, o.Y2),
	}
}

// Polygon returns the box as a clockwise quadrilateral starting top-left
func (b BBox) Polygon() Polygon {
	return Polygon{b.X1, b.Y1, b.X2, b.Y1, b.X2, b.Y2, b.X1, b.Y2}
}

// Bounds returns the axis-aligned box enclosing the polygon.
// It fails with ErrMalformedGeometry when the polygon has fewer than three
// points, an odd number of coordinates, non-finite values or no area.
func (p Polygon) Bounds() (BBox, error) {
	if len(p) < 6 || len(p)%2 != 0 {
		return BBox{}, fmt.Errorf("%w: polygon has %d coordinates", ErrMalformedGeometry, len(p))
	}
	b := BBox{X1: math.Inf(1), Y1: math.Inf(1), X2: math.Inf(-1), Y2: math.Inf(-1)}
	for i := 0; i < len(p); i += 2 {
		x, y := p[i], p[i+1]
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return BBox{}, fmt.Errorf("%w: non-finite coordinate", ErrMalformedGeometry)
		}
		b.X1 = math.Min(b.X1, x)
		b.Y1 = math.Min(b.Y1, y)
		b.X2 = math.Max(b.X2, x)
		b.Y2 = math.Max(b.Y2, y)
	}
	if b.Empty() {
		return BBox{}, fmt.Errorf("%w: degenerate box %v", ErrMalformedGeometry, b)
	}
	return b, nil
}
