// Package ocr holds the in-memory OCR result model shared by every recognizer
// and by the furigana post-processing stages.
//
// A Result is a list of Pages, a Page is an
// ordered list of Lines and a Line is an ordered list of Words. Every element
// carries the polygon the recognizer reported for it, in page units.
//
// Key Types:
//
// - Result: the parsed output of one OCR run over one document
// - Page, Line, Word: the recognized text hierarchy
// - Polygon, BBox: geometry helpers
// - Recognizer, Parser: the boundary implemented by each OCR backend
//
// Values of these types are created once per parse and treated as immutable
// afterwards. Later stages derive new structures instead of editing them.
package ocr

// Result is the parsed output of one OCR run over a document
type Result struct {
	Service string // Recognizer that produced the result
	Pages   []Page // Pages in document order
}

// Page is one page of recognized text
type Page struct {
	Number int     // Page number (1-based)
	Width  float64 // Page width in Unit
	Height float64 // Page height in Unit
	Unit   string  // "pixel" or "inch"
	Angle  float64 // Detected skew angle in degrees
	Lines  []Line  // Lines in reading order
}

// Line is a recognized line of text
type Line struct {
	Index   int     // Position of the line on its page (0-based)
	Text    string  // Text as reported by the recognizer
	Polygon Polygon // Line outline
	Words   []Word  // Words in reading order
}

// Word is a recognized token with its outline and confidence
type Word struct {
	ID         WordID
	Text       string
	Polygon    Polygon
	Confidence float64 // Recognition confidence (0-1)
	Span       Span    // Offset into the recognizer's content string, zero when unknown
}

// WordID addresses a word on its page
type WordID struct {
	Line int // Line index on the page
	Word int // Word index within the line
}

// Span is a range of the recognizer's full content string
type Span struct {
	Offset int
	Length int
}

// End returns the offset just past the span
func (s Span) End() int { return s.Offset + s.Length }

// Known reports whether the recognizer supplied span information
func (s Span) Known() bool { return s.Length > 0 }

// Units supported on Page.Unit
const (
	UnitPixel = "pixel"
	UnitInch  = "inch"
)

// PointsPerUnit returns how many PDF points one page unit is worth, or 0 when
// the unit has no fixed physical size (pixels).
func (p Page) PointsPerUnit() float64 {
	if p.Unit == UnitInch {
		return 72
	}
	return 0
}

// WordCount returns the number of words on the page
func (p Page) WordCount() int {
	n := 0
	for _, l := range p.Lines {
		n += len(l.Words)
	}
	return n
}

// LineCount returns the number of lines across all pages
func (r *Result) LineCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, p := range r.Pages {
		n += len(p.Lines)
	}
	return n
}
