// Package furigana detects furigana (small phonetic readings printed next to
// kanji) in OCR output and rebuilds the body text without them.
//
// The work is split into two pure passes over an immutable ocr.Page:
//
// - Classify tags every word as Body or Furigana from its geometry alone
// - Reassemble drops the furigana and joins the remaining words per line
//
// A word is furigana when it is clearly smaller than the body text of its
// line and sits on top of (or, in vertical text, beside) a full-size anchor
// word on any line of the page. Words without such an anchor are
// always body text, so captions and other small print survive. Ambiguous or
// broken geometry also resolves to body text.
package furigana

import (
	"math"

	"github.com/gardar/furiocr/pkg/ocr"
)

// Tag is the classification of a word
type Tag int

const (
	Body Tag = iota
	Furigana
)

func (t Tag) String() string {
	if t == Furigana {
		return "furigana"
	}
	return "body"
}

// Classification maps every word of a page to its tag
type Classification map[ocr.WordID]Tag

// Tag returns the tag of a word, Body when the word is unknown
func (c Classification) Tag(id ocr.WordID) Tag {
	return c[id]
}

// Count returns how many words carry tag
func (c Classification) Count(tag Tag) int {
	n := 0
	for _, t := range c {
		if t == tag {
			n++
		}
	}
	return n
}

// lineInfo caches per-line measurements used while classifying a page
type lineInfo struct {
	boxes    []box
	vertical bool
	length   float64 // extent along the longer side of the line's box
	// body size of the line measured as heights and as widths
	dominantH float64
	dominantV float64
}

func (l lineInfo) dominant(vertical bool) float64 {
	if vertical {
		return l.dominantV
	}
	return l.dominantH
}

// Classify tags every word on the page. The page is not modified.
func Classify(page ocr.Page, opts Options) Classification {
	lines := measurePage(page, opts)
	result := make(Classification, page.WordCount())

	for li, line := range lines {
		for _, w := range line.boxes {
			result[w.id] = Body
			if !w.valid {
				continue
			}
			if hasAnchor(w, li, lines, opts) {
				result[w.id] = Furigana
			}
		}
	}
	return result
}

func measurePage(page ocr.Page, opts Options) []lineInfo {
	lines := make([]lineInfo, len(page.Lines))
	for i, line := range page.Lines {
		boxes := measureLine(line, i)
		bounds, ok := lineBounds(line, boxes)

		var heights, widths []float64
		for _, b := range boxes {
			if b.valid {
				heights = append(heights, b.bbox.Height())
				widths = append(widths, b.bbox.Width())
			}
		}
		var length float64
		if ok {
			length = math.Max(bounds.Width(), bounds.Height())
		}
		lines[i] = lineInfo{
			boxes:     boxes,
			vertical:  isVertical(bounds, ok, opts.VerticalAspect),
			length:    length,
			dominantH: percentile(heights, opts.BenchmarkPercentile),
			dominantV: percentile(widths, opts.BenchmarkPercentile),
		}
	}
	return lines
}

// orientation decides the reading direction used to compare a word on line
// li with an anchor on line lj. When the two lines disagree, the longer one
// wins: a lone reading such as ひ forms a square line of its own next to a
// vertical column.
func orientation(li, lj int, lines []lineInfo) bool {
	if li == lj || lines[li].vertical == lines[lj].vertical {
		return lines[lj].vertical
	}
	if lines[lj].length >= lines[li].length {
		return lines[lj].vertical
	}
	return lines[li].vertical
}

// hasAnchor looks for a full-size word anywhere on the page that the small
// word w annotates. Line order is not trusted; geometry decides.
func hasAnchor(w box, li int, lines []lineInfo, opts Options) bool {
	for lj := range lines {
		vertical := orientation(li, lj, lines)
		size := w.size(vertical)
		ref := math.Max(lines[li].dominant(vertical), lines[lj].dominant(vertical))
		if ref <= 0 {
			continue
		}
		// near the threshold we keep the word as body text
		if size >= (opts.HeightRatio-opts.TieMargin)*ref {
			continue
		}
		for _, a := range lines[lj].boxes {
			if !a.valid || a.id == w.id {
				continue
			}
			anchorSize := a.size(vertical)
			if anchorSize < opts.HeightRatio*ref || anchorSize <= size {
				continue
			}
			if coverage(w, a, vertical) < opts.OverlapRatio {
				continue
			}
			if gap(w, a, vertical) > opts.Proximity*anchorSize {
				continue
			}
			return true
		}
	}
	return false
}
