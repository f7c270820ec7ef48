package furigana

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/gardar/furiocr/pkg/ocr"
)

// CleanLine is a source line with its furigana removed
type CleanLine struct {
	Page     int        // Page number (1-based)
	Index    int        // Line index on the page, same as the source line
	Text     string     // Body text in reading order
	Box      ocr.BBox   // Union of the kept words, or a zero-size marker when Empty
	Words    []ocr.Word // Kept words in reading order
	Vertical bool       // Line runs top to bottom
	Empty    bool       // Every word was furigana (or the line had none)
}

// Stats summarises a processed document
type Stats struct {
	Lines      int
	Words      int
	Furigana   int
	EmptyLines int
}

// Reassemble drops the words tagged Furigana and rebuilds one CleanLine per
// source line. opts must be the options cls was classified with, so both
// passes agree on line direction. The returned slice always has
// len(page.Lines) entries.
func Reassemble(page ocr.Page, cls Classification, opts Options) []CleanLine {
	return reassemble(page, cls, opts.VerticalAspect)
}

// Process classifies the page and reassembles it in one call
func Process(page ocr.Page, opts Options) ([]CleanLine, Classification) {
	cls := Classify(page, opts)
	return reassemble(page, cls, opts.VerticalAspect), cls
}

// ProcessResult runs Process over every page of a result
func ProcessResult(result *ocr.Result, opts Options) ([][]CleanLine, Stats) {
	var stats Stats
	if result == nil {
		return nil, stats
	}
	pages := make([][]CleanLine, len(result.Pages))
	for i, page := range result.Pages {
		lines, cls := Process(page, opts)
		pages[i] = lines

		stats.Lines += len(lines)
		stats.Words += page.WordCount()
		stats.Furigana += cls.Count(Furigana)
		for _, l := range lines {
			if l.Empty {
				stats.EmptyLines++
			}
		}
	}
	return pages, stats
}

func reassemble(page ocr.Page, cls Classification, aspect float64) []CleanLine {
	out := make([]CleanLine, len(page.Lines))
	for li, line := range page.Lines {
		boxes := measureLine(line, li)
		bounds, ok := lineBounds(line, boxes)
		vertical := isVertical(bounds, ok, aspect)

		clean := CleanLine{
			Page:     page.Number,
			Index:    li,
			Vertical: vertical,
		}

		var kept []ocr.Word
		var keptBox ocr.BBox
		haveBox := false
		for wi, w := range line.Words {
			if cls.Tag(ocr.WordID{Line: li, Word: wi}) == Furigana {
				continue
			}
			kept = append(kept, w)
			if !boxes[wi].valid {
				continue
			}
			if !haveBox {
				keptBox, haveBox = boxes[wi].bbox, true
			} else {
				keptBox = keptBox.Union(boxes[wi].bbox)
			}
		}

		clean.Words = kept
		clean.Text = joinWords(kept)
		clean.Empty = clean.Text == ""

		switch {
		case clean.Empty:
			clean.Box = placeholder(bounds, ok, vertical)
		case haveBox:
			clean.Box = keptBox
		case ok:
			clean.Box = bounds
		}
		out[li] = clean
	}
	return out
}

// placeholder is a zero-size box at the leading edge of the source line
func placeholder(bounds ocr.BBox, ok, vertical bool) ocr.BBox {
	if !ok {
		return ocr.BBox{}
	}
	if vertical {
		return ocr.BBox{X1: bounds.X1, Y1: bounds.Y1, X2: bounds.X2, Y2: bounds.Y1}
	}
	return ocr.BBox{X1: bounds.X1, Y1: bounds.Y1, X2: bounds.X1, Y2: bounds.Y2}
}

// joinWords concatenates word texts. CJK text is joined without separators,
// other scripts keep the spacing of the source.
func joinWords(words []ocr.Word) string {
	var b strings.Builder
	var prevText string
	var prevSpan ocr.Span
	for _, w := range words {
		text := norm.NFC.String(strings.TrimSpace(w.Text))
		if text == "" {
			continue
		}
		if prevText != "" && needsSpace(prevText, text, prevSpan, w.Span) {
			b.WriteByte(' ')
		}
		b.WriteString(text)
		prevText, prevSpan = text, w.Span
	}
	return b.String()
}

func needsSpace(left, right string, ls, rs ocr.Span) bool {
	l, _ := utf8.DecodeLastRuneInString(left)
	r, _ := utf8.DecodeRuneInString(right)
	if isCJK(l) || isCJK(r) {
		return false
	}
	if ls.Known() && rs.Known() {
		return rs.Offset > ls.End()
	}
	return true
}

// isCJK reports whether r belongs to text that is written without spaces
func isCJK(r rune) bool {
	if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana) {
		return true
	}
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}
