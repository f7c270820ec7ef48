package hocr

import (
	"strings"

	"github.com/gardar/furiocr/pkg/furigana"
	"github.com/gardar/furiocr/pkg/ocr"
)

// ServiceName names results that came from hOCR
const ServiceName = "hocr"

// ToResult converts a parsed hOCR document into the OCR result model.
// Coordinates stay in pixels; confidences are scaled to 0..1.
func ToResult(doc *HOCR) *ocr.Result {
	result := &ocr.Result{Service: ServiceName}
	for pi, p := range doc.Pages {
		page := ocr.Page{
			Number: pi + 1,
			Width:  p.BBox.X2,
			Height: p.BBox.Y2,
			Unit:   ocr.UnitPixel,
		}
		for li, l := range p.Lines {
			line := ocr.Line{
				Index:   li,
				Polygon: toPolygon(l.BBox),
			}
			var texts []string
			for wi, w := range l.Words {
				line.Words = append(line.Words, ocr.Word{
					ID:         ocr.WordID{Line: li, Word: wi},
					Text:       w.Text,
					Polygon:    toPolygon(w.BBox),
					Confidence: w.Confidence / 100,
				})
				texts = append(texts, w.Text)
			}
			line.Text = strings.Join(texts, " ")
			page.Lines = append(page.Lines, line)
		}
		result.Pages = append(result.Pages, page)
	}
	return result
}

// FromClean builds an hOCR document holding only the body text kept after
// furigana removal. Empty lines are left out. Pages measured in inches are
// written in points.
func FromClean(result *ocr.Result, pages [][]furigana.CleanLine, lang string) *HOCR {
	doc := &HOCR{
		Title:    "furigana-free OCR",
		Language: lang,
		Metadata: map[string]string{
			"ocr-system":       "furiocr",
			"ocr-capabilities": "ocr_page ocr_line ocrx_word",
		},
	}
	for pi, lines := range pages {
		scale := 1.0
		var page Page
		page.PageNumber = pi
		if result != nil && pi < len(result.Pages) {
			src := result.Pages[pi]
			if s := src.PointsPerUnit(); s > 0 {
				scale = s
			}
			page.BBox = NewBoundingBox(0, 0, src.Width*scale, src.Height*scale)
		}

		for _, cl := range lines {
			if cl.Empty {
				continue
			}
			line := Line{BBox: fromBBox(cl.Box, scale)}
			if cl.Vertical {
				line.TextAngle = 90
			}
			for _, w := range cl.Words {
				word := Word{Text: w.Text, Confidence: w.Confidence * 100}
				if b, err := w.Polygon.Bounds(); err == nil {
					word.BBox = fromBBox(b, scale)
				}
				line.Words = append(line.Words, word)
			}
			page.Lines = append(page.Lines, line)
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc
}

func toPolygon(b BoundingBox) ocr.Polygon {
	return ocr.NewBoundingBox(b.X1, b.Y1, b.X2, b.Y2).Polygon()
}

func fromBBox(b ocr.BBox, scale float64) BoundingBox {
	return NewBoundingBox(b.X1*scale, b.Y1*scale, b.X2*scale, b.Y2*scale)
}
