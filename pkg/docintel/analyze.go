package docintel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gardar/furiocr/pkg/ocr"
)

// analyzeBody is the body of a poll response, or a saved result file. Older
// tools saved only analyzeResult, or only its pages, so every level is
// accepted.
type analyzeBody struct {
	Status        string         `json:"status"`
	AnalyzeResult *analyzeResult `json:"analyzeResult"`
	Pages         []page         `json:"pages"`
	ReadResults   []page         `json:"readResults"`
	Error         *serviceError  `json:"error"`
}

type analyzeResult struct {
	APIVersion  string `json:"apiVersion"`
	ModelID     string `json:"modelId"`
	Content     string `json:"content"`
	Pages       []page `json:"pages"`
	ReadResults []page `json:"readResults"`
}

type serviceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// page covers both the v4 pages[] entries and the v3.2 readResults[] entries
type page struct {
	PageNumber int     `json:"pageNumber"`
	Page       int     `json:"page"`
	Angle      float64 `json:"angle"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Unit       string  `json:"unit"`
	Words      []item  `json:"words"`
	Lines      []item  `json:"lines"`
}

// item is a line or word in either API version
type item struct {
	Content     string    `json:"content"`
	Text        string    `json:"text"`
	Polygon     []float64 `json:"polygon"`
	BoundingBox []float64 `json:"boundingBox"`
	Confidence  float64   `json:"confidence"`
	Span        *span     `json:"span"`
	Spans       []span    `json:"spans"`
	Words       []item    `json:"words"`
}

type span struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

func (i item) text() string {
	if i.Content != "" {
		return i.Content
	}
	return i.Text
}

func (i item) polygon() ocr.Polygon {
	if len(i.Polygon) > 0 {
		return ocr.Polygon(i.Polygon)
	}
	return ocr.Polygon(i.BoundingBox)
}

func (i item) span() ocr.Span {
	if i.Span == nil {
		return ocr.Span{}
	}
	return ocr.Span{Offset: i.Span.Offset, Length: i.Span.Length}
}

func (p page) number(fallback int) int {
	switch {
	case p.PageNumber > 0:
		return p.PageNumber
	case p.Page > 0:
		return p.Page
	default:
		return fallback
	}
}

var utf8BOM = []byte("\xef\xbb\xbf")

// ParseResult decodes an Azure Document Intelligence (or legacy Read API)
// analyze result into the OCR result model.
func ParseResult(raw []byte) (*ocr.Result, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var body analyzeBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: decode analyze result: %v", ocr.ErrService, err)
	}

	pages := pagesOf(body)
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: analyze result contains no pages", ocr.ErrService)
	}

	result := &ocr.Result{
		Service: ServiceName,
		Pages:   make([]ocr.Page, 0, len(pages)),
	}
	for i, p := range pages {
		result.Pages = append(result.Pages, convertPage(p, i+1))
	}
	return result, nil
}

func pagesOf(body analyzeBody) []page {
	if len(body.Pages) > 0 {
		return body.Pages
	}
	if ar := body.AnalyzeResult; ar != nil {
		if len(ar.Pages) > 0 {
			return ar.Pages
		}
		if len(ar.ReadResults) > 0 {
			return ar.ReadResults
		}
	}
	return body.ReadResults
}

func convertPage(p page, fallbackNumber int) ocr.Page {
	out := ocr.Page{
		Number: p.number(fallbackNumber),
		Width:  p.Width,
		Height: p.Height,
		Unit:   strings.ToLower(p.Unit),
		Angle:  p.Angle,
		Lines:  make([]ocr.Line, 0, len(p.Lines)),
	}

	assigned := make([]bool, len(p.Words))
	for li, l := range p.Lines {
		line := ocr.Line{
			Index:   li,
			Text:    l.text(),
			Polygon: l.polygon(),
		}

		// v3.2 nests words under lines; v4 links them through spans
		words := l.Words
		if len(words) == 0 {
			words = wordsInSpans(p.Words, l.Spans, assigned)
		}

		for wi, w := range words {
			line.Words = append(line.Words, ocr.Word{
				ID:         ocr.WordID{Line: li, Word: wi},
				Text:       w.text(),
				Polygon:    w.polygon(),
				Confidence: w.Confidence,
				Span:       w.span(),
			})
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}

// wordsInSpans returns the page words whose offset falls within one of the
// line spans. Each word is handed out once.
func wordsInSpans(words []item, spans []span, assigned []bool) []item {
	var out []item
	for i, w := range words {
		if assigned[i] || w.Span == nil {
			continue
		}
		for _, s := range spans {
			if w.Span.Offset >= s.Offset && w.Span.Offset < s.Offset+s.Length {
				out = append(out, w)
				assigned[i] = true
				break
			}
		}
	}
	return out
}
