package gdocai

import (
	"fmt"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/furiocr/pkg/ocr"
)

// ResultFromProto converts a Document AI response into the OCR result model.
// Tokens are assigned to the line whose text anchor contains them.
func ResultFromProto(doc *documentaipb.Document) (*ocr.Result, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%w: document contains no pages", ocr.ErrService)
	}

	result := &ocr.Result{Service: ServiceName}
	for i, page := range doc.Pages {
		result.Pages = append(result.Pages, convertPage(page, doc.Text, i+1))
	}
	return result, nil
}

func convertPage(page *documentaipb.Document_Page, fullText string, fallbackNumber int) ocr.Page {
	out := ocr.Page{Number: int(page.PageNumber)}
	if out.Number == 0 {
		out.Number = fallbackNumber
	}
	if dim := page.Dimension; dim != nil {
		out.Width = float64(dim.Width)
		out.Height = float64(dim.Height)
		out.Unit = unitFromDimension(dim.Unit)
	}

	assigned := make([]bool, len(page.Tokens))
	for li, line := range page.Lines {
		ocrLine := ocr.Line{
			Index:   li,
			Text:    strings.TrimSpace(textFromLayout(line.Layout, fullText)),
			Polygon: polygonFromLayout(line.Layout, page.Dimension),
		}

		for ti, token := range page.Tokens {
			if assigned[ti] || !isElementInParent(token.Layout, line.Layout) {
				continue
			}
			assigned[ti] = true
			ocrLine.Words = append(ocrLine.Words, convertToken(token, fullText, ocr.WordID{Line: li, Word: len(ocrLine.Words)}, page.Dimension))
		}
		out.Lines = append(out.Lines, ocrLine)
	}
	return out
}

func convertToken(token *documentaipb.Document_Page_Token, fullText string, id ocr.WordID, dim *documentaipb.Document_Page_Dimension) ocr.Word {
	// Token text carries its trailing break; the span covers the word only
	text := strings.TrimSpace(strings.ReplaceAll(textFromLayout(token.Layout, fullText), "\n", " "))

	word := ocr.Word{
		ID:      id,
		Text:    text,
		Polygon: polygonFromLayout(token.Layout, dim),
	}
	if token.Layout != nil {
		word.Confidence = float64(token.Layout.Confidence)
		if segs := token.Layout.GetTextAnchor().GetTextSegments(); len(segs) > 0 {
			word.Span = ocr.Span{Offset: int(segs[0].StartIndex), Length: len([]rune(text))}
		}
	}
	return word
}

// polygonFromLayout returns the bounding polygon in page units. Normalized
// vertices are scaled by the page dimension.
func polygonFromLayout(layout *documentaipb.Document_Page_Layout, dim *documentaipb.Document_Page_Dimension) ocr.Polygon {
	poly := layout.GetBoundingPoly()
	if poly == nil {
		return nil
	}
	if vs := poly.GetVertices(); len(vs) > 0 {
		out := make(ocr.Polygon, 0, 2*len(vs))
		for _, v := range vs {
			out = append(out, float64(v.X), float64(v.Y))
		}
		return out
	}
	nvs := poly.GetNormalizedVertices()
	if len(nvs) == 0 || dim == nil {
		return nil
	}
	out := make(ocr.Polygon, 0, 2*len(nvs))
	for _, v := range nvs {
		out = append(out, float64(v.X*dim.Width), float64(v.Y*dim.Height))
	}
	return out
}

func unitFromDimension(unit string) string {
	switch strings.ToLower(unit) {
	case "inch", "inches":
		return ocr.UnitInch
	default:
		return ocr.UnitPixel
	}
}

// isElementInParent reports whether the element's text lies within the parent's
func isElementInParent(elementLayout, parentLayout *documentaipb.Document_Page_Layout) bool {
	element := elementLayout.GetTextAnchor().GetTextSegments()
	parent := parentLayout.GetTextAnchor().GetTextSegments()
	if len(element) == 0 || len(parent) == 0 {
		return false
	}
	return element[0].StartIndex >= parent[0].StartIndex && element[0].EndIndex <= parent[0].EndIndex
}
