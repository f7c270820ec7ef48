package gdocai

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/furiocr/pkg/furigana"
	"github.com/gardar/furiocr/pkg/ocr"
)

func layout(start, end int64, x1, y1, x2, y2 float32) *documentaipb.Document_Page_Layout {
	return &documentaipb.Document_Page_Layout{
		TextAnchor: &documentaipb.Document_TextAnchor{
			TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: start, EndIndex: end}},
		},
		Confidence: 0.9,
		BoundingPoly: &documentaipb.BoundingPoly{
			NormalizedVertices: []*documentaipb.NormalizedVertex{
				{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2},
			},
		},
	}
}

// testDocument holds "電車\nHello world\n" on a 100x100 pixel page
func testDocument() *documentaipb.Document {
	return &documentaipb.Document{
		Text: "電車\nHello world\n",
		Pages: []*documentaipb.Document_Page{{
			PageNumber: 1,
			Dimension:  &documentaipb.Document_Page_Dimension{Width: 100, Height: 100, Unit: "pixels"},
			Lines: []*documentaipb.Document_Page_Line{
				{Layout: layout(0, 3, 0, 0, 0.2, 0.1)},
				{Layout: layout(3, 15, 0, 0.25, 0.5, 0.375)},
			},
			Tokens: []*documentaipb.Document_Page_Token{
				{Layout: layout(0, 1, 0, 0, 0.1, 0.1)},
				{Layout: layout(1, 3, 0.1, 0, 0.2, 0.1)},
				{Layout: layout(3, 9, 0, 0.25, 0.25, 0.375)},
				{Layout: layout(9, 15, 0.25, 0.25, 0.5, 0.375)},
			},
		}},
	}
}

func TestResultFromProto(t *testing.T) {
	result, err := ResultFromProto(testDocument())
	if err != nil {
		t.Fatalf("ResultFromProto failed: %v", err)
	}

	page := result.Pages[0]
	if page.Width != 100 || page.Unit != ocr.UnitPixel {
		t.Errorf("Unexpected page %+v", page)
	}
	if len(page.Lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(page.Lines))
	}
	if page.Lines[0].Text != "電車" || len(page.Lines[0].Words) != 2 {
		t.Errorf("Unexpected first line %+v", page.Lines[0])
	}

	w := page.Lines[1].Words[1]
	if w.Text != "world" || w.ID != (ocr.WordID{Line: 1, Word: 1}) {
		t.Errorf("Unexpected word %+v", w)
	}
	box, err := w.Polygon.Bounds()
	if err != nil {
		t.Fatalf("Bad polygon: %v", err)
	}
	if box.X1 != 25 || box.Y1 != 25 || box.X2 != 50 || box.Y2 != 37.5 {
		t.Errorf("Unexpected box %+v", box)
	}

	lines, _ := furigana.Process(page, furigana.DefaultOptions())
	if lines[1].Text != "Hello world" {
		t.Errorf("Expected spacing to follow the text anchors, got %q", lines[1].Text)
	}
}

func TestResultFromProto_NoPages(t *testing.T) {
	if _, err := ResultFromProto(&documentaipb.Document{}); !errors.Is(err, ocr.ErrService) {
		t.Errorf("Expected ErrService, got %v", err)
	}
}

func TestRecognizer(t *testing.T) {
	r := &Recognizer{
		cfg: Config{ProjectID: "p", Location: "eu", ProcessorID: "x"},
		process: func(ctx context.Context, pdf []byte, cfg Config) (*documentaipb.Document, error) {
			return testDocument(), nil
		},
	}

	analysis, err := r.Recognize(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	cached, err := r.Parse(analysis.Raw)
	if err != nil {
		t.Fatalf("Failed to parse cached document: %v", err)
	}
	if cached.LineCount() != analysis.Result.LineCount() {
		t.Errorf("Expected %d lines from cache, got %d", analysis.Result.LineCount(), cached.LineCount())
	}
	if cached.Pages[0].Lines[1].Words[0].Text != "Hello" {
		t.Errorf("Unexpected cached word %+v", cached.Pages[0].Lines[1].Words[0])
	}
}

func TestRecognizer_ServiceError(t *testing.T) {
	r := &Recognizer{
		process: func(ctx context.Context, pdf []byte, cfg Config) (*documentaipb.Document, error) {
			return nil, errors.New("permission denied")
		},
	}
	if _, err := r.Recognize(context.Background(), nil); !errors.Is(err, ocr.ErrService) {
		t.Errorf("Expected ErrService, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	if _, err := New(Config{ProjectID: "p", Location: "us"}); err == nil {
		t.Error("Expected error without processor ID")
	}
	cfg := Config{ProjectID: "p", Location: "us", ProcessorID: "abc"}
	if got := cfg.processorName(); got != "projects/p/locations/us/processors/abc" {
		t.Errorf("Unexpected processor name %s", got)
	}
}
