// Package tesseract recognizes scanned PDFs locally with Tesseract.
//
// Page images are pulled out of the PDF, recognized one page at a time and
// the per-page hOCR is merged into a single document, which is what gets
// cached. Tesseract is linked through gosseract and needs the tesseract
// build tag:
//
//	go build -tags tesseract
//
// Vertical Japanese needs the jpn_vert traineddata next to jpn.
package tesseract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gardar/furiocr/pkg/hocr"
	"github.com/gardar/furiocr/pkg/ocr"
	"github.com/gardar/furiocr/pkg/pdfocr"
)

// ServiceName is the recognizer name used in configuration
const ServiceName = "tesseract"

// DefaultLanguages covers horizontal and vertical Japanese
var DefaultLanguages = []string{"jpn", "jpn_vert"}

// engine turns one page image into hOCR
type engine interface {
	HOCR(image []byte, languages []string) (string, error)
}

// Config holds recognizer settings
type Config struct {
	Languages []string     // Tesseract language codes
	Logger    *slog.Logger // nil = slog.Default()
}

// Recognizer implements ocr.Recognizer on top of Tesseract
type Recognizer struct {
	cfg    Config
	engine engine
	logger *slog.Logger
}

// New creates a recognizer. It fails when Tesseract support is not compiled in.
func New(cfg Config) (*Recognizer, error) {
	e, err := newEngine()
	if err != nil {
		return nil, err
	}
	return newRecognizer(cfg, e), nil
}

func newRecognizer(cfg Config, e engine) *Recognizer {
	if len(cfg.Languages) == 0 {
		cfg.Languages = DefaultLanguages
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{cfg: cfg, engine: e, logger: logger}
}

// Name returns the recognizer name
func (r *Recognizer) Name() string { return ServiceName }

// ResultExt is the extension of cached results
func (r *Recognizer) ResultExt() string { return ".hocr" }

// Parse decodes cached hOCR
func (r *Recognizer) Parse(raw []byte) (*ocr.Result, error) {
	doc, err := hocr.ParseHOCR(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR: %w", err)
	}
	result := hocr.ToResult(&doc)
	result.Service = ServiceName
	return result, nil
}

// Recognize runs Tesseract over every page image of the PDF. Pages without
// an image are kept as empty pages so page numbers stay aligned.
func (r *Recognizer) Recognize(ctx context.Context, pdf []byte) (*ocr.Analysis, error) {
	pages, err := pdfocr.ExtractPageImages(pdf, r.logger)
	if err != nil {
		return nil, err
	}

	merged := hocr.HOCR{
		Metadata: map[string]string{"ocr-system": "tesseract via gosseract"},
	}
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.Data == nil {
			merged.Pages = append(merged.Pages, hocr.Page{
				PageNumber: p.Page - 1,
				BBox:       hocr.NewBoundingBox(0, 0, p.Width, p.Height),
			})
			continue
		}

		out, err := r.engine.HOCR(p.Data, r.cfg.Languages)
		if err != nil {
			return nil, fmt.Errorf("%w: tesseract page %d: %v", ocr.ErrService, p.Page, err)
		}
		doc, err := hocr.ParseHOCR([]byte(out))
		if err != nil {
			return nil, fmt.Errorf("%w: tesseract page %d: %v", ocr.ErrService, p.Page, err)
		}
		for _, page := range doc.Pages {
			merged.Pages = append(merged.Pages, renumber(page, p.Page))
		}
		r.logger.Debug("Recognized page", "page", p.Page, "lines", len(doc.Pages[0].Lines))
	}

	raw, err := hocr.GenerateHOCRDocument(&merged)
	if err != nil {
		return nil, err
	}
	result := hocr.ToResult(&merged)
	result.Service = ServiceName
	return &ocr.Analysis{Raw: []byte(raw), Result: result}, nil
}

// renumber places a single-image hOCR page at its position in the PDF.
// Element IDs restart on every Tesseract call, so they are cleared and
// regenerated on output.
func renumber(page hocr.Page, pageNum int) hocr.Page {
	page.ID = ""
	page.PageNumber = pageNum - 1
	for li := range page.Lines {
		page.Lines[li].ID = ""
		for wi := range page.Lines[li].Words {
			page.Lines[li].Words[wi].ID = ""
		}
	}
	return page
}
