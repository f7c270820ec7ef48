// Package gdocai recognizes PDFs with Google Document AI.
//
// The processor returns a Document proto holding the full text plus pages
// of lines and tokens that point into that text through text anchors. The
// proto is cached as protojson and converted to the OCR result model, one
// word per token.
//
// Main Functions:
//
// - ProcessDocument: Sends a document to Google Document AI for processing
// - ResultFromProto: Converts a Document AI response into the OCR result model
// - Recognizer: ocr.Recognizer backed by a Document AI processor
//
// Usage Requirements:
//
// - Google Cloud project with Document AI API enabled
// - Document AI processor configured for OCR
// - A service account key file or application default credentials
package gdocai

import (
	"context"
	"fmt"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/gardar/furiocr/pkg/ocr"
)

// ServiceName is the recognizer name used in configuration
const ServiceName = "documentai"

// Recognizer implements ocr.Recognizer on top of a Document AI processor
type Recognizer struct {
	cfg     Config
	process func(ctx context.Context, pdf []byte, cfg Config) (*documentaipb.Document, error)
}

// New creates a recognizer for the configured processor
func New(cfg Config) (*Recognizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Recognizer{cfg: cfg, process: ProcessDocument}, nil
}

// Name returns the recognizer name
func (r *Recognizer) Name() string { return ServiceName }

// ResultExt keeps Document AI caches apart from Azure's .json results
func (r *Recognizer) ResultExt() string { return ".docai.json" }

// Parse decodes a cached Document proto
func (r *Recognizer) Parse(raw []byte) (*ocr.Result, error) {
	var doc documentaipb.Document
	if err := protojson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode document: %v", ocr.ErrService, err)
	}
	return ResultFromProto(&doc)
}

// Recognize processes the PDF and converts the response
func (r *Recognizer) Recognize(ctx context.Context, pdf []byte) (*ocr.Analysis, error) {
	doc, err := r.process(ctx, pdf, r.cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ocr.ErrService, err)
	}

	raw, err := ToJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	result, err := ResultFromProto(doc)
	if err != nil {
		return nil, err
	}
	return &ocr.Analysis{Raw: raw, Result: result}, nil
}
