package pdfocr

import (
	"bytes"
	"fmt"

	"codeberg.org/go-pdf/fpdf"

	"github.com/gardar/furiocr/pkg/furigana"
	"github.com/gardar/furiocr/pkg/ocr"
)

// Rebuild writes a new PDF made of the page images of pdf with the clean
// text of each page on an invisible layer. result and lines are indexed by
// page; pages without OCR data get no layer. Text layers present in the
// source are dropped because only images are carried over.
func Rebuild(pdf []byte, result *ocr.Result, lines [][]furigana.CleanLine, config Config) ([]byte, error) {
	logger := config.logger()

	layers := DetectTextLayers(pdf, config.LayerName)
	if layers.HasText() {
		logger.Info("Removing existing text layer", "layers", layers.Layers, "fonts", layers.HasFonts)
	}
	for _, warning := range layers.Warnings {
		logger.Warn(warning)
	}

	images, err := ExtractPageImages(pdf, logger)
	if err != nil {
		return nil, err
	}

	hasText := result != nil && len(lines) > 0
	if hasText && config.Font == nil {
		return nil, fmt.Errorf("a font is required to write the text layer")
	}

	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetAutoPageBreak(false, 0)
	if hasText {
		doc.AddUTF8FontFromBytes(config.Font.Name, "", config.Font.Data)
	}

	for i, img := range images {
		w, h := img.Width, img.Height
		doc.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		if img.Data != nil {
			imageName := fmt.Sprintf("img%d", i)
			opts := fpdf.ImageOptions{ReadDpi: false, ImageType: img.Type}
			doc.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(img.Data))
			if img.Distorted() {
				logger.Warn("Page image is stretched to fill the page", "page", img.Page,
					"pixels", fmt.Sprintf("%dx%d", img.PixelWidth, img.PixelHeight),
					"points", fmt.Sprintf("%gx%g", w, h))
			}
			doc.ImageOptions(imageName, 0, 0, w, h, false, opts, 0, "")
		}

		if !hasText || i >= len(result.Pages) || i >= len(lines) {
			continue
		}

		transform := pageTransform(result.Pages[i], w, h)
		missing := drawTextLayer(doc, lines[i], config, img.Page, transform)
		if missing > 0 {
			logger.Warn("Font has no glyph for some characters", "page", img.Page, "missing", missing, "font", config.Font.Name)
		}

		if err := doc.Error(); err != nil {
			return nil, fmt.Errorf("failed to draw OCR layer for page %d: %w", img.Page, err)
		}
	}

	// Generate final PDF
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Strip rebuilds the PDF from its page images alone, removing any text layer
func Strip(pdf []byte, config Config) ([]byte, error) {
	return Rebuild(pdf, nil, nil, config)
}
