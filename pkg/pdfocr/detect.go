package pdfocr

import (
	"fmt"
	"regexp"
	"strings"
)

// pdfName matches a literal string, allowing escaped parentheses
const pdfName = `\(((?:[^()\\]|\\.)+)\)`

var ocgPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/Type\s*/OCG\s*/Name\s*` + pdfName),
	regexp.MustCompile(`/OCG\s*<<[^>]*?/Name\s*` + pdfName),
	regexp.MustCompile(`<</Type/OCG/Name` + pdfName),
	regexp.MustCompile(`/Name\s*` + pdfName + `[\s\S]{1,50}/Type\s*/OCG`),
}

var fontPattern = regexp.MustCompile(`/Type\s*/Font\b`)

// detectPDFLayers attempts to find layer names in the raw PDF data.
func detectPDFLayers(pdfData []byte) []string {
	content := string(pdfData)

	var layers []string
	for _, regex := range ocgPatterns {
		for _, match := range regex.FindAllStringSubmatch(content, -1) {
			if len(match) >= 2 {
				layers = append(layers, unescapePDFString(match[1]))
			}
		}
	}

	// Check if any are UTF-16 BOM
	for i, layer := range layers {
		if len(layer) >= 2 && layer[0] == '\xfe' && layer[1] == '\xff' {
			if decoded, err := decodeUTF16BE([]byte(layer)); err == nil {
				layers[i] = decoded
			}
		}
	}

	// Deduplicate
	unique := make([]string, 0, len(layers))
	seen := make(map[string]bool)
	for _, l := range layers {
		if !seen[l] {
			seen[l] = true
			unique = append(unique, l)
		}
	}
	return unique
}

// LayerReport describes the text a PDF already carries
type LayerReport struct {
	Layers       []string // All detected optional content layers
	HasFonts     bool     // Font resources are present, so the pages draw text
	HasOCRLayer  bool     // A layer written by this package exists
	OCRLayerName string   // Name of the detected OCR layer (if any)
	Warnings     []string // Other layers that might contain OCR
}

// HasText reports whether the PDF carries any text that a rebuild would drop
func (r LayerReport) HasText() bool {
	return r.HasFonts || len(r.Layers) > 0
}

// DetectTextLayers scans a PDF for optional content layers and font
// resources. Compressed object streams are not inflated, so the report is a
// best effort.
func DetectTextLayers(pdfData []byte, ocrLayerName string) LayerReport {
	report := LayerReport{
		Layers:   detectPDFLayers(pdfData),
		HasFonts: fontPattern.Match(pdfData),
	}

	pageLayerPattern := regexp.MustCompile(fmt.Sprintf(`^%s\s*\(Page\s*\d+.*`, regexp.QuoteMeta(ocrLayerName)))
	for _, layer := range report.Layers {
		if layer == ocrLayerName || pageLayerPattern.MatchString(layer) {
			if !report.HasOCRLayer {
				report.HasOCRLayer = true
				report.OCRLayerName = layer
			}
			continue
		}
		if strings.Contains(strings.ToLower(layer), "ocr") {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("Existing layer detected that might contain OCR: %s", layer))
		}
	}
	return report
}
