package pdfocr

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/gardar/furiocr/pkg/ocr"
)

// normalizeCoords rescales OCR coords to the PDF coords.
func normalizeCoords(x, y, ocrW, ocrH, pdfW, pdfH float64) (float64, float64) {
	nx := (x / ocrW) * pdfW
	ny := (y / ocrH) * pdfH
	return nx, ny
}

// pageTransform maps OCR page coordinates onto a PDF page of the given size
// in points. Pages without dimensions fall back to the unit's physical size.
func pageTransform(page ocr.Page, pdfW, pdfH float64) func(x, y float64) (float64, float64) {
	if page.Width > 0 && page.Height > 0 {
		return func(x, y float64) (float64, float64) {
			return normalizeCoords(x, y, page.Width, page.Height, pdfW, pdfH)
		}
	}
	scale := page.PointsPerUnit()
	if scale == 0 {
		scale = 1
	}
	return func(x, y float64) (float64, float64) {
		return x * scale, y * scale
	}
}

func unescapePDFString(s string) string {
	s = strings.ReplaceAll(s, "\\(", "(")
	s = strings.ReplaceAll(s, "\\)", ")")
	s = strings.ReplaceAll(s, "\\\\", "\\")
	return s
}

// decodeUTF16BE decodes a PDF text string carrying a UTF-16BE byte order mark
func decodeUTF16BE(b []byte) (string, error) {
	if len(b) < 2 || b[0] != 0xFE || b[1] != 0xFF {
		return "", fmt.Errorf("no BOM detected, cannot confirm UTF-16BE")
	}
	dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return "", fmt.Errorf("invalid UTF-16BE: %w", err)
	}
	return string(out), nil
}

// detectImageType tries to figure out whether the data is PNG, JPEG, etc.
func detectImageType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image config: %w", err)
	}
	return strings.ToUpper(format), nil
}
