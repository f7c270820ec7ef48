package pdfocr

import (
	"fmt"

	"codeberg.org/go-pdf/fpdf"

	"github.com/gardar/furiocr/pkg/furigana"
)

// baseFontSize is the size strings are measured at before scaling to their box
const baseFontSize = 10.0

// drawTextLayer draws the clean lines of one page onto its own layer and
// returns the number of runes the font could not cover.
func drawTextLayer(
	pdf *fpdf.Fpdf,
	lines []furigana.CleanLine,
	config Config,
	pageNum int,
	transform func(x, y float64) (float64, float64),
) int {
	layer := pdf.AddLayer(fmt.Sprintf("%s (Page %d)", config.LayerName, pageNum), true)
	pdf.BeginLayer(layer)
	pdf.SetFont(config.Font.Name, "", baseFontSize)

	if config.Debug {
		pdf.SetTextColor(255, 0, 0) // highlight text in red
		pdf.SetDrawColor(255, 0, 0)
	} else {
		pdf.SetAlpha(0.0, "Normal") // hide text from normal view
	}

	missing := 0
	for _, line := range lines {
		if line.Empty {
			continue
		}
		missing += config.Font.Missing(line.Text)
		drawLine(pdf, line, transform, config)
	}

	if !config.Debug {
		pdf.SetAlpha(1.0, "Normal")
	}
	pdf.EndLayer()
	return missing
}

// drawLine renders one line as a single run stretched over its box. Vertical
// lines run top to bottom along the box height.
func drawLine(pdf *fpdf.Fpdf, line furigana.CleanLine, transform func(x, y float64) (float64, float64), config Config) {
	x1, y1 := transform(line.Box.X1, line.Box.Y1)
	x2, y2 := transform(line.Box.X2, line.Box.Y2)
	width, height := x2-x1, y2-y1
	if width <= 0 || height <= 0 {
		return
	}

	length, thickness := width, height
	if line.Vertical {
		length, thickness = height, width
	}

	pdf.SetFontSize(baseFontSize)
	size := thickness
	if strWidth := pdf.GetStringWidth(line.Text); strWidth > 0 {
		size = baseFontSize * length / strWidth
	}
	pdf.SetFontSize(size)
	ascent := size * config.Font.AscentRatio

	if line.Vertical {
		pdf.TransformBegin()
		pdf.TransformRotate(-90, x2, y1)
		pdf.Text(x2, y1+ascent, line.Text)
		pdf.TransformEnd()
	} else {
		pdf.Text(x1, y1+ascent, line.Text)
	}

	if config.Debug {
		pdf.Rect(x1, y1, width, height, "D")
	}
}
