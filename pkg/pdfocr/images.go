package pdfocr

import (
	"bytes"
	"fmt"
	_ "image/jpeg" // register JPEG for detectImageType
	"image/png"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/tiff"
)

// PageImage is the scanned image of one PDF page
type PageImage struct {
	Page   int     // Page number (1-based)
	Width  float64 // Page width in points
	Height float64 // Page height in points
	Data   []byte  // Encoded image, nil when the page has no usable image
	Type   string  // Image type understood by the PDF writer ("JPG", "PNG")

	PixelWidth  int // Image size in pixels
	PixelHeight int
}

// aspectTolerance is the relative difference between image and page aspect
// ratios above which the image is reported as distorted
const aspectTolerance = 0.02

// Distorted reports whether drawing the image over the full page changes its
// aspect ratio, which happens when the source placed it with margins or an
// offset.
func (p PageImage) Distorted() bool {
	if p.Data == nil || p.PixelWidth <= 0 || p.PixelHeight <= 0 || p.Width <= 0 || p.Height <= 0 {
		return false
	}
	img := float64(p.PixelWidth) / float64(p.PixelHeight)
	page := p.Width / p.Height
	return math.Abs(img-page)/page > aspectTolerance
}

func pdfcpuConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// ExtractPageImages returns one entry per page of the PDF with its size and
// its largest embedded image.
func ExtractPageImages(pdf []byte, logger *slog.Logger) ([]PageImage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("input PDF data is empty")
	}
	conf := pdfcpuConfig()

	dims, err := api.PageDims(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read page sizes: %w", err)
	}
	pages := make([]PageImage, len(dims))
	for i, d := range dims {
		pages[i] = PageImage{Page: i + 1, Width: d.Width, Height: d.Height}
	}

	extracted, err := api.ExtractImagesRaw(bytes.NewReader(pdf), nil, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	largest := make([]int, len(pages))
	for _, byObj := range extracted {
		for _, img := range byObj {
			idx := img.PageNr - 1
			if idx < 0 || idx >= len(pages) {
				continue
			}
			area := img.Width * img.Height
			if pages[idx].Data != nil && area <= largest[idx] {
				continue
			}

			data, typ, err := encodeForPDF(img.Reader, img.FileType)
			if err != nil {
				logger.Warn("Skipping page image", "page", img.PageNr, "type", img.FileType, "err", err)
				continue
			}
			pages[idx].Data, pages[idx].Type = data, typ
			pages[idx].PixelWidth, pages[idx].PixelHeight = img.Width, img.Height
			largest[idx] = area
		}
	}

	for _, p := range pages {
		if p.Data == nil {
			logger.Warn("Page has no usable image and will be blank", "page", p.Page)
		}
	}
	return pages, nil
}

// encodeForPDF returns the image in a format the PDF writer can place.
// TIFF (CCITT) images are re-encoded as PNG.
func encodeForPDF(r io.Reader, fileType string) ([]byte, string, error) {
	if r == nil {
		return nil, "", fmt.Errorf("image has no data")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	switch strings.ToLower(fileType) {
	case "jpg", "jpeg", "png":
		typ, err := detectImageType(data)
		if err != nil {
			return nil, "", err
		}
		if typ == "JPEG" {
			typ = "JPG"
		}
		return data, typ, nil
	case "tif", "tiff":
		img, err := tiff.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode tiff: %w", err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("failed to encode png: %w", err)
		}
		return buf.Bytes(), "PNG", nil
	default:
		return nil, "", fmt.Errorf("unsupported image type %q", fileType)
	}
}
