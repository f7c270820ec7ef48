//go:build tesseract

package tesseract

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// gosseractEngine runs Tesseract in-process through gosseract
type gosseractEngine struct{}

func newEngine() (engine, error) {
	return gosseractEngine{}, nil
}

// HOCR recognizes one page image with a fresh client
func (gosseractEngine) HOCR(image []byte, languages []string) (string, error) {
	c := gosseract.NewClient()
	defer c.Close()

	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	out, err := c.HOCRText()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return out, nil
}
