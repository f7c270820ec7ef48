//go:build !tesseract

package tesseract

import "errors"

// ErrNotEnabled is returned when Tesseract support was not compiled in.
// Rebuild with -tags tesseract to enable it.
var ErrNotEnabled = errors.New("tesseract support not enabled; rebuild with -tags tesseract")

func newEngine() (engine, error) {
	return nil, ErrNotEnabled
}
