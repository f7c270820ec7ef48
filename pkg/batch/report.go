package batch

import (
	"fmt"
	"time"

	"github.com/gardar/furiocr/pkg/furigana"
	"github.com/gardar/furiocr/pkg/ocr"
)

// FileResult records what happened to one input PDF
type FileResult struct {
	Path     string
	Outputs  []string       // Files written, in order
	Cached   bool           // The OCR result came from a cache file
	Stats    furigana.Stats // Zero unless furigana removal ran
	Duration time.Duration
	Err      error
}

// OK reports whether the file was processed without error
func (r FileResult) OK() bool { return r.Err == nil }

// Kind names the error kind of a failed file, empty on success
func (r FileResult) Kind() string { return ocr.Kind(r.Err) }

// Report summarises a run
type Report struct {
	Files     []FileResult
	Succeeded int
	Failed    int
}

func (r *Report) add(res FileResult) {
	r.Files = append(r.Files, res)
	if res.OK() {
		r.Succeeded++
	} else {
		r.Failed++
	}
}

// Err returns a non-nil error when any file failed
func (r Report) Err() error {
	if r.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d files failed", r.Failed, len(r.Files))
}
