package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gardar/furiocr/pkg/docintel"
	"github.com/gardar/furiocr/pkg/furigana"
	"github.com/gardar/furiocr/pkg/hocr"
	"github.com/gardar/furiocr/pkg/ocr"
	"github.com/gardar/furiocr/pkg/pdfocr"
)

// Suffixes of files written next to the inputs, never picked up as inputs
var skipSuffixes = []string{".bak.pdf", ".tmp.pdf", "_searchable.pdf"}

// ErrNoRecognizer is returned when a file has no cached result and no
// recognizer was configured to produce one
var ErrNoRecognizer = errors.New("no OCR service configured")

// Runner processes the PDFs of one input directory
type Runner struct {
	cfg     Config
	rec     ocr.Recognizer
	parsers []ocr.Parser
	logger  *slog.Logger
}

// New creates a runner. rec may be nil for strip mode or when every input
// already has a cached Azure (.json) or hOCR (.hocr) result.
func New(cfg Config, rec ocr.Recognizer, logger *slog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PDF.Logger == nil {
		cfg.PDF.Logger = logger
	}

	r := &Runner{cfg: cfg, rec: rec, logger: logger}
	if rec != nil {
		r.parsers = []ocr.Parser{rec}
	} else {
		r.parsers = []ocr.Parser{
			parser{ext: ".json", parse: docintel.ParseResult},
			parser{ext: ".hocr", parse: parseHOCR},
		}
	}
	return r, nil
}

// Run processes every PDF in the input directory, one at a time. A failing
// file is recorded in the report and the run moves on to the next one.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	var report Report

	files, err := r.discover()
	if err != nil {
		return report, err
	}
	r.logger.Info("Starting batch", "input", r.cfg.InputDir, "output", r.cfg.OutputDir, "mode", r.cfg.Mode, "files", len(files))

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		r.logger.Info("Processing file", "file", filepath.Base(path), "n", i+1, "of", len(files))
		report.add(r.ProcessFile(ctx, path))
	}

	r.logger.Info("Batch finished", "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

// discover lists the input PDFs in name order
func (r *Runner) discover() ([]string, error) {
	entries, err := os.ReadDir(r.cfg.InputDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ocr.ErrInputNotFound, r.cfg.InputDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		if e.IsDir() || !strings.HasSuffix(name, ".pdf") || hasSkipSuffix(name) {
			continue
		}
		files = append(files, filepath.Join(r.cfg.InputDir, e.Name()))
		if r.cfg.MaxFiles > 0 && len(files) == r.cfg.MaxFiles {
			break
		}
	}
	return files, nil
}

func hasSkipSuffix(name string) bool {
	for _, s := range skipSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// ProcessFile runs the configured mode over one PDF
func (r *Runner) ProcessFile(ctx context.Context, path string) (res FileResult) {
	start := time.Now()
	res.Path = path
	logger := r.logger.With("file", filepath.Base(path))

	res.Err = r.process(ctx, path, &res, logger)
	res.Duration = time.Since(start)

	if res.Err != nil {
		logger.Error("Failed to process file", "kind", res.Kind(), "err", res.Err)
	} else {
		logger.Info("File done", "outputs", len(res.Outputs), "cached", res.Cached, "duration", res.Duration.Round(time.Millisecond))
	}
	return res
}

func (r *Runner) process(ctx context.Context, path string, res *FileResult, logger *slog.Logger) error {
	pdf, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ocr.ErrInputNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	if r.cfg.Mode == ModeStrip {
		return r.strip(path, name, pdf, res)
	}

	result, servicePDF, err := r.recognize(ctx, path, name, pdf, res, logger)
	if err != nil {
		return err
	}

	if r.cfg.Mode == ModeOCR {
		if servicePDF != nil {
			return r.write(res, filepath.Join(r.cfg.OutputDir, name+"_searchable.pdf"), servicePDF)
		}
		return nil
	}

	pages, stats := furigana.ProcessResult(result, r.cfg.Furigana)
	res.Stats = stats
	logger.Info("Removed furigana", "lines", stats.Lines, "words", stats.Words, "furigana", stats.Furigana, "empty_lines", stats.EmptyLines)

	if r.cfg.Mode == ModeFurigana {
		out, err := pdfocr.Rebuild(pdf, result, pages, r.cfg.PDF)
		if err != nil {
			return fmt.Errorf("failed to rebuild PDF: %w", err)
		}
		if err := r.write(res, filepath.Join(r.cfg.OutputDir, name+"_searchable.pdf"), out); err != nil {
			return err
		}
	}

	data, err := NewDocument(base, pages).Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode text: %w", err)
	}
	if err := r.write(res, filepath.Join(r.cfg.OutputDir, name+".json"), data); err != nil {
		return err
	}

	if r.cfg.WriteHOCR {
		doc, err := hocr.GenerateHOCRDocument(hocr.FromClean(result, pages, r.cfg.HOCRLang))
		if err != nil {
			return fmt.Errorf("failed to generate hOCR: %w", err)
		}
		if err := r.write(res, filepath.Join(r.cfg.OutputDir, name+".hocr"), []byte(doc)); err != nil {
			return err
		}
	}
	return nil
}

// recognize loads the cached result next to the PDF, or runs OCR and caches
// its raw output there. The service PDF is only returned for fresh runs.
func (r *Runner) recognize(ctx context.Context, path, name string, pdf []byte, res *FileResult, logger *slog.Logger) (*ocr.Result, []byte, error) {
	dir := filepath.Dir(path)

	if !r.cfg.Force {
		for _, p := range r.parsers {
			cachePath := filepath.Join(dir, name+p.ResultExt())
			raw, err := os.ReadFile(cachePath)
			if err != nil {
				continue
			}
			result, err := p.Parse(raw)
			if err != nil {
				logger.Warn("Ignoring unreadable cached result", "cache", filepath.Base(cachePath), "err", err)
				continue
			}
			logger.Debug("Using cached result", "cache", filepath.Base(cachePath))
			res.Cached = true
			return result, nil, nil
		}
	}

	if r.rec == nil {
		return nil, nil, ErrNoRecognizer
	}

	logger.Info("Running OCR", "service", r.rec.Name())
	analysis, err := r.rec.Recognize(ctx, pdf)
	if err != nil {
		return nil, nil, err
	}
	if err := r.write(res, filepath.Join(dir, name+r.rec.ResultExt()), analysis.Raw); err != nil {
		return nil, nil, err
	}
	return analysis.Result, analysis.PDF, nil
}

func (r *Runner) strip(path, name string, pdf []byte, res *FileResult) error {
	out, err := pdfocr.Strip(pdf, r.cfg.PDF)
	if err != nil {
		return fmt.Errorf("failed to strip text layers: %w", err)
	}

	if !r.cfg.InPlace {
		return r.write(res, filepath.Join(r.cfg.OutputDir, name+".pdf"), out)
	}
	if r.cfg.Backup {
		if err := r.write(res, filepath.Join(filepath.Dir(path), name+".bak.pdf"), pdf); err != nil {
			return err
		}
	}
	return r.write(res, path, out)
}

func (r *Runner) write(res *FileResult, path string, data []byte) error {
	if err := writeFile(path, data); err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, path)
	r.logger.Debug("Wrote file", "path", path, "bytes", len(data))
	return nil
}

// parser reads cached results when no recognizer is configured
type parser struct {
	ext   string
	parse func([]byte) (*ocr.Result, error)
}

func (p parser) ResultExt() string                     { return p.ext }
func (p parser) Parse(raw []byte) (*ocr.Result, error) { return p.parse(raw) }

func parseHOCR(raw []byte) (*ocr.Result, error) {
	doc, err := hocr.ParseHOCR(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR: %w", err)
	}
	return hocr.ToResult(&doc), nil
}
