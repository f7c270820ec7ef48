package batch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gardar/furiocr/pkg/furigana"
	"github.com/gardar/furiocr/pkg/pdfocr"
)

// Mode selects what a run produces for each PDF
type Mode string

const (
	ModeOCR      Mode = "ocr"      // Run OCR and cache the service output only
	ModeText     Mode = "text"     // Write the reduced JSON of the furigana-free text
	ModeFurigana Mode = "furigana" // Rebuild the PDF with a clean text layer, plus the reduced JSON
	ModeStrip    Mode = "strip"    // Remove every text layer, keeping the page images
)

// ParseMode converts a configuration string into a Mode
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeOCR, ModeText, ModeFurigana, ModeStrip:
		return m, nil
	case "":
		return ModeFurigana, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected ocr, text, furigana or strip)", s)
	}
}

// Config holds the settings of one batch run
type Config struct {
	InputDir  string // Directory scanned for *.pdf
	OutputDir string // Where outputs are written; defaults to InputDir/output
	Mode      Mode
	MaxFiles  int  // 0 = all
	Force     bool // Ignore cached results and run OCR again
	WriteHOCR bool // Also write the furigana-free text as hOCR
	HOCRLang  string
	InPlace   bool // Strip mode: replace the input PDF instead of writing to OutputDir
	Backup    bool // Strip mode in place: keep the original as <name>.bak.pdf

	Furigana furigana.Options
	PDF      pdfocr.Config
}

// DefaultConfig returns the settings used when none are given
func DefaultConfig() Config {
	return Config{
		Mode:     ModeFurigana,
		HOCRLang: "ja",
		Backup:   true,
		Furigana: furigana.DefaultOptions(),
		PDF:      pdfocr.DefaultConfig(),
	}
}

// Validate fills the output directory default and checks the settings
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("input directory must be set")
	}
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.Mode == "" {
		c.Mode = ModeFurigana
	}
	if c.MaxFiles < 0 {
		return fmt.Errorf("max files must not be negative, got %d", c.MaxFiles)
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.InputDir, "output")
	}
	if c.Mode != ModeStrip || !c.InPlace {
		in, err := filepath.Abs(c.InputDir)
		if err != nil {
			return err
		}
		out, err := filepath.Abs(c.OutputDir)
		if err != nil {
			return err
		}
		if in == out {
			return fmt.Errorf("output directory must differ from the input directory")
		}
	}
	if c.Mode == ModeText || c.Mode == ModeFurigana {
		if err := c.Furigana.Validate(); err != nil {
			return fmt.Errorf("invalid furigana options: %w", err)
		}
	}
	return nil
}
