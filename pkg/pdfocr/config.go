package pdfocr

import (
	"log/slog"
)

// Config holds user options for writing the OCR text layer
type Config struct {
	LayerName string       // Base name of OCR layer (page number will be appended)
	Debug     bool         // Draw the text in red with its boxes instead of invisible
	Font      *Font        // Font for the text layer, required when there is text to write
	Logger    *slog.Logger // nil = slog.Default()
}

// DefaultConfig returns a config with sensible defaults and no font loaded
func DefaultConfig() Config {
	return Config{
		LayerName: "OCR Text", // Will be formatted as "OCR Text (Page X)" in the final PDF
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
