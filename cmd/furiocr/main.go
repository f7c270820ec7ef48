// furiocr removes furigana from OCR'd Japanese documents.
//
// Usage:
//
//	furiocr run [input-dir] [flags]
//	furiocr strip [input-dir] [flags]
//
// The run command OCRs every PDF in the input directory (Azure Document
// Intelligence by default, Google Document AI or Tesseract on request),
// caches the raw result next to each PDF and, depending on --mode, writes
// the service's searchable PDF (ocr), a reduced JSON of the clean text
// (text) or a rebuilt PDF with a furigana-free text layer plus the JSON
// (furigana). The strip command removes every text layer, keeping the
// page images.
//
// Credentials are read from the environment or a .env file:
//
//	AZURE_DOCINTEL_ENDPOINT          Document Intelligence endpoint
//	AZURE_DOCINTEL_KEY               Document Intelligence subscription key
//	GOOGLE_APPLICATION_CREDENTIALS   Service account key for Document AI
//	LOG_LEVEL                        DEBUG, INFO, WARN or ERROR
//
// Example:
//
//	furiocr run ./scans --mode furigana --font NotoSansJP-Regular.ttf --hocr
//	furiocr strip ./scans --in-place
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("Error loading .env file", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := fang.Execute(ctx, rootCmd, fang.WithVersion(version)); err != nil {
		stop()
		os.Exit(1)
	}
}
