package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "furiocr",
	Short: "Remove furigana from OCR'd Japanese PDFs",
	Long: `furiocr runs OCR over a directory of scanned PDFs, drops the furigana
(ruby readings) from the recognized text and writes clean text, hOCR and
searchable PDFs whose invisible text layer holds the body text only.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		ll, err := cmd.Flags().GetString("log-level")
		if err != nil {
			return err
		}

		switch strings.ToUpper(ll) {
		case "DEBUG":
			level = slog.LevelDebug
		case "WARN":
			level = slog.LevelWarn
		case "ERROR":
			level = slog.LevelError
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		handler := slog.New(slog.NewTextHandler(os.Stdout, opts))
		slog.SetDefault(handler)

		return nil
	},
}

var configFile string

func init() {
	ll := os.Getenv("LOG_LEVEL")
	if ll == "" {
		ll = "INFO"
	}
	rootCmd.PersistentFlags().String("log-level", ll, "The logging level for the command")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the config YAML file (default furiocr.yml when present)")
}
