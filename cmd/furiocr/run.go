package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gardar/furiocr/pkg/batch"
)

var errInputRequired = errors.New("an input directory is required")

var runCmd = &cobra.Command{
	Use:   "run [input-dir]",
	Short: "OCR a directory of PDFs and remove furigana from the text",
	Long: `Run OCR over every PDF in the input directory and process the results.

Modes:
  ocr       cache the OCR result and the service's searchable PDF
  text      write <name>.json with the furigana-free text
  furigana  rebuild <name>_searchable.pdf with a clean text layer, plus the JSON

OCR results are cached next to each PDF and reused unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringP("input", "i", "", "Input directory of PDFs")
	f.StringP("output", "o", "", "Output directory (default <input>/output)")
	f.StringP("mode", "m", "furigana", "Mode: ocr, text or furigana")
	f.StringP("service", "s", "azure", "OCR service: azure, documentai or tesseract")
	f.Int("max-files", 0, "Process at most this many files (0 = all)")
	f.Bool("force", false, "Run OCR again even when a cached result exists")
	f.Bool("hocr", false, "Also write the clean text as hOCR")
	f.String("hocr-lang", "ja", "Language written to the hOCR output")
	f.String("font", "", "TrueType font for the text layer (default NotoSansJP-Regular.ttf)")
	f.String("layer-name", "OCR Text", "Base name of the text layer")
	f.Bool("debug", false, "Draw the text layer visibly with its boxes")
	f.String("endpoint", "", "Azure Document Intelligence endpoint")
	f.String("model", "prebuilt-read", "Azure analyze model")
	f.String("api-version", "2024-11-30", "Azure API version")
	f.Duration("poll-interval", 2*time.Second, "Wait between status polls")
	f.Duration("max-wait", 5*time.Minute, "Give up waiting for a result after this long")
	f.Bool("fetch-pdf", false, "Also download Azure's searchable PDF")
	f.StringSlice("lang", nil, "Tesseract languages (default jpn,jpn_vert)")
	f.Float64("height-ratio", 0.5, "Words smaller than this share of the body size can be furigana")
	f.Float64("vertical-aspect", 1.5, "Lines taller than this many widths are vertical")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath(configFile))
	if err != nil {
		return err
	}
	cfg.applyEnv()
	if err := applyRunFlags(&cfg, cmd.Flags(), args); err != nil {
		return err
	}

	logger := slog.Default()
	bc, err := cfg.batchConfig(logger)
	if err != nil {
		return err
	}
	if bc.Mode == batch.ModeStrip {
		return fmt.Errorf("use the strip command to remove text layers")
	}
	rec, err := cfg.recognizer(bc.Mode, logger)
	if err != nil {
		return err
	}

	runner, err := batch.New(bc, rec, logger)
	if err != nil {
		return err
	}
	report, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}
	printReport(cmd, report)
	return report.Err()
}

// applyRunFlags overrides the config with the flags given on the command line
func applyRunFlags(cfg *Config, f *pflag.FlagSet, args []string) error {
	if len(args) == 1 {
		cfg.InputDir = args[0]
	}

	var err error
	set := func(name string, apply func()) {
		if err == nil && f.Changed(name) {
			apply()
		}
	}
	str := func(name string, dst *string) { set(name, func() { *dst, err = f.GetString(name) }) }
	boolean := func(name string, dst *bool) { set(name, func() { *dst, err = f.GetBool(name) }) }
	dur := func(name string, dst *time.Duration) { set(name, func() { *dst, err = f.GetDuration(name) }) }
	float := func(name string, dst *float64) { set(name, func() { *dst, err = f.GetFloat64(name) }) }

	str("input", &cfg.InputDir)
	str("output", &cfg.OutputDir)
	str("mode", &cfg.Mode)
	str("service", &cfg.Service)
	set("max-files", func() { cfg.MaxFiles, err = f.GetInt("max-files") })
	boolean("force", &cfg.Force)
	boolean("hocr", &cfg.WriteHOCR)
	str("hocr-lang", &cfg.HOCRLang)
	str("font", &cfg.Font)
	str("layer-name", &cfg.LayerName)
	boolean("debug", &cfg.Debug)
	str("endpoint", &cfg.Azure.Endpoint)
	str("model", &cfg.Azure.Model)
	str("api-version", &cfg.Azure.APIVersion)
	dur("poll-interval", &cfg.Azure.PollInterval)
	dur("max-wait", &cfg.Azure.MaxWait)
	boolean("fetch-pdf", &cfg.Azure.FetchPDF)
	set("lang", func() { cfg.Tesseract.Languages, err = f.GetStringSlice("lang") })
	float("height-ratio", &cfg.Furigana.HeightRatio)
	float("vertical-aspect", &cfg.Furigana.VerticalAspect)

	if err != nil {
		return err
	}
	if cfg.InputDir == "" {
		return errInputRequired
	}
	return nil
}

func printReport(cmd *cobra.Command, report batch.Report) {
	out := cmd.OutOrStdout()
	for _, f := range report.Files {
		if f.OK() {
			continue
		}
		fmt.Fprintf(out, "FAILED %s [%s]: %v\n", f.Path, f.Kind(), f.Err)
	}
	fmt.Fprintf(out, "%d succeeded, %d failed\n", report.Succeeded, report.Failed)
}
