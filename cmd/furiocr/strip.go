package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gardar/furiocr/pkg/batch"
)

var stripCmd = &cobra.Command{
	Use:   "strip [input-dir]",
	Short: "Remove the text layers of a directory of PDFs",
	Long: `Rebuild every PDF in the input directory from its page images alone,
dropping any existing OCR text layer. Outputs go to the output directory,
or replace the inputs with --in-place (the originals are kept as
<name>.bak.pdf unless --no-backup is given).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStrip,
}

func init() {
	rootCmd.AddCommand(stripCmd)

	f := stripCmd.Flags()
	f.StringP("input", "i", "", "Input directory of PDFs")
	f.StringP("output", "o", "", "Output directory (default <input>/output)")
	f.Int("max-files", 0, "Process at most this many files (0 = all)")
	f.Bool("in-place", false, "Replace the input PDFs")
	f.Bool("no-backup", false, "Do not keep <name>.bak.pdf when stripping in place")
}

func runStrip(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath(configFile))
	if err != nil {
		return err
	}
	cfg.Mode = string(batch.ModeStrip)
	if err := applyStripFlags(&cfg, cmd.Flags(), args); err != nil {
		return err
	}

	logger := slog.Default()
	bc, err := cfg.batchConfig(logger)
	if err != nil {
		return err
	}
	runner, err := batch.New(bc, nil, logger)
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

func applyStripFlags(cfg *Config, f *pflag.FlagSet, args []string) error {
	// Flags are registered above, so lookups cannot fail
	if len(args) == 1 {
		cfg.InputDir = args[0]
	}
	if f.Changed("input") {
		cfg.InputDir, _ = f.GetString("input")
	}
	if f.Changed("output") {
		cfg.OutputDir, _ = f.GetString("output")
	}
	if f.Changed("max-files") {
		cfg.MaxFiles, _ = f.GetInt("max-files")
	}
	if f.Changed("in-place") {
		cfg.InPlace, _ = f.GetBool("in-place")
	}
	if noBackup, _ := f.GetBool("no-backup"); noBackup {
		cfg.Backup = false
	}
	if cfg.InputDir == "" {
		return errInputRequired
	}
	return nil
}
