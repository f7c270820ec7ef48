package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gardar/furiocr/pkg/batch"
	"github.com/gardar/furiocr/pkg/docintel"
	"github.com/gardar/furiocr/pkg/furigana"
	"github.com/gardar/furiocr/pkg/gdocai"
	"github.com/gardar/furiocr/pkg/ocr"
	"github.com/gardar/furiocr/pkg/pdfocr"
	"github.com/gardar/furiocr/pkg/tesseract"
)

// Config is the YAML configuration file. Values from the environment and
// from flags are applied on top of it.
type Config struct {
	Service   string `yaml:"service"`
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`
	Mode      string `yaml:"mode"`
	MaxFiles  int    `yaml:"max_files"`
	Force     bool   `yaml:"force"`
	WriteHOCR bool   `yaml:"write_hocr"`
	HOCRLang  string `yaml:"hocr_lang"`
	InPlace   bool   `yaml:"in_place"`
	Backup    bool   `yaml:"backup"`

	Font      string `yaml:"font"`
	LayerName string `yaml:"layer_name"`
	Debug     bool   `yaml:"debug"`

	Azure      azureConfig      `yaml:"azure"`
	DocumentAI documentAIConfig `yaml:"documentai"`
	Tesseract  tesseractConfig  `yaml:"tesseract"`
	Furigana   furiganaConfig   `yaml:"furigana"`
}

type azureConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Key          string        `yaml:"key"`
	Model        string        `yaml:"model"`
	APIVersion   string        `yaml:"api_version"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxWait      time.Duration `yaml:"max_wait"`
	FetchPDF     bool          `yaml:"fetch_pdf"`
}

type documentAIConfig struct {
	ProjectID       string `yaml:"project_id"`
	Location        string `yaml:"location"`
	ProcessorID     string `yaml:"processor_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type tesseractConfig struct {
	Languages []string `yaml:"languages"`
}

// furiganaConfig mirrors furigana.Options with YAML names
type furiganaConfig struct {
	HeightRatio         float64 `yaml:"height_ratio"`
	TieMargin           float64 `yaml:"tie_margin"`
	OverlapRatio        float64 `yaml:"overlap_ratio"`
	Proximity           float64 `yaml:"proximity"`
	BenchmarkPercentile float64 `yaml:"benchmark_percentile"`
	VerticalAspect      float64 `yaml:"vertical_aspect"`
}

// defaultConfig returns the settings used when nothing is configured
func defaultConfig() Config {
	az := docintel.DefaultConfig()
	bc := batch.DefaultConfig()
	return Config{
		Service:   docintel.ServiceName,
		Mode:      string(bc.Mode),
		HOCRLang:  bc.HOCRLang,
		Backup:    bc.Backup,
		LayerName: bc.PDF.LayerName,
		Azure: azureConfig{
			Model:        az.Model,
			APIVersion:   az.APIVersion,
			PollInterval: az.PollInterval,
			MaxWait:      az.MaxWait,
		},
		Tesseract: tesseractConfig{Languages: tesseract.DefaultLanguages},
		Furigana:  furiganaConfig(furigana.DefaultOptions()),
	}
}

// loadConfig reads a YAML file over the defaults. An empty path skips the
// file.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnv overrides credentials with the environment
func (c *Config) applyEnv() {
	if v := os.Getenv("AZURE_DOCINTEL_ENDPOINT"); v != "" {
		c.Azure.Endpoint = v
	}
	if v := os.Getenv("AZURE_DOCINTEL_KEY"); v != "" {
		c.Azure.Key = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		c.DocumentAI.CredentialsFile = v
	}
}

// batchConfig resolves the settings of a run. The font is only loaded when
// the mode writes a text layer.
func (c Config) batchConfig(logger *slog.Logger) (batch.Config, error) {
	mode, err := batch.ParseMode(c.Mode)
	if err != nil {
		return batch.Config{}, err
	}

	bc := batch.DefaultConfig()
	bc.InputDir = c.InputDir
	bc.OutputDir = c.OutputDir
	bc.Mode = mode
	bc.MaxFiles = c.MaxFiles
	bc.Force = c.Force
	bc.WriteHOCR = c.WriteHOCR
	bc.HOCRLang = c.HOCRLang
	bc.InPlace = c.InPlace
	bc.Backup = c.Backup
	bc.Furigana = furigana.Options(c.Furigana)
	bc.PDF.LayerName = c.LayerName
	bc.PDF.Debug = c.Debug
	bc.PDF.Logger = logger

	if mode == batch.ModeFurigana {
		path, err := pdfocr.FindFont(c.Font)
		if err != nil {
			return batch.Config{}, err
		}
		font, err := pdfocr.LoadFont(path)
		if err != nil {
			return batch.Config{}, err
		}
		logger.Debug("Loaded font", "path", path, "ascent", font.AscentRatio)
		bc.PDF.Font = font
	}
	return bc, bc.Validate()
}

// recognizer builds every backend that is configured and picks the
// selected one. When the selected backend is not usable and the mode can
// work from cached results, nil is returned with a warning.
func (c Config) recognizer(mode batch.Mode, logger *slog.Logger) (ocr.Recognizer, error) {
	builders := []struct {
		name  string
		build func() (ocr.Recognizer, error)
	}{
		{docintel.ServiceName, func() (ocr.Recognizer, error) {
			return docintel.New(docintel.Config{
				Endpoint:     c.Azure.Endpoint,
				Key:          c.Azure.Key,
				Model:        c.Azure.Model,
				APIVersion:   c.Azure.APIVersion,
				PollInterval: c.Azure.PollInterval,
				MaxWait:      c.Azure.MaxWait,
				FetchPDF:     c.Azure.FetchPDF,
				Logger:       logger,
			})
		}},
		{gdocai.ServiceName, func() (ocr.Recognizer, error) {
			return gdocai.New(gdocai.Config(c.DocumentAI))
		}},
		{tesseract.ServiceName, func() (ocr.Recognizer, error) {
			return tesseract.New(tesseract.Config{Languages: c.Tesseract.Languages, Logger: logger})
		}},
	}

	registry := ocr.NewRegistry()
	unavailable := map[string]error{}
	for _, b := range builders {
		rec, err := b.build()
		if err != nil {
			unavailable[b.name] = err
			continue
		}
		registry.Register(rec)
	}

	rec, err := registry.Get(c.Service)
	if err == nil {
		return rec, nil
	}
	if cause, ok := unavailable[strings.ToLower(c.Service)]; ok {
		err = fmt.Errorf("%s is not configured: %w", c.Service, cause)
	}
	if mode == batch.ModeOCR {
		return nil, err
	}
	logger.Warn("OCR service unavailable, only cached results will be used", "err", err)
	return nil, nil
}

// defaultConfigFile is read when --config is not given and it exists
const defaultConfigFile = "furiocr.yml"

func configPath(flag string) string {
	if flag != "" {
		return flag
	}
	if _, err := os.Stat(defaultConfigFile); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return defaultConfigFile
}
