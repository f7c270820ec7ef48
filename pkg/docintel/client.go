// Package docintel submits PDFs to Azure AI Document Intelligence and waits
// for the asynchronous analysis to finish.
//
// The analyze call returns 202 Accepted with an Operation-Location header.
// That URL is polled at a fixed interval until the service reports
// "succeeded" or "failed", or until the configured maximum wait is used up.
// The wait is modelled by Poller, an explicit state machine.
//
// Main Functions:
//
// - Client.Recognize: submit, wait and (optionally) fetch the searchable PDF
// - Client.Submit / Client.Wait: the individual steps
// - ParseResult: decode a saved analyze result into the OCR result model
package docintel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gardar/furiocr/pkg/ocr"
)

// ServiceName is the recognizer name used in configuration
const ServiceName = "azure"

// Config holds the connection settings for the service
type Config struct {
	Endpoint     string        // e.g. https://<resource>.cognitiveservices.azure.com
	Key          string        // Subscription key
	Model        string        // Analyze model ID
	APIVersion   string        // REST API version
	PollInterval time.Duration // Fixed wait between polls
	MaxWait      time.Duration // Total wait before giving up
	FetchPDF     bool          // Also request the searchable PDF rendition
	HTTPClient   *http.Client  // nil = client with a 60s timeout
	Logger       *slog.Logger  // nil = slog.Default()
}

// DefaultConfig returns a config with sensible defaults and no credentials
func DefaultConfig() Config {
	return Config{
		Model:        "prebuilt-read",
		APIVersion:   "2024-11-30",
		PollInterval: 2 * time.Second,
		MaxWait:      5 * time.Minute,
	}
}

// Validate checks that the config can reach the service
func (c Config) Validate() error {
	if c.Endpoint == "" || c.Key == "" {
		return fmt.Errorf("azure endpoint and key must be set")
	}
	if _, err := url.Parse(c.Endpoint); err != nil {
		return fmt.Errorf("invalid azure endpoint: %w", err)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.MaxWait < c.PollInterval {
		return fmt.Errorf("max wait (%s) must be at least the poll interval (%s)", c.MaxWait, c.PollInterval)
	}
	return nil
}

// Client talks to one Document Intelligence resource
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a client from a validated config
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger, sleep: sleepContext}, nil
}

// Name returns the recognizer name
func (c *Client) Name() string { return ServiceName }

// ResultExt is the extension of cached results
func (c *Client) ResultExt() string { return ".json" }

// Parse decodes a cached analyze result
func (c *Client) Parse(raw []byte) (*ocr.Result, error) { return ParseResult(raw) }

// Job is a submitted analysis
type Job struct {
	OperationURL string
	Poller       *Poller
}

// Recognize runs the whole analysis for one PDF
func (c *Client) Recognize(ctx context.Context, pdf []byte) (*ocr.Analysis, error) {
	job, err := c.Submit(ctx, pdf)
	if err != nil {
		return nil, err
	}

	raw, err := c.Wait(ctx, job)
	if err != nil {
		return nil, err
	}

	result, err := ParseResult(raw)
	if err != nil {
		return nil, err
	}

	analysis := &ocr.Analysis{Raw: raw, Result: result}
	if c.cfg.FetchPDF {
		// the text result is still usable when the rendition is unavailable
		pdfBytes, err := c.FetchPDF(ctx, job)
		if err != nil {
			c.logger.Warn("Searchable PDF not available", "err", err)
		} else {
			analysis.PDF = pdfBytes
		}
	}
	return analysis, nil
}

// Submit posts the PDF for analysis and returns the job to poll
func (c *Client) Submit(ctx context.Context, pdf []byte) (*Job, error) {
	analyzeURL, err := c.analyzeURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, analyzeURL, bytes.NewReader(pdf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: submit: %v", ocr.ErrService, ocr.MaskSecrets(err.Error()))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return nil, ocr.NewServiceError("submit", resp.StatusCode, body)
	}

	location := resp.Header.Get("Operation-Location")
	if location == "" {
		return nil, ocr.NewServiceError("submit", resp.StatusCode, []byte("no Operation-Location header in response"))
	}
	opURL, err := c.resolve(location)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Analysis submitted", "operation", opURL, "bytes", len(pdf))
	return &Job{
		OperationURL: opURL,
		Poller:       NewPoller(c.cfg.PollInterval, c.cfg.MaxWait),
	}, nil
}

// Wait polls the job until it reaches a terminal state and returns the raw
// body of the successful poll. The first poll happens immediately.
func (c *Client) Wait(ctx context.Context, job *Job) ([]byte, error) {
	p := job.Poller
	for {
		status, body, err := c.poll(ctx, job.OperationURL)
		if err != nil {
			return nil, err
		}

		state := p.Observe(status)
		c.logger.Debug("Polled analysis", "status", status, "state", state, "elapsed", p.Elapsed())

		switch state {
		case StateSucceeded:
			return body, nil
		case StateFailed:
			return nil, fmt.Errorf("%w: %s", p.Err(), failureMessage(body))
		}

		wait, ok := p.Next()
		if !ok {
			return nil, p.Err()
		}
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
		p.Waited(wait)
	}
}

// poll fetches the operation status. Throttling and server errors count as
// "still running" so the job keeps its place in the state machine.
func (c *Client) poll(ctx context.Context, opURL string) (string, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("%w: poll: %v", ocr.ErrService, ocr.MaskSecrets(err.Error()))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("%w: read poll response: %v", ocr.ErrService, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		c.logger.Warn("Transient poll failure", "status", resp.StatusCode)
		return "", nil, nil
	case resp.StatusCode != http.StatusOK:
		return "", nil, ocr.NewServiceError("poll", resp.StatusCode, body)
	}

	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &status); err != nil || status.Status == "" {
		return "", nil, ocr.NewServiceError("poll", resp.StatusCode, []byte("response has no status"))
	}
	return status.Status, body, nil
}

// FetchPDF downloads the searchable PDF rendered for a finished job
func (c *Client) FetchPDF(ctx context.Context, job *Job) ([]byte, error) {
	u, err := url.Parse(job.OperationURL)
	if err != nil {
		return nil, fmt.Errorf("invalid operation URL: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/pdf"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch pdf: %v", ocr.ErrService, ocr.MaskSecrets(err.Error()))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf: %v", ocr.ErrService, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ocr.NewServiceError("fetch pdf", resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) analyzeURL() (string, error) {
	base := strings.TrimSuffix(c.cfg.Endpoint, "/")
	u, err := url.Parse(fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze", base, c.cfg.Model))
	if err != nil {
		return "", fmt.Errorf("invalid azure endpoint: %w", err)
	}
	q := u.Query()
	q.Set("api-version", c.cfg.APIVersion)
	if c.cfg.FetchPDF {
		q.Set("output", "pdf")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// resolve turns a possibly relative Operation-Location into an absolute URL
func (c *Client) resolve(location string) (string, error) {
	loc, err := url.Parse(location)
	if err != nil {
		return "", ocr.NewServiceError("submit", 0, []byte("invalid Operation-Location: "+location))
	}
	if loc.IsAbs() {
		return loc.String(), nil
	}
	base, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid azure endpoint: %w", err)
	}
	return base.ResolveReference(loc).String(), nil
}

// failureMessage extracts the service's error message from a failed poll
func failureMessage(body []byte) string {
	var b analyzeBody
	if err := json.Unmarshal(body, &b); err == nil && b.Error != nil {
		return fmt.Sprintf("%s: %s", b.Error.Code, b.Error.Message)
	}
	return "no error details"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
