package docintel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gardar/furiocr/pkg/ocr"
)

const succeededBody = `{
  "status": "succeeded",
  "analyzeResult": {
    "apiVersion": "2024-11-30",
    "modelId": "prebuilt-read",
    "content": "電車",
    "pages": [{
      "pageNumber": 1, "angle": 0, "width": 8.5, "height": 11, "unit": "inch",
      "words": [
        {"content": "電", "polygon": [1,1,2,1,2,2,1,2], "confidence": 0.99, "span": {"offset": 0, "length": 1}},
        {"content": "車", "polygon": [2,1,3,1,3,2,2,2], "confidence": 0.98, "span": {"offset": 1, "length": 1}}
      ],
      "lines": [{"content": "電車", "polygon": [1,1,3,1,3,2,1,2], "spans": [{"offset": 0, "length": 2}]}]
    }]
  }
}`

// fakeService scripts the statuses returned by successive polls
type fakeService struct {
	mu        sync.Mutex
	statuses  []string
	polls     int
	submitted int
	keys      []string
	server    *httptest.Server
}

func newFakeService(t *testing.T, statuses ...string) *fakeService {
	f := &fakeService{statuses: statuses}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeService) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, r.Header.Get("Ocp-Apim-Subscription-Key"))

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":analyze"):
		io.Copy(io.Discard, r.Body)
		f.submitted++
		w.Header().Set("Operation-Location", f.server.URL+"/documentintelligence/documentModels/prebuilt-read/analyzeResults/abc?api-version=2024-11-30")
		w.WriteHeader(http.StatusAccepted)
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/abc/pdf"):
		w.Write([]byte("%PDF-1.7 searchable"))
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/abc"):
		status := "running"
		if f.polls < len(f.statuses) {
			status = f.statuses[f.polls]
		}
		f.polls++
		switch status {
		case "succeeded":
			w.Write([]byte(succeededBody))
		case "failed":
			w.Write([]byte(`{"status":"failed","error":{"code":"InvalidContent","message":"corrupt file"}}`))
		case "throttled":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			fmt.Fprintf(w, `{"status":%q}`, status)
		}
	default:
		http.NotFound(w, r)
	}
}

// newTestClient returns a client whose sleeps are recorded instead of taken
func newTestClient(t *testing.T, endpoint string, modify func(*Config)) (*Client, *[]time.Duration) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.Key = "secret-key"
	cfg.PollInterval = time.Second
	cfg.MaxWait = 10 * time.Second
	if modify != nil {
		modify(&cfg)
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	var sleeps []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return c, &sleeps
}

func TestRecognize_RunningThenSucceeded(t *testing.T) {
	svc := newFakeService(t, "running", "running", "running", "succeeded")
	c, sleeps := newTestClient(t, svc.server.URL, nil)

	analysis, err := c.Recognize(context.Background(), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	if len(*sleeps) != 3 {
		t.Errorf("Expected 3 poll intervals, got %d", len(*sleeps))
	}
	if svc.polls != 4 {
		t.Errorf("Expected 4 polls, got %d", svc.polls)
	}
	if svc.submitted != 1 {
		t.Errorf("Expected 1 submission, got %d", svc.submitted)
	}
	for _, k := range svc.keys {
		if k != "secret-key" {
			t.Errorf("Expected subscription key on every request, got %q", k)
		}
	}

	if analysis.Result == nil || len(analysis.Result.Pages) != 1 {
		t.Fatalf("Expected 1 parsed page, got %+v", analysis.Result)
	}
	if got := analysis.Result.Pages[0].Lines[0].Text; got != "電車" {
		t.Errorf("Expected line text 電車, got %q", got)
	}
	if analysis.PDF != nil {
		t.Error("Expected no PDF when FetchPDF is off")
	}
	if !strings.Contains(string(analysis.Raw), `"succeeded"`) {
		t.Error("Expected raw body of the successful poll")
	}
}

func TestRecognize_FetchPDF(t *testing.T) {
	svc := newFakeService(t, "succeeded")
	c, _ := newTestClient(t, svc.server.URL, func(cfg *Config) { cfg.FetchPDF = true })

	analysis, err := c.Recognize(context.Background(), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if string(analysis.PDF) != "%PDF-1.7 searchable" {
		t.Errorf("Unexpected PDF bytes %q", analysis.PDF)
	}
}

func TestRecognize_Timeout(t *testing.T) {
	svc := newFakeService(t) // always running
	c, sleeps := newTestClient(t, svc.server.URL, func(cfg *Config) {
		cfg.PollInterval = time.Second
		cfg.MaxWait = 5 * time.Second
	})

	_, err := c.Recognize(context.Background(), []byte("%PDF-1.4"))
	if !errors.Is(err, ocr.ErrAnalysisTimeout) {
		t.Fatalf("Expected ErrAnalysisTimeout, got %v", err)
	}
	if ocr.Kind(err) != "AnalysisTimeout" {
		t.Errorf("Expected kind AnalysisTimeout, got %s", ocr.Kind(err))
	}
	if len(*sleeps) != 5 {
		t.Errorf("Expected 5 poll intervals before giving up, got %d", len(*sleeps))
	}
}

func TestRecognize_Failed(t *testing.T) {
	svc := newFakeService(t, "running", "failed")
	c, _ := newTestClient(t, svc.server.URL, nil)

	_, err := c.Recognize(context.Background(), []byte("%PDF-1.4"))
	if !errors.Is(err, ocr.ErrAnalysisFailed) {
		t.Fatalf("Expected ErrAnalysisFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "corrupt file") {
		t.Errorf("Expected service message in error, got %v", err)
	}
}

func TestRecognize_ThrottledPollKeepsWaiting(t *testing.T) {
	svc := newFakeService(t, "throttled", "running", "succeeded")
	c, sleeps := newTestClient(t, svc.server.URL, nil)

	if _, err := c.Recognize(context.Background(), []byte("%PDF-1.4")); err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if len(*sleeps) != 2 {
		t.Errorf("Expected 2 poll intervals, got %d", len(*sleeps))
	}
}

func TestSubmit_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"401","message":"Access denied due to invalid subscription key"}}`))
	}))
	defer server.Close()

	c, _ := newTestClient(t, server.URL, nil)
	_, err := c.Recognize(context.Background(), []byte("%PDF-1.4"))
	if !errors.Is(err, ocr.ErrService) {
		t.Fatalf("Expected ErrService, got %v", err)
	}
	var se *ocr.ServiceError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected ServiceError with status 401, got %v", err)
	}
}

func TestSubmit_URL(t *testing.T) {
	var gotPath, gotQuery, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotType = r.URL.Path, r.URL.RawQuery, r.Header.Get("Content-Type")
		w.Header().Set("Operation-Location", "/documentintelligence/documentModels/prebuilt-read/analyzeResults/xyz")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	c, _ := newTestClient(t, server.URL+"/", func(cfg *Config) { cfg.FetchPDF = true })
	job, err := c.Submit(context.Background(), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if gotPath != "/documentintelligence/documentModels/prebuilt-read:analyze" {
		t.Errorf("Unexpected path %s", gotPath)
	}
	if !strings.Contains(gotQuery, "api-version=2024-11-30") || !strings.Contains(gotQuery, "output=pdf") {
		t.Errorf("Unexpected query %s", gotQuery)
	}
	if gotType != "application/pdf" {
		t.Errorf("Expected application/pdf, got %s", gotType)
	}
	if !strings.HasPrefix(job.OperationURL, server.URL) {
		t.Errorf("Expected relative operation location to be resolved, got %s", job.OperationURL)
	}
	if job.Poller.State() != StateSubmitted {
		t.Errorf("Expected submitted state, got %s", job.Poller.State())
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing key", func(c *Config) { c.Key = "" }, true},
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }, true},
		{"zero interval", func(c *Config) { c.PollInterval = 0 }, true},
		{"wait shorter than interval", func(c *Config) { c.MaxWait = time.Second; c.PollInterval = 2 * time.Second }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Endpoint = "https://example.cognitiveservices.azure.com"
			cfg.Key = "k"
			tt.modify(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
