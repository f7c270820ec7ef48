package ocr

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Analysis is what a recognizer returns for one document
type Analysis struct {
	Raw    []byte  // Service output in its native cache format
	Result *Result // Parsed result
	PDF    []byte  // Searchable PDF rendered by the service, nil when not offered
}

// Parser turns a cached service output back into a Result
type Parser interface {
	// Parse decodes raw output previously returned in Analysis.Raw
	Parse(raw []byte) (*Result, error)
	// ResultExt is the file extension used to cache raw output (".json", ".hocr")
	ResultExt() string
}

// Recognizer is an OCR backend
type Recognizer interface {
	Parser
	// Name returns the backend's name
	Name() string
	// Recognize runs OCR over a PDF document
	Recognize(ctx context.Context, pdf []byte) (*Analysis, error)
}

// Registry maps backend names to recognizers
type Registry struct {
	recognizers map[string]Recognizer
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{recognizers: make(map[string]Recognizer)}
}

// Register adds a recognizer under its name
func (r *Registry) Register(rec Recognizer) {
	r.recognizers[strings.ToLower(rec.Name())] = rec
}

// Get retrieves a recognizer by name
func (r *Registry) Get(name string) (Recognizer, error) {
	rec, ok := r.recognizers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("recognizer %q not found (available: %s)", name, strings.Join(r.List(), ", "))
	}
	return rec, nil
}

// List returns the registered names, sorted
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.recognizers))
	for name := range r.recognizers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
