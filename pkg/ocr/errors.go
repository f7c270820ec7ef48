package ocr

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Error kinds reported for a processed file. Wrap them with fmt.Errorf and
// test with errors.Is.
var (
	ErrInputNotFound     = errors.New("input not found")
	ErrService           = errors.New("ocr service error")
	ErrAnalysisFailed    = errors.New("analysis failed")
	ErrAnalysisTimeout   = errors.New("analysis timed out")
	ErrWriteFailure      = errors.New("write failure")
	ErrMalformedGeometry = errors.New("malformed geometry")
)

// Kind returns the short name of the error kind err belongs to, or
// "Unknown" when it matches none of them.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputNotFound):
		return "InputNotFound"
	case errors.Is(err, ErrAnalysisFailed):
		return "AnalysisFailed"
	case errors.Is(err, ErrAnalysisTimeout):
		return "AnalysisTimeout"
	case errors.Is(err, ErrService):
		return "ServiceError"
	case errors.Is(err, ErrWriteFailure):
		return "WriteFailure"
	case errors.Is(err, ErrMalformedGeometry):
		return "MalformedGeometry"
	default:
		return "Unknown"
	}
}

// ServiceError describes a non-2xx or unreadable response from an OCR service
type ServiceError struct {
	Op         string // Operation that failed (e.g. "submit", "poll")
	StatusCode int    // HTTP status, 0 when the failure was not an HTTP status
	Body       string // Truncated and masked response body
}

func (e *ServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Body)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Unwrap lets errors.Is match ErrService
func (e *ServiceError) Unwrap() error { return ErrService }

// NewServiceError builds a ServiceError with the body truncated and any
// credentials masked.
func NewServiceError(op string, status int, body []byte) *ServiceError {
	return &ServiceError{Op: op, StatusCode: status, Body: MaskSecrets(TruncateBody(body, 500))}
}

// TruncateBody shortens a response body for error messages
func TruncateBody(body []byte, maxLen int) string {
	s := string(body)
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "... (truncated)"
}

var (
	keyParamPattern = regexp.MustCompile(`([?&])(api[_\-]?[kK]ey|key|code)=([^&\s"]+)`)
	subscriptionKey = regexp.MustCompile(`(?i)(Ocp-Apim-Subscription-Key["']?\s*[:=]\s*["']?)([^\s"']+)`)
	bearerPattern   = regexp.MustCompile(`Bearer\s+[A-Za-z0-9_\-\.]+`)
)

// MaskSecrets hides API keys that may appear in URLs or echoed headers
func MaskSecrets(s string) string {
	s = keyParamPattern.ReplaceAllString(s, `${1}${2}=***MASKED***`)
	s = subscriptionKey.ReplaceAllString(s, `${1}***MASKED***`)
	s = bearerPattern.ReplaceAllString(s, `Bearer ***MASKED***`)
	return s
}
