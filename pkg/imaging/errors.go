package imaging

import (
	"errors"
	"fmt"
	"time"
)

// FileNotFoundError indicates an upload input path missing on the client
// side, caught before any bytes hit the wire.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// NetworkError indicates a transport failure with no HTTP response.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServiceError indicates a non-2xx HTTP response. Body keeps the raw
// response so tests can assert on it directly.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service returned %d: %s", e.StatusCode, e.Body)
}

// TimeoutError indicates a per-call or polling deadline was exceeded.
type TimeoutError struct {
	Elapsed time.Duration
	Budget  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %v (budget %v)", e.Elapsed, e.Budget)
}

// AnalysisFailedError carries the server-reported error of a job that
// reached the failed terminal state.
type AnalysisFailedError struct {
	AnalysisID string
	Message    string
}

func (e *AnalysisFailedError) Error() string {
	return fmt.Sprintf("analysis %s failed: %s", e.AnalysisID, e.Message)
}

// MalformedResponseError indicates a protocol violation, such as a job
// reported completed with no result payload. Callers must never receive a
// silently-empty success.
type MalformedResponseError struct {
	AnalysisID string
	Reason     string
}

func (e *MalformedResponseError) Error() string {
	if e.AnalysisID == "" {
		return fmt.Sprintf("malformed response: %s", e.Reason)
	}
	return fmt.Sprintf("malformed response for analysis %s: %s", e.AnalysisID, e.Reason)
}

// DefaultShouldRetry retries transport failures and 5xx responses. 4xx
// responses indicate a malformed request, not a transient fault, and are
// never retried.
func DefaultShouldRetry(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.StatusCode >= 500
	}
	return false
}
