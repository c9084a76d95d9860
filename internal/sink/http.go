package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPSink POSTs each batch as a JSON array to <base URL>/<stream>. When a
// bearer token is set it is attached to every request.
type HTTPSink struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPSink builds a sink for the given ingest endpoint. token may be
// empty for unauthenticated sinks.
func NewHTTPSink(baseURL, token string) *HTTPSink {
	return &HTTPSink{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// errorResponse is the sink's per-row failure report.
type errorResponse struct {
	Errors []RowError `json:"errors"`
}

// Deliver sends the whole batch in one request. A non-2xx status is a
// transport error; a 2xx body may still report row errors.
func (s *HTTPSink) Deliver(ctx context.Context, stream string, records []interface{}) ([]RowError, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+stream, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sink returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// A truncated response may be hiding a row-error report.
		return nil, fmt.Errorf("failed to read sink response: %w", err)
	}
	if len(body) == 0 {
		return nil, nil
	}
	var report errorResponse
	if err := json.Unmarshal(body, &report); err != nil {
		// Body is informational only; an unparseable 2xx response is success.
		return nil, nil
	}
	return report.Errors, nil
}

// Close is a no-op; the HTTP client keeps no long-lived connections worth
// tearing down explicitly.
func (s *HTTPSink) Close(ctx context.Context) error {
	s.client.CloseIdleConnections()
	return nil
}
