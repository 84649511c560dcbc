package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	httpLogPrefix    = "analysis:http_client"
	maxResponseBytes = 4 << 20
	defaultTimeout   = 60 * time.Second
)

// HTTPClient calls an analysis backend that accepts POST {"query": ...}.
type HTTPClient struct {
	url    string
	client *http.Client
}

// NewHTTPClient creates an HTTPClient posting to url. A zero timeout uses 60s.
func NewHTTPClient(url string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{url: url, client: &http.Client{Timeout: timeout}}
}

// Analyze posts query to the backend and decodes its reply.
func (c *HTTPClient) Analyze(ctx context.Context, query string) (*Analysis, error) {
	body, err := json.Marshal(Request{Query: query})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to encode request: %w", httpLogPrefix, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s - failed to build request: %w", httpLogPrefix, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s - request to %s failed: %w", httpLogPrefix, c.url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read response: %w", httpLogPrefix, err)
	}
	slog.Debug(fmt.Sprintf("%s - backend replied %d in %s", httpLogPrefix, resp.StatusCode, time.Since(start)))

	if resp.StatusCode >= 300 {
		// Backends may still describe the failure in the usual shape.
		if _, decErr := DecodeResult(data); decErr != nil {
			if f, ok := decErr.(*Failure); ok && f.Message != "" {
				return nil, f
			}
		}
		return nil, fmt.Errorf("%s - backend returned status %d", httpLogPrefix, resp.StatusCode)
	}
	return DecodeResult(data)
}
