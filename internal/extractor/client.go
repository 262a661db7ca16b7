// Package extractor is the client for the local clip extraction worker. The
// worker exposes a single request/response call that downloads one time
// range of a video.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Request is the fixed wire shape of an extraction call.
type Request struct {
	URL       string  `json:"url"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	FormatID  string  `json:"format_id"`
}

type response struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ExtractError represents a failed extraction: either a non-2xx status with
// the body text, or a 2xx response with success=false and the worker's
// error string.
type ExtractError struct {
	StatusCode int
	Message    string
}

func (e *ExtractError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("clip extraction failed: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("clip extraction failed: HTTP %d", e.StatusCode)
}

// Service issues one clip extraction call to the worker.
type Service interface {
	Extract(ctx context.Context, req Request) error
}

// HTTPClient talks to the extraction worker over HTTP. It is constructed and
// injected explicitly; there is no shared module-level connection. The
// client carries no timeout of its own — extracting a long clip legitimately
// takes minutes and the worker is local — so cancellation comes only from
// the caller's context.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Extract posts one extraction request and resolves it to success or an
// *ExtractError. The response body is read but never surfaced raw; callers
// get a single composed message.
func (c *HTTPClient) Extract(ctx context.Context, extractReq Request) error {
	body, err := json.Marshal(extractReq)
	if err != nil {
		return fmt.Errorf("marshal extract request: %w", err)
	}

	url := c.baseURL + "/download-clip"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Info("requesting clip extraction",
		"url", extractReq.URL,
		"start", extractReq.StartTime,
		"end", extractReq.EndTime,
		"format_id", extractReq.FormatID,
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ExtractError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var result response
	if err := json.Unmarshal(respBody, &result); err != nil {
		return &ExtractError{StatusCode: resp.StatusCode, Message: "malformed worker response"}
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "unknown error"
		}
		return &ExtractError{StatusCode: resp.StatusCode, Message: msg}
	}

	c.logger.Info("clip extraction succeeded", "url", extractReq.URL)
	return nil
}
