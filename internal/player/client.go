// Package player is the client for the playback bridge: the process that
// relays time reads and seeks to the externally-addressed video surface.
// The surface can navigate away at any moment, so every call can fail and
// callers must treat failures as a precondition miss rather than retry.
package player

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrUnavailable is returned whenever the bridge cannot be reached or
// answers with an unusable payload.
var ErrUnavailable = errors.New("player bridge unavailable")

// Time is the playback position report for the current surface.
type Time struct {
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`
}

// Service reads and sets the playback position of the current video surface.
type Service interface {
	GetTime(ctx context.Context) (Time, error)
	SetTime(ctx context.Context, seconds float64) error
}

// HTTPClient talks to the bridge over HTTP. Bridge calls are quick position
// reads and seeks, so unlike the extraction client this one carries a short
// timeout.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// GetTime returns the current playback position and known duration.
func (c *HTTPClient) GetTime(ctx context.Context) (Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/player/time", nil)
	if err != nil {
		return Time{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Time{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Time{}, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	var t Time
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&t); err != nil {
		return Time{}, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}
	if t.Duration <= 0 {
		return Time{}, fmt.Errorf("%w: no duration reported", ErrUnavailable)
	}
	return t, nil
}

// SetTime seeks the current surface to the given position.
func (c *HTTPClient) SetTime(ctx context.Context, seconds float64) error {
	body, err := json.Marshal(map[string]float64{"time": seconds})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/player/seek", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&result); err != nil {
		return fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}
	if !result.Success {
		return fmt.Errorf("%w: seek rejected", ErrUnavailable)
	}

	c.logger.Debug("player seek", "seconds", seconds)
	return nil
}
