// Package client talks to the policy server on behalf of the agent.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	pkghttp "github.com/dharmateja03/GoodTurkey/pkg/http"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

// ErrUnauthorized is returned when the server rejects the agent's token.
var ErrUnauthorized = errors.New("server rejected the agent token")

// StatusError is a non-2xx response other than 401.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// AttemptResult is the server's verdict on a reported navigation.
type AttemptResult struct {
	Host    string   `json:"host"`
	Blocked bool     `json:"blocked"`
	Matched []string `json:"matched"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for the server at baseURL, e.g. "https://turkey.example.com".
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Snapshot fetches GET /api/sync.
func (c *Client) Snapshot(ctx context.Context) (*policy.Snapshot, error) {
	var snap policy.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/sync", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ReportAttempt posts a blocked navigation to POST /api/sites/attempt.
func (c *Client) ReportAttempt(ctx context.Context, url string) (*AttemptResult, error) {
	var res AttemptResult
	if err := c.do(ctx, http.MethodPost, "/api/sites/attempt", map[string]string{"url": url}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var envelope pkghttp.ErrorResponse
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&envelope) == nil {
			statusErr.Code = envelope.Error
			statusErr.Message = envelope.Message
		}
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
