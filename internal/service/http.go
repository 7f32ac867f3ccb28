package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Error kinds returned by the remote clients. Callers match them with errors.Is.
var (
	ErrNetwork          = errors.New("network error")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrDecode           = errors.New("decode error")
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "gamecache/1.0"
	maxBodyBytes   = 32 << 20
)

// StatusError reports a non-2xx response
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

// Is lets errors.Is match StatusError against ErrUnexpectedStatus
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// fetch performs a single HTTP GET and returns the body of a 2xx response.
// Transport failures wrap ErrNetwork; other statuses return a *StatusError.
func fetch(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redactURL(req)
		}
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: redactURL(req)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrNetwork, err)
	}
	return body, nil
}

// redactURL drops the query string, which can carry API keys
func redactURL(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	return u.String()
}
