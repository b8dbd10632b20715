package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Response formats of the session creation endpoints across server versions.
const (
	formatCurrent = "1.5.0"
	formatV2      = "1.4.0"
)

type Config struct {
	Endpoint   string
	ProjectID  string
	DatabaseID string
	Timeout    time.Duration

	// Transport is the base round tripper, http.DefaultTransport if nil.
	Transport http.RoundTripper
}

// Client talks to the Appwrite REST API as a single end user. The session
// lives in the client's cookie jar, so one Client is one signed-in user.
type Client struct {
	endpoint   string
	databaseID string
	http       *http.Client
	jar        *sessionJar
	fallback   *fallbackCookies
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("appwrite endpoint is required")
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("appwrite project id is required")
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid appwrite endpoint: %w", err)
	}

	jar, err := newSessionJar()
	if err != nil {
		return nil, err
	}

	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	fallback := &fallbackCookies{}
	transport := chainTransports(base,
		withFallbackCookies(fallback),
		withProject(cfg.ProjectID),
		withLogging,
	)

	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		databaseID: cfg.DatabaseID,
		http: &http.Client{
			Jar:       jar,
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		jar:      jar,
		fallback: fallback,
	}, nil
}

type requestOption func(*http.Request)

func withResponseFormat(v string) requestOption {
	return func(r *http.Request) {
		r.Header.Set("X-Appwrite-Response-Format", v)
	}
}

func withQuery(q url.Values) requestOption {
	return func(r *http.Request) {
		r.URL.RawQuery = q.Encode()
	}
}

// do sends in as JSON and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any, opts ...requestOption) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// parseTime reads Appwrite timestamps such as 2024-01-03T10:00:00.000+00:00.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
