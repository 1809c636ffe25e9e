// Package httpkit centralizes construction of outbound HTTP clients so every
// upstream call carries the same timeouts, connection limits, and User-Agent.
package httpkit

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	defaultUserAgent = "boardpilot/1.0"

	dialTimeout         = 10 * time.Second
	keepAlive           = 30 * time.Second
	tlsHandshakeTimeout = 10 * time.Second
	idleConnTimeout     = 90 * time.Second
	maxIdleConns        = 20
)

// NewClient builds an *http.Client with a bounded overall timeout and a
// User-Agent round-tripper. Every outbound call in this process goes through
// a client built here; nothing talks to the network with http.DefaultClient.
func NewClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: keepAlive,
		}).DialContext,
		TLSHandshakeTimeout: tlsHandshakeTimeout,
		IdleConnTimeout:     idleConnTimeout,
		MaxIdleConns:        maxIdleConns,
		ForceAttemptHTTP2:   true,
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &userAgentTransport{
			base: transport,
			ua:   defaultUserAgent,
		},
	}
}

// userAgentTransport injects the User-Agent header on every request unless
// one is already set.
type userAgentTransport struct {
	base http.RoundTripper
	ua   string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		// Clone per RoundTripper contract: the original request is read-only.
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.ua)
	}
	return t.base.RoundTrip(req)
}

// DrainAndClose reads up to limit bytes from rc and closes it, so the
// underlying HTTP connection can be returned to the pool.
func DrainAndClose(rc io.ReadCloser, limit int64) {
	if rc == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, limit))
	rc.Close()
}

// ReadErrorBody reads up to limit bytes from rc for use in error messages,
// then drains and closes the remainder. Returns an empty string for nil rc.
func ReadErrorBody(rc io.ReadCloser, limit int64) string {
	if rc == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(rc, limit))
	DrainAndClose(rc, 1024)
	if err != nil {
		return fmt.Sprintf("(failed to read error body: %v)", err)
	}
	return string(body)
}
