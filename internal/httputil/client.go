package httputil

import (
	"net/http"
	"time"
)

const DefaultTimeout = 30 * time.Second

// UserAgent is sent on every outbound request that does not set its own.
const UserAgent = "sunsetcast/1.0 (+https://github.com/lox/sunsetcast)"

// NewClient returns an HTTP client for upstream weather providers. Both
// requests of a refresh share one host pool.
func NewClient() *http.Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.MaxIdleConnsPerHost = 4
	return &http.Client{
		Timeout:   DefaultTimeout,
		Transport: &userAgentTransport{base: base},
	}
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", UserAgent)
	return t.base.RoundTrip(req)
}
