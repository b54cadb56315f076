package explain

import (
	"net/http"
	"time"
)

// headerTransport adds fixed headers (User-Agent, provider attribution) to
// every outbound request
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for name, value := range t.headers {
		req.Header.Set(name, value)
	}
	return t.base.RoundTrip(req)
}

// newHTTPClient creates the HTTP client handed to the chat-completion client.
// A zero timeout leaves the transport defaults in place.
func newHTTPClient(userAgent string, extra map[string]string, timeout time.Duration) *http.Client {
	headers := map[string]string{"User-Agent": userAgent}
	for name, value := range extra {
		headers[name] = value
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &headerTransport{
			base:    http.DefaultTransport,
			headers: headers,
		},
	}
}
