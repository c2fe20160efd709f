package utils

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ProxyTransport sends every request to Target, keeping the original path and
// query. Used to route Discord REST and OAuth2 traffic through a proxy.
type ProxyTransport struct {
	Target *url.URL
	Next   http.RoundTripper
}

func (p *ProxyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = p.Target.Scheme
	r.URL.Host = p.Target.Host
	r.Host = p.Target.Host

	next := p.Next
	if next == nil {
		next = http.DefaultTransport
	}

	return next.RoundTrip(r)
}

// NewHTTPClient returns a client with the given timeout. If proxy is not empty
// all requests are rewritten to it.
func NewHTTPClient(proxy string, timeout time.Duration) (*http.Client, error) {
	cli := &http.Client{Timeout: timeout}

	if proxy == "" {
		return cli, nil
	}

	target, err := url.Parse(proxy)

	if err != nil {
		return nil, fmt.Errorf("invalid proxy url: %w", err)
	}

	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid proxy url %q: scheme and host are required", proxy)
	}

	cli.Transport = &ProxyTransport{Target: target}

	return cli, nil
}
