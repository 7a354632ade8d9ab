package main

import (
	"net"
	"net/http"
	"time"
)

const userAgent = "gw-install"

// newClient returns the client used for every request of a run. If token is
// not empty it is sent as a bearer token unless the request already carries
// credentials.
func newClient(token string) *http.Client {
	return &http.Client{
		Transport: &installerTransport{
			Transport: defaultTransport(),
			token:     token,
		},
	}
}

func defaultTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}

type installerTransport struct {
	*http.Transport
	token string
}

func (t *installerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	if values := req.Header.Values("Authorization"); len(values) == 0 && t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	return t.Transport.RoundTrip(req)
}
