package http

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds a whole request when the script sets no timeout.
const DefaultTimeout = 30 * time.Second

// newClient returns a client with pooled connections, shared by every
// request one stage makes.
func newClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
