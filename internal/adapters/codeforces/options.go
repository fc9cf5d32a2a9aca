package codeforces

import (
	"net/http"
	"strings"
	"time"

	"github.com/okian/cfcoach/pkg/logger"
)

// Option applies a configuration option to the HTTPClient.
type Option func(*HTTPClient)

// WithBaseURL sets the API root, e.g. "https://codeforces.com/api".
func WithBaseURL(u string) Option {
	return func(c *HTTPClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds a single request.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit sets the sustained request rate in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *HTTPClient) {
		if rps > 0 {
			c.rps = rps
		}
	}
}

// WithDefaultRating sets the rating reported for unrated users.
func WithDefaultRating(r int) Option {
	return func(c *HTTPClient) {
		if r >= 0 {
			c.defaultRating = r
		}
	}
}

// WithBreakerTimeout sets how long the breaker stays open before probing.
func WithBreakerTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.breakerTimeout = d
		}
	}
}

// WithBreakerThreshold sets the consecutive failures that open the breaker.
func WithBreakerThreshold(n uint32) Option {
	return func(c *HTTPClient) {
		if n > 0 {
			c.breakerThreshold = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *HTTPClient) {
		if l != nil {
			c.logger = l
		}
	}
}
