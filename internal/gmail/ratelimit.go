package gmail

import (
	"net/http"

	"golang.org/x/time/rate"
)

const (
	// DefaultRateLimit is the sustained Gmail request rate per second.
	DefaultRateLimit = 5.0

	// DefaultRateBurst is the token bucket size.
	DefaultRateBurst = 10
)

// RateLimitedTransport paces requests with a token bucket before handing
// them to the next transport. It does not retry.
type RateLimitedTransport struct {
	limiter *rate.Limiter
	base    http.RoundTripper
}

// NewRateLimitedTransport wraps base, which defaults to http.DefaultTransport.
func NewRateLimitedTransport(limiter *rate.Limiter, base http.RoundTripper) *RateLimitedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RateLimitedTransport{limiter: limiter, base: base}
}

// NewLimiter builds the limiter shared by every client of a Factory. A
// non-positive rate disables pacing.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// RoundTrip implements http.RoundTripper.
func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}
