package gmail

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNewLimiter(t *testing.T) {
	tests := []struct {
		name      string
		perSecond float64
		burst     int
		wantLimit rate.Limit
		wantBurst int
	}{
		{"defaults", DefaultRateLimit, DefaultRateBurst, rate.Limit(5), 10},
		{"zero burst", 2, 0, rate.Limit(2), 1},
		{"disabled", 0, 10, rate.Inf, 0},
		{"negative", -1, 10, rate.Inf, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLimiter(tt.perSecond, tt.burst)
			assert.Equal(t, tt.wantLimit, l.Limit())
			assert.Equal(t, tt.wantBurst, l.Burst())
		})
	}
}

func TestRateLimitedTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	client := &http.Client{Transport: NewRateLimitedTransport(rate.NewLimiter(rate.Every(time.Hour), 1), srv.Client().Transport)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = client.Do(req)
	assert.Error(t, err, "an exhausted bucket waits past the deadline")
}

func TestRateLimitedTransport_DefaultBase(t *testing.T) {
	tr := NewRateLimitedTransport(NewLimiter(0, 0), nil)
	assert.Equal(t, http.DefaultTransport, tr.base)
}
