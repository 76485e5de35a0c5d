package gmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/teemow/gmail-mcp/internal/credstore"
	"github.com/teemow/gmail-mcp/internal/google"
	"github.com/teemow/gmail-mcp/internal/instrumentation"
	"github.com/teemow/gmail-mcp/internal/logging"
)

// FactoryConfig holds the dependencies of a Factory.
type FactoryConfig struct {
	Store           credstore.Store
	CredentialsPath string

	// Account pins the account; empty follows the active-account pointer.
	Account string

	// RateLimit is in requests per second; RateBurst is the bucket size.
	RateLimit float64
	RateBurst int

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics

	// HTTPClient supplies the base transport and the token refresh client.
	HTTPClient *http.Client

	// Options are appended when building each Gmail service.
	Options []option.ClientOption
}

// Factory builds a Client for the current account on demand. Nothing is
// cached between calls, so a fresh authentication is picked up immediately.
type Factory struct {
	cfg     FactoryConfig
	limiter *rate.Limiter
}

// NewFactory creates a Factory. All clients share one rate limiter.
func NewFactory(cfg FactoryConfig) *Factory {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Factory{
		cfg:     cfg,
		limiter: NewLimiter(cfg.RateLimit, cfg.RateBurst),
	}
}

// Client returns a Client for the current account, or ErrNotAuthenticated
// when there is no usable stored credential.
func (f *Factory) Client(ctx context.Context) (*Client, error) {
	account, err := google.ResolveAccount(f.cfg.Store, f.cfg.Account)
	if errors.Is(err, google.ErrNoCredential) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}

	cred, err := google.LoadCredential(f.cfg.Store, account)
	if errors.Is(err, google.ErrNoCredential) || errors.Is(err, google.ErrInvalidCredential) {
		f.cfg.Logger.Debug("no usable credential", logging.UserHash(account), logging.Err(err))
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	var base http.RoundTripper = http.DefaultTransport
	if f.cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, f.cfg.HTTPClient)
		if f.cfg.HTTPClient.Transport != nil {
			base = f.cfg.HTTPClient.Transport
		}
	}

	ts := google.NewTokenSource(ctx, google.RefreshConfig(f.cfg.CredentialsPath), cred, f.cfg.Store, f.cfg.Logger, f.cfg.Metrics)
	httpClient := &http.Client{
		Transport: NewRateLimitedTransport(f.limiter, &oauth2.Transport{Source: ts, Base: base}),
	}

	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, f.cfg.Options...)
	return NewClient(ctx, cred.Account, f.cfg.Metrics, opts...)
}
