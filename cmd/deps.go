package cmd

import (
	"log/slog"

	"github.com/teemow/gmail-mcp/internal/config"
	"github.com/teemow/gmail-mcp/internal/credstore"
	"github.com/teemow/gmail-mcp/internal/gmail"
	"github.com/teemow/gmail-mcp/internal/google"
	"github.com/teemow/gmail-mcp/internal/instrumentation"
)

// deps carries what the commands talking to Gmail share.
type deps struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	store   credstore.Store
}

func loadDeps(logger *slog.Logger, metrics *instrumentation.Metrics) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &deps{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		store:   credstore.NewKeyringStore(credstore.WithMetrics(metrics)),
	}, nil
}

func (d *deps) authenticator() *google.Authenticator {
	return google.NewAuthenticator(google.AuthenticatorConfig{
		Store:           d.store,
		CredentialsPath: d.cfg.CredentialsPath(),
		Account:         d.cfg.Account,
		Timeout:         d.cfg.AuthTimeout,
		Logger:          d.logger,
		Metrics:         d.metrics,
	})
}

func (d *deps) clientFactory() *gmail.Factory {
	return gmail.NewFactory(gmail.FactoryConfig{
		Store:           d.store,
		CredentialsPath: d.cfg.CredentialsPath(),
		Account:         d.cfg.Account,
		RateLimit:       d.cfg.RateLimit,
		RateBurst:       d.cfg.RateBurst,
		Logger:          d.logger,
		Metrics:         d.metrics,
	})
}
