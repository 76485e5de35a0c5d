package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/gmail-mcp/internal/credstore"
	"github.com/teemow/gmail-mcp/internal/instrumentation"
	"github.com/teemow/gmail-mcp/internal/logging"
)

// DefaultAuthTimeout bounds the wait for the user to finish consent.
const DefaultAuthTimeout = 5 * time.Minute

// ErrMissingCredentialsFile is the sentinel behind MissingCredentialsError.
var ErrMissingCredentialsFile = errors.New("credentials.json not found")

// MissingCredentialsError reports the absent OAuth client file and where it
// is expected.
type MissingCredentialsError struct {
	Path string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("credentials.json not found at %s\nPlease download OAuth credentials from Google Cloud Console and save them there.", e.Path)
}

func (e *MissingCredentialsError) Unwrap() error {
	return ErrMissingCredentialsFile
}

// LoadOAuthConfig reads the installed-app client file downloaded from the
// Google Cloud Console.
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &MissingCredentialsError{Path: path}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg, err := googleoauth.ConfigFromJSON(data, DefaultOAuthScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// RefreshConfig returns the OAuth config used to refresh stored tokens. When
// the client file is unreadable an endpoint-only config is returned: an
// unexpired token still works, a refresh then fails with the provider's error.
func RefreshConfig(credentialsPath string) *oauth2.Config {
	cfg, err := LoadOAuthConfig(credentialsPath)
	if err != nil {
		return &oauth2.Config{Endpoint: googleoauth.Endpoint, Scopes: DefaultOAuthScopes}
	}
	return cfg
}

// AuthenticatorConfig holds the dependencies of an Authenticator.
type AuthenticatorConfig struct {
	Store           credstore.Store
	CredentialsPath string

	// Account pins the account to use; empty follows the active-account pointer.
	Account string

	// Timeout bounds the consent wait (default DefaultAuthTimeout).
	Timeout time.Duration

	// OpenBrowser defaults to OpenBrowser.
	OpenBrowser BrowserOpener

	// Prompt receives the consent URL when the browser cannot be opened
	// (default os.Stderr).
	Prompt io.Writer

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics

	// HTTPClient is the base client for token and Gmail requests.
	HTTPClient *http.Client

	// GmailOptions are appended when building the Gmail service used for
	// the profile lookup.
	GmailOptions []option.ClientOption
}

// Authenticator runs the OAuth bootstrap.
type Authenticator struct {
	cfg AuthenticatorConfig
}

// NewAuthenticator fills in defaults for cfg.
func NewAuthenticator(cfg AuthenticatorConfig) *Authenticator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultAuthTimeout
	}
	if cfg.OpenBrowser == nil {
		cfg.OpenBrowser = OpenBrowser
	}
	if cfg.Prompt == nil {
		cfg.Prompt = os.Stderr
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Authenticator{cfg: cfg}
}

// Authenticate returns the email of a working account. A stored token is
// reused when Gmail accepts it; otherwise the browser consent flow runs.
func (a *Authenticator) Authenticate(ctx context.Context) (string, error) {
	ctx = a.withHTTPClient(ctx)

	if email, ok := a.reuse(ctx); ok {
		a.cfg.Metrics.RecordAuth(ctx, instrumentation.AuthResultReused)
		return email, nil
	}

	oauthCfg, err := LoadOAuthConfig(a.cfg.CredentialsPath)
	if err != nil {
		a.cfg.Metrics.RecordAuth(ctx, instrumentation.AuthResultFailure)
		return "", err
	}

	email, err := a.consent(ctx, oauthCfg)
	if err != nil {
		a.cfg.Metrics.RecordAuth(ctx, instrumentation.AuthResultFailure)
		return "", err
	}
	a.cfg.Metrics.RecordAuth(ctx, instrumentation.AuthResultConsent)
	return email, nil
}

// reuse checks the stored token with a profile call through an
// auto-refreshing source, which also persists any refresh.
func (a *Authenticator) reuse(ctx context.Context) (string, bool) {
	account, err := ResolveAccount(a.cfg.Store, a.cfg.Account)
	if err != nil {
		return "", false
	}
	cred, err := LoadCredential(a.cfg.Store, account)
	if err != nil {
		a.cfg.Logger.Debug("stored credential not usable", logging.UserHash(account), logging.Err(err))
		return "", false
	}

	ts := NewTokenSource(ctx, RefreshConfig(a.cfg.CredentialsPath), cred, a.cfg.Store, a.cfg.Logger, a.cfg.Metrics)
	email, err := a.profileEmail(ctx, ts)
	if err != nil {
		a.cfg.Logger.Info("stored credential rejected, starting consent", logging.UserHash(account), logging.Err(err))
		return "", false
	}
	return email, true
}

func (a *Authenticator) consent(ctx context.Context, oauthCfg *oauth2.Config) (string, error) {
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	cb := NewCallbackServer(state, logging.NewSlogAdapter(a.cfg.Logger))
	if err := cb.Start(); err != nil {
		return "", err
	}
	defer func() { _ = cb.Stop() }()

	cfg := *oauthCfg
	cfg.RedirectURL = cb.RedirectURL()
	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.S256ChallengeOption(verifier),
	)

	if err := a.cfg.OpenBrowser(authURL); err != nil {
		a.cfg.Logger.Warn("could not open browser", logging.Err(err))
		_, _ = fmt.Fprintf(a.cfg.Prompt, "Open this URL in your browser to authorize gmail-mcp:\n\n%s\n\n", authURL)
	}

	code, err := cb.WaitForCode(ctx, a.cfg.Timeout)
	if err != nil {
		return "", err
	}

	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	email, err := a.profileEmail(ctx, cfg.TokenSource(ctx, tok))
	if err != nil {
		return "", err
	}

	cred := NewStoredCredential(email, tok, DefaultOAuthScopes)
	if !HasScopes(cred.Scopes, DefaultOAuthScopes) {
		return "", fmt.Errorf("consent did not grant the required scopes (%s)", strings.Join(DefaultOAuthScopes, ", "))
	}
	if err := SaveCredential(a.cfg.Store, cred); err != nil {
		return "", err
	}
	if err := a.cfg.Store.SetActiveAccount(email); err != nil {
		return "", err
	}
	if a.cfg.Account != "" && !strings.EqualFold(a.cfg.Account, email) {
		a.cfg.Logger.Warn("authenticated account differs from the configured account",
			logging.UserHash(email), slog.String("configured", logging.AnonymizeEmail(a.cfg.Account)))
	}

	a.cfg.Logger.Info("authenticated", logging.UserHash(email), logging.Domain(email))
	return email, nil
}

func (a *Authenticator) profileEmail(ctx context.Context, ts oauth2.TokenSource) (string, error) {
	opts := append([]option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}, a.cfg.GmailOptions...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create Gmail service: %w", err)
	}

	start := time.Now()
	profile, err := svc.Users.GetProfile("me").Context(ctx).Do()
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	a.cfg.Metrics.RecordGmailRequest(ctx, instrumentation.OperationProfile, status, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("failed to get profile: %w", err)
	}
	return profile.EmailAddress, nil
}

// Status returns the stored credential of the current account without
// touching the network.
func (a *Authenticator) Status() (*StoredCredential, error) {
	account, err := ResolveAccount(a.cfg.Store, a.cfg.Account)
	if err != nil {
		return nil, err
	}
	return LoadCredential(a.cfg.Store, account)
}

// Logout erases the current account's credential and, when it is the
// active account, the pointer. It returns the account it removed.
func (a *Authenticator) Logout() (string, error) {
	account, err := ResolveAccount(a.cfg.Store, a.cfg.Account)
	if err != nil {
		return "", err
	}
	if err := a.cfg.Store.Erase(account); err != nil {
		return "", err
	}
	active, ok, err := a.cfg.Store.ActiveAccount()
	if err != nil {
		return "", err
	}
	if ok && strings.EqualFold(active, account) {
		if err := a.cfg.Store.ClearActiveAccount(); err != nil {
			return "", err
		}
	}
	a.cfg.Logger.Info("logged out", logging.UserHash(account))
	return account, nil
}

func (a *Authenticator) withHTTPClient(ctx context.Context) context.Context {
	if a.cfg.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, a.cfg.HTTPClient)
}
