package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/gmail-mcp/internal/credstore"
	"github.com/teemow/gmail-mcp/internal/instrumentation"
	"github.com/teemow/gmail-mcp/internal/logging"
)

var (
	// ErrNoCredential means no account is configured or the account has no
	// stored token.
	ErrNoCredential = errors.New("no stored credential")

	// ErrInvalidCredential means the stored token cannot be used: it does not
	// decode or it lacks a required scope.
	ErrInvalidCredential = errors.New("stored credential is invalid")
)

// StoredCredential is the JSON blob kept in the keyring for one account.
type StoredCredential struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Scopes       []string  `json:"scopes"`
	Account      string    `json:"account"`
}

// NewStoredCredential captures tok for account. The granted scopes come from
// the token response; when the provider omits them, requested is assumed.
func NewStoredCredential(account string, tok *oauth2.Token, requested []string) *StoredCredential {
	scopes := requested
	if raw, ok := tok.Extra("scope").(string); ok && raw != "" {
		scopes = strings.Fields(raw)
	}
	return &StoredCredential{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		Scopes:       scopes,
		Account:      account,
	}
}

// Token returns the oauth2 form of the credential.
func (c *StoredCredential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    c.TokenType,
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
}

// update copies the rotating fields of tok into c.
func (c *StoredCredential) update(tok *oauth2.Token) {
	c.AccessToken = tok.AccessToken
	c.TokenType = tok.TokenType
	c.Expiry = tok.Expiry
	if tok.RefreshToken != "" {
		c.RefreshToken = tok.RefreshToken
	}
}

// Encode serializes the credential for the keyring.
func (c *StoredCredential) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode credential: %w", err)
	}
	return string(data), nil
}

// DecodeCredential parses a keyring blob.
func DecodeCredential(secret string) (*StoredCredential, error) {
	var c StoredCredential
	if err := json.Unmarshal([]byte(secret), &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if c.AccessToken == "" && c.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no token", ErrInvalidCredential)
	}
	return &c, nil
}

// ResolveAccount picks the account to act for: configured wins, then the
// store's active-account pointer. ErrNoCredential when neither is set.
func ResolveAccount(store credstore.Store, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	email, ok, err := store.ActiveAccount()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoCredential
	}
	return email, nil
}

// LoadCredential reads and validates the stored credential for account.
func LoadCredential(store credstore.Store, account string) (*StoredCredential, error) {
	secret, ok, err := store.Retrieve(account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCredential
	}
	cred, err := DecodeCredential(secret)
	if err != nil {
		return nil, err
	}
	if !HasScopes(cred.Scopes, DefaultOAuthScopes) {
		return nil, fmt.Errorf("%w: missing required scopes", ErrInvalidCredential)
	}
	if cred.Account == "" {
		cred.Account = account
	}
	return cred, nil
}

// SaveCredential writes cred under its account.
func SaveCredential(store credstore.Store, cred *StoredCredential) error {
	secret, err := cred.Encode()
	if err != nil {
		return err
	}
	return store.Store(cred.Account, secret)
}

// persistingTokenSource writes every new access token back to the store.
type persistingTokenSource struct {
	base    oauth2.TokenSource
	store   credstore.Store
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	mu   sync.Mutex
	cred *StoredCredential
}

// NewTokenSource returns an auto-refreshing token source for cred. Refreshed
// tokens are persisted to store; a failed write is logged and the token is
// still returned.
func NewTokenSource(ctx context.Context, cfg *oauth2.Config, cred *StoredCredential, store credstore.Store, logger *slog.Logger, metrics *instrumentation.Metrics) oauth2.TokenSource {
	if logger == nil {
		logger = slog.Default()
	}
	tok := cred.Token()
	copied := *cred
	return &persistingTokenSource{
		base:    oauth2.ReuseTokenSource(tok, cfg.TokenSource(ctx, tok)),
		store:   store,
		logger:  logger,
		metrics: metrics,
		cred:    &copied,
	}
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		p.metrics.RecordTokenRefresh(context.Background(), instrumentation.RefreshResultFailure)
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken == p.cred.AccessToken {
		return tok, nil
	}

	p.cred.update(tok)
	p.metrics.RecordTokenRefresh(context.Background(), instrumentation.RefreshResultSuccess)
	if err := SaveCredential(p.store, p.cred); err != nil {
		p.logger.Warn("failed to persist refreshed token", logging.UserHash(p.cred.Account), logging.Err(err))
	} else {
		p.logger.Debug("persisted refreshed token", logging.UserHash(p.cred.Account), slog.Time("expiry", tok.Expiry))
	}
	return tok, nil
}
