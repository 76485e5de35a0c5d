package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/teemow/gmail-mcp/internal/instrumentation"
)

// DefaultService is the keyring service name every entry is stored under.
const DefaultService = "gmail-mcp"

// activeAccountKey holds the pointer entry. Account keys are email
// addresses and always contain '@', so the two never collide.
const activeAccountKey = "active-account"

// Store is the credential storage surface the OAuth bootstrap and the
// client factory depend on.
type Store interface {
	// Store writes secret for account, replacing any previous value.
	Store(account, secret string) error

	// Retrieve returns the secret for account. A missing entry is reported
	// as ok=false with a nil error.
	Retrieve(account string) (secret string, ok bool, err error)

	// Erase removes the secret for account. Erasing a missing entry is not an error.
	Erase(account string) error

	SetActiveAccount(email string) error
	ActiveAccount() (email string, ok bool, err error)
	ClearActiveAccount() error
}

// KeyringStore implements Store on top of the OS keyring.
type KeyringStore struct {
	service string
	metrics *instrumentation.Metrics
}

// Option configures a KeyringStore.
type Option func(*KeyringStore)

// WithMetrics records every keyring access on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *KeyringStore) { s.metrics = m }
}

// WithService overrides the keyring service name.
func WithService(service string) Option {
	return func(s *KeyringStore) { s.service = service }
}

// NewKeyringStore returns a store under DefaultService.
func NewKeyringStore(opts ...Option) *KeyringStore {
	s := &KeyringStore{service: DefaultService}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store implements Store.
func (s *KeyringStore) Store(account, secret string) error {
	if account == "" {
		return errors.New("account is required")
	}
	err := keyring.Set(s.service, account, secret)
	s.record(instrumentation.CredentialOpStore, err)
	if err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Retrieve implements Store.
func (s *KeyringStore) Retrieve(account string) (string, bool, error) {
	if account == "" {
		return "", false, nil
	}
	secret, err := keyring.Get(s.service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		s.record(instrumentation.CredentialOpRetrieve, nil)
		return "", false, nil
	}
	s.record(instrumentation.CredentialOpRetrieve, err)
	if err != nil {
		return "", false, fmt.Errorf("failed to read credential: %w", err)
	}
	return secret, true, nil
}

// Erase implements Store.
func (s *KeyringStore) Erase(account string) error {
	err := keyring.Delete(s.service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		err = nil
	}
	s.record(instrumentation.CredentialOpErase, err)
	if err != nil {
		return fmt.Errorf("failed to erase credential: %w", err)
	}
	return nil
}

// SetActiveAccount implements Store.
func (s *KeyringStore) SetActiveAccount(email string) error {
	return s.Store(activeAccountKey, email)
}

// ActiveAccount implements Store.
func (s *KeyringStore) ActiveAccount() (string, bool, error) {
	email, ok, err := s.Retrieve(activeAccountKey)
	if err != nil || !ok || email == "" {
		return "", false, err
	}
	return email, true, nil
}

// ClearActiveAccount implements Store.
func (s *KeyringStore) ClearActiveAccount() error {
	return s.Erase(activeAccountKey)
}

func (s *KeyringStore) record(op string, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	s.metrics.RecordCredentialOperation(context.Background(), op, status)
}
