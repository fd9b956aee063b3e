// Package auth mediates login over the account store and keeps the
// append-only session log. This is a demo credential check: passwords are
// compared as plain strings and an account with no password accepts any login.
package auth

import (
	"errors"
	"sync"

	"fizpay/internal/models"
	"fizpay/internal/storage"
)

// ErrInvalidCredentials is returned when no account matches the tax id or the
// password check fails. Deliberately indistinguishable between the two cases.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialStore caches the last-used credential pair for biometric
// re-entry. Implementations may fail on Save without affecting login; a Load
// miss means "no saved credentials".
type CredentialStore interface {
	Save(taxID, password string) error
	Load() (taxID, password string, ok bool)
}

// MemoryCredentialStore keeps the credential pair in process memory.
type MemoryCredentialStore struct {
	mu       sync.Mutex
	taxID    string
	password string
	saved    bool
}

// Save stores the pair.
func (s *MemoryCredentialStore) Save(taxID, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taxID, s.password, s.saved = taxID, password, true
	return nil
}

// Load returns the last saved pair.
func (s *MemoryCredentialStore) Load() (string, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taxID, s.password, s.saved
}

// Service validates logins against the account store and records sessions.
type Service struct {
	db    *storage.DB
	creds CredentialStore
}

// NewService creates a Service. creds may be nil when no credential caching
// is wanted.
func NewService(db *storage.DB, creds CredentialStore) *Service {
	return &Service{db: db, creds: creds}
}

// Login validates a tax id + password pair. It succeeds when the account
// exists and either has no stored password or the stored password equals the
// supplied one exactly. On success a session row is appended and the account
// returned; on failure no session is written.
func (s *Service) Login(taxID, password string) (*models.Account, error) {
	account, err := s.db.GetAccountByTaxID(taxID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}
	if account.Password != nil && *account.Password != password {
		return nil, ErrInvalidCredentials
	}

	if _, err := s.db.CreateSession(account.ID); err != nil {
		return nil, err
	}

	if s.creds != nil {
		// Best effort; a failed save must not fail the login.
		_ = s.creds.Save(account.TaxID, password)
	}

	return account, nil
}

// CurrentAccount returns the account of the most recent session, or nil when
// nobody is logged in.
func (s *Service) CurrentAccount() (*models.Account, error) {
	return s.db.LastSessionAccount()
}

// SignOut clears every session. There is no single-session revocation; the
// local store has one current user at a time.
func (s *Service) SignOut() error {
	return s.db.ClearSessions()
}
