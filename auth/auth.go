// Package auth holds the OAuth 2.0 tokens the agent uses to write to the
// board API. Tokens are keyed by board account and kept in a JSON file so a
// restart does not force re-provisioning. Refresh happens lazily on read via
// the standard oauth2 token source.
package auth

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"

	"github.com/boardpilot/boardpilot/config"
	"github.com/boardpilot/boardpilot/errors"
)

// ErrNoToken is returned when no token has been provisioned for an account.
var ErrNoToken = errors.New("no token for account")

// Provider yields a valid access token for a board account.
type Provider interface {
	AccessToken(ctx context.Context, accountID string) (string, error)
}

// FileStore is a Provider backed by a JSON file on disk. It refreshes
// expired tokens through the configured token endpoint and persists the
// refreshed token before handing it out.
type FileStore struct {
	mu   sync.Mutex
	path string
	conf *oauth2.Config
}

func NewFileStore(cfg *config.Config) *FileStore {
	return &FileStore{
		path: cfg.OAuth.TokenStore,
		conf: &oauth2.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.OAuth.TokenURL},
		},
	}
}

// AccessToken returns a currently valid access token for the account,
// refreshing and persisting it if the stored one has expired.
func (s *FileStore) AccessToken(ctx context.Context, accountID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.load()
	if err != nil {
		return "", err
	}
	tok, ok := tokens[accountID]
	if !ok {
		return "", errors.Wrapf(ErrNoToken, "account %q", accountID)
	}
	if tok.Valid() {
		return tok.AccessToken, nil
	}

	fresh, err := s.conf.TokenSource(ctx, tok).Token()
	if err != nil {
		return "", errors.Wrapf(err, "refreshing token for account %q", accountID)
	}
	tokens[accountID] = fresh
	if err := s.save(tokens); err != nil {
		return "", err
	}
	return fresh.AccessToken, nil
}

// SetToken stores a token for an account, creating the store file if needed.
// Used by the provisioning flow and by tests.
func (s *FileStore) SetToken(accountID string, tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.load()
	if err != nil {
		return err
	}
	tokens[accountID] = tok
	return s.save(tokens)
}

func (s *FileStore) load() (map[string]*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]*oauth2.Token{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading token store %s", s.path)
	}
	tokens := map[string]*oauth2.Token{}
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, errors.Wrapf(err, "parsing token store %s", s.path)
	}
	return tokens, nil
}

func (s *FileStore) save(tokens map[string]*oauth2.Token) error {
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding token store")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return errors.Wrapf(err, "creating token store directory")
	}
	// Tokens are credentials; keep the file owner-only.
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return errors.Wrapf(err, "writing token store %s", s.path)
	}
	return nil
}
