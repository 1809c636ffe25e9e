package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/boardpilot/boardpilot/config"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(&config.Config{
		OAuth: config.OAuthSettings{
			ClientID:     "client",
			ClientSecret: "secret",
			TokenURL:     "https://example.invalid/token",
			TokenStore:   filepath.Join(t.TempDir(), "tokens.json"),
		},
	})
}

func TestAccessTokenMissingAccount(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AccessToken(context.Background(), "nobody")
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("Expected ErrNoToken, got %v", err)
	}
}

func TestAccessTokenValidToken(t *testing.T) {
	store := newTestStore(t)
	err := store.SetToken("acct-1", &oauth2.Token{
		AccessToken: "live-token",
		Expiry:      time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	got, err := store.AccessToken(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("AccessToken failed: %v", err)
	}
	if got != "live-token" {
		t.Errorf("Got %q", got)
	}
}

func TestTokensSurviveReload(t *testing.T) {
	store := newTestStore(t)
	if err := store.SetToken("acct-1", &oauth2.Token{
		AccessToken: "live-token",
		Expiry:      time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	// A second store reading the same file sees the token.
	reloaded := NewFileStore(&config.Config{
		OAuth: config.OAuthSettings{TokenStore: store.path},
	})
	got, err := reloaded.AccessToken(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("AccessToken failed: %v", err)
	}
	if got != "live-token" {
		t.Errorf("Got %q", got)
	}

	info, err := os.Stat(store.path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Token store permissions = %o", perm)
	}
}
