package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/boardpilot/boardpilot/agent"
	"github.com/boardpilot/boardpilot/auth"
	"github.com/boardpilot/boardpilot/config"
	"github.com/boardpilot/boardpilot/eventing"
	"github.com/boardpilot/boardpilot/llm"
	"github.com/boardpilot/boardpilot/tools"
)

const testSecret = "whsec_test"

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// boardStub records activity posts the way the real board API would.
type boardStub struct {
	mu    sync.Mutex
	posts []string
}

func (b *boardStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.posts = append(b.posts, r.URL.Path)
		b.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})
}

func (b *boardStub) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.posts)
}

func (b *boardStub) first() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.posts) == 0 {
		return ""
	}
	return b.posts[0]
}

func newTestServer(t *testing.T, client llm.Client, boardURL string, bus *eventing.Bus) *Server {
	t.Helper()

	cfg := &config.Config{
		Tools:   config.ToolSettings{HTTPTimeoutSec: 5, TimeLookupCeilingSec: 2},
		Board:   config.BoardSettings{BaseURL: boardURL},
		Webhook: config.WebhookSettings{AllowedBoards: []string{"eng-*"}},
		OAuth:   config.OAuthSettings{TokenStore: filepath.Join(t.TempDir(), "tokens.json")},
	}

	store := auth.NewFileStore(cfg)
	err := store.SetToken("acct-1", &oauth2.Token{
		AccessToken: "live-token",
		Expiry:      time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	executor := agent.NewExecutor(tools.NewRegistry(cfg))
	srv, err := NewServer(cfg, zerolog.Nop(), client, executor, store, bus, []byte(testSecret))
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return srv
}

func post(t *testing.T, ts *httptest.Server, body []byte, signature string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/webhook", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Building request: %v", err)
	}
	if signature != "" {
		req.Header.Set("X-Signature", signature)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	srv := newTestServer(t, &llm.ScriptedClient{}, "http://unused.invalid", eventing.NewBus())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body := []byte(`{"challenge":"abc"}`)
	for _, sig := range []string{"", "sha256=deadbeef", "md5=whatever"} {
		resp := post(t, ts, body, sig)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("Signature %q: status = %d, want 401", sig, resp.StatusCode)
		}
	}
}

func TestWebhookEchoesChallenge(t *testing.T) {
	srv := newTestServer(t, &llm.ScriptedClient{}, "http://unused.invalid", eventing.NewBus())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body := []byte(`{"challenge":"verify-me-123"}`)
	resp := post(t, ts, body, sign(body))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d", resp.StatusCode)
	}
	var echo map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&echo); err != nil {
		t.Fatalf("Decoding echo: %v", err)
	}
	if echo["challenge"] != "verify-me-123" {
		t.Errorf("Echo = %q", echo["challenge"])
	}
}

func TestWebhookRejectsInvalidEvent(t *testing.T) {
	srv := newTestServer(t, &llm.ScriptedClient{}, "http://unused.invalid", eventing.NewBus())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// Missing prompt.
	body := []byte(`{"board_id":"eng-1","account_id":"acct-1","session_id":"s-1"}`)
	resp := post(t, ts, body, sign(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", resp.StatusCode)
	}
}

func TestWebhookRejectsDisallowedBoard(t *testing.T) {
	srv := newTestServer(t, &llm.ScriptedClient{}, "http://unused.invalid", eventing.NewBus())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body := []byte(`{"board_id":"sales-1","account_id":"acct-1","session_id":"s-1","prompt":"hi"}`)
	resp := post(t, ts, body, sign(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Status = %d, want 403", resp.StatusCode)
	}
}

func TestWebhookRunsTurn(t *testing.T) {
	stub := &boardStub{}
	boardSrv := httptest.NewServer(stub.handler())
	defer boardSrv.Close()

	bus := eventing.NewBus()
	feed := bus.Subscribe(16)
	defer bus.Unsubscribe(feed)

	client := &llm.ScriptedClient{Responses: []string{"RESPONSE: Hello board."}}
	srv := newTestServer(t, client, boardSrv.URL, bus)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body := []byte(`{"board_id":"eng-1","account_id":"acct-1","session_id":"sess-9","prompt":"say hello"}`)
	resp := post(t, ts, body, sign(body))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("Status = %d, want 202", resp.StatusCode)
	}
	var accepted map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		t.Fatalf("Decoding response: %v", err)
	}
	if accepted["turn_id"] == "" {
		t.Error("Expected a turn_id in the acceptance body")
	}

	// The turn runs in the background; wait for its terminal activity on the
	// bus feed.
	select {
	case item := <-feed:
		if item.SessionID != "sess-9" {
			t.Errorf("Feed item session = %q", item.SessionID)
		}
		if item.Activity.Kind != agent.KindResponse {
			t.Errorf("Feed item kind = %s", item.Activity.Kind)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for the turn's activity")
	}

	if stub.count() != 1 {
		t.Errorf("Board stub received %d posts, want 1", stub.count())
	}
	if !strings.HasSuffix(stub.first(), "/v1/sessions/sess-9/activities") {
		t.Errorf("Board post path = %q", stub.first())
	}
}

func TestWebhookMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &llm.ScriptedClient{}, "http://unused.invalid", eventing.NewBus())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/webhook")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want 405", resp.StatusCode)
	}
}
