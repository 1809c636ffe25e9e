package board

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boardpilot/boardpilot/agent"
	"github.com/boardpilot/boardpilot/httpkit"
)

func TestClientPublish(t *testing.T) {
	var gotPath, gotAuth string
	var gotActivity agent.Activity
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotActivity); err != nil {
			t.Errorf("Decoding body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(httpkit.NewClient(5*time.Second), srv.URL, "token-abc")
	err := client.Publish(context.Background(), "sess-42", agent.Response("All done."))
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if gotPath != "/v1/sessions/sess-42/activities" {
		t.Errorf("Path = %q", gotPath)
	}
	if gotAuth != "Bearer token-abc" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotActivity.Kind != agent.KindResponse || gotActivity.Body != "All done." {
		t.Errorf("Activity = %+v", gotActivity)
	}
}

func TestClientPublishActionResult(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("Decoding body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(httpkit.NewClient(5*time.Second), srv.URL, "t")
	act := agent.ActionIntent("weatherLookup", "48.85, 2.35").WithResult("Clear sky")
	if err := client.Publish(context.Background(), "s", act); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if raw["result"] != "Clear sky" {
		t.Errorf("Wire result = %v", raw["result"])
	}
	if raw["tool"] != "weatherLookup" {
		t.Errorf("Wire tool = %v", raw["tool"])
	}
}

func TestClientPublishNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(httpkit.NewClient(5*time.Second), srv.URL, "t")
	err := client.Publish(context.Background(), "s", agent.Thought("hm"))
	if err == nil {
		t.Fatal("Expected error for 429")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("Error should carry the status: %v", err)
	}
}
