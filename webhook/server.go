// Package webhook receives board events over HTTP and turns each one into an
// agent session turn. Inbound requests are HMAC-signed by the board; events
// are validated against a JSON Schema before any work is scheduled.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/boardpilot/boardpilot/agent"
	"github.com/boardpilot/boardpilot/auth"
	"github.com/boardpilot/boardpilot/board"
	"github.com/boardpilot/boardpilot/config"
	"github.com/boardpilot/boardpilot/errors"
	"github.com/boardpilot/boardpilot/eventing"
	"github.com/boardpilot/boardpilot/httpkit"
	"github.com/boardpilot/boardpilot/llm"
)

const maxBodyBytes = 1 << 20

// eventSchema validates the board's event payload. Unknown extra fields are
// tolerated so the board can evolve its payload without breaking us.
const eventSchema = `{
  "type": "object",
  "required": ["board_id", "account_id", "session_id", "prompt"],
  "properties": {
    "board_id":   {"type": "string", "minLength": 1},
    "account_id": {"type": "string", "minLength": 1},
    "session_id": {"type": "string", "minLength": 1},
    "prompt":     {"type": "string", "minLength": 1}
  }
}`

// Event is one inbound board event after validation.
type Event struct {
	BoardID   string `json:"board_id"`
	AccountID string `json:"account_id"`
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
}

// Server handles the board's webhook deliveries and exposes the live
// activity feed.
type Server struct {
	cfg      *config.Config
	logger   zerolog.Logger
	client   llm.Client
	executor *agent.Executor
	provider auth.Provider
	bus      *eventing.Bus
	secret   []byte
	schema   *jsonschema.Schema
	upgrader websocket.Upgrader
}

func NewServer(cfg *config.Config, logger zerolog.Logger, client llm.Client, executor *agent.Executor, provider auth.Provider, bus *eventing.Bus, secret []byte) (*Server, error) {
	if len(secret) == 0 {
		return nil, errors.New("webhook secret is required")
	}
	schema, err := compileEventSchema()
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		executor: executor,
		provider: provider,
		bus:      bus,
		secret:   secret,
		schema:   schema,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}, nil
}

func compileEventSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("event.json", strings.NewReader(eventSchema)); err != nil {
		return nil, errors.Wrapf(err, "adding event schema")
	}
	schema, err := c.Compile("event.json")
	if err != nil {
		return nil, errors.Wrapf(err, "compiling event schema")
	}
	return schema, nil
}

// Handler returns the server's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/ws", s.handleFeed)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// ListenAndServe blocks serving the configured listen address.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("listen", s.cfg.Webhook.Listen).Msg("webhook server starting")
	return http.ListenAndServe(s.cfg.Webhook.Listen, s.Handler())
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	if !s.signatureValid(r.Header.Get("X-Signature"), body) {
		s.logger.Warn().Str("remote", r.RemoteAddr).Msg("webhook signature rejected")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	// Endpoint verification: the board sends {"challenge": "..."} when the
	// webhook URL is registered and expects it echoed back.
	var probe struct {
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.Challenge != "" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"challenge": probe.Challenge})
		return
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	if err := s.schema.Validate(payload); err != nil {
		http.Error(w, "invalid event: "+err.Error(), http.StatusBadRequest)
		return
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	if !s.cfg.BoardAllowed(event.BoardID) {
		s.logger.Warn().Str("board_id", event.BoardID).Msg("board not in allowlist")
		http.Error(w, "board not allowed", http.StatusForbidden)
		return
	}

	turnID := uuid.NewString()
	go s.runTurn(turnID, event)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"turn_id": turnID})
}

func (s *Server) signatureValid(header string, body []byte) bool {
	given, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(given), []byte(want))
}

// runTurn executes one session turn in the background. The webhook response
// has already been sent, so failures here are logged and published but never
// reported to the board's delivery attempt.
func (s *Server) runTurn(turnID string, event Event) {
	ctx := context.Background()
	logger := s.logger.With().
		Str("turn_id", turnID).
		Str("board_id", event.BoardID).
		Str("session_id", event.SessionID).
		Logger()

	token, err := s.provider.AccessToken(ctx, event.AccountID)
	if err != nil {
		logger.Error().Err(err).Str("account_id", event.AccountID).Msg("no board credentials, dropping turn")
		return
	}

	boardSink := board.NewClient(httpkit.NewClient(s.cfg.BoardHTTPTimeout()), s.cfg.Board.BaseURL, token)
	sink := eventing.Tee{boardSink, eventing.NewBusSink(s.bus)}

	loop, err := agent.NewLoop(s.client, s.executor, sink, agent.LoopConfig{
		MaxIterations: s.cfg.Loop.MaxIterations,
		PacingDelay:   s.cfg.PacingDelay(),
		Logger:        logger,
	})
	if err != nil {
		logger.Error().Err(err).Msg("constructing session loop")
		return
	}

	state, err := loop.Run(ctx, event.SessionID, event.Prompt)
	if err != nil {
		logger.Error().Err(err).Str("state", string(state)).Msg("session turn failed")
		return
	}
	logger.Info().Str("state", string(state)).Msg("session turn finished")
}

// handleFeed streams bus items to a WebSocket client as JSON, one message
// per activity. Slow clients fall behind the bus buffer and miss items.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	items := s.bus.Subscribe(64)
	defer s.bus.Unsubscribe(items)

	// Reader goroutine: drain client frames so pings and close messages are
	// processed, and signal when the client goes away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case item, ok := <-items:
			if !ok {
				return
			}
			if err := conn.WriteJSON(item); err != nil {
				return
			}
		}
	}
}
