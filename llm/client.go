package llm

import (
	"context"
	"sync"

	"github.com/boardpilot/boardpilot/session"
)

// Client is the interface for interacting with a language model. Each call
// is stateless: the full transcript is sent every time, and the reply is the
// raw text of a single completion. The reply protocol (THINKING:/ACTION:/...)
// lives entirely in the transcript's system message, so clients carry no
// tool-calling machinery of their own.
type Client interface {
	Complete(ctx context.Context, messages []session.Message) (string, error)
}

// ScriptedClient replays a fixed sequence of responses. It backs the "mock"
// client selection and the loop tests.
type ScriptedClient struct {
	Responses []string

	mu    sync.Mutex
	calls int
}

func (s *ScriptedClient) Complete(ctx context.Context, messages []session.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Responses) == 0 {
		return "RESPONSE: The scripted client has no responses configured.", nil
	}
	i := s.calls
	s.calls++
	if i >= len(s.Responses) {
		// Past the end of the script, keep repeating the final response.
		i = len(s.Responses) - 1
	}
	return s.Responses[i], nil
}

// Calls reports how many completions have been requested.
func (s *ScriptedClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
