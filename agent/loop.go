package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/boardpilot/boardpilot/errors"
	"github.com/boardpilot/boardpilot/llm"
	"github.com/boardpilot/boardpilot/session"
)

// State identifies where a session turn ended up.
type State string

const (
	StateRunning       State = "running"
	StateCompleted     State = "completed"
	StateAwaitingInput State = "awaiting_input"
	StateFailed        State = "failed"
	StateExhausted     State = "exhausted"
)

// ActivitySink durably records an activity against a session. Publish order
// within one turn must be preserved by implementations; the loop awaits
// every publish before taking its next step.
type ActivitySink interface {
	Publish(ctx context.Context, sessionID string, activity Activity) error
}

const (
	DefaultMaxIterations = 10
	DefaultPacingDelay   = time.Second

	publishAttempts = 3
	publishBackoff  = 250 * time.Millisecond
)

// LoopConfig tunes one Loop instance.
type LoopConfig struct {
	// MaxIterations caps the number of model calls per turn.
	MaxIterations int
	// PacingDelay is the courtesy wait between non-terminal cycles, giving
	// the model and activity APIs breathing room. Zero disables it.
	PacingDelay time.Duration
	Logger      zerolog.Logger
}

// Loop is the per-turn state machine: model call, classify, act, publish,
// repeat. One Loop runs one turn at a time; concurrent turns get their own
// Loop instances and share nothing mutable.
type Loop struct {
	client       llm.Client
	executor     *Executor
	sink         ActivitySink
	instructions string
	cfg          LoopConfig
}

func NewLoop(client llm.Client, executor *Executor, sink ActivitySink, cfg LoopConfig) (*Loop, error) {
	if client == nil {
		return nil, errors.New("llm client is required")
	}
	if executor == nil {
		return nil, errors.New("executor is required")
	}
	if sink == nil {
		return nil, errors.New("activity sink is required")
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}

	return &Loop{
		client:       client,
		executor:     executor,
		sink:         sink,
		instructions: Instructions(executor.registry),
		cfg:          cfg,
	}, nil
}

// Run executes one session turn: it seeds a fresh transcript with the
// instructions and the inbound prompt, then cycles until the model declares
// a terminal activity, something breaks, or the iteration cap is hit.
//
// Every terminal path except an unpublishable one leaves exactly one
// human-readable explanation on the sink. The returned error is non-nil only
// when the turn broke mechanically (model call, classification, publishing,
// or a panic); a model-declared ERROR activity fails the turn without one.
func (l *Loop) Run(ctx context.Context, sessionID, prompt string) (state State, err error) {
	defer func() {
		if r := recover(); r != nil {
			// Last-ditch boundary: surface the panic as an Error activity so
			// the user sees an explanation rather than silence.
			_ = l.publish(ctx, sessionID, ErrorActivity(fmt.Sprintf("Internal error: %v", r)))
			state = StateFailed
			err = errors.New("session turn panicked: %v", r)
		}
	}()

	logger := l.cfg.Logger.With().Str("session_id", sessionID).Logger()
	transcript := session.NewTranscript(l.instructions, prompt)

	for iteration := 1; ; iteration++ {
		if iteration > l.cfg.MaxIterations {
			logger.Warn().Int("max_iterations", l.cfg.MaxIterations).Msg("iteration cap reached")
			if perr := l.publish(ctx, sessionID, ErrorActivity("Maximum iterations reached without a final response.")); perr != nil {
				return StateFailed, perr
			}
			return StateExhausted, nil
		}

		raw, cerr := l.client.Complete(ctx, transcript.Messages())
		if cerr != nil {
			logger.Error().Err(cerr).Int("iteration", iteration).Msg("model call failed")
			if perr := l.publish(ctx, sessionID, ErrorActivity(fmt.Sprintf("Model call failed: %v", cerr))); perr != nil {
				return StateFailed, perr
			}
			return StateFailed, errors.Wrapf(cerr, "model call failed")
		}

		activity, cerr := Classify(raw)
		if cerr != nil {
			logger.Error().Err(cerr).Str("raw", raw).Msg("unclassifiable model output")
			if perr := l.publish(ctx, sessionID, ErrorActivity(fmt.Sprintf("Could not interpret model output: %v", cerr))); perr != nil {
				return StateFailed, perr
			}
			return StateFailed, cerr
		}

		logger.Debug().Int("iteration", iteration).Str("kind", string(activity.Kind)).Msg("classified model output")

		if activity.Kind.Terminal() {
			if perr := l.publish(ctx, sessionID, activity); perr != nil {
				return StateFailed, perr
			}
			return terminalState(activity.Kind), nil
		}

		switch activity.Kind {
		case KindThought:
			if perr := l.publish(ctx, sessionID, activity); perr != nil {
				return StateFailed, perr
			}
			transcript.Append(session.RoleAssistant, raw)

		case KindAction:
			// Two-phase publication: intent first, so observers see the tool
			// call while it is still in flight, then the outcome.
			if perr := l.publish(ctx, sessionID, activity); perr != nil {
				return StateFailed, perr
			}
			result := l.executor.Execute(ctx, activity.Tool, activity.Parameter)
			if perr := l.publish(ctx, sessionID, activity.WithResult(result)); perr != nil {
				return StateFailed, perr
			}
			transcript.Append(session.RoleAssistant, raw)
			transcript.Append(session.RoleUser, "Tool result: "+result)
		}

		l.pace(ctx)
	}
}

// terminalState maps a published terminal activity onto the turn's final
// state. A model-declared Error fails the turn without a process error: the
// explanation is already on the sink.
func terminalState(k Kind) State {
	switch k {
	case KindResponse:
		return StateCompleted
	case KindElicitation:
		return StateAwaitingInput
	default:
		return StateFailed
	}
}

// publish pushes one activity to the sink, retrying transient failures a
// fixed number of times. A publish that still fails abandons the turn: with
// the sink gone there is no channel left to carry even an explanation.
func (l *Loop) publish(ctx context.Context, sessionID string, activity Activity) error {
	var lastErr error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		if err := l.sink.Publish(ctx, sessionID, activity); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if attempt < publishAttempts {
			l.cfg.Logger.Warn().Err(lastErr).Int("attempt", attempt).Msg("activity publish failed, retrying")
			l.wait(ctx, publishBackoff)
		}
	}
	return errors.Wrapf(lastErr, "publishing %s activity failed after %d attempts", activity.Kind, publishAttempts)
}

func (l *Loop) pace(ctx context.Context) {
	l.wait(ctx, l.cfg.PacingDelay)
}

func (l *Loop) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
