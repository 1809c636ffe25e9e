// Package console is the local interactive mode: prompts are read from the
// terminal and activities are printed instead of posted to a board. Useful
// for trying out prompts and tools without webhook plumbing.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/boardpilot/boardpilot/agent"
	"github.com/boardpilot/boardpilot/config"
	"github.com/boardpilot/boardpilot/errors"
	"github.com/boardpilot/boardpilot/llm"
)

// Console drives session turns from an input stream.
type Console struct {
	client   llm.Client
	executor *agent.Executor
	cfg      *config.Config
	logger   zerolog.Logger
	in       io.Reader
	out      io.Writer
}

func New(client llm.Client, executor *agent.Executor, cfg *config.Config, logger zerolog.Logger, in io.Reader, out io.Writer) *Console {
	return &Console{
		client:   client,
		executor: executor,
		cfg:      cfg,
		logger:   logger,
		in:       in,
		out:      out,
	}
}

// printSink writes each activity as it is published.
type printSink struct {
	out io.Writer
}

func (s printSink) Publish(ctx context.Context, sessionID string, activity agent.Activity) error {
	_, err := fmt.Fprintln(s.out, activity.String())
	return err
}

// Run reads prompts until EOF or /quit. Each prompt is one session turn.
func (c *Console) Run(ctx context.Context, initialPrompt string) error {
	if initialPrompt != "" {
		if err := c.processTurn(ctx, initialPrompt); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, "You: ")
		if !scanner.Scan() {
			// EOF or read error ends the session
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" || input == "/exit" {
			break
		}

		if err := c.processTurn(ctx, input); err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "reading console input")
	}
	return nil
}

func (c *Console) processTurn(ctx context.Context, prompt string) error {
	loop, err := agent.NewLoop(c.client, c.executor, printSink{out: c.out}, agent.LoopConfig{
		MaxIterations: c.cfg.Loop.MaxIterations,
		PacingDelay:   c.cfg.PacingDelay(),
		Logger:        c.logger,
	})
	if err != nil {
		return err
	}

	state, err := loop.Run(ctx, "console-"+uuid.NewString(), prompt)
	if err != nil {
		return err
	}
	if state == agent.StateAwaitingInput {
		fmt.Fprintln(c.out, "(answer above to continue)")
	}
	return nil
}
