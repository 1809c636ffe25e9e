package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/boardpilot/boardpilot/config"
	"github.com/boardpilot/boardpilot/errors"
	"github.com/boardpilot/boardpilot/tools"
)

// stubTool stands in for a real tool and records the parameter it was given.
type stubTool struct {
	name     tools.Name
	result   string
	err      error
	gotParam string
	calls    int
}

func (s *stubTool) Name() tools.Name    { return s.name }
func (s *stubTool) Description() string { return "stub" }

func (s *stubTool) Invoke(ctx context.Context, parameter string) (string, error) {
	s.calls++
	s.gotParam = parameter
	return s.result, s.err
}

func stubRegistry(ts ...tools.Tool) *tools.Registry {
	r := tools.NewRegistry(&config.Config{})
	for _, t := range ts {
		r.Register(t)
	}
	return r
}

func TestExecutorPassesParameterVerbatim(t *testing.T) {
	stub := &stubTool{name: tools.WeatherLookup, result: "Clear sky, 22.1°C"}
	exec := NewExecutor(stubRegistry(stub))

	got := exec.Execute(context.Background(), tools.WeatherLookup, "48.85, 2.35")
	if got != "Clear sky, 22.1°C" {
		t.Errorf("Got %q", got)
	}
	if stub.gotParam != "48.85, 2.35" {
		t.Errorf("Tool received %q, want the parameter verbatim", stub.gotParam)
	}
}

func TestExecutorMissingParameter(t *testing.T) {
	stub := &stubTool{name: tools.TimeLookup}
	exec := NewExecutor(stubRegistry(stub))

	got := exec.Execute(context.Background(), tools.TimeLookup, "   ")
	if !strings.Contains(got, "Invalid parameters") {
		t.Errorf("Expected invalid-parameter text, got %q", got)
	}
	if stub.calls != 0 {
		t.Error("Tool must not be invoked without a parameter")
	}
}

func TestExecutorToolFailureBecomesText(t *testing.T) {
	stub := &stubTool{name: tools.WeatherLookup, err: errors.New("upstream timed out")}
	exec := NewExecutor(stubRegistry(stub))

	got := exec.Execute(context.Background(), tools.WeatherLookup, "40.0, -74.0")
	if !strings.Contains(got, "Failed to run weatherLookup") {
		t.Errorf("Expected failure text, got %q", got)
	}
	if !strings.Contains(got, "upstream timed out") {
		t.Errorf("Failure text should carry the cause, got %q", got)
	}
}
