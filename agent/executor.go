package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/boardpilot/boardpilot/tools"
)

// Executor resolves classified actions against the tool registry.
type Executor struct {
	registry *tools.Registry
}

func NewExecutor(registry *tools.Registry) *Executor {
	return &Executor{registry: registry}
}

// Execute runs one tool invocation and always returns displayable text. Tool
// failure, including a missing or malformed parameter, is conversational
// content the model can react to, never an error that ends the turn.
func (e *Executor) Execute(ctx context.Context, name tools.Name, parameter string) string {
	if strings.TrimSpace(parameter) == "" {
		return fmt.Sprintf("Invalid parameters for %s: a parameter is required", name)
	}

	tool, ok := e.registry.Get(name)
	if !ok {
		// Classification validates names against the closed set, so this
		// only fires if the registry and the enumeration have drifted.
		return fmt.Sprintf("Tool %s is not available", name)
	}

	result, err := tool.Invoke(ctx, parameter)
	if err != nil {
		return fmt.Sprintf("Failed to run %s: %v", name, err)
	}
	return result
}
