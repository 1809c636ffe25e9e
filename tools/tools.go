package tools

import (
	"context"

	"github.com/boardpilot/boardpilot/config"
	"github.com/boardpilot/boardpilot/httpkit"
)

// Name identifies a tool in the closed tool set. The enumeration, the
// registry contents, and the model-facing descriptions must never drift
// apart: the model is prompted with exactly these identifiers.
type Name string

const (
	CoordinatesLookup Name = "coordinatesLookup"
	WeatherLookup     Name = "weatherLookup"
	TimeLookup        Name = "timeLookup"
)

// names lists the closed set in the order tools are presented to the model.
var names = []Name{CoordinatesLookup, WeatherLookup, TimeLookup}

// ParseName maps an identifier extracted from model output onto the closed
// enumeration. An unrecognized identifier is not a tool.
func ParseName(s string) (Name, bool) {
	for _, n := range names {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}

// Tool defines one action the agent can take on the model's behalf.
//
// Invoke receives the raw parameter text exactly as the model wrote it
// between the parentheses. Each tool validates its own parameter shape
// before touching the network; a parameter that fails validation returns an
// error without any upstream call. All upstream failure (non-2xx status,
// malformed payload, timeout) is likewise returned as an error value;
// tools never panic past their boundary.
type Tool interface {
	Name() Name
	Description() string
	Invoke(ctx context.Context, parameter string) (string, error)
}

// Registry holds the fixed tool set.
type Registry struct {
	tools map[Name]Tool
}

// NewRegistry builds the registry with the three built-in tools, sharing one
// HTTP client across them.
func NewRegistry(cfg *config.Config) *Registry {
	client := httpkit.NewClient(cfg.ToolHTTPTimeout())

	r := &Registry{tools: make(map[Name]Tool)}
	r.Register(NewCoordinatesTool(client))
	r.Register(NewWeatherTool(client))
	r.Register(NewTimeTool(client, cfg.TimeLookupCeiling()))
	return r
}

// Register adds or replaces a tool. Exposed so tests can substitute fakes;
// the production set is fixed at construction.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

// Get returns the tool registered under name.
func (r *Registry) Get(name Name) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns the registered tools in presentation order.
func (r *Registry) All() []Tool {
	var out []Tool
	for _, n := range names {
		if t, ok := r.tools[n]; ok {
			out = append(out, t)
		}
	}
	return out
}
