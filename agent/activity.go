package agent

import (
	"fmt"

	"github.com/boardpilot/boardpilot/tools"
)

// Kind identifies the variant of an Activity.
type Kind string

const (
	KindThought     Kind = "thought"
	KindAction      Kind = "action"
	KindResponse    Kind = "response"
	KindElicitation Kind = "elicitation"
	KindError       Kind = "error"
)

// Terminal reports whether an activity of this kind ends the session turn.
func (k Kind) Terminal() bool {
	switch k {
	case KindResponse, KindElicitation, KindError:
		return true
	}
	return false
}

// Activity is one published unit of agent output.
//
// Action activities are published twice per action cycle with the same tool
// and parameter: once with Result nil (announcing intent) and once with
// Result set (reporting the outcome). All other kinds carry only Body.
type Activity struct {
	Kind      Kind       `json:"kind"`
	Body      string     `json:"body,omitempty"`
	Tool      tools.Name `json:"tool,omitempty"`
	Parameter string     `json:"parameter,omitempty"`
	Result    *string    `json:"result,omitempty"`
}

func Thought(body string) Activity {
	return Activity{Kind: KindThought, Body: body}
}

func Response(body string) Activity {
	return Activity{Kind: KindResponse, Body: body}
}

func Elicitation(body string) Activity {
	return Activity{Kind: KindElicitation, Body: body}
}

func ErrorActivity(body string) Activity {
	return Activity{Kind: KindError, Body: body}
}

// ActionIntent builds the first of an action cycle's two activities.
func ActionIntent(tool tools.Name, parameter string) Activity {
	return Activity{Kind: KindAction, Tool: tool, Parameter: parameter}
}

// WithResult copies an action activity and fills in its outcome.
func (a Activity) WithResult(result string) Activity {
	out := a
	out.Result = &result
	return out
}

// String renders a compact human-readable form, used in logs and the
// console sink.
func (a Activity) String() string {
	if a.Kind != KindAction {
		return fmt.Sprintf("[%s] %s", a.Kind, a.Body)
	}
	if a.Result == nil {
		return fmt.Sprintf("[action] %s(%s)", a.Tool, a.Parameter)
	}
	return fmt.Sprintf("[action] %s(%s) -> %s", a.Tool, a.Parameter, *a.Result)
}
