package agent

import (
	"regexp"
	"strings"

	"github.com/boardpilot/boardpilot/errors"
	"github.com/boardpilot/boardpilot/tools"
)

// kindPrefixes is the ordered mapping from reply prefix to activity kind.
// The literals and their precedence are a contract with the system prompt:
// the model is instructed to start every reply with exactly one of them.
var kindPrefixes = []struct {
	prefix string
	kind   Kind
}{
	{"THINKING:", KindThought},
	{"ACTION:", KindAction},
	{"RESPONSE:", KindResponse},
	{"ELICITATION:", KindElicitation},
	{"ERROR:", KindError},
}

// actionPattern matches a bare tool identifier directly followed by a single
// parenthesized argument list.
var actionPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\((.*)\)$`)

// Classify parses one raw model completion into exactly one Activity.
//
// A completion with no recognized prefix is treated as a Thought carrying
// the raw text, so a model that drifts off-protocol degrades to visible
// reasoning instead of killing the turn. A malformed ACTION, or an ACTION
// naming a tool outside the closed set, is a hard error: the tool surface is
// a correctness boundary and gets no such leniency.
func Classify(raw string) (Activity, error) {
	text := strings.TrimSpace(raw)

	for _, entry := range kindPrefixes {
		if !strings.HasPrefix(text, entry.prefix) {
			continue
		}
		body := strings.TrimSpace(text[len(entry.prefix):])
		if entry.kind == KindAction {
			return classifyAction(body)
		}
		return Activity{Kind: entry.kind, Body: body}, nil
	}

	return Thought(text), nil
}

func classifyAction(body string) (Activity, error) {
	m := actionPattern.FindStringSubmatch(body)
	if m == nil {
		return Activity{}, errors.New("malformed action %q: expected toolName(parameters)", body)
	}
	name, ok := tools.ParseName(m[1])
	if !ok {
		return Activity{}, errors.New("unknown tool %q", m[1])
	}
	return ActionIntent(name, strings.TrimSpace(m[2])), nil
}
