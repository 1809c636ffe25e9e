package agent

import (
	"fmt"
	"strings"

	"github.com/boardpilot/boardpilot/tools"
)

// Instructions builds the system message defining the reply protocol. The
// prefix literals here must match kindPrefixes exactly, and the tool list is
// generated from the registry so the prompt can never describe a tool the
// executor does not have.
func Instructions(registry *tools.Registry) string {
	var b strings.Builder

	b.WriteString(`You are an assistant working inside a collaboration board. You answer questions about places, weather, and local time.

Reply with EXACTLY ONE line type per message:

THINKING: <your reasoning about what to do next>
ACTION: <toolName>(<parameters>)
RESPONSE: <your final answer to the user>
ELICITATION: <a question you need the user to answer before you can continue>
ERROR: <why you cannot complete the request>

Rules:
- Every reply must start with one of the five prefixes above. Never combine them.
- Use at most one ACTION per reply. After an ACTION you will receive a message starting with "Tool result:" containing the outcome; continue from there.
- Coordinates are always written latitude first, then longitude.
- When you have everything you need, reply with RESPONSE. RESPONSE and ELICITATION end the conversation turn.

Available tools:
`)

	for _, t := range registry.All() {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
	}

	return b.String()
}
