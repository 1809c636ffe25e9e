// Package session holds the conversation transcript for one session turn.
//
// A transcript is seeded with exactly one system message (the reply-protocol
// instructions) and one user message (the task prompt), and is only ever
// appended to after that. It lives in process memory for the duration of a
// single turn; persistence across turns belongs to the surrounding
// collaboration platform, not to this process.
package session

// Roles for transcript messages. The model is stateless per call: the full
// role-tagged history is resent on every completion request.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Transcript is the ordered, append-only message history for one turn.
type Transcript struct {
	messages []Message
}

// NewTranscript seeds a transcript with the system instructions and the
// inbound user prompt.
func NewTranscript(instructions, prompt string) *Transcript {
	return &Transcript{
		messages: []Message{
			{Role: RoleSystem, Content: instructions},
			{Role: RoleUser, Content: prompt},
		},
	}
}

// Append adds a message to the end of the transcript.
func (t *Transcript) Append(role, content string) {
	t.messages = append(t.messages, Message{Role: role, Content: content})
}

// Messages returns a copy of the history, safe to hand to an LLM client.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len reports the number of messages in the transcript.
func (t *Transcript) Len() int {
	return len(t.messages)
}
