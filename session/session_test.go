package session

import "testing"

func TestNewTranscriptSeedsSystemAndUser(t *testing.T) {
	tr := NewTranscript("you are helpful", "what time is it?")

	msgs := tr.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 seed messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleSystem || msgs[0].Content != "you are helpful" {
		t.Errorf("System message = %+v", msgs[0])
	}
	if msgs[1].Role != RoleUser || msgs[1].Content != "what time is it?" {
		t.Errorf("User message = %+v", msgs[1])
	}
}

func TestAppendAndCopySemantics(t *testing.T) {
	tr := NewTranscript("sys", "hi")
	tr.Append(RoleAssistant, "THINKING: hm")

	if tr.Len() != 3 {
		t.Fatalf("Len = %d", tr.Len())
	}

	// Mutating the returned slice must not affect the transcript.
	msgs := tr.Messages()
	msgs[0].Content = "tampered"
	if tr.Messages()[0].Content != "sys" {
		t.Error("Messages must return a copy")
	}
}
