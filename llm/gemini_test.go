package llm

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"github.com/boardpilot/boardpilot/session"
)

func TestRequestModelDoesNotMutateShared(t *testing.T) {
	base := &genai.GenerativeModel{}
	client := &GeminiClient{model: base}

	got := client.requestModel("you are helpful")
	if got == base {
		t.Fatal("requestModel must return a copy, not the shared model")
	}
	if got.SystemInstruction == nil {
		t.Fatal("Copy should carry the system instruction")
	}
	if base.SystemInstruction != nil {
		t.Error("Shared model must stay untouched")
	}

	// No system prompt: still a copy, no instruction set.
	if plain := client.requestModel(""); plain.SystemInstruction != nil {
		t.Error("Empty prompt should not set an instruction")
	}
}

func TestRequestModelConcurrentTurns(t *testing.T) {
	base := &genai.GenerativeModel{}
	client := &GeminiClient{model: base}

	// One client serves every webhook turn, so per-call model preparation
	// must be safe under concurrency (run with -race).
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			prompt := fmt.Sprintf("instructions for turn %d", n)
			m := client.requestModel(prompt)
			parts := m.SystemInstruction.Parts
			if len(parts) != 1 || string(parts[0].(genai.Text)) != prompt {
				t.Errorf("Turn %d got instruction %v", n, parts)
			}
		}(i)
	}
	wg.Wait()

	if base.SystemInstruction != nil {
		t.Error("Shared model must stay untouched after concurrent turns")
	}
}

func TestConvertMessagesToGeminiContent(t *testing.T) {
	history, systemPrompt := convertMessagesToGeminiContent([]session.Message{
		{Role: session.RoleSystem, Content: "sys"},
		{Role: session.RoleUser, Content: "hi"},
		{Role: session.RoleAssistant, Content: "THINKING: hm"},
	})

	if systemPrompt != "sys" {
		t.Errorf("System prompt = %q", systemPrompt)
	}
	if len(history) != 2 {
		t.Fatalf("History length = %d", len(history))
	}
	if history[0].Role != "user" || history[1].Role != "model" {
		t.Errorf("Roles = %q, %q", history[0].Role, history[1].Role)
	}
}
