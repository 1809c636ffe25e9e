package llm

import (
	"context"
	"os"

	"github.com/boardpilot/boardpilot/errors"
	"github.com/boardpilot/boardpilot/session"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient is a client for the Google Gemini API.
type GeminiClient struct {
	model *genai.GenerativeModel
}

// NewGeminiClient creates a new GeminiClient.
// It requires the GEMINI_API_KEY environment variable to be set.
func NewGeminiClient(ctx context.Context, modelName string) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create genai client")
	}

	return &GeminiClient{
		model: client.GenerativeModel(modelName),
	}, nil
}

// Complete sends the transcript to the Gemini API and returns the completion
// text. System messages become the model's system instruction; the last
// non-system message is sent as the new prompt with everything before it as
// chat history.
func (g *GeminiClient) Complete(ctx context.Context, messages []session.Message) (string, error) {
	history, systemPrompt := convertMessagesToGeminiContent(messages)
	if len(history) == 0 {
		return "", errors.New("transcript contains no sendable messages")
	}

	model := g.requestModel(systemPrompt)
	lastMessage := history[len(history)-1]

	chatSession := model.StartChat()
	chatSession.History = history[:len(history)-1]
	resp, err := chatSession.SendMessage(ctx, lastMessage.Parts...)
	if err != nil {
		return "", errors.Wrapf(err, "failed to send message to Gemini")
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("received an empty response from Gemini")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	return text, nil
}

// requestModel returns a per-call copy of the generative model carrying the
// transcript's system instruction. One GeminiClient serves concurrent turns,
// so the shared model must never be written after construction.
func (g *GeminiClient) requestModel(systemPrompt string) *genai.GenerativeModel {
	model := *g.model
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}
	return &model
}

// convertMessagesToGeminiContent converts our internal message format to
// Gemini's, splitting off the system prompt.
func convertMessagesToGeminiContent(messages []session.Message) ([]*genai.Content, string) {
	var contents []*genai.Content
	var systemPrompt string

	for _, msg := range messages {
		if msg.Role == session.RoleSystem {
			systemPrompt = msg.Content
			continue
		}
		role := "user"
		if msg.Role == session.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return contents, systemPrompt
}
