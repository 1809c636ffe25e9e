package llm

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/boardpilot/boardpilot/errors"
	"github.com/boardpilot/boardpilot/session"
)

// BedrockClient is a client for the Anthropic models on AWS Bedrock.
type BedrockClient struct {
	client  *bedrockruntime.Client
	modelID string
}

// NewBedrockClient creates a new BedrockClient.
// It requires AWS credentials to be configured in the environment.
func NewBedrockClient(ctx context.Context, modelID string) (*BedrockClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load AWS config")
	}

	return &BedrockClient{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
	}, nil
}

// Complete sends the transcript to the Anthropic model via AWS Bedrock and
// returns the completion text.
func (b *BedrockClient) Complete(ctx context.Context, messages []session.Message) (string, error) {
	requestBody, err := createBedrockRequest(messages)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create Bedrock request")
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Body:        requestBody,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to invoke Bedrock model")
	}

	return extractBedrockText(resp.Body)
}

// createBedrockRequest builds the request body for Anthropic models on
// Bedrock. System messages become the system field (the last one wins).
func createBedrockRequest(messages []session.Message) ([]byte, error) {
	var bedrockMessages []map[string]interface{}
	var systemPrompt string

	for _, msg := range messages {
		switch msg.Role {
		case session.RoleSystem:
			systemPrompt = msg.Content
			continue
		}
		role := "user"
		if msg.Role == session.RoleAssistant {
			role = "assistant"
		}
		bedrockMessages = append(bedrockMessages, map[string]interface{}{
			"role": role,
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": msg.Content,
				},
			},
		})
	}

	request := map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        1024,
		"messages":          bedrockMessages,
	}
	if systemPrompt != "" {
		request["system"] = systemPrompt
	}

	return json.Marshal(request)
}

// extractBedrockText pulls the concatenated text blocks out of a Bedrock
// response body.
func extractBedrockText(body []byte) (string, error) {
	var response map[string]interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", errors.Wrapf(err, "failed to unmarshal Bedrock response")
	}

	if errMsg, ok := response["error"]; ok {
		return "", errors.New("Bedrock API error: %v", errMsg)
	}

	content, ok := response["content"]
	if !ok {
		return "", nil
	}
	contentArray, ok := content.([]interface{})
	if !ok {
		return "", errors.New("unexpected content format in Bedrock response")
	}

	var text string
	for _, item := range contentArray {
		itemMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if itemMap["type"] != "text" {
			continue
		}
		if t, ok := itemMap["text"].(string); ok {
			text += t
		}
	}
	return text, nil
}
