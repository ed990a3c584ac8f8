package postcall

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/bytedance/sonic"
	openai "github.com/sashabaranov/go-openai"

	"voiceagent/intake"
)

// Config holds the configuration for the post-call completion client.
type Config struct {
	APIKey string
	// Model is the completion model used for extraction and summaries.
	// This is deliberately a cheaper tier than the live-call model.
	Model string
	// BaseURL overrides the provider endpoint (used by tests).
	BaseURL string
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() Config {
	return Config{
		Model: openai.GPT4oMini,
	}
}

// Client issues the single-shot post-call completions: structured intake
// extraction over the transcript, and the fallback free-text summary.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a post-call completion client.
func NewClient(config Config) *Client {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	model := config.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// Extraction is the structured result of a post-call transcript extraction.
type Extraction struct {
	CallType      intake.CallType   `json:"callType"`
	Fields        map[string]string `json:"fields"`
	CallerName    string            `json:"callerName"`
	CallerEmail   string            `json:"callerEmail"`
	CallerAddress string            `json:"callerAddress"`
	Summary       string            `json:"summary"`
}

// zeroTemperature is what we send for a deterministic completion: go-openai
// drops a literal 0 from the request body, so use the smallest value that
// still serializes.
const zeroTemperature = math.SmallestNonzeroFloat32

// Extract runs the structured-data extraction over a full call transcript.
// The instruction demands a JSON-only response; Markdown code fences are
// stripped defensively before parsing. Any provider or parse failure is
// returned as an error for the caller to treat as "no data produced".
func (c *Client) Extract(ctx context.Context, transcript string, callType intake.CallType) (*Extraction, error) {
	fieldsHint := ""
	if fields := intake.FieldsFor(callType); fields != nil {
		keys := make([]string, len(fields))
		for i, f := range fields {
			keys[i] = f.Key
		}
		fieldsHint = fmt.Sprintf("Expected fields for a %s call: %s", callType, strings.Join(keys, ", "))
	}

	instruction := fmt.Sprintf(`You are a data extraction assistant. Extract structured information from this HVAC intake call transcript.

%s

Respond with ONLY a JSON object:
{
  "callType": "design|service|quote|emergency|general",
  "fields": {"fieldKey": "extracted value", ...},
  "callerName": "name or null",
  "callerEmail": "email or null",
  "callerAddress": "address or null",
  "summary": "Brief 2-3 sentence summary of the call"
}`, fieldsHint)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instruction},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
		Temperature: zeroTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("postcall: extraction completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("postcall: extraction returned no choices")
	}

	text := stripCodeFences(resp.Choices[0].Message.Content)

	var extraction Extraction
	if err := sonic.Unmarshal([]byte(text), &extraction); err != nil {
		return nil, fmt.Errorf("postcall: parse extraction response: %w", err)
	}
	return &extraction, nil
}

// Summarize generates the fallback 2-3 sentence call summary. No structured
// format is required of the response.
func (c *Client) Summarize(ctx context.Context, transcript string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Summarize this HVAC intake call transcript in 2-3 sentences. Focus on what was discussed, what information was collected, and any next steps.",
			},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
		Temperature: zeroTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("postcall: summary completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("postcall: summary returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// stripCodeFences removes a wrapping Markdown code fence (with or without a
// language tag) from a model response.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		} else {
			text = text[3:]
		}
	}
	if strings.HasSuffix(text, "```") {
		text = text[:len(text)-3]
	}
	return strings.TrimSpace(text)
}
