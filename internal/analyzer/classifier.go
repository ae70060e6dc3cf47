package analyzer

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// =============================================================================
// CLASSIFIER
// =============================================================================

// Reply is one model answer plus its token usage.
type Reply struct {
	Text           string
	PromptTokens   int
	ResponseTokens int
}

// Classifier sends a prompt to a generative model. Implementations must be
// safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (Reply, error)
}

const temperature float32 = 0.3

// GenAIClassifier classifies through Google's Gemini API.
type GenAIClassifier struct {
	client *genai.Client
	model  string
}

// NewGenAIClassifier creates a client for model.
func NewGenAIClassifier(ctx context.Context, apiKey, model string) (*GenAIClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("GenAI model is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIClassifier{client: client, model: model}, nil
}

// Model returns the model name replies come from.
func (c *GenAIClassifier) Model() string {
	return c.model
}

// Classify asks for a JSON reply to prompt.
func (c *GenAIClassifier) Classify(ctx context.Context, prompt string) (Reply, error) {
	resp, err := c.client.Models.GenerateContent(ctx,
		c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(temperature),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return Reply{}, fmt.Errorf("GenAI generate failed: %w", err)
	}

	reply := Reply{Text: resp.Text()}
	if u := resp.UsageMetadata; u != nil {
		reply.PromptTokens = int(u.PromptTokenCount)
		reply.ResponseTokens = int(u.CandidatesTokenCount)
	}
	return reply, nil
}
