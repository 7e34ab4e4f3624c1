package services

import (
	"context"

	"google.golang.org/genai"

	"devfolio/portfolio-api/internal/apperr"
)

type ModelRequest struct {
	Model             string
	SystemInstruction string
	Prompt            string
	Temperature       float32
	MaxOutputTokens   int32
}

type ModelResponse struct {
	Text        string
	TokensUsed  int32
	PromptChars int
}

// ModelClient abstracts the hosted LLM call so the extraction pipeline can
// be tested against a fake.
type ModelClient interface {
	Generate(ctx context.Context, req ModelRequest) (*ModelResponse, error)
}

type geminiClient struct {
	client *genai.Client
}

// NewGeminiClient builds the Gemini-backed ModelClient. A missing API key is
// not fatal here: file endpoints must keep working without one, so the
// credential error surfaces on the first extraction call instead.
func NewGeminiClient(apiKey string) (ModelClient, error) {
	if apiKey == "" {
		return &geminiClient{}, nil
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apperr.E(apperr.CodeConfiguration, "NewGeminiClient", "failed to create gemini client", err)
	}

	return &geminiClient{client: client}, nil
}

// Generate implements ModelClient.
func (g *geminiClient) Generate(ctx context.Context, req ModelRequest) (*ModelResponse, error) {
	const op = "GeminiClient.Generate"

	if g.client == nil {
		return nil, apperr.E(apperr.CodeConfiguration, op, "GEMINI_API_KEY is not configured", nil)
	}

	temperature := req.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: req.MaxOutputTokens,
	}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, apperr.E(apperr.CodeUpstream, op, "model API call failed", err)
	}
	if resp == nil {
		return nil, apperr.E(apperr.CodeUpstream, op, "model returned no response", nil)
	}

	var tokens int32
	if resp.UsageMetadata != nil {
		tokens = resp.UsageMetadata.TotalTokenCount
	}

	return &ModelResponse{
		Text:        resp.Text(),
		TokensUsed:  tokens,
		PromptChars: len(req.Prompt),
	}, nil
}
