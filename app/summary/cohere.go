package summary

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	coherecore "github.com/cohere-ai/cohere-go/v2/core"
)

// CohereProvider talks to the Cohere Chat API. Used when no Gemini key is
// configured.
type CohereProvider struct {
	client *cohereclient.Client
	model  string
}

var _ Provider = (*CohereProvider)(nil)

func NewCohereProvider(apiKey, model string) *CohereProvider {
	httpClient := &http.Client{
		Timeout: 60 * time.Second,
	}

	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)

	return &CohereProvider{
		client: client,
		model:  model,
	}
}

func (p *CohereProvider) Name() string {
	return "cohere/" + p.model
}

func (p *CohereProvider) Summarize(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Chat(ctx, &cohere.ChatRequest{
		Message: prompt,
		Model:   &p.model,
	})
	if err != nil {
		var apiErr *coherecore.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return "", ErrRateLimited
		}
		return "", fmt.Errorf("cohere chat: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("cohere response contains empty text")
	}

	return text, nil
}

// NewProvider selects a provider from the configured keys, preferring Gemini.
func NewProvider(geminiKey, geminiModel, cohereKey, cohereModel string) (Provider, error) {
	if geminiKey != "" {
		return NewGeminiProvider(geminiKey, geminiModel), nil
	}
	if cohereKey != "" {
		return NewCohereProvider(cohereKey, cohereModel), nil
	}
	return nil, fmt.Errorf("no summarization provider configured: set GEMINI_API_KEY or COHERE_API_KEY")
}
