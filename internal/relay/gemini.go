package relay

import (
	"context"
	"errors"

	"github.com/S4DIB/startup-world-cup/internal/config"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

type geminiGenerator struct {
	client   *genai.Client
	model    string
	settings *genai.GenerateContentConfig
}

func newGeminiGenerator(ctx context.Context, provider config.ProviderConfig, sampling Sampling) (*geminiGenerator, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  provider.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if provider.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: provider.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, err
	}
	model := provider.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &geminiGenerator{
		client: client,
		model:  model,
		settings: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(sampling.Temperature),
			TopK:            genai.Ptr(sampling.TopK),
			TopP:            genai.Ptr(sampling.TopP),
			MaxOutputTokens: sampling.MaxOutputTokens,
		},
	}, nil
}

// Generate returns the text of the first part of the first candidate.
func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.settings)
	if err != nil {
		return "", &UpstreamError{Code: geminiStatus(err), Err: err}
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrBadResponse
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0] == nil {
		return "", ErrBadResponse
	}
	return content.Parts[0].Text, nil
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}
