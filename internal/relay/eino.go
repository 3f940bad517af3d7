package relay

import (
	"context"
	"fmt"

	"github.com/S4DIB/startup-world-cup/internal/config"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// einoGenerator sends the prompt as a single user message through an Eino chat model.
type einoGenerator struct {
	chat model.BaseChatModel
	opts []model.Option
}

func newEinoGenerator(ctx context.Context, name string, provider config.ProviderConfig, sampling Sampling) (*einoGenerator, error) {
	var (
		chat model.BaseChatModel
		err  error
	)
	switch name {
	case "openai":
		chat, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provider.BaseURL,
			Model:   provider.Model,
			APIKey:  provider.APIKey,
		})
	case "claude":
		var baseURL *string
		if provider.BaseURL != "" {
			baseURL = &provider.BaseURL
		}
		chat, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provider.APIKey,
			Model:     provider.Model,
			BaseURL:   baseURL,
			MaxTokens: int(sampling.MaxOutputTokens),
		})
	default:
		return nil, fmt.Errorf("no eino model for provider %s", name)
	}
	if err != nil {
		return nil, err
	}

	opts := []model.Option{
		model.WithTemperature(sampling.Temperature),
		model.WithTopP(sampling.TopP),
		model.WithMaxTokens(int(sampling.MaxOutputTokens)),
	}
	return &einoGenerator{chat: chat, opts: opts}, nil
}

func (g *einoGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := g.chat.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)}, g.opts...)
	if err != nil {
		return "", &UpstreamError{Err: err}
	}
	if msg == nil {
		return "", ErrBadResponse
	}
	return msg.Content, nil
}
