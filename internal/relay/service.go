package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/S4DIB/startup-world-cup/internal/config"
	"github.com/S4DIB/startup-world-cup/internal/logging"
	"github.com/S4DIB/startup-world-cup/internal/models"
)

// Turn is one prior exchange replayed to the model.
type Turn = models.Turn

var (
	// ErrNotConfigured means the provider secret is unset.
	ErrNotConfigured = errors.New("relay: provider api key not configured")
	// ErrBadResponse means the provider answered without any reply text.
	ErrBadResponse = errors.New("relay: response carried no text")
)

// UpstreamError wraps a failed provider call. Code is the HTTP status when known.
type UpstreamError struct {
	Code int
	Err  error
}

func (e *UpstreamError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("relay: upstream returned %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("relay: upstream call failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Sampling carries the generation options sent with every call.
type Sampling struct {
	Temperature     float32
	TopK            float32
	TopP            float32
	MaxOutputTokens int32
}

// DefaultSampling matches the tuning the product shipped with.
var DefaultSampling = Sampling{Temperature: 0.7, TopK: 40, TopP: 0.95, MaxOutputTokens: 2048}

// Generator turns a full prompt into reply text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service relays founder messages to the configured provider.
type Service struct {
	provider string
	gen      Generator
}

// New builds the generator for the configured provider. A missing api key
// is not an error here; Reply reports ErrNotConfigured instead.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	name, provider := cfg.Provider()
	sampling := samplingFrom(cfg.Relay)
	provider.APIKey = cfg.APIKey(name)
	if provider.APIKey == "" {
		return &Service{provider: name}, nil
	}

	var (
		gen Generator
		err error
	)
	switch name {
	case "gemini":
		gen, err = newGeminiGenerator(ctx, provider, sampling)
	case "openai", "claude":
		gen, err = newEinoGenerator(ctx, name, provider, sampling)
	default:
		return nil, fmt.Errorf("invalid provider: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s relay: %w", name, err)
	}
	return &Service{provider: name, gen: gen}, nil
}

// NewWithGenerator wraps an existing generator, mainly for tests.
func NewWithGenerator(provider string, gen Generator) *Service {
	return &Service{provider: strings.ToLower(provider), gen: gen}
}

// Label is the provider name shown in client-facing errors.
func (s *Service) Label() string {
	switch s.provider {
	case "openai":
		return "OpenAI"
	case "claude":
		return "Claude"
	default:
		return "Gemini"
	}
}

// Reply sends message plus the prior turns and returns the model's answer.
func (s *Service) Reply(ctx context.Context, message string, history []Turn) (string, error) {
	if s == nil || s.gen == nil {
		return "", ErrNotConfigured
	}
	text, err := s.gen.Generate(ctx, BuildPrompt(message, history))
	if err != nil {
		logging.FromContext(ctx).WithField("provider", s.provider).WithError(err).Error("relay call failed")
		return "", err
	}
	if text == "" {
		logging.FromContext(ctx).WithField("provider", s.provider).Error("relay response had no text")
		return "", ErrBadResponse
	}
	return text, nil
}

func samplingFrom(cfg config.RelayConfig) Sampling {
	s := DefaultSampling
	if cfg.Temperature != nil {
		s.Temperature = *cfg.Temperature
	}
	if cfg.TopK != nil {
		s.TopK = *cfg.TopK
	}
	if cfg.TopP != nil {
		s.TopP = *cfg.TopP
	}
	if cfg.MaxOutputTokens != nil {
		s.MaxOutputTokens = *cfg.MaxOutputTokens
	}
	return s
}
