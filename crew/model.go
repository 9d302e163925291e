package crew

import (
	"context"
	"fmt"

	"github.com/hupe1980/devcrew/config"
	"github.com/hupe1980/devcrew/model"
	"github.com/hupe1980/devcrew/model/anthropic"
	"github.com/hupe1980/devcrew/model/gemini"
	"github.com/hupe1980/devcrew/model/openai"
)

// NewModel builds the model adapter selected by cfg.Provider. Missing
// credentials are not checked here; they surface on the first model call.
func NewModel(ctx context.Context, cfg *config.Config) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.Model = cfg.Model
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = cfg.Model
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey
			if cfg.BaseURL != config.DefaultBaseURL {
				o.BaseURL = cfg.BaseURL
			}
		}), nil
	case config.ProviderGemini:
		m, err := gemini.NewModel(ctx, func(o *gemini.Options) {
			o.Model = cfg.Model
			o.Temperature = float32(cfg.Temperature)
			o.APIKey = cfg.APIKey
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}
