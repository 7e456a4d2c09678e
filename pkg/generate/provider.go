package generate

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/recomserve/internal/logger"
	"github.com/bastiangx/recomserve/pkg/config"
	"github.com/bastiangx/recomserve/pkg/suggest"
)

// FromConfig builds the generator selected by [fallback].provider, rate
// limited when rate_per_sec is set and instrumented unless disabled.
func FromConfig(cfg *config.Config) (suggest.Generator, error) {
	fb := cfg.Fallback

	var gen suggest.Generator
	switch fb.Provider {
	case config.ProviderNone, "":
		log.Debug("Generative fallback disabled")
		return Disabled{}, nil
	case config.ProviderStatic:
		static, err := LoadStatic(cfg.Dict.Path(fb.StaticWordsFile))
		if err != nil {
			return nil, err
		}
		gen = static
	case config.ProviderOpenAI:
		apiKey := fb.APIKey()
		if apiKey == "" {
			log.Warnf("No API key in $%s, sending unauthenticated requests to %s", fb.APIKeyEnv, fb.BaseURL)
		}
		gen = NewOpenAI(&OpenAIConfig{
			APIKey:      apiKey,
			BaseURL:     fb.BaseURL,
			Model:       fb.Model,
			Temperature: float32(fb.Temperature),
			TopP:        float32(fb.TopP),
			MaxTokens:   fb.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("unknown fallback provider %q", fb.Provider)
	}

	if fb.RatePerSec > 0 {
		gen = NewRateLimited(gen, fb.RatePerSec, fb.Burst)
	}
	log.Debugf("Generative fallback: %s (model %s, timeout %v)", fb.Provider, fb.Model, fb.Timeout())
	return NewInstrumented(gen, fb.Provider, logger.New("generator")), nil
}
