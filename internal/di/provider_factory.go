package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/leadlens/leadlens/internal/config"
	"github.com/leadlens/leadlens/internal/providers"
	"github.com/leadlens/leadlens/internal/ratelimit"
)

// ErrUnknownProviderType is returned when the provider type is not recognized.
// Config validation normally rejects unknown types before this factory runs.
var ErrUnknownProviderType = fmt.Errorf("unknown provider type")

// supportedProviderTypes is the list of supported provider types for error messages.
const supportedProviderTypes = "groq, openai, ollama, bedrock"

// createProvider creates a provider instance from configuration. The
// shared limiter is threaded into every provider so admission happens at
// dispatch no matter which vendor serves the call.
// Returns ErrUnknownProviderType for unknown provider types.
func createProvider(ctx context.Context, p *config.ProviderConfig, limiter ratelimit.Limiter) (providers.Provider, error) {
	base := providers.Config{
		Name:     p.Name,
		APIKey:   p.APIKey,
		Model:    p.Model,
		BaseURL:  p.BaseURL,
		Priority: p.Priority,
	}

	switch p.Type {
	case config.ProviderGroq:
		return providers.NewGroqProvider(base, limiter), nil
	case config.ProviderOpenAI:
		return providers.NewOpenAIProvider(base, limiter), nil
	case config.ProviderOllama:
		return providers.NewOllamaProvider(base, limiter), nil
	case config.ProviderBedrock:
		return createBedrockProvider(ctx, p, limiter)
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownProviderType, p.Type, supportedProviderTypes)
	}
}

// createBedrockProvider builds the Bedrock adapter. Static keys in the
// config bypass the default AWS credential chain; without them the SDK
// resolves credentials from the environment, shared config, or IMDS.
func createBedrockProvider(ctx context.Context, p *config.ProviderConfig, limiter ratelimit.Limiter) (providers.Provider, error) {
	if err := p.ValidateCloudConfig(); err != nil {
		return nil, fmt.Errorf("bedrock provider %s: %w", p.Name, err)
	}

	bedrockCfg := &providers.BedrockConfig{
		Name:     p.Name,
		Region:   p.AWSRegion,
		Model:    p.Model,
		BaseURL:  p.BaseURL,
		Priority: p.Priority,
	}

	if p.AWSAccessKeyID != "" && p.AWSSecretAccessKey != "" {
		creds := aws.Credentials{
			AccessKeyID:     p.AWSAccessKeyID,
			SecretAccessKey: p.AWSSecretAccessKey,
			Source:          "leadlens config",
		}
		static := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return creds, nil
		})
		return providers.NewBedrockProviderWithCredentials(bedrockCfg, static, limiter), nil
	}

	return providers.NewBedrockProvider(ctx, bedrockCfg, limiter)
}

// providerHealthBaseURL resolves the endpoint the recovery prober hits
// for a provider. Explicit base URLs win; otherwise the vendor default.
func providerHealthBaseURL(p *config.ProviderConfig) string {
	if p.BaseURL != "" {
		return p.BaseURL
	}

	switch p.Type {
	case config.ProviderGroq:
		return providers.DefaultGroqBaseURL
	case config.ProviderOpenAI:
		return providers.DefaultOpenAIBaseURL
	case config.ProviderOllama:
		return providers.DefaultOllamaBaseURL
	case config.ProviderBedrock:
		if p.AWSRegion != "" {
			return fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", p.AWSRegion)
		}
	}

	return ""
}
