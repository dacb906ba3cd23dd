package providers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/leadlens/leadlens/internal/ratelimit"
)

const (
	// DefaultBedrockModel is used when no model is configured.
	DefaultBedrockModel = "anthropic.claude-3-haiku-20240307-v1:0"

	// bedrockService is the AWS service name for signing.
	bedrockService = "bedrock"
)

// BedrockCredentialsProvider abstracts AWS credential retrieval for testing.
type BedrockCredentialsProvider interface {
	Retrieve(ctx context.Context) (aws.Credentials, error)
}

// BedrockConfig holds Bedrock-specific configuration.
type BedrockConfig struct {
	Name     string
	Region   string // AWS region (e.g., "us-east-1")
	Model    string
	BaseURL  string // overrides the regional endpoint, used by tests
	Priority int
}

// BedrockProvider implements the Provider interface for AWS Bedrock via
// the Converse API. Bedrock requires:
// - Model in URL path (not body)
// - AWS SigV4 authentication over the exact payload bytes
// Converse has no JSON response mode, so the system prompt carries the
// formatting instruction and the normalizer absorbs the slack.
type BedrockProvider struct {
	credentials BedrockCredentialsProvider
	signer      *v4.Signer
	limiter     ratelimit.Limiter
	client      *http.Client
	name        string
	baseURL     string
	model       string
	region      string
	priority    int
}

// NewBedrockProvider creates a new Bedrock provider instance.
// Uses AWS SDK default credential chain for authentication.
func NewBedrockProvider(ctx context.Context, cfg *BedrockConfig, limiter ratelimit.Limiter) (*BedrockProvider, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("bedrock: region is required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("bedrock: failed to load AWS config: %w", err)
	}

	return NewBedrockProviderWithCredentials(cfg, awsCfg.Credentials, limiter), nil
}

// NewBedrockProviderWithCredentials creates a Bedrock provider with explicit credentials.
// Useful for testing or when using non-default credential providers.
func NewBedrockProviderWithCredentials(
	cfg *BedrockConfig,
	credentials BedrockCredentialsProvider,
	limiter ratelimit.Limiter,
) *BedrockProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		// Format: https://bedrock-runtime.{region}.amazonaws.com
		baseURL = fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", cfg.Region)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultBedrockModel
	}

	return &BedrockProvider{
		credentials: credentials,
		signer:      v4.NewSigner(),
		limiter:     limiter,
		client:      &http.Client{},
		name:        cfg.Name,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		model:       model,
		region:      cfg.Region,
		priority:    cfg.Priority,
	}
}

// Name returns the configured provider identifier.
func (p *BedrockProvider) Name() string { return p.name }

// Priority returns the failover ordering rank; lower runs first.
func (p *BedrockProvider) Priority() int { return p.priority }

// Model returns the model identifier sent with every completion.
func (p *BedrockProvider) Model() string { return p.model }

// GetRegion returns the configured AWS region.
func (p *BedrockProvider) GetRegion() string {
	return p.region
}

// Complete admits the call through the shared limiter, signs one Converse
// request with SigV4, and classifies the outcome.
func (p *BedrockProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := admit(ctx, p.limiter, p.name); err != nil {
		return nil, err
	}

	ctx, cancel := requestContext(ctx, req.Timeout)
	defer cancel()

	payload, err := json.Marshal(p.conversePayload(req))
	if err != nil {
		return nil, &RequestError{Provider: p.name, Message: fmt.Sprintf("encode payload: %v", err)}
	}

	// The model ID needs URL encoding because it contains special characters (colons, etc.)
	endpoint := p.baseURL + "/model/" + url.PathEscape(p.model) + "/converse"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &RequestError{Provider: p.name, Message: fmt.Sprintf("build request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if err := p.sign(ctx, httpReq, payload); err != nil {
		return nil, &RequestError{Provider: p.name, Message: err.Error()}
	}

	raw, err := execute(p.client, p.name, httpReq)
	if err != nil {
		return nil, err
	}

	content := gjson.GetBytes(raw, "output.message.content.0.text")
	if !content.Exists() {
		return nil, &RequestError{Provider: p.name, Message: "converse payload missing output.message.content"}
	}

	return buildResponse(req.Format, content.String()), nil
}

// sign adds AWS SigV4 authentication to the request. SigV4 requires
// hashing the exact payload bytes, so sign must receive the same slice the
// request body was built from.
func (p *BedrockProvider) sign(ctx context.Context, req *http.Request, payload []byte) error {
	if p.credentials == nil {
		return fmt.Errorf("bedrock: no credentials provider configured")
	}

	creds, err := p.credentials.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("bedrock: failed to retrieve credentials: %w", err)
	}

	hash := sha256.Sum256(payload)
	payloadHash := hex.EncodeToString(hash[:])

	// DisableURIPathEscaping keeps the colon in the model ID signed as sent.
	err = p.signer.SignHTTP(
		ctx,
		creds,
		req,
		payloadHash,
		bedrockService,
		p.region,
		time.Now(),
		func(options *v4.SignerOptions) {
			options.DisableURIPathEscaping = true
		},
	)
	if err != nil {
		return fmt.Errorf("bedrock: failed to sign request: %w", err)
	}

	log.Ctx(ctx).Debug().
		Str("provider", p.name).
		Str("region", p.region).
		Msg("added Bedrock SigV4 authentication")

	return nil
}

type converseBlock struct {
	Text string `json:"text"`
}

type converseMessage struct {
	Role    string          `json:"role"`
	Content []converseBlock `json:"content"`
}

type inferenceConfig struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

type converseRequest struct {
	Messages        []converseMessage `json:"messages"`
	System          []converseBlock   `json:"system,omitempty"`
	InferenceConfig inferenceConfig   `json:"inferenceConfig"`
}

func (p *BedrockProvider) conversePayload(req Request) converseRequest {
	tokens := req.MaxTokens
	if tokens <= 0 {
		tokens = DefaultMaxTokens
	}

	payload := converseRequest{
		Messages: []converseMessage{{
			Role:    "user",
			Content: []converseBlock{{Text: req.Prompt}},
		}},
		InferenceConfig: inferenceConfig{
			Temperature: req.Temperature,
			MaxTokens:   tokens,
		},
	}
	if req.System != "" {
		payload.System = []converseBlock{{Text: req.System}}
	}
	return payload
}

var _ Provider = (*BedrockProvider)(nil)
