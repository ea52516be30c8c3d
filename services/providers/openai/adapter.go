package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/upb/inference-router/services/providers"
)

const (
	// ProviderName is the registry name used when the config does not set one
	ProviderName = "openai"

	defaultModel          = "gpt-4o-mini"
	defaultMaxOutputUnits = 1024
	structuredResultName  = "qualification_result"
)

// DefaultConfig returns the low-cost, higher-latency profile this adapter is usually deployed with
func DefaultConfig() providers.ProviderConfig {
	cfg := providers.DefaultProviderConfig()
	cfg.Name = ProviderName
	cfg.Model = defaultModel
	cfg.CostPerMillionUnits = 0.60
	cfg.EstimatedLatencyMs = 2500
	cfg.ReliabilityScore = 0.97
	return cfg
}

// Adapter implements the Provider interface for OpenAI-compatible chat completion APIs
type Adapter struct {
	client openai.Client
	desc   providers.Descriptor
}

// NewAdapter creates a new OpenAI adapter
func NewAdapter(cfg providers.ProviderConfig) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	for k, v := range cfg.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}

	return &Adapter{
		client: openai.NewClient(opts...),
		desc:   cfg.Descriptor(ProviderName),
	}, nil
}

// Build is a providers.ProviderBuilder for the registry
func Build(cfg providers.ProviderConfig) (providers.Provider, error) {
	return NewAdapter(cfg)
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return a.desc.Name
}

// Descriptor returns the static pricing and latency metadata
func (a *Adapter) Descriptor() providers.Descriptor {
	return a.desc
}

// Complete performs a chat completion request
func (a *Adapter) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.Completion, error) {
	params, err := a.buildParams(req)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, a.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, providers.NewProviderError(a.Name(), "EMPTY_RESPONSE", "no choices in response", 0, true, nil)
	}

	choice := resp.Choices[0]
	return &providers.Completion{
		Text:         choice.Message.Content,
		Model:        resp.Model,
		FinishReason: string(choice.FinishReason),
		InputUnits:   int(resp.Usage.PromptTokens),
		OutputUnits:  int(resp.Usage.CompletionTokens),
	}, nil
}

// buildParams converts a completion request to OpenAI chat parameters
func (a *Adapter) buildParams(req *providers.CompletionRequest) (openai.ChatCompletionNewParams, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	maxTokens := req.MaxOutputUnits
	if maxTokens == 0 {
		maxTokens = defaultMaxOutputUnits
	}

	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(a.desc.Model),
		Messages:  messages,
		MaxTokens: openai.Int(int64(maxTokens)),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	switch req.Kind {
	case providers.KindFreeformCompletion:
	case providers.KindStructuredQualification:
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   structuredResultName,
					Schema: req.Schema,
				},
			},
		}
	default:
		return params, providers.NewProviderError(a.Name(), "UNSUPPORTED_KIND", fmt.Sprintf("unsupported request kind %q", req.Kind), 0, false, nil)
	}

	return params, nil
}

// wrapError maps SDK errors to provider errors
func (a *Adapter) wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		code := apiErr.Type
		if code == "" {
			code = "API_ERROR"
		}
		return providers.NewProviderError(
			a.Name(),
			code,
			fmt.Sprintf("request failed with status %d", apiErr.StatusCode),
			apiErr.StatusCode,
			providers.RetryableStatus(apiErr.StatusCode),
			err,
		)
	}

	return providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
}

var _ providers.Provider = (*Adapter)(nil)
