package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/upb/inference-router/services/providers"
)

const (
	// ProviderName is the registry name used when the config does not set one
	ProviderName = "anthropic"

	defaultModel          = "claude-3-5-haiku-latest"
	defaultMaxOutputUnits = 1024

	// structured requests force this tool so the answer arrives as tool input
	qualifyToolName = "record_qualification"
)

// DefaultConfig returns the low-latency premium profile this adapter is usually deployed with
func DefaultConfig() providers.ProviderConfig {
	cfg := providers.DefaultProviderConfig()
	cfg.Name = ProviderName
	cfg.Model = defaultModel
	cfg.CostPerMillionUnits = 4.0
	cfg.EstimatedLatencyMs = 800
	cfg.ReliabilityScore = 0.99
	return cfg
}

// Adapter implements the Provider interface for the Anthropic messages API
type Adapter struct {
	client anthropic.Client
	desc   providers.Descriptor
}

// NewAdapter creates a new Anthropic adapter
func NewAdapter(cfg providers.ProviderConfig) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key required")
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
		client: anthropic.NewClient(opts...),
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

// Complete sends one message and returns the text or tool input
func (a *Adapter) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.Completion, error) {
	params, err := a.buildParams(req)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, a.wrapError(err)
	}

	var text string
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += b.Text
		case anthropic.ToolUseBlock:
			input, err := json.Marshal(b.Input)
			if err != nil {
				return nil, providers.NewProviderError(a.Name(), "DECODE_ERROR", "failed to marshal tool input", 0, false, err)
			}
			text = string(input)
		}
	}

	return &providers.Completion{
		Text:         text,
		Model:        string(resp.Model),
		FinishReason: string(resp.StopReason),
		InputUnits:   int(resp.Usage.InputTokens),
		OutputUnits:  int(resp.Usage.OutputTokens),
	}, nil
}

// buildParams converts a completion request to message parameters
func (a *Adapter) buildParams(req *providers.CompletionRequest) (anthropic.MessageNewParams, error) {
	maxTokens := req.MaxOutputUnits
	if maxTokens == 0 {
		maxTokens = defaultMaxOutputUnits
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.desc.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	switch req.Kind {
	case providers.KindFreeformCompletion:
	case providers.KindStructuredQualification:
		properties, _ := req.Schema["properties"].(map[string]any)
		params.Tools = []anthropic.ToolUnionParam{
			{
				OfTool: &anthropic.ToolParam{
					Name:        qualifyToolName,
					Description: anthropic.String("Record the structured answer"),
					InputSchema: anthropic.ToolInputSchemaParam{
						Type:       "object",
						Properties: properties,
						Required:   requiredFields(req.Schema),
					},
				},
			},
		}
		params.ToolChoice = anthropic.ToolChoiceParamOfTool(qualifyToolName)
	default:
		return params, providers.NewProviderError(a.Name(), "UNSUPPORTED_KIND", fmt.Sprintf("unsupported request kind %q", req.Kind), 0, false, nil)
	}

	return params, nil
}

// requiredFields accepts both []string and decoded JSON []any
func requiredFields(schema map[string]any) []string {
	switch required := schema["required"].(type) {
	case []string:
		return required
	case []any:
		out := make([]string, 0, len(required))
		for _, r := range required {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// wrapError maps SDK errors to provider errors
func (a *Adapter) wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return providers.NewProviderError(
			a.Name(),
			"API_ERROR",
			fmt.Sprintf("request failed with status %d", apiErr.StatusCode),
			apiErr.StatusCode,
			providers.RetryableStatus(apiErr.StatusCode),
			err,
		)
	}

	return providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
}

var _ providers.Provider = (*Adapter)(nil)
