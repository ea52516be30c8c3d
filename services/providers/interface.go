package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/upb/inference-router/utils"
)

// Provider is the uniform capability wrapper around one remote backend
type Provider interface {
	// Name returns the unique provider identifier (e.g., "openai", "anthropic")
	Name() string

	// Descriptor returns the static pricing and latency metadata
	// Available without making a call
	Descriptor() Descriptor

	// Complete performs one completion call against the backend
	// Errors are reserved for transport and backend failures
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
}

// RequestKind tags the shape of a completion request
type RequestKind string

const (
	// KindFreeformCompletion is a plain prompt -> text completion
	KindFreeformCompletion RequestKind = "freeform_completion"

	// KindStructuredQualification asks the backend for JSON matching Schema
	KindStructuredQualification RequestKind = "structured_qualification"
)

// Descriptor holds the static metadata of a provider
type Descriptor struct {
	// Name is the unique provider identifier
	Name string `json:"name" yaml:"name" validate:"required"`

	// Model served by this provider
	Model string `json:"model,omitempty" yaml:"model"`

	// CostPerMillionUnits is the price of 1,000,000 priced units (tokens)
	CostPerMillionUnits float64 `json:"cost_per_million_units" yaml:"cost_per_million_units" validate:"gte=0"`

	// EstimatedLatencyMs is the typical end-to-end latency of one call
	EstimatedLatencyMs int64 `json:"estimated_latency_ms" yaml:"estimated_latency_ms" validate:"gte=0"`

	// ReliabilityScore is informational only (0-1)
	ReliabilityScore float64 `json:"reliability_score" yaml:"reliability_score" validate:"gte=0,lte=1"`

	// Timeout is the adapter default bound for a single call
	Timeout time.Duration `json:"timeout" yaml:"timeout" validate:"gte=0"`
}

// Validate checks the descriptor fields
func (d Descriptor) Validate() error {
	if err := utils.ValidateStruct(d); err != nil {
		return fmt.Errorf("provider %q: %w", d.Name, err)
	}
	return nil
}

// CompletionRequest is the caller-supplied request routed to one provider
type CompletionRequest struct {
	// Kind selects how adapters encode the request
	Kind RequestKind `json:"kind" validate:"required,oneof=freeform_completion structured_qualification"`

	// Prompt is the user content
	Prompt string `json:"prompt" validate:"required"`

	// System is an optional system instruction
	System string `json:"system,omitempty"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`

	// MaxOutputUnits limits the response length (0 = adapter default)
	MaxOutputUnits int `json:"max_output_units,omitempty" validate:"gte=0"`

	// Schema is the JSON schema for structured requests
	Schema map[string]any `json:"schema,omitempty"`

	// Timeout overrides the provider default for each attempt
	Timeout time.Duration `json:"-"`

	// Metadata for tracking and logging
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ErrSchemaRequired is returned when a structured request carries no schema
var ErrSchemaRequired = errors.New("schema is required for structured_qualification requests")

// Validate checks the request before any provider is selected
func (r *CompletionRequest) Validate() error {
	if r == nil {
		return errors.New("request cannot be nil")
	}
	if err := utils.ValidateStruct(r); err != nil {
		return err
	}
	if r.Kind == KindStructuredQualification && len(r.Schema) == 0 {
		return ErrSchemaRequired
	}
	return nil
}

// Completion is what an adapter returns from a successful call
type Completion struct {
	Text         string
	Model        string
	FinishReason string
	InputUnits   int
	OutputUnits  int
}

// Units returns the total priced units consumed
func (c *Completion) Units() int {
	return c.InputUnits + c.OutputUnits
}

// CompletionResult is returned to the caller after routing
type CompletionResult struct {
	RequestID     string  `json:"request_id"`
	Text          string  `json:"text"`
	Provider      string  `json:"provider"`
	Model         string  `json:"model,omitempty"`
	FinishReason  string  `json:"finish_reason,omitempty"`
	UnitsConsumed int     `json:"units_consumed"`
	CostEstimate  float64 `json:"cost_estimate"`
	LatencyMs     int64   `json:"latency_ms"`
	UsedFallback  bool    `json:"used_fallback"`

	// OriginalError is the primary failure message, set only after a fallback
	OriginalError string `json:"original_error,omitempty"`
}

// ProviderConfig holds common configuration for adapters
type ProviderConfig struct {
	// Name overrides the adapter default name
	Name string

	// APIKey for authentication
	APIKey string

	// BaseURL for the API (optional override)
	BaseURL string

	// Model to request
	Model string

	// Timeout for a single call
	Timeout time.Duration

	// MaxRetries inside the SDK; the router performs its own fallback
	MaxRetries int

	// Additional headers
	Headers map[string]string

	// Static pricing and latency metadata
	CostPerMillionUnits float64
	EstimatedLatencyMs  int64
	ReliabilityScore    float64
}

// DefaultProviderConfig returns a sensible default configuration
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout:          30 * time.Second,
		MaxRetries:       0,
		Headers:          make(map[string]string),
		ReliabilityScore: 1,
	}
}

// Descriptor builds the static descriptor, using defaultName when Name is unset
func (c ProviderConfig) Descriptor(defaultName string) Descriptor {
	name := c.Name
	if name == "" {
		name = defaultName
	}
	return Descriptor{
		Name:                name,
		Model:               c.Model,
		CostPerMillionUnits: c.CostPerMillionUnits,
		EstimatedLatencyMs:  c.EstimatedLatencyMs,
		ReliabilityScore:    c.ReliabilityScore,
		Timeout:             c.Timeout,
	}
}

// ProviderError represents a transport or backend failure
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Retryable indicates if the backend may succeed on a later call
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	msg := e.Provider + ": " + e.Message
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return false
}

// RetryableStatus reports whether an HTTP status is worth retrying elsewhere
func RetryableStatus(statusCode int) bool {
	return statusCode >= 500 || statusCode == 429 || statusCode == 408
}
