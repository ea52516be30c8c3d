package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/upb/inference-router/services"
	"github.com/upb/inference-router/services/providers"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrNoFallbackProvider is the fallback cause when only one provider is registered
var ErrNoFallbackProvider = errors.New("no fallback provider available")

// FallbackError is returned when the primary and fallback attempts both failed
type FallbackError struct {
	Primary     string
	Fallback    string
	PrimaryErr  error
	FallbackErr error
}

func (e *FallbackError) causes() error {
	fallback := e.Fallback
	if fallback == "" {
		fallback = "fallback"
	}
	return multierr.Combine(
		fmt.Errorf("%s: %w", e.Primary, e.PrimaryErr),
		fmt.Errorf("%s: %w", fallback, e.FallbackErr),
	)
}

// Error implements the error interface
func (e *FallbackError) Error() string {
	return "both providers failed: " + e.causes().Error()
}

// Unwrap exposes both causes to errors.Is and errors.As
func (e *FallbackError) Unwrap() []error {
	return multierr.Errors(e.causes())
}

// Is reports a match for services.ErrProviderUnavailable
func (e *FallbackError) Is(target error) bool {
	return target == services.ErrProviderUnavailable
}

// outcome is the successful end of a primary or fallback attempt
type outcome struct {
	provider     providers.Descriptor
	completion   *providers.Completion
	usedFallback bool
	originalErr  error
}

// executor runs the primary attempt and at most one fallback attempt
type executor struct {
	registry *providers.Registry
	selector *Selector
	logger   *zap.Logger
}

func (e *executor) execute(ctx context.Context, strategy Strategy, primary Selection, descs []providers.Descriptor, req *providers.CompletionRequest) (*outcome, error) {
	completion, primaryErr := e.attempt(ctx, primary.Provider, req, 1)
	if primaryErr == nil {
		return &outcome{provider: primary.Provider, completion: completion}, nil
	}

	// Caller context is done, so the fallback hop is skipped
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &FallbackError{Primary: primary.Provider.Name, PrimaryErr: primaryErr, FallbackErr: ctxErr}
	}

	fallback, ok := e.selector.SelectFallback(strategy, primary, descs)
	if !ok {
		return nil, &FallbackError{Primary: primary.Provider.Name, PrimaryErr: primaryErr, FallbackErr: ErrNoFallbackProvider}
	}

	e.logger.Warn("primary provider failed, falling back",
		zap.String("primary", primary.Provider.Name),
		zap.String("fallback", fallback.Provider.Name),
		zap.Error(primaryErr),
	)

	completion, fallbackErr := e.attempt(ctx, fallback.Provider, req, 2)
	if fallbackErr != nil {
		return nil, &FallbackError{
			Primary:     primary.Provider.Name,
			Fallback:    fallback.Provider.Name,
			PrimaryErr:  primaryErr,
			FallbackErr: fallbackErr,
		}
	}

	return &outcome{
		provider:     fallback.Provider,
		completion:   completion,
		usedFallback: true,
		originalErr:  primaryErr,
	}, nil
}

// attempt makes one bounded call to a provider
func (e *executor) attempt(ctx context.Context, desc providers.Descriptor, req *providers.CompletionRequest, n int) (*providers.Completion, error) {
	provider, err := e.registry.GetProvider(desc.Name)
	if err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = desc.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	completion, err := provider.Complete(ctx, req)
	latency := time.Since(start)

	if err == nil && completion == nil {
		err = providers.NewProviderError(desc.Name, "EMPTY_RESPONSE", "provider returned no completion", 0, true, nil)
	}
	var provErr *providers.ProviderError
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.As(err, &provErr) {
		msg := "request timed out"
		if timeout > 0 {
			msg = fmt.Sprintf("no response within %s", timeout)
		}
		err = providers.NewProviderError(desc.Name, "TIMEOUT", msg, 0, true, err)
	}

	fields := []zap.Field{
		zap.String("provider", desc.Name),
		zap.Int("attempt", n),
		zap.Duration("latency", latency),
	}
	if err != nil {
		e.logger.Warn("provider attempt failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	e.logger.Debug("provider attempt succeeded", append(fields, zap.Int("units", completion.Units()))...)

	return completion, nil
}
