// Package providertest provides an in-memory provider for tests of code built on the registry
package providertest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/upb/inference-router/services/providers"
)

// Provider is a configurable providers.Provider that never touches the network
type Provider struct {
	desc providers.Descriptor

	mu    sync.RWMutex
	err   error
	delay time.Duration
	text  string

	calls atomic.Int64
}

// New creates a provider that always succeeds
func New(name string, costPerMillion float64, latencyMs int64) *Provider {
	return &Provider{
		desc: providers.Descriptor{
			Name:                name,
			Model:               name + "-model",
			CostPerMillionUnits: costPerMillion,
			EstimatedLatencyMs:  latencyMs,
			ReliabilityScore:    0.99,
		},
		text: "response from " + name,
	}
}

// FailWith makes every subsequent call return err
func (p *Provider) FailWith(err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	return p
}

// WithDelay makes every call wait d or until the context is done
func (p *Provider) WithDelay(d time.Duration) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
	return p
}

// WithTimeout sets the descriptor's default per-call timeout
func (p *Provider) WithTimeout(d time.Duration) *Provider {
	p.desc.Timeout = d
	return p
}

// Calls returns how many times Complete was invoked
func (p *Provider) Calls() int64 {
	return p.calls.Load()
}

func (p *Provider) Name() string {
	return p.desc.Name
}

func (p *Provider) Descriptor() providers.Descriptor {
	return p.desc
}

// Complete returns 10 input and 20 output units unless configured to fail
func (p *Provider) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.Completion, error) {
	p.calls.Add(1)

	p.mu.RLock()
	err, delay, text := p.err, p.delay, p.text
	p.mu.RUnlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	return &providers.Completion{
		Text:         text,
		Model:        p.desc.Model,
		FinishReason: "stop",
		InputUnits:   10,
		OutputUnits:  20,
	}, nil
}

// Registry registers ps into a new registry, failing the test on error
func Registry(tb testing.TB, ps ...providers.Provider) *providers.Registry {
	tb.Helper()

	registry := providers.NewRegistry()
	for _, p := range ps {
		if err := registry.RegisterProvider(p); err != nil {
			tb.Fatalf("register %s: %v", p.Name(), err)
		}
	}
	return registry
}
