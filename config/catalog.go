package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Catalog overrides provider pricing and latency metadata from a YAML file
//
//	providers:
//	  - kind: openai
//	    cost_per_million_units: 0.15
//	    estimated_latency_ms: 1800
//	  - kind: anthropic
//	    name: claude
//	    timeout: 45s
type Catalog struct {
	Providers []CatalogEntry `yaml:"providers"`
}

// CatalogEntry holds the overrides for one provider kind; unset fields keep their current value
type CatalogEntry struct {
	Kind                string         `yaml:"kind"`
	Name                string         `yaml:"name"`
	Model               string         `yaml:"model"`
	BaseURL             string         `yaml:"base_url"`
	CostPerMillionUnits *float64       `yaml:"cost_per_million_units"`
	EstimatedLatencyMs  *int64         `yaml:"estimated_latency_ms"`
	ReliabilityScore    *float64       `yaml:"reliability_score"`
	Timeout             *time.Duration `yaml:"timeout"`
}

// LoadCatalog reads a catalog file, expanding ${VAR} references before parsing
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read provider catalog: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var catalog Catalog
	if err := yaml.Unmarshal([]byte(expanded), &catalog); err != nil {
		return nil, fmt.Errorf("parse provider catalog: %w", err)
	}

	return &catalog, nil
}

// Apply writes the catalog overrides into the provider settings
func (c *Catalog) Apply(p *ProvidersConfig) error {
	settings := p.byKind()
	for i, entry := range c.Providers {
		s, ok := settings[entry.Kind]
		if !ok {
			return fmt.Errorf("provider catalog entry %d: unknown kind %q", i, entry.Kind)
		}
		if entry.Name != "" {
			s.Name = entry.Name
		}
		if entry.Model != "" {
			s.Model = entry.Model
		}
		if entry.BaseURL != "" {
			s.BaseURL = entry.BaseURL
		}
		if entry.CostPerMillionUnits != nil {
			s.CostPerMillionUnits = *entry.CostPerMillionUnits
		}
		if entry.EstimatedLatencyMs != nil {
			s.EstimatedLatencyMs = *entry.EstimatedLatencyMs
		}
		if entry.ReliabilityScore != nil {
			s.ReliabilityScore = *entry.ReliabilityScore
		}
		if entry.Timeout != nil {
			s.Timeout = *entry.Timeout
		}
	}
	return nil
}
