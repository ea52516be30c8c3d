package config

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/upb/inference-router/services/providers"
	"github.com/upb/inference-router/services/providers/anthropic"
	"github.com/upb/inference-router/services/providers/openai"
	"github.com/upb/inference-router/services/routing"
	"github.com/upb/inference-router/utils"
)

// Provider kinds, also the keys of ProvidersConfig.ProviderConfigs
const (
	KindOpenAI    = "openai"
	KindAnthropic = "anthropic"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Routing       RoutingConfig
	Providers     ProvidersConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	AllowedOrigins  []string
	TLS             struct {
		Enabled  bool
		CertFile string
		KeyFile  string
	}
}

// RoutingConfig holds router construction options
type RoutingConfig struct {
	Strategy    string
	WindowSize  int
	CatalogFile string
}

// ProvidersConfig holds LLM provider configurations
type ProvidersConfig struct {
	OpenAI    ProviderSettings
	Anthropic ProviderSettings
}

// ProviderSettings holds connection and pricing settings for one provider
type ProviderSettings struct {
	Name                string
	APIKey              string
	BaseURL             string
	Model               string
	Timeout             time.Duration
	MaxRetries          int
	CostPerMillionUnits float64
	EstimatedLatencyMs  int64
	ReliabilityScore    float64
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 130*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 120*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Routing: RoutingConfig{
			Strategy:    getEnv("ROUTING_STRATEGY", string(routing.DefaultStrategy)),
			WindowSize:  getEnvAsInt("USAGE_WINDOW_SIZE", 1000),
			CatalogFile: getEnv("PROVIDER_CATALOG_FILE", ""),
		},
		Providers: ProvidersConfig{
			OpenAI:    loadProviderSettings("OPENAI", openai.DefaultConfig()),
			Anthropic: loadProviderSettings("ANTHROPIC", anthropic.DefaultConfig()),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}
	cfg.Server.TLS.Enabled = getEnvAsBool("TLS_ENABLED", false)
	cfg.Server.TLS.CertFile = getEnv("TLS_CERT_FILE", "certs/cert.pem")
	cfg.Server.TLS.KeyFile = getEnv("TLS_KEY_FILE", "certs/key.pem")

	if cfg.Routing.CatalogFile != "" {
		catalog, err := LoadCatalog(cfg.Routing.CatalogFile)
		if err != nil {
			return nil, err
		}
		if err := catalog.Apply(&cfg.Providers); err != nil {
			return nil, err
		}
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all configuration fields are usable
func (c *Config) Validate() error {
	if _, err := routing.ParseStrategy(c.Routing.Strategy); err != nil {
		return err
	}
	if c.Routing.WindowSize <= 0 {
		return fmt.Errorf("usage window size must be positive, got %d", c.Routing.WindowSize)
	}

	for kind, s := range c.Providers.byKind() {
		if s.CostPerMillionUnits < 0 {
			return fmt.Errorf("%s: cost per million units cannot be negative", kind)
		}
		if s.EstimatedLatencyMs < 0 {
			return fmt.Errorf("%s: estimated latency cannot be negative", kind)
		}
		if err := utils.ValidateNumericRange(s.ReliabilityScore, kind+": reliability score", 0, 1); err != nil {
			return err
		}
	}

	// Provider validation (at least one provider API key required in production)
	if c.IsProduction() && len(c.Providers.ProviderConfigs()) == 0 {
		return fmt.Errorf("at least one LLM provider must be configured in production")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}
	if err := utils.ValidateOneOf(c.Observability.LogFormat, "log format", []string{"json", "console"}); err != nil {
		return err
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// ParsedStrategy returns the initial routing strategy
func (c *RoutingConfig) ParsedStrategy() (routing.Strategy, error) {
	return routing.ParseStrategy(c.Strategy)
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ProviderConfig converts settings into adapter configuration
func (s ProviderSettings) ProviderConfig() providers.ProviderConfig {
	cfg := providers.DefaultProviderConfig()
	cfg.Name = s.Name
	cfg.APIKey = s.APIKey
	cfg.BaseURL = s.BaseURL
	cfg.Model = s.Model
	cfg.Timeout = s.Timeout
	cfg.MaxRetries = s.MaxRetries
	cfg.CostPerMillionUnits = s.CostPerMillionUnits
	cfg.EstimatedLatencyMs = s.EstimatedLatencyMs
	cfg.ReliabilityScore = s.ReliabilityScore
	return cfg
}

// ProviderConfigs returns adapter configs for every provider with an API key, keyed by kind
func (c ProvidersConfig) ProviderConfigs() map[string]providers.ProviderConfig {
	configs := make(map[string]providers.ProviderConfig)
	for kind, s := range c.byKind() {
		if s.APIKey != "" {
			configs[kind] = s.ProviderConfig()
		}
	}
	return configs
}

// Descriptors returns the static metadata of every known provider, keyed or not, sorted by name
func (c ProvidersConfig) Descriptors() []providers.Descriptor {
	descs := make([]providers.Descriptor, 0, 2)
	for kind, s := range c.byKind() {
		descs = append(descs, s.ProviderConfig().Descriptor(kind))
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })
	return descs
}

func (c *ProvidersConfig) byKind() map[string]*ProviderSettings {
	return map[string]*ProviderSettings{
		KindOpenAI:    &c.OpenAI,
		KindAnthropic: &c.Anthropic,
	}
}

// loadProviderSettings reads PREFIX_* variables on top of the adapter defaults
func loadProviderSettings(prefix string, defaults providers.ProviderConfig) ProviderSettings {
	return ProviderSettings{
		Name:                getEnv(prefix+"_NAME", defaults.Name),
		APIKey:              getEnv(prefix+"_API_KEY", ""),
		BaseURL:             getEnv(prefix+"_BASE_URL", ""),
		Model:               getEnv(prefix+"_MODEL", defaults.Model),
		Timeout:             getEnvAsDuration(prefix+"_TIMEOUT", defaults.Timeout),
		MaxRetries:          getEnvAsInt(prefix+"_MAX_RETRIES", defaults.MaxRetries),
		CostPerMillionUnits: getEnvAsFloat(prefix+"_COST_PER_MILLION", defaults.CostPerMillionUnits),
		EstimatedLatencyMs:  int64(getEnvAsInt(prefix+"_LATENCY_MS", int(defaults.EstimatedLatencyMs))),
		ReliabilityScore:    getEnvAsFloat(prefix+"_RELIABILITY", defaults.ReliabilityScore),
	}
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
