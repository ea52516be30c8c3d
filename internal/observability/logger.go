package observability

import (
	"context"
	"fmt"

	"github.com/upb/inference-router/config"
	"github.com/upb/inference-router/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger from the observability configuration
func NewLogger(cfg config.ObservabilityConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	var zapCfg zap.Config
	switch cfg.LogFormat {
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	case "json", "":
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "timestamp"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// WithRequestID returns a child logger tagged with the request ID from ctx, if any
func WithRequestID(logger *zap.Logger, ctx context.Context) *zap.Logger {
	if requestID := middleware.GetRequestIDFromContext(ctx); requestID != "" {
		return logger.With(zap.String("request_id", requestID))
	}
	return logger
}
