package handlers

import (
	"net/http"
	"time"

	"github.com/upb/inference-router/services/providers"
	"github.com/upb/inference-router/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProviderLister reports the providers the router can route to
type ProviderLister interface {
	Providers() []providers.Descriptor
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	providers ProviderLister
	logger    *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(providers ProviderLister, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		providers: providers,
		logger:    logger,
	}
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// Ready once at least one provider is registered
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	ready := true

	var descs []providers.Descriptor
	if h.providers != nil {
		descs = h.providers.Providers()
	}
	if len(descs) == 0 {
		h.logger.Warn("readiness check failed: no providers registered")
		checks["providers"] = "none_configured"
		ready = false
	} else {
		for _, desc := range descs {
			checks["provider:"+desc.Name] = "registered"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !ready {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
