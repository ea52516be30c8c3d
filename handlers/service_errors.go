package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/upb/inference-router/services"
	"github.com/upb/inference-router/services/routing"
	"github.com/upb/inference-router/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps router errors to HTTP responses
//
//	FallbackError         502 with both causes
//	not_found             404
//	validation            400 with field details
//	configuration         503
//	external              502
//	context cancellation  503
//	anything else         500, message withheld
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	status, message, details := classify(err)
	switch status {
	case http.StatusServiceUnavailable:
		if services.IsConfigurationError(err) {
			logger.Error("router misconfigured", zap.Error(err))
		}
	case http.StatusInternalServerError:
		logger.Error("unhandled service error",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
	}

	if werr := utils.WriteError(w, status, message, details); werr != nil {
		logger.Error("failed to write error response", zap.Int("status", status), zap.Error(werr))
	}
}

func classify(err error) (int, string, map[string]interface{}) {
	// Combined failures are checked before the type taxonomy
	var fallbackErr *routing.FallbackError
	if errors.As(err, &fallbackErr) {
		return http.StatusBadGateway, fallbackErr.Error(), fallbackDetails(fallbackErr)
	}

	details := services.GetErrorDetails(err)
	if len(details) == 0 {
		details = nil
	}

	switch {
	case services.IsNotFoundError(err):
		return http.StatusNotFound, err.Error(), nil
	case services.IsValidationError(err):
		return http.StatusBadRequest, err.Error(), details
	case services.IsConfigurationError(err):
		return http.StatusServiceUnavailable, err.Error(), nil
	case services.IsExternalError(err):
		return http.StatusBadGateway, err.Error(), details
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "request cancelled before a provider answered", nil
	case services.IsInternalError(err):
		return http.StatusInternalServerError, "An internal error occurred", nil
	default:
		return http.StatusInternalServerError, "An unexpected error occurred", nil
	}
}

func fallbackDetails(err *routing.FallbackError) map[string]interface{} {
	details := map[string]interface{}{
		"primary":       err.Primary,
		"primary_error": err.PrimaryErr.Error(),
	}
	if err.Fallback != "" {
		details["fallback"] = err.Fallback
	}
	if err.FallbackErr != nil {
		details["fallback_error"] = err.FallbackErr.Error()
	}
	return details
}

// HandleValidationError writes a 400 for request-body validation failures
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	message := err.Error()
	var details map[string]interface{}
	if fields := utils.GetValidationFields(err); fields != nil {
		message = "Validation failed"
		details = make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
	}

	if werr := utils.WriteBadRequest(w, message, details); werr != nil {
		logger.Error("failed to write validation error response", zap.Error(werr))
	}
}
