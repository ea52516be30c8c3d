package services

import (
	"errors"
	"fmt"
)

// ErrorType is the category an error is reported under
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeExternal      ErrorType = "external"
	ErrorTypeInternal      ErrorType = "internal"
)

// DomainError is a categorized error with optional structured details
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on type, and on message when the target carries one
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok || e.Type != t.Type {
		return false
	}
	return t.Message == "" || e.Message == t.Message
}

// WithDetail sets a detail on e and returns it; never call it on a package sentinel
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Wrap returns a fresh error that matches kind under errors.Is and carries err as its cause
func Wrap(kind *DomainError, err error) *DomainError {
	return NewDomainError(kind.Type, kind.Message, err)
}

var (
	ErrNoProviders     = NewDomainError(ErrorTypeConfiguration, "no providers registered", nil)
	ErrUnknownStrategy = NewDomainError(ErrorTypeConfiguration, "unknown routing strategy", nil)
	ErrProviderSetup   = NewDomainError(ErrorTypeConfiguration, "provider setup failed", nil)

	ErrInvalidRequest = NewDomainError(ErrorTypeValidation, "invalid completion request", nil)
	ErrInvalidUnits   = NewDomainError(ErrorTypeValidation, "units must be non-negative", nil)

	ErrProviderNotFound = NewDomainError(ErrorTypeNotFound, "provider not found", nil)

	// ErrProviderUnavailable matches every request where no attempt succeeded
	ErrProviderUnavailable = NewDomainError(ErrorTypeExternal, "LLM provider unavailable", nil)

	ErrInternal = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// GetErrorType returns the type of the first DomainError in err's chain, or ""
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details of the first DomainError in err's chain
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

func IsConfigurationError(err error) bool { return GetErrorType(err) == ErrorTypeConfiguration }

func IsValidationError(err error) bool { return GetErrorType(err) == ErrorTypeValidation }

func IsNotFoundError(err error) bool { return GetErrorType(err) == ErrorTypeNotFound }

func IsExternalError(err error) bool { return GetErrorType(err) == ErrorTypeExternal }

func IsInternalError(err error) bool { return GetErrorType(err) == ErrorTypeInternal }
