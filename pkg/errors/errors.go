package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeBadPayload represents an ingestion payload matching neither accepted shape
	ErrorTypeBadPayload ErrorType = "bad_payload"
	// ErrorTypeUnauthorized represents a failed token check
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	// ErrorTypeParsing represents HTML/JSON parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeStore represents persistence errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ServiceError represents a service-level error with its origin component
type ServiceError struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// New creates a new ServiceError
func New(errType ErrorType, component, message string, err error) *ServiceError {
	return &ServiceError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewBadPayload creates a new bad payload error
func NewBadPayload(component, message string) *ServiceError {
	return New(ErrorTypeBadPayload, component, message, nil)
}

// NewUnauthorized creates a new unauthorized error
func NewUnauthorized(component, message string) *ServiceError {
	return New(ErrorTypeUnauthorized, component, message, nil)
}

// NewParsing creates a new parsing error
func NewParsing(component, message string, err error) *ServiceError {
	return New(ErrorTypeParsing, component, message, err)
}

// NewStore creates a new store error
func NewStore(component, message string, err error) *ServiceError {
	return New(ErrorTypeStore, component, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(component, message string, err error) *ServiceError {
	return New(ErrorTypePublisher, component, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ServiceError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsType reports whether err is a ServiceError of the given type
func IsType(err error, errType ErrorType) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Type == errType
	}
	return false
}

// IsBadPayload reports whether err is a bad payload error
func IsBadPayload(err error) bool {
	return IsType(err, ErrorTypeBadPayload)
}

// IsUnauthorized reports whether err is an unauthorized error
func IsUnauthorized(err error) bool {
	return IsType(err, ErrorTypeUnauthorized)
}
