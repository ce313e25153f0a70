package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrConflict       ErrorCode = "CONFLICT"
	ErrBadRequest     ErrorCode = "BAD_REQUEST"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrUnavailable    ErrorCode = "DATA_UNAVAILABLE"
	ErrInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	logrus.Error(details)
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewValidationError builds an INVALID_INPUT error without logging it as a
// failure; malformed input is a caller mistake, not a server fault.
func NewValidationError(message string) APIError {
	return APIError{Code: ErrInvalidInput, Message: message}
}

// NewConflictError marks a write that targeted a resource already claimed
// by another record.
func NewConflictError(message string, details interface{}) APIError {
	return APIError{Code: ErrConflict, Message: message, Details: details}
}

// IsConflict reports whether err (or anything it wraps) is a CONFLICT error.
func IsConflict(err error) bool {
	var apiErr APIError
	return errors.As(err, &apiErr) && apiErr.Code == ErrConflict
}

// IsValidation reports whether err is an INVALID_INPUT error.
func IsValidation(err error) bool {
	var apiErr APIError
	return errors.As(err, &apiErr) && apiErr.Code == ErrInvalidInput
}

func MapErrorToHTTPStatus(err error) int {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case ErrNotFound:
			return http.StatusNotFound
		case ErrConflict:
			return http.StatusConflict
		case ErrBadRequest, ErrInvalidInput:
			return http.StatusBadRequest
		case ErrUnavailable:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
