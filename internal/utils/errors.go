package utils

import (
	"errors"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Origin  error // underlying cause, never shown to clients
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

func (appErr *AppError) Unwrap() error {
	return appErr.Origin
}

// Standard error codes for the application
const (
	// Resource errors
	ErrNotFound     = "NOT_FOUND"
	ErrDuplicate    = "DUPLICATE"
	ErrInvalidInput = "INVALID_INPUT"

	// Authentication/Authorization errors
	ErrUnauthorized = "UNAUTHORIZED"
	ErrForbidden    = "FORBIDDEN" // authenticated, but not owner or admin
	ErrInvalidToken = "INVALID_TOKEN"

	// Identity errors
	ErrUserNotFound       = "USER_NOT_FOUND"
	ErrUserAlreadyExists  = "USER_ALREADY_EXISTS"
	ErrInvalidCredentials = "INVALID_CREDENTIALS"
	ErrSelfFollow         = "SELF_FOLLOW"

	// Actor communication errors
	ErrActorTimeout    = "ACTOR_TIMEOUT"
	ErrMessageRejected = "MESSAGE_REJECTED"

	// Media errors
	ErrPayloadTooLarge = "PAYLOAD_TOO_LARGE"
	ErrUnsupportedType = "UNSUPPORTED_MEDIA_TYPE"

	ErrDatabase = "database_error"
	ErrInternal = "INTERNAL_ERROR"
)

func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

func NewNotFoundError(what string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: what + " not found",
	}
}

func NewUserNotFoundError(userID string) *AppError {
	return &AppError{
		Code:    ErrUserNotFound,
		Message: "User not found: " + userID,
	}
}

func NewInvalidInputError(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidInput,
		Message: message,
	}
}

func NewUnauthorizedError(reason string) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "Unauthorized: " + reason,
	}
}

func NewForbiddenError(reason string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: reason,
	}
}

func NewDatabaseError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrDatabase,
		Message: message,
		Origin:  err,
	}
}

// NewInternalError reports a server fault unrelated to the store.
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: message,
		Origin:  err,
	}
}

func NewActorTimeoutError(actorName string) *AppError {
	return &AppError{
		Code:    ErrActorTimeout,
		Message: "Actor communication timeout: " + actorName,
	}
}

// AsAppError unwraps err into an *AppError, wrapping unknown errors as database errors.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewDatabaseError("internal error", err)
}

// IsErrorCode reports whether err is an *AppError carrying code.
func IsErrorCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func IsAuthError(err error) bool {
	return IsErrorCode(err, ErrUnauthorized) ||
		IsErrorCode(err, ErrForbidden) ||
		IsErrorCode(err, ErrInvalidToken)
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound, ErrUserNotFound:
		return http.StatusNotFound
	case ErrInvalidInput, ErrInvalidCredentials, ErrSelfFollow, ErrUserAlreadyExists:
		return http.StatusBadRequest
	case ErrUnauthorized, ErrInvalidToken:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrDuplicate:
		return http.StatusConflict
	case ErrPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrUnsupportedType:
		return http.StatusUnsupportedMediaType
	case ErrDatabase, ErrInternal, ErrActorTimeout, ErrMessageRejected:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
