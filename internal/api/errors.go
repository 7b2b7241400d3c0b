// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Messages the upload page relies on.
const (
	MsgNoFilesUploaded     = "No files uploaded"
	MsgProcessingFailedFmt = "Failed to process files: %s"
)

// APIError is the error envelope returned by every endpoint:
// {"error": "<message>"}. Status and Code stay out of the body.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"-"`
	Message string `json:"error"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
}

// NewNoFilesError is returned when an upload carries no files.
func NewNoFilesError() *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "NO_FILES",
		Message: MsgNoFilesUploaded,
	}
}

// NewProcessingError wraps any failure talking to the extraction service.
func NewProcessingError(cause error) *APIError {
	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "PROCESSING_FAILED",
		Message: fmt.Sprintf(MsgProcessingFailedFmt, cause.Error()),
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Message = fmt.Sprintf("%s: %v", message, cause)
	}
	return err
}

// ErrorHandler is the echo HTTPErrorHandler.
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		apiErr = &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	default:
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: "An unexpected error occurred",
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apiErr.Status)
		return
	}
	_ = c.JSON(apiErr.Status, apiErr)
}
