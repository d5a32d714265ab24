package errors

import (
	"fmt"
	"net/http"
)

// AppError is the error shape returned across the HTTP boundary
type AppError struct {
	Raw      error
	HTTPCode int
	Code     ErrorCode
	Message  string
	Details  map[string]string
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the underlying error
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrInvalidPayload(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

func ErrUnavailable(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_UNAVAILABLE,
		Message:  "Service temporarily unavailable",
	}
}

// Upload Errors
func ErrMissingFile(field string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_UPLOAD_MISSING_FILE,
		Message:  "Missing upload file",
	}.WithDetail("field", field)
}

func ErrUnsupportedMedia(contentType string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_UPLOAD_UNSUPPORTED_MEDIA,
		Message:  "Only audio/mpeg uploads are accepted",
	}.WithDetail("content_type", contentType)
}

func ErrUploadTooLarge(size, limit int64) AppError {
	return AppError{
		HTTPCode: http.StatusRequestEntityTooLarge,
		Code:     ErrorCode_UPLOAD_TOO_LARGE,
		Message:  "Upload exceeds the size limit",
	}.WithDetail("size", fmt.Sprintf("%d", size)).
		WithDetail("limit", fmt.Sprintf("%d", limit))
}

func ErrStagingFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_UPLOAD_STAGING_FAILED,
		Message:  "Failed to stage upload",
	}
}

// Pipeline Errors
func ErrPipelineInvalidInput(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_PIPELINE_INVALID_INPUT,
		Message:  "The audio cannot be turned into a video",
	}
}

func ErrUpstream(service string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_PIPELINE_UPSTREAM,
		Message:  fmt.Sprintf("External service failed: %s", service),
	}.WithDetail("service", service)
}

func ErrRenderFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_PIPELINE_RENDER_FAILED,
		Message:  "Render failed",
	}
}

func ErrRenderTimeout(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusGatewayTimeout,
		Code:     ErrorCode_PIPELINE_RENDER_TIMEOUT,
		Message:  "Render did not finish in time",
	}
}

func ErrRunNotFound(runID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_RUN_NOT_FOUND,
		Message:  "Render run not found",
	}.WithDetail("run_id", runID)
}
