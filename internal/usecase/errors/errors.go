package errors

import (
	"errors"
	"fmt"
)

// Collaborator names carried by UpstreamError
const (
	ServiceTranscription = "transcription"
	ServiceAnalysis      = "analysis"
	ServiceFootage       = "footage"
	ServiceRender        = "render"
	ServiceStorage       = "storage"
)

// Pipeline errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrRenderFailed  = errors.New("render failed")
	ErrRenderTimeout = errors.New("render timed out")
)

// UpstreamError is a failure reported by an external collaborator.
// The collaborator's message is kept verbatim in Err.
type UpstreamError struct {
	Service string
	Err     error
}

// Error implements error interface
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s service: %v", e.Service, e.Err)
}

// Unwrap exposes the collaborator error
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Upstream wraps err as a failure of the named collaborator.
// Errors that are already classified are returned unchanged.
func Upstream(service string, err error) error {
	if err == nil {
		return nil
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) || errors.Is(err, ErrInvalidInput) {
		return err
	}
	return &UpstreamError{Service: service, Err: err}
}

// InvalidInput builds an ErrInvalidInput with a formatted reason
func InvalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// RenderFailed builds an ErrRenderFailed carrying the render service's message
func RenderFailed(jobID, message string) error {
	return fmt.Errorf("%w: job %s: %s", ErrRenderFailed, jobID, message)
}

// IsUpstream reports whether err came from an external collaborator
func IsUpstream(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream)
}
