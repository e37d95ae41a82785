package crystal

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse matches any *MalformedResponseError.
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrUpstream matches any *UpstreamError.
	ErrUpstream = errors.New("upstream model error")
	// ErrValidation matches any *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// excerptLimit bounds how much of a bad payload is kept for diagnostics.
const excerptLimit = 200

// MalformedResponseError reports model output that could not be parsed
// into a JSON object.
type MalformedResponseError struct {
	Excerpt string
	Err     error
}

// NewMalformedResponse builds a MalformedResponseError carrying a
// truncated excerpt of payload.
func NewMalformedResponse(payload string, err error) *MalformedResponseError {
	return &MalformedResponseError{Excerpt: Excerpt(payload), Err: err}
}

func (e *MalformedResponseError) Error() string {
	if e.Err == nil {
		return ErrMalformedResponse.Error()
	}
	return fmt.Sprintf("%s: %v", ErrMalformedResponse, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

// UpstreamError reports a failure of the vision model call. Status is the
// HTTP status returned by the model endpoint, or 0 for transport failures.
type UpstreamError struct {
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream model error (status %d): %s", e.Status, e.Message)
	}
	return "upstream model error: " + e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// ValidationError reports a request field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Excerpt truncates s to a short prefix suitable for logs and
// error messages.
func Excerpt(s string) string {
	r := []rune(s)
	if len(r) <= excerptLimit {
		return string(r)
	}
	return string(r[:excerptLimit]) + "..."
}
