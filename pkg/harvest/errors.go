package harvest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind identifies the class of an HTTP error returned by the Harvest API.
type ErrorKind int

// Error kinds, one per mapped status code plus a generic fallback.
const (
	KindGeneric ErrorKind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindValidation
	KindRateLimited
	KindServer
)

// String returns the kind name used in logs and metrics labels.
func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	default:
		return "http"
	}
}

// Usage errors. These are returned before any request is sent.
var (
	ErrInvalidAPIVersion = errors.New("invalid API version")
	ErrEndpointNotFound  = errors.New("endpoint not found")
	ErrInvalidAPICall    = errors.New("invalid API call")
	ErrCursorNotSet      = errors.New("cursor not set, try a plain Get first")
	ErrInvalidRegistry   = errors.New("invalid endpoint registry")
)

// HTTP error sentinels. Use errors.Is against these to branch on an *HTTPError.
var (
	ErrHTTP         = errors.New("harvest HTTP error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrRateLimited  = errors.New("rate limited")
	ErrServer       = errors.New("server error")
)

// Fixed messages for the mapped status codes.
const (
	msgUnauthorized = "Invalid Harvest API key"
	msgForbidden    = "You do not have access to that record"
	msgNotFound     = "Resource not found"
	msgValidation   = "Validation Error"
	msgRateLimited  = "Rate limit exceeded"
	msgServer       = "Server error"
)

// FieldError is one entry of a 422 response's "errors" list.
type FieldError struct {
	Message string `json:"message"         yaml:"message"`
	Field   string `json:"field,omitempty" yaml:"field,omitempty"`
}

// HTTPError is the error returned for any non-2xx Harvest response.
type HTTPError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Body       string
	// Errors holds the structured validation errors of a 422 response.
	Errors []FieldError
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Kind == KindValidation && len(e.Errors) > 0 {
		return fmt.Sprintf("%s: %d field error(s)", e.Message, len(e.Errors))
	}

	return e.Message
}

// Is reports whether target is ErrHTTP or the sentinel of this error's kind.
func (e *HTTPError) Is(target error) bool {
	if target == ErrHTTP {
		return true
	}

	return target == kindSentinel(e.Kind)
}

func kindSentinel(kind ErrorKind) error {
	switch kind {
	case KindUnauthorized:
		return ErrUnauthorized
	case KindForbidden:
		return ErrForbidden
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	case KindRateLimited:
		return ErrRateLimited
	case KindServer:
		return ErrServer
	default:
		return nil
	}
}

// Classify maps a response status code and body to a domain error.
// It returns nil for anything below 400.
func Classify(statusCode int, body []byte) error {
	if statusCode < http.StatusBadRequest {
		return nil
	}

	httpErr := &HTTPError{StatusCode: statusCode, Body: string(body)}

	switch statusCode {
	case http.StatusUnauthorized:
		httpErr.Kind, httpErr.Message = KindUnauthorized, msgUnauthorized
	case http.StatusForbidden:
		httpErr.Kind, httpErr.Message = KindForbidden, msgForbidden
	case http.StatusNotFound:
		httpErr.Kind, httpErr.Message = KindNotFound, msgNotFound
	case http.StatusUnprocessableEntity:
		httpErr.Kind, httpErr.Message = KindValidation, msgValidation
		httpErr.Errors = parseFieldErrors(body)
	case http.StatusTooManyRequests:
		httpErr.Kind, httpErr.Message = KindRateLimited, msgRateLimited
	case http.StatusInternalServerError:
		httpErr.Kind, httpErr.Message = KindServer, msgServer
	default:
		httpErr.Kind = KindGeneric
		httpErr.Message = fmt.Sprintf("%d %s", statusCode, body)
	}

	return httpErr
}

// parseFieldErrors never returns nil so callers can range without checks.
func parseFieldErrors(body []byte) []FieldError {
	var payload struct {
		Errors []FieldError `json:"errors"`
	}

	err := json.Unmarshal(body, &payload)
	if err != nil || payload.Errors == nil {
		return []FieldError{}
	}

	return payload.Errors
}

// IsNotFound checks if the error is a 404 from the API.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized checks if the error is a 401 from the API.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden checks if the error is a 403 from the API.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsRateLimited checks if the error is a 429 from the API.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsValidation checks if the error is a 422 from the API.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// ValidationErrors returns the field errors carried by a 422 error, or nil.
func ValidationErrors(err error) []FieldError {
	httpErr := &HTTPError{}
	if errors.As(err, &httpErr) && httpErr.Kind == KindValidation {
		return httpErr.Errors
	}

	return nil
}
