package sens

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrMissingAPIKey indicates the client was constructed without an API key.
// It is returned before any network I/O happens.
var ErrMissingAPIKey = errors.New(
	"sens: API key required: pass sens.WithAPIKey or set the " + EnvAPIKey + " environment variable")

// ErrorKind classifies an API failure. Exactly one kind applies per error.
type ErrorKind string

// Error kinds, one per failure mode of the API contract.
const (
	KindValidation         ErrorKind = "validation"
	KindAuth               ErrorKind = "auth"
	KindNotFound           ErrorKind = "not_found"
	KindConflict           ErrorKind = "conflict"
	KindPayloadTooLarge    ErrorKind = "payload_too_large"
	KindRateLimit          ErrorKind = "rate_limit"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindUnknown            ErrorKind = "unknown"
)

// APIError is the error type for all request failures. Local pre-network
// validation failures (missing file) use it too, with a zero StatusCode.
type APIError struct {
	// Kind classifies the failure per the API's error contract.
	Kind ErrorKind

	// StatusCode is the HTTP status that produced this error.
	// Zero for failures detected before a request was made.
	StatusCode int

	// Message is the human-readable description from the response body,
	// or "HTTP <status>" when the body carried none.
	Message string

	// Code is the machine-readable error code (e.g. "SENS_003"), if any.
	Code string

	// Details carries additional structured context from the body.
	Details map[string]any

	// RetryAfter is the server's backoff hint for rate-limit and
	// service-unavailable errors. Zero means the server sent no hint.
	// The client itself never retries.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("sens: [%s] %s", e.Code, e.Message)
	}
	return "sens: " + e.Message
}

// kindForStatus maps an HTTP status code to its error kind. The mapping is
// total: any unlisted non-2xx status is KindUnknown.
func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusRequestEntityTooLarge:
		return KindPayloadTooLarge
	case http.StatusTooManyRequests:
		return KindRateLimit
	case http.StatusServiceUnavailable:
		return KindServiceUnavailable
	default:
		return KindUnknown
	}
}

// errorFromResponse builds the APIError for a non-2xx response. Malformed
// bodies degrade to an empty object so decoding never masks the status.
func errorFromResponse(status int, body []byte, header http.Header) *APIError {
	var payload struct {
		Message string         `json:"message"`
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			payload.Message = ""
		}
	}

	apiErr := &APIError{
		Kind:       kindForStatus(status),
		StatusCode: status,
		Message:    payload.Message,
		Code:       payload.Code,
		Details:    payload.Details,
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("HTTP %d", status)
	}

	if apiErr.Kind == KindRateLimit || apiErr.Kind == KindServiceUnavailable {
		apiErr.RetryAfter = parseRetryAfter(header)
	}

	return apiErr
}

// parseRetryAfter reads the Retry-After header as integer seconds.
// Absent or non-numeric values yield zero, never an error.
func parseRetryAfter(header http.Header) time.Duration {
	raw := header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// IsValidation checks if the error is a request validation failure,
// including local pre-network failures such as a missing upload file.
func IsValidation(err error) bool {
	return hasKind(err, KindValidation)
}

// IsAuth checks if the error indicates an authentication or
// authorisation failure (HTTP 401 or 403).
func IsAuth(err error) bool {
	return hasKind(err, KindAuth)
}

// IsNotFound checks if the error indicates a missing resource, including
// an expired context-rail query id.
func IsNotFound(err error) bool {
	return hasKind(err, KindNotFound)
}

// IsConflict checks if the error indicates a resource-state conflict,
// e.g. querying a document that is still processing.
func IsConflict(err error) bool {
	return hasKind(err, KindConflict)
}

// IsPayloadTooLarge checks if the error indicates the uploaded file
// exceeded the plan's size limit.
func IsPayloadTooLarge(err error) bool {
	return hasKind(err, KindPayloadTooLarge)
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	return hasKind(err, KindRateLimit)
}

// IsUnavailable checks if the error indicates the service is
// temporarily unavailable.
func IsUnavailable(err error) bool {
	return hasKind(err, KindServiceUnavailable)
}

func hasKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
