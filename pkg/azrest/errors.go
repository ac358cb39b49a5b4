package azrest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

var (
	// ErrNotFound indicates the service returned 404
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates the service returned 409 or 412
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized indicates the service returned 401 or 403
	ErrUnauthorized = errors.New("not authorized")

	// ErrBadRequest indicates the service rejected the payload with 400
	ErrBadRequest = errors.New("bad request")
)

// APIError is a non-2xx response from an Azure REST endpoint.
// All of the services used here share the {"error":{"code","message"}} envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error returns formatted error message
func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
	case e.Code != "":
		return fmt.Sprintf("HTTP %d %s", e.StatusCode, e.Code)
	case e.Message != "":
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
}

// Is maps status codes onto the package sentinels so callers can use errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict || e.StatusCode == http.StatusPreconditionFailed
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest
	}
	return false
}

// StatusCode extracts the HTTP status from err, or 0 when err is not an APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// FromSDK converts an Azure SDK response error into an APIError so the
// sentinels above apply to SDK-backed clients too. Other errors pass through.
func FromSDK(err error) error {
	var re *azcore.ResponseError
	if !errors.As(err, &re) {
		return err
	}
	return &APIError{StatusCode: re.StatusCode, Code: re.ErrorCode}
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && (env.Error.Code != "" || env.Error.Message != "") {
		e.Code = env.Error.Code
		e.Message = env.Error.Message
		return e
	}
	if msg := strings.TrimSpace(string(body)); msg != "" && len(msg) < 512 {
		e.Message = msg
	}
	return e
}
