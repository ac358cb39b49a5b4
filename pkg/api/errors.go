package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/searchctl/pkg/azrest"
	"github.com/codeready-toolchain/searchctl/pkg/config"
	"github.com/codeready-toolchain/searchctl/pkg/store"
)

// HTTPError is an error with the status code it should be served with.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// mapError maps domain and upstream errors to HTTP error responses.
func mapError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	var validErr *config.ValidationError
	if errors.As(err, &validErr) {
		return &HTTPError{Code: http.StatusBadRequest, Message: validErr.Error()}
	}
	if errors.Is(err, config.ErrScenarioNotFound) {
		return &HTTPError{Code: http.StatusNotFound, Message: "scenario not found"}
	}
	if errors.Is(err, store.ErrRunNotFound) {
		return &HTTPError{Code: http.StatusNotFound, Message: "run not found"}
	}

	// Upstream search service errors keep their meaning for the caller.
	var apiErr *azrest.APIError
	if errors.As(err, &apiErr) {
		switch {
		case errors.Is(err, azrest.ErrNotFound):
			return &HTTPError{Code: http.StatusNotFound, Message: apiErr.Error()}
		case errors.Is(err, azrest.ErrUnauthorized):
			return &HTTPError{Code: http.StatusForbidden, Message: apiErr.Error()}
		case errors.Is(err, azrest.ErrBadRequest):
			return &HTTPError{Code: http.StatusBadRequest, Message: apiErr.Error()}
		}
		slog.Error("Upstream service error", "status", apiErr.StatusCode, "error", err)
		return &HTTPError{Code: http.StatusBadGateway, Message: "upstream service error"}
	}

	// Unexpected error
	slog.Error("Unexpected error", "error", err)
	return &HTTPError{Code: http.StatusInternalServerError, Message: "internal server error"}
}

// abortWithError writes err as a JSON {error} body.
func abortWithError(c *gin.Context, err error) {
	he := mapError(err)
	c.AbortWithStatusJSON(he.Code, ErrorResponse{Error: he.Message})
}
