package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/searchctl/pkg/search"
)

// searchHandler handles POST /api/v1/indexes/:index/search.
// The caller's bearer token is forwarded as the query-source authorization,
// so results are trimmed to the documents the caller may see.
func (s *Server) searchHandler(c *gin.Context) {
	if s.search == nil {
		abortWithError(c, &HTTPError{Code: http.StatusServiceUnavailable, Message: "search service is not configured"})
		return
	}
	token := bearerToken(c)
	if token == "" {
		abortWithError(c, &HTTPError{Code: http.StatusUnauthorized, Message: "a bearer token is required"})
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, &HTTPError{Code: http.StatusBadRequest, Message: err.Error()})
		return
	}

	resp, err := s.search.Search(c.Request.Context(), c.Param("index"), req.toSearch(),
		search.WithQuerySourceAuthorization(token))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSearchResponse(resp))
}
