package api

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// bearerToken extracts the caller's token from "Authorization: Bearer <token>".
// Returns "" when the header is missing or uses another scheme.
func bearerToken(c *gin.Context) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// extractCaller names the caller for logs.
// Priority: X-Forwarded-User (oauth2-proxy) > X-Forwarded-Email (oauth2-proxy) >
// X-Remote-User (kube-rbac-proxy) > "api-client"
func extractCaller(c *gin.Context) string {
	for _, h := range []string{"X-Forwarded-User", "X-Forwarded-Email", "X-Remote-User"} {
		if v := c.GetHeader(h); v != "" {
			return v
		}
	}
	return "api-client"
}
