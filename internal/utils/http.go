package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// BaseURLKey is the context key holding the externally visible base URL.
const BaseURLKey = "BaseURL"

func requestOrigin(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

// UrlFor returns an absolute URL for path, rooted at the base URL stored in
// the context or, failing that, the request origin.
func UrlFor(c *gin.Context, path string) string {
	base := c.GetString(BaseURLKey)
	if base == "" {
		base = requestOrigin(c)
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// GetBaseURL prefers the configured base URL over the request origin.
func GetBaseURL(c *gin.Context, configBaseURL string) string {
	if configBaseURL != "" {
		return configBaseURL
	}
	return requestOrigin(c)
}
