package routes

import (
	"net/http"

	"meeting-attendance/internal/utils"

	"github.com/gin-gonic/gin"
)

// health reports liveness and the applied schema version.
func (a *API) health(c *gin.Context) {
	version, err := a.Store.GetSchemaVersion(c.Request.Context())
	if err != nil {
		a.logger.Error("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"version":       utils.GetVersion(),
		"schemaVersion": version,
	})
}
