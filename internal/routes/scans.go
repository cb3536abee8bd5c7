package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type scanRequest struct {
	Token     string `json:"token" binding:"required"`
	MeetingID int64  `json:"meetingId" binding:"required"`
}

func (a *API) ScanRoutes(r *gin.RouterGroup) {
	r.POST("", a.RequirePermission("scans", "create"), a.scan)
}

func (a *API) scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	result, err := a.Scanner.Scan(c.Request.Context(), req.Token, req.MeetingID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	OK(c, http.StatusCreated, "Attendance recorded for "+result.FullName, result)
}
