package routes

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"meeting-attendance/internal/attendance"
	"meeting-attendance/internal/storage"
	"meeting-attendance/internal/utils"

	"github.com/gin-gonic/gin"
)

type recipientsRequest struct {
	Emails []string `json:"emails" binding:"required,min=1"`
}

func (a *API) MeetingRoutes(r *gin.RouterGroup) {
	r.GET("", a.RequirePermission("meetings", "read"), a.listMeetings)
	r.POST("", a.RequirePermission("meetings", "create"), a.createMeeting)
	r.GET("/dashboard", a.RequirePermission("meetings", "read"), a.dashboard)
	r.GET("/:id", a.RequirePermission("meetings", "read"), a.getMeeting)
	r.POST("/:id/close", a.RequirePermission("meetings", "close"), a.closeMeeting)
	r.POST("/:id/invites", a.RequirePermission("meetings", "invite"), a.sendInvites)
	r.POST("/:id/badges", a.RequirePermission("meetings", "invite"), a.sendBadges)

	r.GET("/:id/attendance", a.RequirePermission("attendance", "read"), a.virtualAttendance)
	r.GET("/:id/attendance/export", a.RequirePermission("attendance", "export"), a.exportVirtual)
	r.GET("/:id/physical", a.RequirePermission("scans", "read"), a.physicalAttendance)
	r.GET("/:id/physical/summary", a.RequirePermission("scans", "read"), a.physicalSummary)
	r.GET("/:id/physical/export", a.RequirePermission("attendance", "export"), a.exportPhysical)
}

func (a *API) listMeetings(c *gin.Context) {
	page, pageSize := pageQuery(c)
	filter := storage.MeetingFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   storage.MeetingStatus(c.Query("status")),
		Search:   strings.TrimSpace(c.Query("search")),
	}
	meetings, total, err := a.Engine.ListMeetings(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	OK(c, http.StatusOK, "", newPage(meetings, total, page, pageSize))
}

func (a *API) createMeeting(c *gin.Context) {
	var in attendance.MeetingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	m, err := a.Engine.CreateMeeting(c.Request.Context(), in)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Header("Location", utils.UrlFor(c, "/api/meetings/"+strconv.FormatInt(m.ID, 10)))
	OK(c, http.StatusCreated, "Meeting created", m)
}

func (a *API) dashboard(c *gin.Context) {
	d, err := a.Engine.Dashboard(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	OK(c, http.StatusOK, "", d)
}

func (a *API) getMeeting(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	m, err := a.Engine.Meeting(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	OK(c, http.StatusOK, "", m)
}

func (a *API) closeMeeting(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	report, err := a.Engine.CloseMeeting(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	OK(c, http.StatusOK, "Meeting closed", report)
}

func (a *API) sendInvites(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req recipientsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	report, err := a.Engine.SendInvites(c.Request.Context(), id, req.Emails)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	OK(c, http.StatusOK, fmt.Sprintf("Invites sent to %d of %d recipients", report.Sent, report.Total), report)
}

func (a *API) sendBadges(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req recipientsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	report, err := a.Scanner.SendBadges(c.Request.Context(), id, req.Emails)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	OK(c, http.StatusOK, fmt.Sprintf("Badges sent to %d of %d staff", report.TotalSent, report.TotalSelected), report)
}

func (a *API) virtualAttendance(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	records, err := a.Engine.Attendance(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if records == nil {
		records = []storage.AttendanceRecord{}
	}
	OK(c, http.StatusOK, "", records)
}

func (a *API) physicalAttendance(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	attendees, err := a.Scanner.Attendees(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if attendees == nil {
		attendees = []storage.PhysicalAttendee{}
	}
	OK(c, http.StatusOK, "", attendees)
}

func (a *API) physicalSummary(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	summary, err := a.Scanner.Summary(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	OK(c, http.StatusOK, "", summary)
}
