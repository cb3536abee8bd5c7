package routes

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"meeting-attendance/internal/attendance"
	"meeting-attendance/internal/roster"
	"meeting-attendance/internal/storage"
	"meeting-attendance/internal/utils"

	"github.com/gin-gonic/gin"
)

// Largest accepted staff list upload.
const maxImportSize = 5 << 20

func (a *API) StaffRoutes(r *gin.RouterGroup) {
	r.GET("", a.RequirePermission("staff", "read"), a.listStaff)
	r.POST("", a.RequirePermission("staff", "create"), a.registerStaff)
	r.POST("/import", a.RequirePermission("staff", "create"), a.importStaff)
	r.GET("/emails", a.RequirePermission("staff", "read"), a.staffEmails)
	r.GET("/history/:email", a.RequirePermission("staff", "read"), a.staffHistory)
	r.GET("/:id", a.RequirePermission("staff", "read"), a.getStaff)
	r.DELETE("/:id", a.RequirePermission("staff", "delete"), a.deleteStaff)
	r.GET("/:id/badge.png", a.RequirePermission("staff", "read"), a.staffBadge)
}

func (a *API) listStaff(c *gin.Context) {
	page, pageSize := pageQuery(c)
	staff, total, err := a.Roster.List(c.Request.Context(), storage.StaffFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	OK(c, http.StatusOK, "", newPage(staff, total, page, pageSize))
}

func (a *API) registerStaff(c *gin.Context) {
	var reg roster.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	staff, err := a.Roster.Register(c.Request.Context(), reg)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Header("Location", utils.UrlFor(c, "/api/staff/"+strconv.FormatInt(staff.ID, 10)))
	OK(c, http.StatusCreated, "Staff member registered", staff)
}

// importStaff accepts a staff list either as the multipart field "file" or
// as the raw request body.
func (a *API) importStaff(c *gin.Context) {
	var list io.Reader
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			AbortWithError(c, err)
			return
		}
		defer f.Close()
		list = f
	} else {
		list = c.Request.Body
	}

	report, err := a.Roster.Import(c.Request.Context(), io.LimitReader(list, maxImportSize))
	if err != nil && report == nil {
		// the list itself could not be read
		AbortWithError(c, fmt.Errorf("%w: %v", attendance.ErrInvalidInput, err))
		return
	} else if err != nil {
		AbortWithError(c, err)
		return
	}
	OK(c, http.StatusOK, fmt.Sprintf("Imported %d of %d rows", report.Created, report.Total), report)
}

func (a *API) staffEmails(c *gin.Context) {
	emails, err := a.Roster.Emails(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if emails == nil {
		emails = []string{}
	}
	OK(c, http.StatusOK, "", emails)
}

func (a *API) getStaff(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	staff, err := a.Roster.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	OK(c, http.StatusOK, "", staff)
}

func (a *API) deleteStaff(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := a.Roster.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	OK(c, http.StatusOK, "Staff member deleted", nil)
}

func (a *API) staffBadge(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	staff, err := a.Roster.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	png, err := attendance.BadgePNG(staff)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// staffHistory lists one person's attendance across meetings. The optional
// channel query narrows it to virtual or physical.
func (a *API) staffHistory(c *gin.Context) {
	h, err := a.Engine.History(c.Request.Context(), c.Param("email"), storage.Channel(c.Query("channel")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	OK(c, http.StatusOK, "", h)
}
