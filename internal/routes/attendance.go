package routes

import (
	"fmt"
	"net/http"
	"strings"

	"meeting-attendance/internal/storage"

	"github.com/gin-gonic/gin"
)

type inviteRequest struct {
	MeetingID int64           `json:"meetingId" binding:"required"`
	Email     string          `json:"email" binding:"required"`
	Channel   storage.Channel `json:"channel"`
}

type inviteResponse struct {
	Token    string `json:"token"`
	JoinLink string `json:"joinLink"`
}

func (a *API) AttendanceRoutes(r *gin.RouterGroup) {
	// Public; the token is the credential.
	r.GET("/join", a.join)
	r.GET("/confirm", a.confirm)

	r.POST("/invite", a.AuthMiddleware(), a.RequirePermission("meetings", "invite"), a.invite)
}

// join redirects an invitee to the meeting.
func (a *API) join(c *gin.Context) {
	tok := c.Query("token")
	if tok == "" {
		AbortWithError(c, fmt.Errorf("%w: token", ErrMissingParameter))
		return
	}
	joinURL, err := a.Engine.ValidateAndJoin(c.Request.Context(), tok)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Redirect(http.StatusFound, joinURL)
}

// confirm records post-meeting confirmation. Every outcome is a normal
// response; only storage failures are errors.
func (a *API) confirm(c *gin.Context) {
	outcome, err := a.Engine.ConfirmAttendance(c.Request.Context(), c.Query("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		OK(c, http.StatusOK, "", gin.H{"outcome": outcome})
		return
	}
	if a.Config.FrontendURL != "" {
		c.Redirect(http.StatusFound, strings.TrimRight(a.Config.FrontendURL, "/")+"/confirmation/"+string(outcome))
		return
	}
	HTML(c, http.StatusOK, "confirmation.html.tmpl", gin.H{"Outcome": outcome})
}

func (a *API) invite(c *gin.Context) {
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	if req.Channel == "" {
		req.Channel = storage.ChannelVirtual
	}

	tok, err := a.Engine.GenerateInvite(c.Request.Context(), req.MeetingID, req.Email, req.Channel)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	OK(c, http.StatusCreated, "Invite generated", inviteResponse{Token: tok, JoinLink: a.Engine.JoinLink(tok)})
}
