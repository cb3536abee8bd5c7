package routes

import (
	"log/slog"
	"net/http"
	"strconv"

	"meeting-attendance/internal/access"
	"meeting-attendance/internal/attendance"
	"meeting-attendance/internal/config"
	"meeting-attendance/internal/roster"
	"meeting-attendance/internal/session"
	"meeting-attendance/internal/storage"
	"meeting-attendance/internal/utils"

	"github.com/gin-gonic/gin"
)

// API holds everything the handlers need.
type API struct {
	Config   *config.Config
	Store    storage.Provider
	Engine   *attendance.Engine
	Scanner  *attendance.Scanner
	Roster   *roster.Roster
	Sessions *session.Manager
	RBAC     *access.RBAC

	logger *slog.Logger
}

func NewAPI(cfg *config.Config, store storage.Provider, engine *attendance.Engine, scanner *attendance.Scanner, r *roster.Roster, sessions *session.Manager, rbac *access.RBAC) *API {
	return &API{
		Config:   cfg,
		Store:    store,
		Engine:   engine,
		Scanner:  scanner,
		Roster:   r,
		Sessions: sessions,
		RBAC:     rbac,
		logger:   slog.With("component", "api"),
	}
}

// Register mounts every route on r.
func (a *API) Register(r *gin.Engine) {
	r.GET("/health", a.health)

	api := r.Group("/api")

	a.AuthRoutes(api.Group("/auth"))
	a.AttendanceRoutes(api.Group("/attendance"))

	protected := api.Group("", a.AuthMiddleware())
	a.MeetingRoutes(protected.Group("/meetings"))
	a.ScanRoutes(protected.Group("/scans"))
	a.StaffRoutes(protected.Group("/staff"))
	a.SettingsRoutes(protected.Group("/settings"))
}

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool     `json:"success"`
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
	Detail  string   `json:"detail,omitempty"`
	Code    []string `json:"code,omitempty"`
	Data    any      `json:"data,omitempty"`
}

// OK writes a successful envelope.
func OK(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Envelope{
		Success: true,
		Status:  "ok",
		Message: message,
		Data:    data,
	})
}

// Page is a single page of a listing.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

func newPage[T any](items []T, total, page, pageSize int) Page[T] {
	if items == nil {
		items = []T{}
	}
	page, pageSize = storage.ClampPage(page, pageSize)
	return Page[T]{Items: items, Total: total, Page: page, PageSize: pageSize}
}

// pageQuery reads page and page_size. Unparseable values fall back to defaults.
func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	return page, pageSize
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		AbortWithHTTPError(c, http.StatusBadRequest, ErrInvalidParameter, "Invalid "+name, "INVALID_PARAMETER")
		return 0, false
	}
	return id, true
}

// Merge into existing gin.H
func H(c *gin.Context, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	data["BaseURL"] = c.GetString(utils.BaseURLKey)
	data["AppVersion"] = utils.GetVersion()
	return data
}

// Returns a HTML response with merged data
func HTML(c *gin.Context, code int, name string, data gin.H) {
	c.HTML(code, name, H(c, data))
}

// BaseURL stores the externally visible base URL for templates.
func BaseURL(configBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(utils.BaseURLKey, utils.GetBaseURL(c, configBaseURL))
		c.Next()
	}
}
