package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"meeting-attendance/internal/storage"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted account password.
const MinPasswordLength = 6

type profileRequest struct {
	Name  string `json:"name" binding:"omitempty,min=2,max=100"`
	Email string `json:"email" binding:"omitempty,email,max=150"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// SettingsRoutes serves the signed-in account. Every role may manage itself.
func (a *API) SettingsRoutes(r *gin.RouterGroup) {
	r.GET("/me", a.profile)
	r.PUT("/me", a.updateProfile)
	r.POST("/change-password", NewRateLimiter(loginAttempts, loginWindow).Middleware(), a.changePassword)
}

// account loads the user behind the session.
func (a *API) account(c *gin.Context) (*storage.User, bool) {
	user, err := a.Store.GetUser(c.Request.Context(), ClaimsFrom(c).UserID())
	if errors.Is(err, storage.ErrNotFound) {
		err = ErrAccountNotFound
	}
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	return user, true
}

func (a *API) profile(c *gin.Context) {
	user, ok := a.account(c)
	if !ok {
		return
	}
	OK(c, http.StatusOK, "", user)
}

func (a *API) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	user, ok := a.account(c)
	if !ok {
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if address := strings.ToLower(strings.TrimSpace(req.Email)); address != "" {
		user.Email = address
	}

	err := a.Store.UpdateUser(c.Request.Context(), user.ID, user.Name, user.Email)
	switch {
	case errors.Is(err, storage.ErrConflict):
		AbortWithError(c, ErrDuplicateAccount)
		return
	case errors.Is(err, storage.ErrNotFound):
		AbortWithError(c, ErrAccountNotFound)
		return
	case err != nil:
		AbortWithError(c, err)
		return
	}

	a.logger.Info("Account updated", "user_id", user.ID)
	OK(c, http.StatusOK, "Profile updated", user)
}

func (a *API) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	if len(req.NewPassword) < MinPasswordLength {
		AbortWithError(c, ErrWeakPassword)
		return
	}
	user, ok := a.account(c)
	if !ok {
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		a.logger.Warn("Password change rejected", "user_id", user.ID)
		AbortWithError(c, ErrIncorrectPassword)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := a.Store.SetPasswordHash(c.Request.Context(), user.ID, string(hash)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = ErrAccountNotFound
		}
		AbortWithError(c, err)
		return
	}

	a.logger.Info("Password changed", "user_id", user.ID)
	OK(c, http.StatusOK, "Password changed", nil)
}
