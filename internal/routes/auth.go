package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"meeting-attendance/internal/session"
	"meeting-attendance/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionCookie = "attendance_session"
	claimsKey     = "claims"

	loginAttempts = 10
	loginWindow   = time.Minute
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      *storage.User `json:"user"`
}

func (a *API) AuthRoutes(r *gin.RouterGroup) {
	r.POST("/login", NewRateLimiter(loginAttempts, loginWindow).Middleware(), a.login)
	r.POST("/logout", a.AuthMiddleware(), a.logout)
	r.GET("/status", a.AuthMiddleware(), a.status)
}

func (a *API) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	user, err := a.Store.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, storage.ErrNotFound) {
		// Spend the same time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
		AbortWithError(c, ErrInvalidCredentials)
		return
	} else if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil || !user.Active {
		a.logger.Warn("Login rejected", "email", user.Email, "active", user.Active)
		AbortWithError(c, ErrInvalidCredentials)
		return
	}

	signed, claims, err := a.Sessions.Issue(c.Request.Context(), user)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	setAuthCookie(c, signed, int(a.Sessions.TTL().Seconds()))
	a.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
	OK(c, http.StatusOK, "Logged in", loginResponse{
		Token:     signed,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	})
}

func (a *API) logout(c *gin.Context) {
	claims := ClaimsFrom(c)
	if err := a.Sessions.Revoke(c.Request.Context(), claims); err != nil && !errors.Is(err, session.ErrRevoked) {
		AbortWithError(c, err)
		return
	}
	setAuthCookie(c, "", -1)
	OK(c, http.StatusOK, "Logged out", nil)
}

func (a *API) status(c *gin.Context) {
	claims := ClaimsFrom(c)
	OK(c, http.StatusOK, "", gin.H{
		"authenticated": true,
		"userId":        claims.UserID(),
		"email":         claims.Email,
		"name":          claims.Name,
		"role":          claims.Role,
		"expiresAt":     claims.ExpiresAt.Time,
	})
}

// AuthMiddleware requires a valid session token from the Authorization
// header or the session cookie.
func (a *API) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims, err := a.Sessions.Verify(c.Request.Context(), tokenString)
		switch {
		case err == nil:
		case errors.Is(err, jwt.ErrTokenExpired):
			AbortWithError(c, ErrSessionExpired)
			return
		case errors.Is(err, session.ErrRevoked):
			AbortWithError(c, err)
			return
		default:
			a.logger.Debug("Rejected session token", "error", err)
			AbortWithError(c, session.ErrNonValidToken)
			return
		}

		c.Set(claimsKey, claims)
		c.Set("userID", claims.Subject)
		c.Next()
	}
}

// RequirePermission checks the session role against the RBAC policy.
func (a *API) RequirePermission(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !a.RBAC.Can(string(claims.Role), resource, action) {
			a.logger.Warn("Permission denied", "role", claims.Role, "resource", resource, "action", action)
			AbortWithError(c, ErrInsufficientPermissions)
			return
		}
		c.Next()
	}
}

// ClaimsFrom returns the session claims set by AuthMiddleware.
func ClaimsFrom(c *gin.Context) *session.AuthClaims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*session.AuthClaims); ok {
			return claims
		}
	}
	return nil
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, tokenString, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tokenString)
		}
		return ""
	}
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		return cookie
	}
	return ""
}

func setAuthCookie(c *gin.Context, value string, maxAge int) {
	secure := c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(sessionCookie, value, maxAge, "/", "", secure, true)
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
