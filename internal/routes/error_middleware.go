package routes

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrorHandler captures errors and returns a consistent error envelope
// with appropriate HTTP status codes based on the error type. Browsers get
// the rendered error page instead.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next() // Process the request first

		if len(c.Errors) == 0 {
			return
		}

		// Use the last error (most recent)
		err := c.Errors.Last().Err

		statusCode := GetErrorStatus(err)
		errorInfo := GetErrorInfo(err)

		if statusCode >= 500 {
			slog.Error("Request failed with server error",
				"error", err,
				"status", statusCode,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
		} else if statusCode >= 400 {
			slog.Warn("Request failed with client error",
				"error", err,
				"status", statusCode,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
		}

		// Only send the response if it hasn't been written yet
		if c.Writer.Written() {
			return
		}

		response := Envelope{
			Success: false,
			Status:  "error",
			Message: errorInfo.Message,
			Detail:  GetErrorDetail(err),
		}
		// Collect all the stop codes from all errors in the chain
		for _, _err := range c.Errors {
			response.Code = append(response.Code, GetErrorInfo(_err.Err).StopCodes...)
		}

		if wantsHTML(c) {
			slog.Debug("Returning error page HTML", "code", statusCode, "message", errorInfo.Message)
			HTML(c, statusCode, "error.html.tmpl", gin.H{"Error": response, "StatusCode": statusCode})
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(statusCode, response)
	}
}

// wantsHTML reports whether the client is a browser navigating to the page.
func wantsHTML(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}

// AbortWithError is a helper function to abort the request with an error
// and add it to the Gin error chain for the ErrorHandler middleware
func AbortWithError(c *gin.Context, err error) {
	statusCode := GetErrorStatus(err)
	c.Error(err)
	c.Abort()
	// Set the status code so gin knows not to send 200
	c.Status(statusCode)
}

// AbortWithHTTPError is a helper to abort with a custom HTTPError
func AbortWithHTTPError(c *gin.Context, statusCode int, err error, message string, stopCodes ...string) {
	httpErr := NewHTTPError(statusCode, err, message, stopCodes...)
	c.Error(httpErr)
	c.Abort()
	c.Status(statusCode)
}
