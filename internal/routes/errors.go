package routes

import (
	"errors"
	"net/http"

	"meeting-attendance/internal/attendance"
	"meeting-attendance/internal/session"
)

// HTTPError carries an explicit status, message and stop codes for a
// response that does not map from a sentinel.
type HTTPError struct {
	Err        error
	StatusCode int
	Message    string
	StopCodes  []string
}

// ErrorInfo is the client-facing side of an error.
type ErrorInfo struct {
	Message   string
	StopCodes []string
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

func NewHTTPError(statusCode int, err error, message string, stopCodes ...string) *HTTPError {
	return &HTTPError{Err: err, StatusCode: statusCode, Message: message, StopCodes: stopCodes}
}

// Routes-specific errors
var (
	// Authentication errors
	ErrUnauthorized       = errors.New("unauthorized")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Account settings errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrDuplicateAccount  = errors.New("email is used by another account")
	ErrIncorrectPassword = errors.New("current password is incorrect")
	ErrWeakPassword      = errors.New("password is too short")

	// Authorization errors
	ErrForbidden               = errors.New("forbidden")
	ErrInsufficientPermissions = errors.New("insufficient permissions")

	// Validation errors
	ErrInvalidRequest   = errors.New("invalid request")
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidParameter = errors.New("invalid parameter")

	// Internal errors
	ErrInternalServer     = errors.New("internal server error")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// errorStatusMap maps errors to HTTP status codes
var errorStatusMap = map[error]int{
	// 400 Bad Request
	ErrInvalidRequest:    http.StatusBadRequest,
	ErrMissingParameter:  http.StatusBadRequest,
	ErrInvalidParameter:  http.StatusBadRequest,
	ErrIncorrectPassword: http.StatusBadRequest,
	ErrWeakPassword:      http.StatusBadRequest,

	// 401 Unauthorized
	ErrUnauthorized:          http.StatusUnauthorized,
	ErrSessionExpired:        http.StatusUnauthorized,
	ErrInvalidCredentials:    http.StatusUnauthorized,
	session.ErrNonValidToken: http.StatusUnauthorized,
	session.ErrRevoked:       http.StatusUnauthorized,

	// 403 Forbidden
	ErrForbidden:               http.StatusForbidden,
	ErrInsufficientPermissions: http.StatusForbidden,

	// 404 Not Found, 409 Conflict
	ErrAccountNotFound:  http.StatusNotFound,
	ErrDuplicateAccount: http.StatusConflict,

	// 410 Gone
	attendance.ErrTokenExpired: http.StatusGone,

	// 500 Internal Server Error
	ErrInternalServer: http.StatusInternalServerError,

	// 503 Service Unavailable
	ErrServiceUnavailable: http.StatusServiceUnavailable,
}

// kindStatusMap maps the attendance error taxonomy to HTTP status codes
var kindStatusMap = map[attendance.Kind]int{
	attendance.KindNotFound:     http.StatusNotFound,
	attendance.KindConflict:     http.StatusConflict,
	attendance.KindInvalidState: http.StatusConflict,
	attendance.KindExpired:      http.StatusGone,
	attendance.KindValidation:   http.StatusBadRequest,
}

// errorInfoMap maps errors to user-friendly messages and optional stop codes
var errorInfoMap = map[error]ErrorInfo{
	// Authentication
	ErrUnauthorized: {
		Message:   "Authentication required",
		StopCodes: []string{"AUTH_REQUIRED"},
	},
	ErrSessionExpired: {
		Message:   "Session has expired",
		StopCodes: []string{"AUTH_SESSION_EXPIRED"},
	},
	ErrInvalidCredentials: {
		Message:   "Invalid credentials provided",
		StopCodes: []string{"AUTH_INVALID_CREDENTIALS"},
	},
	session.ErrNonValidToken: {
		Message:   "Invalid or expired authentication token",
		StopCodes: []string{"AUTH_INVALID_TOKEN"},
	},
	session.ErrRevoked: {
		Message:   "Session has been signed out",
		StopCodes: []string{"AUTH_SESSION_REVOKED"},
	},

	// Account settings
	ErrAccountNotFound: {
		Message:   "Account not found",
		StopCodes: []string{"ACCOUNT_NOT_FOUND"},
	},
	ErrDuplicateAccount: {
		Message:   "Email is already used by another account",
		StopCodes: []string{"DUPLICATE_ACCOUNT"},
	},
	ErrIncorrectPassword: {
		Message:   "Current password is incorrect",
		StopCodes: []string{"INCORRECT_PASSWORD"},
	},
	ErrWeakPassword: {
		Message:   "New password must be at least 6 characters",
		StopCodes: []string{"WEAK_PASSWORD"},
	},

	// Authorization
	ErrForbidden: {
		Message:   "Access denied",
		StopCodes: []string{"FORBIDDEN"},
	},
	ErrInsufficientPermissions: {
		Message:   "You don't have permission to perform this action",
		StopCodes: []string{"INSUFFICIENT_PERMISSIONS"},
	},

	// Meetings
	attendance.ErrMeetingNotFound: {
		Message:   "Meeting not found",
		StopCodes: []string{"MEETING_NOT_FOUND"},
	},
	attendance.ErrMeetingInactive: {
		Message:   "Meeting is not active",
		StopCodes: []string{"MEETING_INACTIVE"},
	},
	attendance.ErrMeetingClosed: {
		Message:   "This meeting has ended",
		StopCodes: []string{"MEETING_CLOSED"},
	},
	attendance.ErrAlreadyClosed: {
		Message:   "Meeting is already closed",
		StopCodes: []string{"ALREADY_CLOSED"},
	},

	// Attendance
	attendance.ErrDuplicateInvite: {
		Message:   "Participant has already been invited",
		StopCodes: []string{"DUPLICATE_INVITE"},
	},
	attendance.ErrUnknownParticipant: {
		Message:   "Email is not registered as staff",
		StopCodes: []string{"UNKNOWN_PARTICIPANT"},
	},
	attendance.ErrInvalidToken: {
		Message:   "Invalid or unknown link",
		StopCodes: []string{"INVALID_TOKEN"},
	},
	attendance.ErrTokenExpired: {
		Message:   "This link has expired",
		StopCodes: []string{"TOKEN_EXPIRED"},
	},
	attendance.ErrUnknownBadge: {
		Message:   "Badge not recognised",
		StopCodes: []string{"UNKNOWN_BADGE"},
	},
	attendance.ErrAlreadyScanned: {
		Message:   "Attendance already recorded",
		StopCodes: []string{"ALREADY_SCANNED"},
	},
	attendance.ErrInvalidEmail: {
		Message:   "Invalid email address",
		StopCodes: []string{"INVALID_EMAIL"},
	},
	attendance.ErrInvalidChannel: {
		Message:   "Channel must be virtual or physical",
		StopCodes: []string{"INVALID_CHANNEL"},
	},
	attendance.ErrInvalidInput: {
		Message:   "Invalid input",
		StopCodes: []string{"INVALID_INPUT"},
	},

	// Staff
	attendance.ErrStaffNotFound: {
		Message:   "Staff member not found",
		StopCodes: []string{"STAFF_NOT_FOUND"},
	},
	attendance.ErrStaffHasScans: {
		Message:   "Cannot delete staff with recorded attendance",
		StopCodes: []string{"STAFF_HAS_SCANS"},
	},
	attendance.ErrDuplicateStaff: {
		Message:   "Staff member with this email already exists",
		StopCodes: []string{"DUPLICATE_STAFF"},
	},

	// Validation
	ErrInvalidRequest: {
		Message:   "Invalid request format",
		StopCodes: []string{"INVALID_REQUEST"},
	},
	ErrMissingParameter: {
		Message:   "Required parameter is missing",
		StopCodes: []string{"MISSING_PARAMETER"},
	},
	ErrInvalidParameter: {
		Message:   "Invalid parameter value",
		StopCodes: []string{"INVALID_PARAMETER"},
	},

	// Internal (no stop codes for internal errors)
	ErrInternalServer: {
		Message: "An internal error occurred",
	},
	ErrServiceUnavailable: {
		Message: "Service is temporarily unavailable",
	},
}

// lookup finds the entry for err or the first sentinel it wraps.
func lookup[V any](m map[error]V, err error) (V, bool) {
	if v, ok := m[err]; ok {
		return v, true
	}
	for known, v := range m {
		if errors.Is(err, known) {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// GetErrorStatus resolves the response status for err: explicit HTTPError,
// then route and session sentinels, then the attendance error kind.
func GetErrorStatus(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	if status, ok := lookup(errorStatusMap, err); ok {
		return status
	}
	if status, ok := kindStatusMap[attendance.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// GetErrorInfo returns the message and stop codes shown to the client.
// Unmapped server errors get a generic message.
func GetErrorInfo(err error) ErrorInfo {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return ErrorInfo{Message: httpErr.Message, StopCodes: httpErr.StopCodes}
	}
	if info, ok := lookup(errorInfoMap, err); ok {
		return info
	}
	if GetErrorStatus(err) >= http.StatusInternalServerError {
		return ErrorInfo{Message: "An internal error occurred"}
	}
	return ErrorInfo{Message: err.Error()}
}

// GetErrorDetail returns the underlying error text when it adds to the
// user-facing message. Internal errors never expose details.
func GetErrorDetail(err error) string {
	if GetErrorStatus(err) >= 500 {
		return ""
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Err == nil {
		return ""
	}
	detail := err.Error()
	if detail == GetErrorInfo(err).Message {
		return ""
	}
	return detail
}
