package attendance

import "errors"

// Kind is the error taxonomy callers branch on.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInvalidState Kind = "invalid_state"
	KindExpired      Kind = "expired"
	KindValidation   Kind = "validation"
	KindInternal     Kind = "internal"
)

var (
	ErrMeetingNotFound    = errors.New("meeting not found")
	ErrMeetingInactive    = errors.New("meeting is not active")
	ErrMeetingClosed      = errors.New("meeting has been closed")
	ErrAlreadyClosed      = errors.New("meeting is already closed")
	ErrDuplicateInvite    = errors.New("participant has already been invited")
	ErrUnknownParticipant = errors.New("email is not registered")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrUnknownBadge       = errors.New("badge not recognised")
	ErrAlreadyScanned     = errors.New("attendance already recorded")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidChannel     = errors.New("invalid attendance channel")
	ErrInvalidInput       = errors.New("invalid input")
	ErrStaffNotFound      = errors.New("staff member not found")
	ErrStaffHasScans      = errors.New("staff member has recorded attendance")
	ErrDuplicateStaff     = errors.New("staff member with this email already exists")
)

var errorKinds = []struct {
	err  error
	kind Kind
}{
	{ErrMeetingNotFound, KindNotFound},
	{ErrStaffNotFound, KindNotFound},
	{ErrUnknownParticipant, KindNotFound},
	{ErrUnknownBadge, KindNotFound},
	{ErrDuplicateInvite, KindConflict},
	{ErrAlreadyScanned, KindConflict},
	{ErrAlreadyClosed, KindConflict},
	{ErrDuplicateStaff, KindConflict},
	{ErrStaffHasScans, KindConflict},
	{ErrMeetingInactive, KindInvalidState},
	{ErrMeetingClosed, KindInvalidState},
	{ErrTokenExpired, KindExpired},
	{ErrInvalidToken, KindValidation},
	{ErrInvalidEmail, KindValidation},
	{ErrInvalidChannel, KindValidation},
	{ErrInvalidInput, KindValidation},
}

// KindOf classifies err. Errors outside the taxonomy are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
