package storage

import "time"

// Channel is the attendance path a record belongs to.
type Channel string

const (
	ChannelVirtual  Channel = "virtual"
	ChannelPhysical Channel = "physical"
)

func (c Channel) Valid() bool {
	return c == ChannelVirtual || c == ChannelPhysical
}

type Meeting struct {
	ID        int64      `db:"id" json:"id"`
	Title     string     `db:"title" json:"title"`
	JoinURL   string     `db:"join_url" json:"joinUrl"`
	Active    bool       `db:"active" json:"active"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	ClosedAt  *time.Time `db:"closed_at" json:"closedAt,omitempty"`
}

// Closed reports whether the meeting has been through the close transition.
func (m *Meeting) Closed() bool {
	return m.ClosedAt != nil
}

// MeetingSummary is a meeting together with its attendance counts.
type MeetingSummary struct {
	Meeting
	Invited   int `db:"invited" json:"invited"`
	Joined    int `db:"joined" json:"joined"`
	Confirmed int `db:"confirmed" json:"confirmed"`
	Scanned   int `db:"scanned" json:"scanned"`
}

type MeetingStatus string

const (
	MeetingStatusActive MeetingStatus = "active"
	MeetingStatusClosed MeetingStatus = "closed"
)

type MeetingFilter struct {
	Page     int
	PageSize int
	Status   MeetingStatus
	Search   string
}

type Dashboard struct {
	TotalMeetings  int `db:"total_meetings" json:"totalMeetings"`
	ActiveMeetings int `db:"active_meetings" json:"activeMeetings"`
	ClosedMeetings int `db:"closed_meetings" json:"closedMeetings"`
	TotalInvited   int `db:"total_invited" json:"totalInvited"`
	TotalConfirmed int `db:"total_confirmed" json:"totalConfirmed"`
	TotalScans     int `db:"total_scans" json:"totalScans"`
}

// AttendanceRecord is one row per meeting, participant email and channel.
type AttendanceRecord struct {
	ID                 int64      `db:"id" json:"id"`
	MeetingID          int64      `db:"meeting_id" json:"meetingId"`
	Email              string     `db:"email" json:"email"`
	Name               string     `db:"name" json:"name"`
	Channel            Channel    `db:"channel" json:"channel"`
	JoinToken          string     `db:"join_token" json:"-"`
	JoinExpiry         *time.Time `db:"join_expiry" json:"joinExpiry,omitempty"`
	JoinTime           *time.Time `db:"join_time" json:"joinTime,omitempty"`
	ConfirmationToken  *string    `db:"confirmation_token" json:"-"`
	ConfirmationExpiry *time.Time `db:"confirmation_expiry" json:"confirmationExpiry,omitempty"`
	ConfirmationTime   *time.Time `db:"confirmation_time" json:"confirmationTime,omitempty"`
	Confirmed          bool       `db:"confirmed" json:"confirmed"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
}

// Joined reports whether the join token has been presented successfully.
func (r *AttendanceRecord) Joined() bool {
	return r.JoinTime != nil
}

type Staff struct {
	ID           int64     `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"fullName"`
	Email        string    `db:"email" json:"email"`
	Department   string    `db:"department" json:"department"`
	BarcodeToken string    `db:"barcode_token" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type StaffFilter struct {
	Page     int
	PageSize int
	Search   string
}

type ScanLogEntry struct {
	ID        int64     `db:"id" json:"id"`
	StaffID   int64     `db:"staff_id" json:"staffId"`
	MeetingID int64     `db:"meeting_id" json:"meetingId"`
	ScannedAt time.Time `db:"scanned_at" json:"scannedAt"`
}

// PhysicalAttendee is a scan joined with the staff member it belongs to.
type PhysicalAttendee struct {
	StaffID    int64     `db:"staff_id" json:"staffId"`
	FullName   string    `db:"full_name" json:"fullName"`
	Department string    `db:"department" json:"department"`
	Email      string    `db:"email" json:"email"`
	ScannedAt  time.Time `db:"scanned_at" json:"scannedAt"`
}

// PhysicalHistoryEntry is one scan in a staff member's attendance history.
type PhysicalHistoryEntry struct {
	MeetingID   int64     `db:"meeting_id" json:"meetingId"`
	Title       string    `db:"title" json:"title"`
	MeetingDate time.Time `db:"meeting_date" json:"meetingDate"`
	ScannedAt   time.Time `db:"scanned_at" json:"scannedAt"`
}

// VirtualHistoryEntry is one invite in a participant's attendance history.
type VirtualHistoryEntry struct {
	MeetingID        int64      `db:"meeting_id" json:"meetingId"`
	Title            string     `db:"title" json:"title"`
	MeetingDate      time.Time  `db:"meeting_date" json:"meetingDate"`
	JoinTime         *time.Time `db:"join_time" json:"joinTime,omitempty"`
	Confirmed        bool       `db:"confirmed" json:"confirmed"`
	ConfirmationTime *time.Time `db:"confirmation_time" json:"confirmationTime,omitempty"`
}

type Role string

const (
	RoleHR      Role = "hr"
	RoleScanner Role = "scanner"
)

type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Role         Role      `db:"role" json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
