package attendance

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"meeting-attendance/internal/email"
	"meeting-attendance/internal/metrics"
	"meeting-attendance/internal/notify"
	"meeting-attendance/internal/storage"
)

// GenerateInvite creates an invited attendance record for the participant and
// returns its join token. Delivering the token is up to the caller.
func (e *Engine) GenerateInvite(ctx context.Context, meetingID int64, address string, channel storage.Channel) (string, error) {
	m, err := e.meeting(ctx, meetingID)
	if err != nil {
		return "", e.countInvite(err)
	}
	record, err := e.invite(ctx, m, address, channel)
	if err != nil {
		return "", err
	}
	return record.JoinToken, nil
}

func (e *Engine) invite(ctx context.Context, m *storage.Meeting, address string, channel storage.Channel) (*storage.AttendanceRecord, error) {
	if !channel.Valid() {
		return nil, e.countInvite(ErrInvalidChannel)
	}
	address, err := normalizeEmail(e.validate, address)
	if err != nil {
		return nil, e.countInvite(err)
	}
	if !m.Active {
		return nil, e.countInvite(ErrMeetingInactive)
	}

	staff, err := e.directory.ResolveEmail(ctx, address)
	if err != nil {
		return nil, e.countInvite(err)
	}

	joinToken, err := e.mint()
	if err != nil {
		return nil, e.countInvite(fmt.Errorf("failed to mint join token: %w", err))
	}

	now := e.now()
	record := &storage.AttendanceRecord{
		MeetingID: m.ID,
		Email:     address,
		Name:      staff.FullName,
		Channel:   channel,
		JoinToken: joinToken,
		CreatedAt: now,
	}
	if e.opts.InviteTTL > 0 {
		expiry := now.Add(e.opts.InviteTTL)
		record.JoinExpiry = &expiry
	}

	if err := e.store.CreateAttendance(ctx, record); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			err = ErrDuplicateInvite
		}
		return nil, e.countInvite(err)
	}

	e.logger.Info("Generated invite", "meeting_id", m.ID, "record_id", record.ID, "channel", channel)
	e.logger.Debug("Join token issued", "record_id", record.ID, "token_prefix", tokenPrefix(joinToken))
	metrics.InvitesTotal.WithLabelValues("created").Inc()
	return record, nil
}

func (e *Engine) countInvite(err error) error {
	outcome := "rejected"
	switch {
	case errors.Is(err, ErrDuplicateInvite):
		outcome = "duplicate"
	case KindOf(err) == KindInternal:
		outcome = "error"
		e.logger.Error("Invite generation failed", "error", err)
	}
	metrics.InvitesTotal.WithLabelValues(outcome).Inc()
	return err
}

// JoinLink is the public link a participant follows to join.
func (e *Engine) JoinLink(joinToken string) string {
	return e.opts.BaseURL + "/api/attendance/join?token=" + url.QueryEscape(joinToken)
}

// ConfirmLink is the public link a participant follows to confirm attendance.
func (e *Engine) ConfirmLink(confirmationToken string) string {
	return e.opts.BaseURL + "/api/attendance/confirm?token=" + url.QueryEscape(confirmationToken)
}

// InviteResult is the outcome for one address in a SendInvites run.
type InviteResult struct {
	Email     string `json:"email"`
	Generated bool   `json:"generated"`
	Sent      bool   `json:"sent"`
	Error     string `json:"error,omitempty"`
}

// InviteReport summarizes a SendInvites run.
type InviteReport struct {
	MeetingID int64          `json:"meetingId"`
	Total     int            `json:"total"`
	Generated int            `json:"generated"`
	Sent      int            `json:"sent"`
	Failed    int            `json:"failed"`
	Results   []InviteResult `json:"results"`
}

// SendInvites generates a virtual invite for every address and mails the join
// link. A failure for one address never stops the others. Every invite is
// persisted before any mail is sent.
func (e *Engine) SendInvites(ctx context.Context, meetingID int64, addresses []string) (*InviteReport, error) {
	if len(addresses) == 0 {
		return nil, fmt.Errorf("%w: no recipients selected", ErrInvalidInput)
	}
	m, err := e.meeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !m.Active {
		return nil, ErrMeetingInactive
	}

	report := &InviteReport{MeetingID: meetingID}
	seen := make(map[string]bool)
	var batch []notify.Notification
	pending := make(map[string]int)

	for _, raw := range addresses {
		address, err := normalizeEmail(e.validate, raw)
		if err != nil {
			report.Results = append(report.Results, InviteResult{Email: strings.TrimSpace(raw), Error: err.Error()})
			continue
		}
		if seen[address] {
			continue
		}
		seen[address] = true

		res := InviteResult{Email: address}
		record, err := e.invite(ctx, m, address, storage.ChannelVirtual)
		if err == nil {
			res.Generated = true
			var msg *email.Message
			if msg, err = e.inviteMessage(m, record); err == nil {
				pending[address] = len(report.Results)
				batch = append(batch, notify.Notification{Kind: notify.KindInvite, Recipient: address, Message: msg})
			}
		}
		if err != nil {
			res.Error = err.Error()
		}
		report.Results = append(report.Results, res)
	}

	sent := e.notifier.Dispatch(context.WithoutCancel(ctx), batch)
	for _, r := range sent.Results {
		i := pending[r.Recipient]
		report.Results[i].Sent = r.Success
		if !r.Success {
			report.Results[i].Error = r.Error
		}
	}

	report.Total = len(report.Results)
	for _, r := range report.Results {
		if r.Generated {
			report.Generated++
		}
		if r.Sent {
			report.Sent++
		} else {
			report.Failed++
		}
	}
	e.logger.Info("Sent invites", "meeting_id", meetingID, "total", report.Total, "generated", report.Generated, "sent", report.Sent)
	return report, nil
}

func (e *Engine) inviteMessage(m *storage.Meeting, record *storage.AttendanceRecord) (*email.Message, error) {
	data := map[string]any{
		"Name":  record.Name,
		"Title": m.Title,
		"Link":  e.JoinLink(record.JoinToken),
	}
	if record.JoinExpiry != nil {
		data["Expires"] = record.JoinExpiry.Format("2006-01-02 15:04 MST")
	}
	body, err := email.Render("invite.html.tmpl", data)
	if err != nil {
		return nil, fmt.Errorf("failed to render invite: %w", err)
	}
	return &email.Message{
		To:      []string{record.Email},
		Subject: "Meeting Invitation: " + m.Title,
		HTML:    body,
	}, nil
}
