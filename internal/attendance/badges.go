package attendance

import (
	"context"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"

	"meeting-attendance/internal/config"
	"meeting-attendance/internal/email"
	"meeting-attendance/internal/notify"
	"meeting-attendance/internal/storage"
)

const badgeImageName = "badge.png"

// BadgePNG renders the staff member's badge token as a QR code.
func BadgePNG(staff *storage.Staff) ([]byte, error) {
	return qrcode.Encode(staff.BarcodeToken, qrcode.Medium, config.QR_IMAGE_SIZE)
}

// BadgeReport summarizes a SendBadges run.
type BadgeReport struct {
	TotalSelected int             `json:"totalSelected"`
	TotalSent     int             `json:"totalSent"`
	TotalFailed   int             `json:"totalFailed"`
	Results       []notify.Result `json:"results"`
}

// SendBadges mails every selected staff member their QR badge for the meeting.
// Repeated addresses are mailed once. Unknown addresses are reported as
// failed results.
func (s *Scanner) SendBadges(ctx context.Context, meetingID int64, addresses []string) (*BadgeReport, error) {
	if len(addresses) == 0 {
		return nil, fmt.Errorf("%w: no staff selected", ErrInvalidInput)
	}
	m, err := s.meeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	var failed []notify.Result
	var batch []notify.Notification
	seen := make(map[string]bool)
	for _, address := range addresses {
		address = strings.ToLower(strings.TrimSpace(address))
		if seen[address] {
			continue
		}
		seen[address] = true
		msg, err := s.badgeMessage(ctx, m, address)
		if err != nil {
			failed = append(failed, notify.Result{Recipient: address, Kind: notify.KindBadge, Error: err.Error()})
			continue
		}
		batch = append(batch, notify.Notification{Kind: notify.KindBadge, Recipient: address, Message: msg})
	}

	sent := s.notifier.Dispatch(context.WithoutCancel(ctx), batch)
	report := &BadgeReport{
		TotalSelected: len(seen),
		TotalSent:     sent.Sent,
		TotalFailed:   sent.Failed + len(failed),
		Results:       append(sent.Results, failed...),
	}
	s.logger.Info("Sent badges", "meeting_id", meetingID, "selected", report.TotalSelected, "sent", report.TotalSent)
	return report, nil
}

func (s *Scanner) badgeMessage(ctx context.Context, m *storage.Meeting, address string) (*email.Message, error) {
	staff, err := s.directory.ResolveEmail(ctx, address)
	if err != nil {
		return nil, err
	}
	png, err := BadgePNG(staff)
	if err != nil {
		return nil, fmt.Errorf("failed to render badge: %w", err)
	}
	body, err := email.Render("badge.html.tmpl", map[string]any{
		"Name":  staff.FullName,
		"Title": m.Title,
		"Date":  m.CreatedAt.Format("02 Jan 2006"),
		"Image": badgeImageName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render badge mail: %w", err)
	}
	return &email.Message{
		To:      []string{staff.Email},
		Subject: "Your QR Code for " + m.Title,
		HTML:    body,
		Inline:  []email.Inline{{Name: badgeImageName, ContentType: "image/png", Data: png}},
	}, nil
}
