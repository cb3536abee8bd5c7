package cmd

import (
	"fmt"

	"meeting-attendance/internal/attendance"
	"meeting-attendance/internal/notify"
	"meeting-attendance/internal/roster"
)

// newEngine builds the attendance engine over the command's storage provider.
func newEngine() (*attendance.Engine, *attendance.Scanner, error) {
	sender, err := notify.NewSender(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize email sender: %w", err)
	}
	dispatcher := notify.NewDispatcher(sender, cfg.Notify)
	staff := roster.New(provider)
	return attendance.New(provider, staff, dispatcher, attendance.OptionsFromConfig(cfg)),
		attendance.NewScanner(provider, staff, dispatcher),
		nil
}
