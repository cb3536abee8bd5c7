// Package roster manages the staff directory participants are resolved against.
package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"meeting-attendance/internal/attendance"
	"meeting-attendance/internal/storage"
	"meeting-attendance/internal/token"
)

type Registration struct {
	FullName   string `json:"fullName" validate:"required,min=2,max=100"`
	Email      string `json:"email" validate:"required,email,max=150"`
	Department string `json:"department" validate:"required,min=2,max=100"`
}

type Roster struct {
	store    storage.Provider
	validate *validator.Validate
	now      func() time.Time
	logger   *slog.Logger
}

func New(store storage.Provider) *Roster {
	return &Roster{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      func() time.Time { return time.Now().UTC() },
		logger:   slog.With("component", "roster"),
	}
}

func (r *Roster) check(reg *Registration) error {
	reg.FullName = strings.TrimSpace(reg.FullName)
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	reg.Department = strings.TrimSpace(reg.Department)

	err := r.validate.Struct(reg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		var fields []string
		for _, fe := range verrs {
			if fe.Field() == "Email" {
				return attendance.ErrInvalidEmail
			}
			fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", attendance.ErrInvalidInput, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", attendance.ErrInvalidInput, err)
}

// Register adds a staff member and assigns their badge token.
func (r *Roster) Register(ctx context.Context, reg Registration) (*storage.Staff, error) {
	if err := r.check(&reg); err != nil {
		return nil, err
	}

	badge, err := token.Barcode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate badge token: %w", err)
	}

	staff := &storage.Staff{
		FullName:     reg.FullName,
		Email:        reg.Email,
		Department:   reg.Department,
		BarcodeToken: badge,
		CreatedAt:    r.now(),
	}
	if err := r.store.CreateStaff(ctx, staff); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, attendance.ErrDuplicateStaff
		}
		return nil, err
	}

	r.logger.Info("Registered staff member", "staff_id", staff.ID, "department", staff.Department)
	return staff, nil
}

func (r *Roster) Get(ctx context.Context, id int64) (*storage.Staff, error) {
	s, err := r.store.GetStaff(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, attendance.ErrStaffNotFound
	}
	return s, err
}

func (r *Roster) List(ctx context.Context, filter storage.StaffFilter) ([]storage.Staff, int, error) {
	return r.store.ListStaff(ctx, filter)
}

func (r *Roster) Emails(ctx context.Context) ([]string, error) {
	return r.store.ListStaffEmails(ctx)
}

// Delete removes a staff member unless they have recorded attendance.
func (r *Roster) Delete(ctx context.Context, id int64) error {
	n, err := r.store.CountScansByStaff(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return attendance.ErrStaffHasScans
	}

	err = r.store.DeleteStaff(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return attendance.ErrStaffNotFound
	case errors.Is(err, storage.ErrReferenced):
		// a scan landed between the count and the delete
		return attendance.ErrStaffHasScans
	case err != nil:
		return err
	}

	r.logger.Info("Deleted staff member", "staff_id", id)
	return nil
}

// ResolveEmail finds the registered staff member for an address.
func (r *Roster) ResolveEmail(ctx context.Context, email string) (*storage.Staff, error) {
	s, err := r.store.GetStaffByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, attendance.ErrUnknownParticipant
	}
	return s, err
}

// ResolveBadge finds the staff member a presented badge token belongs to.
func (r *Roster) ResolveBadge(ctx context.Context, badge string) (*storage.Staff, error) {
	badge = strings.TrimSpace(badge)
	if badge == "" {
		return nil, attendance.ErrUnknownBadge
	}
	s, err := r.store.GetStaffByBarcode(ctx, badge)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, attendance.ErrUnknownBadge
	}
	return s, err
}
