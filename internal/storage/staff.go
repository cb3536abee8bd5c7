package storage

import (
	"context"
	"errors"
	"strings"
)

const staffColumns = `id, full_name, email, department, barcode_token, created_at`

func (p *SQLProvider) CreateStaff(ctx context.Context, staff *Staff) error {
	res, err := p.db.NamedExecContext(ctx, `INSERT INTO staff (full_name, email, department, barcode_token, created_at)
		VALUES (:full_name, :email, :department, :barcode_token, :created_at)`, staff)
	if err != nil {
		return translateError(err)
	}
	staff.ID, err = res.LastInsertId()
	return err
}

func (p *SQLProvider) getStaff(ctx context.Context, where string, arg any) (*Staff, error) {
	var s Staff
	if err := p.db.GetContext(ctx, &s, `SELECT `+staffColumns+` FROM staff WHERE `+where, arg); err != nil {
		return nil, translateError(err)
	}
	return &s, nil
}

func (p *SQLProvider) GetStaff(ctx context.Context, id int64) (*Staff, error) {
	return p.getStaff(ctx, "id = ?", id)
}

func (p *SQLProvider) GetStaffByEmail(ctx context.Context, email string) (*Staff, error) {
	return p.getStaff(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (p *SQLProvider) GetStaffByBarcode(ctx context.Context, token string) (*Staff, error) {
	return p.getStaff(ctx, "barcode_token = ?", token)
}

func (p *SQLProvider) ListStaff(ctx context.Context, filter StaffFilter) ([]Staff, int, error) {
	page, pageSize := ClampPage(filter.Page, filter.PageSize)

	clause := ""
	var args []any
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		clause = ` WHERE LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(department) LIKE ?`
		args = append(args, like, like, like)
	}

	var total int
	if err := p.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM staff`+clause, args...); err != nil {
		return nil, 0, translateError(err)
	}

	staff := []Staff{}
	args = append(args, pageSize, (page-1)*pageSize)
	err := p.db.SelectContext(ctx, &staff,
		`SELECT `+staffColumns+` FROM staff`+clause+` ORDER BY full_name, id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, translateError(err)
	}
	return staff, total, nil
}

func (p *SQLProvider) ListStaffEmails(ctx context.Context) ([]string, error) {
	emails := []string{}
	if err := p.db.SelectContext(ctx, &emails, `SELECT email FROM staff ORDER BY email`); err != nil {
		return nil, translateError(err)
	}
	return emails, nil
}

// DeleteStaff removes a staff member. Scan log entries referencing the staff
// member block the delete with ErrReferenced.
func (p *SQLProvider) DeleteStaff(ctx context.Context, id int64) error {
	err := affected(p.db.ExecContext(ctx, `DELETE FROM staff WHERE id = ?`, id))
	if errors.Is(err, ErrNotModified) {
		return ErrNotFound
	}
	return err
}
