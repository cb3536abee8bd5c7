package storage

import (
	"context"
	"errors"
	"strings"
)

const userColumns = `id, name, email, role, password_hash, active, created_at`

func (p *SQLProvider) CreateUser(ctx context.Context, user *User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	res, err := p.db.NamedExecContext(ctx, `INSERT INTO users (name, email, role, password_hash, active, created_at)
		VALUES (:name, :email, :role, :password_hash, :active, :created_at)`, user)
	if err != nil {
		return translateError(err)
	}
	user.ID, err = res.LastInsertId()
	return err
}

func (p *SQLProvider) GetUser(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := p.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (p *SQLProvider) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := p.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (p *SQLProvider) ListUsers(ctx context.Context) ([]User, error) {
	users := []User{}
	if err := p.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY email`); err != nil {
		return nil, translateError(err)
	}
	return users, nil
}

// UpdateUser changes the account's name and email. An email held by another
// account fails with ErrConflict.
func (p *SQLProvider) UpdateUser(ctx context.Context, id int64, name, email string) error {
	return foundOrNotFound(affected(p.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ? WHERE id = ?`,
		strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email)), id)))
}

func (p *SQLProvider) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	return foundOrNotFound(affected(p.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)))
}

// foundOrNotFound reports an unconditional update that matched no row as a
// missing record.
func foundOrNotFound(err error) error {
	if errors.Is(err, ErrNotModified) {
		return ErrNotFound
	}
	return err
}
