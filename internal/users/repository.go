package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authboard/authboard/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context, limit, offset int) ([]User, int, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*User, error)
	SetRole(ctx context.Context, id, role string) error
	SetBan(ctx context.Context, id string, ban *Ban) error
	Stats(ctx context.Context) (Stats, error)
	Delete(ctx context.Context, id string) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, name, email, email_verified, image, phone, phone_verified, role, banned, ban_reason, ban_expires, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.EmailVerified, &u.Image, &u.Phone, &u.PhoneVerified,
		&u.Role, &u.Banned, &u.BanReason, &u.BanExpires, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns a page of users, newest first, plus the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *user)
	}
	return out, total, rows.Err()
}

// GetByID fetches one user.
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// UpdateProfile applies the self-service profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET
			name = COALESCE($2, name),
			image = COALESCE($3, image),
			phone = COALESCE($4, phone),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, update.Name, update.Image, update.Phone))
}

// SetRole updates the user's role.
func (r *Repository) SetRole(ctx context.Context, id, role string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetBan applies or lifts a ban; nil lifts it.
func (r *Repository) SetBan(ctx context.Context, id string, ban *Ban) error {
	var tag pgconn.CommandTag
	var err error
	if ban == nil {
		tag, err = r.pool.Exec(ctx,
			`UPDATE users SET banned = FALSE, ban_reason = NULL, ban_expires = NULL, updated_at = NOW() WHERE id = $1`, id)
	} else {
		tag, err = r.pool.Exec(ctx,
			`UPDATE users SET banned = TRUE, ban_reason = $2, ban_expires = $3, updated_at = NOW() WHERE id = $1`,
			id, ban.Reason, ban.Expires)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Stats aggregates account counts.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE email_verified),
			COUNT(*) FILTER (WHERE banned),
			COUNT(*) FILTER (WHERE role = 'admin')
		FROM users`).
		Scan(&s.Total, &s.Verified, &s.Banned, &s.Admins)
	return s, err
}

// Delete removes the user row; sessions and accounts cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

var _ RepositoryPort = (*Repository)(nil)
