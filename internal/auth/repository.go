package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authboard/authboard/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByPhone(ctx context.Context, phone string) (*User, error)
	SetEmailVerified(ctx context.Context, userID string) error
	SetPhoneVerified(ctx context.Context, userID string) error
	ClearBan(ctx context.Context, userID string) error

	CreateAccount(ctx context.Context, account *Account) error
	GetCredentialAccount(ctx context.Context, userID string) (*Account, error)
	SetAccountPassword(ctx context.Context, accountID, passwordHash string) error

	CreateSession(ctx context.Context, session *Session) error
	DeleteSessionByToken(ctx context.Context, token string) error
	DeleteUserSessions(ctx context.Context, userID string) ([]string, error)

	CreateVerification(ctx context.Context, v *Verification) error
	ConsumeVerificationByValue(ctx context.Context, identifier, value string) (*Verification, error)
	ConsumeVerificationByIdentifier(ctx context.Context, identifier string) (*Verification, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
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

// CreateUser inserts a user row.
func (r *PGRepository) CreateUser(ctx context.Context, user *User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, email_verified, image, phone, phone_verified, role, banned, ban_reason, ban_expires, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		user.ID, user.Name, user.Email, user.EmailVerified, user.Image, user.Phone, user.PhoneVerified,
		user.Role, user.Banned, user.BanReason, user.BanExpires, user.CreatedAt, user.UpdatedAt)
	return translateError(err)
}

// GetUserByID fetches a user by primary key.
func (r *PGRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByEmail fetches a user by email.
func (r *PGRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetUserByPhone fetches a user by phone number.
func (r *PGRepository) GetUserByPhone(ctx context.Context, phone string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone))
}

// SetEmailVerified marks the user's email verified.
func (r *PGRepository) SetEmailVerified(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`, userID)
	return err
}

// SetPhoneVerified marks the user's phone verified.
func (r *PGRepository) SetPhoneVerified(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET phone_verified = TRUE, updated_at = NOW() WHERE id = $1`, userID)
	return err
}

// ClearBan lifts an expired ban.
func (r *PGRepository) ClearBan(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET banned = FALSE, ban_reason = NULL, ban_expires = NULL, updated_at = NOW() WHERE id = $1`, userID)
	return err
}

// CreateAccount inserts an account row.
func (r *PGRepository) CreateAccount(ctx context.Context, account *Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, account_id, provider_id, user_id, access_token, refresh_token, id_token, scope, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		account.ID, account.AccountID, account.ProviderID, account.UserID, account.AccessToken,
		account.RefreshToken, account.IDToken, account.Scope, account.Password, account.CreatedAt, account.UpdatedAt)
	return translateError(err)
}

// GetCredentialAccount fetches the email/password account of a user.
func (r *PGRepository) GetCredentialAccount(ctx context.Context, userID string) (*Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, account_id, provider_id, user_id, access_token, refresh_token, id_token, scope, password, created_at, updated_at
		FROM accounts WHERE user_id = $1 AND provider_id = $2`,
		userID, ProviderCredential).
		Scan(&a.ID, &a.AccountID, &a.ProviderID, &a.UserID, &a.AccessToken, &a.RefreshToken,
			&a.IDToken, &a.Scope, &a.Password, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// SetAccountPassword replaces the stored password hash.
func (r *PGRepository) SetAccountPassword(ctx context.Context, accountID, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE accounts SET password = $2, updated_at = NOW() WHERE id = $1`, accountID, passwordHash)
	return err
}

// CreateSession persists a login session row for auditing and admin review.
func (r *PGRepository) CreateSession(ctx context.Context, session *Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, token, user_id, expires_at, ip_address, user_agent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		session.ID, session.Token, session.UserID, session.ExpiresAt,
		session.IPAddress, session.UserAgent, session.CreatedAt, session.UpdatedAt)
	return translateError(err)
}

// DeleteSessionByToken removes a session row by its cookie token.
func (r *PGRepository) DeleteSessionByToken(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

// DeleteUserSessions removes every session of a user and returns the
// deleted tokens so the Redis copies can be revoked too.
func (r *PGRepository) DeleteUserSessions(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `DELETE FROM sessions WHERE user_id = $1 RETURNING token`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// CreateVerification inserts a verification token row, replacing any
// previous token for the same identifier.
func (r *PGRepository) CreateVerification(ctx context.Context, v *Verification) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM verifications WHERE identifier = $1`, v.Identifier)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO verifications (id, identifier, value, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID, v.Identifier, v.Value, v.ExpiresAt, v.CreatedAt, v.UpdatedAt)
	return err
}

func scanVerification(row pgx.Row) (*Verification, error) {
	var v Verification
	err := row.Scan(&v.ID, &v.Identifier, &v.Value, &v.ExpiresAt, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// ConsumeVerificationByValue deletes and returns the row matching an
// identifier prefix and token value. Single use by construction.
func (r *PGRepository) ConsumeVerificationByValue(ctx context.Context, identifierPrefix, value string) (*Verification, error) {
	return scanVerification(r.pool.QueryRow(ctx, `
		DELETE FROM verifications WHERE identifier LIKE $1 AND value = $2
		RETURNING id, identifier, value, expires_at, created_at, updated_at`,
		identifierPrefix+":%", value))
}

// ConsumeVerificationByIdentifier deletes and returns the row for an exact
// identifier.
func (r *PGRepository) ConsumeVerificationByIdentifier(ctx context.Context, identifier string) (*Verification, error) {
	return scanVerification(r.pool.QueryRow(ctx, `
		DELETE FROM verifications WHERE identifier = $1
		RETURNING id, identifier, value, expires_at, created_at, updated_at`,
		identifier))
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", shared.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
