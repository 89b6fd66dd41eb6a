package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/authboard/authboard/internal/shared"
)

const (
	emailTokenTTL = 24 * time.Hour
	resetTokenTTL = time.Hour
	otpTTL        = 10 * time.Minute
)

// Notifier delivers transactional mail and SMS. Implementations enqueue
// onto the background worker; delivery failures never reach callers of the
// triggering action.
type Notifier interface {
	SendMail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, body string) error
}

// SessionRevoker invalidates the server-side copy of a session.
type SessionRevoker interface {
	Revoke(ctx context.Context, sessionID string) error
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	notifier Notifier
	revoker  SessionRevoker
	logger   *slog.Logger
	baseURL  string
	now      func() time.Time
}

// NewService constructs a new Service. baseURL is used to build the links
// embedded in verification and reset emails.
func NewService(repo Repository, notifier Notifier, revoker SessionRevoker, logger *slog.Logger, baseURL string) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		revoker:  revoker,
		logger:   logger,
		baseURL:  baseURL,
		now:      time.Now,
	}
}

// SignUp registers a new credential user. The welcome and verification
// emails are fire-and-forget.
func (s *Service) SignUp(ctx context.Context, name, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	ts := s.now().UTC()
	user := &User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      RoleUser,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	hashStr := string(hash)
	account := &Account{
		ID:         uuid.NewString(),
		AccountID:  user.ID,
		ProviderID: ProviderCredential,
		UserID:     user.ID,
		Password:   &hashStr,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.notifyMail(ctx, user.Email, "Welcome",
		fmt.Sprintf("Hi %s, your account is ready.", user.Name))
	if err := s.SendVerificationEmail(ctx, user.Email); err != nil {
		s.logger.Warn("send verification email", slog.Any("error", err))
	}
	return user, nil
}

// Authenticate validates email/password credentials and the ban state.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	account, err := s.repo.GetCredentialAccount(ctx, user.ID)
	if err != nil || account.Password == nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*account.Password), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if user.BanActive(now) {
		return nil, shared.ErrBanned
	}
	if user.Banned {
		// Ban expired, lift it on the way in.
		if err := s.repo.ClearBan(ctx, user.ID); err != nil {
			s.logger.Warn("clear expired ban", slog.Any("error", err))
		}
		user.Banned = false
	}
	return user, nil
}

// IssueSession mirrors a newly signed-in Redis session into the sessions
// table.
func (s *Service) IssueSession(ctx context.Context, token, userID string, expiresAt time.Time, ip, ua string) error {
	ts := s.now().UTC()
	return s.repo.CreateSession(ctx, &Session{
		ID:        uuid.NewString(),
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
		IPAddress: ip,
		UserAgent: ua,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
}

// RemoveSession deletes the session row matching a cookie token.
func (s *Service) RemoveSession(ctx context.Context, token string) error {
	return s.repo.DeleteSessionByToken(ctx, token)
}

// RevokeUserSessions signs the user out everywhere.
func (s *Service) RevokeUserSessions(ctx context.Context, userID string) error {
	tokens, err := s.repo.DeleteUserSessions(ctx, userID)
	if err != nil {
		return err
	}
	for _, token := range tokens {
		if err := s.revoker.Revoke(ctx, token); err != nil {
			s.logger.Warn("revoke session", slog.String("token", token), slog.Any("error", err))
		}
	}
	return nil
}

// CurrentUser loads the caller identity for a session user id.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// SendVerificationEmail issues a fresh email verification token.
func (s *Service) SendVerificationEmail(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return nil
	}
	token := uuid.NewString()
	if err := s.storeVerification(ctx, purposeEmailVerify+":"+email, token, emailTokenTTL); err != nil {
		return err
	}
	s.notifyMail(ctx, email, "Verify your email",
		fmt.Sprintf("Confirm your address: %s/verify-email?token=%s", s.baseURL, token))
	return nil
}

// VerifyEmail consumes a verification token and marks the email verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	v, err := s.repo.ConsumeVerificationByValue(ctx, purposeEmailVerify, token)
	if err != nil {
		return err
	}
	if s.now().UTC().After(v.ExpiresAt) {
		return shared.ErrTokenExpired
	}
	email := v.Identifier[len(purposeEmailVerify)+1:]
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.repo.SetEmailVerified(ctx, user.ID)
}

// ForgotPassword issues a reset token. It reports success whether or not
// the address exists, to avoid account enumeration.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil
	}
	token := uuid.NewString()
	if err := s.storeVerification(ctx, purposePasswordRset+":"+user.Email, token, resetTokenTTL); err != nil {
		return err
	}
	s.notifyMail(ctx, user.Email, "Reset your password",
		fmt.Sprintf("Reset link: %s/reset-password?token=%s", s.baseURL, token))
	return nil
}

// ResetPassword consumes a reset token, replaces the password hash, and
// signs the user out everywhere.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	v, err := s.repo.ConsumeVerificationByValue(ctx, purposePasswordRset, token)
	if err != nil {
		return err
	}
	if s.now().UTC().After(v.ExpiresAt) {
		return shared.ErrTokenExpired
	}
	email := v.Identifier[len(purposePasswordRset)+1:]
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	account, err := s.repo.GetCredentialAccount(ctx, user.ID)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	if err := s.repo.SetAccountPassword(ctx, account.ID, string(hash)); err != nil {
		return err
	}
	return s.RevokeUserSessions(ctx, user.ID)
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	account, err := s.repo.GetCredentialAccount(ctx, userID)
	if err != nil || account.Password == nil {
		return shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*account.Password), []byte(current)); err != nil {
		return shared.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.SetAccountPassword(ctx, account.ID, string(hash))
}

// SendPhoneOTP issues a 6-digit one-time code via SMS.
func (s *Service) SendPhoneOTP(ctx context.Context, phone string) error {
	if _, err := s.repo.GetUserByPhone(ctx, phone); err != nil {
		return err
	}
	code, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.storeVerification(ctx, purposePhoneOTP+":"+phone, code, otpTTL); err != nil {
		return err
	}
	s.notifySMS(ctx, phone, "Your verification code is "+code)
	return nil
}

// VerifyPhoneOTP consumes an OTP and returns the verified user.
func (s *Service) VerifyPhoneOTP(ctx context.Context, phone, code string) (*User, error) {
	v, err := s.repo.ConsumeVerificationByIdentifier(ctx, purposePhoneOTP+":"+phone)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if s.now().UTC().After(v.ExpiresAt) {
		return nil, shared.ErrTokenExpired
	}
	if v.Value != code {
		return nil, shared.ErrInvalidCredentials
	}
	user, err := s.repo.GetUserByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !user.PhoneVerified {
		if err := s.repo.SetPhoneVerified(ctx, user.ID); err != nil {
			return nil, err
		}
		user.PhoneVerified = true
	}
	if user.BanActive(s.now().UTC()) {
		return nil, shared.ErrBanned
	}
	return user, nil
}

func (s *Service) storeVerification(ctx context.Context, identifier, value string, ttl time.Duration) error {
	ts := s.now().UTC()
	return s.repo.CreateVerification(ctx, &Verification{
		ID:         uuid.NewString(),
		Identifier: identifier,
		Value:      value,
		ExpiresAt:  ts.Add(ttl),
		CreatedAt:  ts,
		UpdatedAt:  ts,
	})
}

// notifyMail enqueues a mail, logging and swallowing failures so the
// triggering action still succeeds.
func (s *Service) notifyMail(ctx context.Context, to, subject, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendMail(ctx, to, subject, body); err != nil {
		s.logger.Warn("enqueue mail", slog.String("to", to), slog.Any("error", err))
	}
}

func (s *Service) notifySMS(ctx context.Context, to, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendSMS(ctx, to, body); err != nil {
		s.logger.Warn("enqueue sms", slog.String("to", to), slog.Any("error", err))
	}
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("auth: generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
