package users

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/authboard/authboard/internal/shared"
)

// Notifier delivers account notification mail; failures are logged and
// swallowed so the triggering action still succeeds.
type Notifier interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

// SessionRevoker signs a user out of every active session.
type SessionRevoker interface {
	RevokeUserSessions(ctx context.Context, userID string) error
}

// Service handles user management business logic.
type Service struct {
	repo     RepositoryPort
	sessions SessionRevoker
	notifier Notifier
	logger   *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, sessions SessionRevoker, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, sessions: sessions, notifier: notifier, logger: logger}
}

// List returns a page of users plus pagination metadata.
func (s *Service) List(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	users, total, err := s.repo.List(ctx, p.PerPage, (p.Page-1)*p.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// Get fetches one user.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile applies self-service profile edits.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error) {
	return s.repo.UpdateProfile(ctx, userID, update)
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *Service) SetRole(ctx context.Context, actorID, userID, role string) error {
	if !ValidRole(role) {
		return fmt.Errorf("%w: invalid role %q", shared.ErrUnsupportedAction, role)
	}
	if actorID == userID {
		return fmt.Errorf("%w: cannot change own role", shared.ErrForbidden)
	}
	return s.repo.SetRole(ctx, userID, role)
}

// BanUser bans an account, revokes its sessions, and notifies the holder.
func (s *Service) BanUser(ctx context.Context, actorID, userID string, ban Ban) error {
	if actorID == userID {
		return fmt.Errorf("%w: cannot ban yourself", shared.ErrForbidden)
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.SetBan(ctx, userID, &ban); err != nil {
		return err
	}
	if err := s.sessions.RevokeUserSessions(ctx, userID); err != nil {
		s.logger.Warn("revoke sessions of banned user", slog.String("user_id", userID), slog.Any("error", err))
	}
	s.notify(ctx, user.Email, "Account suspended",
		fmt.Sprintf("Your account was suspended. Reason: %s", ban.Reason))
	return nil
}

// UnbanUser lifts a ban and notifies the holder.
func (s *Service) UnbanUser(ctx context.Context, userID string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.SetBan(ctx, userID, nil); err != nil {
		return err
	}
	s.notify(ctx, user.Email, "Account restored", "Your account has been restored.")
	return nil
}

// Stats aggregates account counts.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}

// DeleteAccount removes the caller's own account after revoking sessions.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.sessions.RevokeUserSessions(ctx, userID); err != nil {
		s.logger.Warn("revoke sessions before delete", slog.String("user_id", userID), slog.Any("error", err))
	}
	return s.repo.Delete(ctx, userID)
}

func (s *Service) notify(ctx context.Context, to, subject, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendMail(ctx, to, subject, body); err != nil {
		s.logger.Warn("enqueue mail", slog.String("to", to), slog.Any("error", err))
	}
}
