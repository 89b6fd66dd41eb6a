package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/authboard/authboard/internal/registry"
	"github.com/authboard/authboard/internal/shared"
)

// FindLimit caps the batch returned by a find action. The panel paginates
// client-side over this batch.
const FindLimit = 100

// Date and boolean field names subject to payload normalization before a
// storage write.
var (
	dateFields    = []string{"createdAt", "updatedAt", "expiresAt", "banExpires"}
	booleanFields = []string{"emailVerified", "phoneVerified", "banned"}
)

// Repository abstracts generic per-table storage operations.
type Repository interface {
	Insert(ctx context.Context, table string, rec Record) (Record, error)
	Update(ctx context.Context, table string, id string, rec Record) (Record, error)
	Delete(ctx context.Context, table string, id string) error
	FindRecent(ctx context.Context, table string, limit int) ([]Record, error)
}

// Service dispatches CRUD actions against registered entities.
type Service struct {
	registry *registry.Registry
	repo     Repository
	audit    *shared.AuditLogger
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewService constructs the dispatcher.
func NewService(reg *registry.Registry, repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{
		registry: reg,
		repo:     repo,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Registry exposes the entity configuration backing the dispatcher.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// Execute performs one action against the named entity. Create and update
// return the authoritative stored record, delete returns DeleteResult, find
// returns the newest records up to FindLimit.
func (s *Service) Execute(ctx context.Context, entity string, action Action, data Record) (any, error) {
	desc, err := s.registry.Resolve(entity)
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionCreate:
		return s.create(ctx, desc, data)
	case ActionUpdate:
		return s.update(ctx, desc, data)
	case ActionDelete:
		return s.delete(ctx, desc, data)
	case ActionFind:
		return s.find(ctx, desc)
	default:
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedAction, action)
	}
}

func (s *Service) create(ctx context.Context, desc registry.Descriptor, data Record) (Record, error) {
	normalized := s.normalize(data, ActionCreate)
	stored, err := s.repo.Insert(ctx, desc.Table, normalized)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		// Defined fallback: a write that returns no row still reports the
		// normalized payload back to the caller.
		stored = normalized
	}
	s.recordAudit(ctx, "create", desc.Name, stored.ID())
	return stored, nil
}

func (s *Service) update(ctx context.Context, desc registry.Descriptor, data Record) (Record, error) {
	id := data.ID()
	if id == "" {
		return nil, fmt.Errorf("%w for update", shared.ErrMissingID)
	}
	normalized := s.normalize(data, ActionUpdate)
	stored, err := s.repo.Update(ctx, desc.Table, id, normalized)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		stored = normalized
	}
	s.recordAudit(ctx, "update", desc.Name, id)
	return stored, nil
}

func (s *Service) delete(ctx context.Context, desc registry.Descriptor, data Record) (DeleteResult, error) {
	id := data.ID()
	if id == "" {
		return DeleteResult{}, fmt.Errorf("%w for delete", shared.ErrMissingID)
	}
	// Deleting a non-existent id is not an error.
	if err := s.repo.Delete(ctx, desc.Table, id); err != nil {
		return DeleteResult{}, err
	}
	s.recordAudit(ctx, "delete", desc.Name, id)
	return DeleteResult{Success: true}, nil
}

func (s *Service) find(ctx context.Context, desc registry.Descriptor) ([]Record, error) {
	return s.repo.FindRecent(ctx, desc.Table, FindLimit)
}

// normalize coerces date and boolean payload fields and fills generated
// defaults. Update always overwrites updatedAt with the current time.
func (s *Service) normalize(data Record, action Action) Record {
	normalized := make(Record, len(data)+3)
	for k, v := range data {
		normalized[k] = v
	}

	for _, field := range dateFields {
		if raw, ok := normalized[field]; ok {
			if str, ok := raw.(string); ok {
				if parsed, err := parseDate(str); err == nil {
					normalized[field] = parsed
				}
			}
		}
	}

	for _, field := range booleanFields {
		if raw, ok := normalized[field]; ok {
			normalized[field] = coerceBool(raw)
		}
	}

	now := s.now().UTC()
	switch action {
	case ActionCreate:
		if normalized.ID() == "" {
			normalized["id"] = s.newID()
		}
		if _, ok := normalized["createdAt"]; !ok {
			normalized["createdAt"] = now
		}
		if _, ok := normalized["updatedAt"]; !ok {
			normalized["updatedAt"] = now
		}
	case ActionUpdate:
		normalized["updatedAt"] = now
	}

	return normalized
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func coerceBool(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

func (s *Service) recordAudit(ctx context.Context, action, entity, id string) {
	if s.audit == nil {
		return
	}
	actor := ""
	if user := shared.UserFromContext(ctx); user != nil {
		actor = user.ID
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   "admin." + action,
		Entity:   entity,
		EntityID: id,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("record audit", slog.Any("error", err))
	}
}
