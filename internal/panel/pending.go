package panel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/authboard/authboard/internal/admin"
	"github.com/authboard/authboard/internal/shared"
)

// DefaultUndoDelay is the countdown before a scheduled delete commits.
const DefaultUndoDelay = 5 * time.Second

// Dispatcher executes CRUD actions. Satisfied by admin.Service.
type Dispatcher interface {
	Execute(ctx context.Context, entity string, action admin.Action, data admin.Record) (any, error)
}

// PendingView is the countdown state rendered into the undo banner.
type PendingView struct {
	Entity    string
	Count     int
	Remaining int
}

type pendingDelete struct {
	entity   string
	ids      []string
	actor    *shared.CurrentUser
	deadline time.Time
	timer    *time.Timer
}

// PendingDeletes holds the server-side delete countdowns. At most one delete
// may be pending per session; a second request is rejected until the first
// resolves by commit or undo.
type PendingDeletes struct {
	dispatch Dispatcher
	logger   *slog.Logger
	delay    time.Duration

	mu      sync.Mutex
	pending map[string]*pendingDelete
	done    bool
}

// NewPendingDeletes constructs the manager. A non-positive delay falls back
// to DefaultUndoDelay.
func NewPendingDeletes(dispatch Dispatcher, logger *slog.Logger, delay time.Duration) *PendingDeletes {
	if delay <= 0 {
		delay = DefaultUndoDelay
	}
	return &PendingDeletes{
		dispatch: dispatch,
		logger:   logger,
		delay:    delay,
		pending:  make(map[string]*pendingDelete),
	}
}

// Schedule starts the countdown for the given record ids. The actual deletes
// are issued only when the countdown expires without an undo.
func (p *PendingDeletes) Schedule(sessionID, entity string, ids []string, actor *shared.CurrentUser) error {
	if sessionID == "" || entity == "" || len(ids) == 0 {
		return fmt.Errorf("panel: schedule delete: session, entity and ids required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return fmt.Errorf("panel: shutting down")
	}
	if _, exists := p.pending[sessionID]; exists {
		return shared.ErrDeletePending
	}

	pd := &pendingDelete{
		entity:   entity,
		ids:      append([]string(nil), ids...),
		actor:    actor,
		deadline: time.Now().Add(p.delay),
	}
	pd.timer = time.AfterFunc(p.delay, func() {
		p.commit(sessionID, pd)
	})
	p.pending[sessionID] = pd
	return nil
}

// Undo cancels the session's pending delete. Returns false when nothing was
// pending, which the handler treats as a no-op rather than an error.
func (p *PendingDeletes) Undo(sessionID string) bool {
	p.mu.Lock()
	pd, ok := p.pending[sessionID]
	if ok {
		delete(p.pending, sessionID)
	}
	p.mu.Unlock()
	if !ok {
		return false
	}
	pd.timer.Stop()
	return true
}

// View reports the countdown for rendering, nil when nothing is pending for
// this session and entity.
func (p *PendingDeletes) View(sessionID, entity string) *PendingView {
	p.mu.Lock()
	defer p.mu.Unlock()
	pd, ok := p.pending[sessionID]
	if !ok || pd.entity != entity {
		return nil
	}
	remaining := int(time.Until(pd.deadline).Round(time.Second) / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	return &PendingView{Entity: pd.entity, Count: len(pd.ids), Remaining: remaining}
}

// Shutdown cancels every outstanding countdown without committing deletes.
func (p *PendingDeletes) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = true
	for id, pd := range p.pending {
		pd.timer.Stop()
		delete(p.pending, id)
	}
}

func (p *PendingDeletes) commit(sessionID string, pd *pendingDelete) {
	p.mu.Lock()
	current, ok := p.pending[sessionID]
	if !ok || current != pd {
		// Undone or superseded between timer fire and lock acquisition.
		p.mu.Unlock()
		return
	}
	delete(p.pending, sessionID)
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if pd.actor != nil {
		ctx = shared.ContextWithUser(ctx, pd.actor)
	}

	for _, id := range pd.ids {
		if _, err := p.dispatch.Execute(ctx, pd.entity, admin.ActionDelete, admin.Record{"id": id}); err != nil {
			if p.logger != nil {
				p.logger.Error("commit pending delete",
					slog.String("entity", pd.entity),
					slog.String("id", id),
					slog.Any("error", err))
			}
		}
	}
}
