package panel

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/authboard/authboard/internal/admin"
	"github.com/authboard/authboard/internal/auth"
	"github.com/authboard/authboard/internal/registry"
	"github.com/authboard/authboard/internal/shared"
	"github.com/authboard/authboard/internal/view"
)

// stubAuthRepo carries just enough state for the login flow.
type stubAuthRepo struct {
	user    *auth.User
	account *auth.Account
}

func (s *stubAuthRepo) CreateUser(ctx context.Context, user *auth.User) error { return nil }
func (s *stubAuthRepo) GetUserByID(ctx context.Context, id string) (*auth.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, shared.ErrNotFound
}
func (s *stubAuthRepo) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, shared.ErrNotFound
}
func (s *stubAuthRepo) GetUserByPhone(ctx context.Context, phone string) (*auth.User, error) {
	return nil, shared.ErrNotFound
}
func (s *stubAuthRepo) SetEmailVerified(ctx context.Context, userID string) error { return nil }
func (s *stubAuthRepo) SetPhoneVerified(ctx context.Context, userID string) error { return nil }
func (s *stubAuthRepo) ClearBan(ctx context.Context, userID string) error         { return nil }
func (s *stubAuthRepo) CreateAccount(ctx context.Context, account *auth.Account) error {
	return nil
}
func (s *stubAuthRepo) GetCredentialAccount(ctx context.Context, userID string) (*auth.Account, error) {
	if s.account != nil && s.account.UserID == userID {
		return s.account, nil
	}
	return nil, shared.ErrNotFound
}
func (s *stubAuthRepo) SetAccountPassword(ctx context.Context, accountID, hash string) error {
	return nil
}
func (s *stubAuthRepo) CreateSession(ctx context.Context, session *auth.Session) error { return nil }
func (s *stubAuthRepo) DeleteSessionByToken(ctx context.Context, token string) error   { return nil }
func (s *stubAuthRepo) DeleteUserSessions(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}
func (s *stubAuthRepo) CreateVerification(ctx context.Context, v *auth.Verification) error {
	return nil
}
func (s *stubAuthRepo) ConsumeVerificationByValue(ctx context.Context, identifier, value string) (*auth.Verification, error) {
	return nil, shared.ErrNotFound
}
func (s *stubAuthRepo) ConsumeVerificationByIdentifier(ctx context.Context, identifier string) (*auth.Verification, error) {
	return nil, shared.ErrNotFound
}

type panelFixture struct {
	router     chi.Router
	dispatcher *mockDispatcher
	pending    *PendingDeletes
	sessions   *shared.SessionManager
}

func newPanelFixture(t *testing.T) *panelFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, "authboard_session", "test-secret", time.Hour, false)
	csrf := shared.NewCSRFManager("test-csrf-secret")

	views, err := view.NewEngine()
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("admin12345"), bcrypt.MinCost)
	require.NoError(t, err)
	hashStr := string(hash)
	repo := &stubAuthRepo{
		user: &auth.User{ID: "admin-1", Name: "Admin", Email: "admin@authboard.local", Role: auth.RoleAdmin},
		account: &auth.Account{
			ID: "acc-1", UserID: "admin-1", ProviderID: auth.ProviderCredential, Password: &hashStr,
		},
	}
	authService := auth.NewService(repo, nil, sessions, slog.Default(), "http://localhost:8080")

	dispatcher := &mockDispatcher{}
	pending := NewPendingDeletes(dispatcher, slog.Default(), time.Second)
	t.Cleanup(pending.Shutdown)

	handler := NewHandler(slog.Default(), registry.Default(), dispatcher, authService, sessions, csrf, views, pending)

	r := chi.NewRouter()
	r.Route("/admin", func(r chi.Router) {
		handler.MountRoutes(r)
	})
	return &panelFixture{router: r, dispatcher: dispatcher, pending: pending, sessions: sessions}
}

func adminContext(req *http.Request, sess *shared.Session) *http.Request {
	ctx := req.Context()
	if sess != nil {
		ctx = shared.ContextWithSession(ctx, sess)
	}
	ctx = shared.ContextWithUser(ctx, &shared.CurrentUser{
		ID: "admin-1", Name: "Admin", Email: "admin@authboard.local", Role: auth.RoleAdmin,
	})
	return req.WithContext(ctx)
}

func loadSession(t *testing.T, f *panelFixture) *shared.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := f.sessions.Load(req.Context(), req)
	require.NoError(t, err)
	return sess
}

func TestPanelRedirectsAnonymousToLogin(t *testing.T) {
	f := newPanelFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/User", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))
}

func TestPanelRedirectsNonAdminToLogin(t *testing.T) {
	f := newPanelFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/User", nil)
	ctx := shared.ContextWithUser(req.Context(), &shared.CurrentUser{ID: "u1", Role: "user"})
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))
}

func TestPanelHomeRedirectsToFirstEntity(t *testing.T) {
	f := newPanelFixture(t)

	req := adminContext(httptest.NewRequest(http.MethodGet, "/admin/", nil), loadSession(t, f))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/User", rec.Header().Get("Location"))
}

func TestPanelTableRendersRecords(t *testing.T) {
	f := newPanelFixture(t)
	f.dispatcher.findResult = []admin.Record{
		{"id": "11112222-3333", "email": "a@b.com", "role": "admin", "name": "A"},
	}

	req := adminContext(httptest.NewRequest(http.MethodGet, "/admin/User", nil), loadSession(t, f))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "a@b.com")
	// IDs render truncated to eight characters.
	assert.Contains(t, body, "11112222")
	assert.NotContains(t, body, "11112222-3333</")
}

func TestPanelTableUnknownEntity(t *testing.T) {
	f := newPanelFixture(t)

	req := adminContext(httptest.NewRequest(http.MethodGet, "/admin/Ghost", nil), loadSession(t, f))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPanelLoginSuccessRedirectsHome(t *testing.T) {
	f := newPanelFixture(t)

	form := url.Values{"email": {"admin@authboard.local"}, "password": {"admin12345"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	sess := loadSession(t, f)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
	assert.Equal(t, "admin-1", sess.User())
}

func TestPanelLoginBadCredentials(t *testing.T) {
	f := newPanelFixture(t)

	form := url.Values{"email": {"admin@authboard.local"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	sess := loadSession(t, f)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))
	assert.Empty(t, sess.User())
}

func TestPanelScheduleDeleteAndUndo(t *testing.T) {
	f := newPanelFixture(t)
	sess := loadSession(t, f)

	form := url.Values{"ids": {"u1", "u2"}}
	req := adminContext(httptest.NewRequest(http.MethodPost, "/admin/User/delete", strings.NewReader(form.Encode())), sess)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	pv := f.pending.View(sess.ID, "User")
	require.NotNil(t, pv)
	assert.Equal(t, 2, pv.Count)

	undo := adminContext(httptest.NewRequest(http.MethodPost, "/admin/User/undo", nil), sess)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, undo)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Nil(t, f.pending.View(sess.ID, "User"))
	assert.Empty(t, f.dispatcher.snapshot())
}

func TestPanelCreateSubmitsMergedForm(t *testing.T) {
	f := newPanelFixture(t)
	sess := loadSession(t, f)

	form := url.Values{"email": {"new@authboard.local"}, "name": {"New"}, "role": {"user"}}
	req := adminContext(httptest.NewRequest(http.MethodPost, "/admin/User/new", strings.NewReader(form.Encode())), sess)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/User", rec.Header().Get("Location"))

	calls := f.dispatcher.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, admin.ActionCreate, calls[0].action)
	assert.Equal(t, "User", calls[0].entity)
}
