package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/authboard/authboard/internal/shared"
	_ "github.com/authboard/authboard/testing"
)

type handlerFixture struct {
	repo     *memRepo
	sessions *shared.SessionManager
	router   chi.Router
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, "authboard_session", "test-secret", time.Hour, false)

	repo := newMemRepo()
	svc := NewService(repo, &recordingNotifier{}, sessions, slog.Default(), "http://localhost:8080")
	handler := NewHandler(slog.Default(), svc, sessions)
	mw := Middleware{Service: svc, Logger: slog.Default()}

	r := chi.NewRouter()
	r.Use(sessionLoader(sessions))
	r.Use(mw.WithUser)
	handler.MountRoutes(r)

	return &handlerFixture{repo: repo, sessions: sessions, router: r}
}

// sessionLoader is the minimal equivalent of the app session middleware:
// load before the handler, commit after.
func sessionLoader(sm *shared.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sm.Load(r.Context(), r)
			if err != nil {
				http.Error(w, "session", http.StatusInternalServerError)
				return
			}
			ctx := shared.ContextWithSession(r.Context(), sess)
			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, r.WithContext(ctx))
			if err := sm.Commit(ctx, w, r, sess); err != nil {
				http.Error(w, "commit", http.StatusInternalServerError)
				return
			}
			for key, values := range rec.Header() {
				for _, v := range values {
					w.Header().Add(key, v)
				}
			}
			w.WriteHeader(rec.Code)
			_, _ = w.Write(rec.Body.Bytes())
		})
	}
}

func (f *handlerFixture) do(t *testing.T, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "authboard_session" && c.Value != "" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestSignUpIssuesSession(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/sign-up",
		`{"name":"Alice","email":"alice@authboard.local","password":"secret12345"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	cookie := sessionCookie(t, rec)
	if len(f.repo.sessions) != 1 {
		t.Fatalf("expected 1 session row, got %d", len(f.repo.sessions))
	}

	// The cookie resolves back to the signed-up user.
	me := f.do(t, http.MethodGet, "/me", "", []*http.Cookie{cookie})
	if me.Code != http.StatusOK {
		t.Fatalf("expected 200 from /me, got %d: %s", me.Code, me.Body.String())
	}
	var body struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(me.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode /me: %v", err)
	}
	if body.User.Email != "alice@authboard.local" {
		t.Fatalf("unexpected user: %+v", body.User)
	}
}

func TestSignUpValidation(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/sign-up",
		`{"name":"A","email":"not-an-email","password":"x"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	f := newHandlerFixture(t)

	f.do(t, http.MethodPost, "/sign-up",
		`{"name":"Alice","email":"alice@authboard.local","password":"secret12345"}`, nil)

	rec := f.do(t, http.MethodPost, "/sign-in",
		`{"email":"alice@authboard.local","password":"wrong-password"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSignInRotatesSessionID(t *testing.T) {
	f := newHandlerFixture(t)

	first := f.do(t, http.MethodPost, "/sign-up",
		`{"name":"Alice","email":"alice@authboard.local","password":"secret12345"}`, nil)
	firstCookie := sessionCookie(t, first)

	second := f.do(t, http.MethodPost, "/sign-in",
		`{"email":"alice@authboard.local","password":"secret12345"}`, []*http.Cookie{firstCookie})
	if second.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", second.Code, second.Body.String())
	}
	secondCookie := sessionCookie(t, second)

	if firstCookie.Value == secondCookie.Value {
		t.Fatal("session id must rotate on sign-in")
	}
}

func TestSessionEndpointAnonymous(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/session", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["user"] != nil || body["session"] != nil {
		t.Fatalf("expected null session and user, got %v", body)
	}
}

func TestSignOutDestroysSession(t *testing.T) {
	f := newHandlerFixture(t)

	signUp := f.do(t, http.MethodPost, "/sign-up",
		`{"name":"Alice","email":"alice@authboard.local","password":"secret12345"}`, nil)
	cookie := sessionCookie(t, signUp)

	out := f.do(t, http.MethodPost, "/sign-out", "", []*http.Cookie{cookie})
	if out.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", out.Code)
	}
	if len(f.repo.sessions) != 0 {
		t.Fatalf("session row not removed: %d remain", len(f.repo.sessions))
	}

	me := f.do(t, http.MethodGet, "/me", "", []*http.Cookie{cookie})
	if me.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after sign-out, got %d", me.Code)
	}
}

func TestMeRequiresAuthentication(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestVerifyEmailEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	f.do(t, http.MethodPost, "/sign-up",
		`{"name":"Alice","email":"alice@authboard.local","password":"secret12345"}`, nil)
	if len(f.repo.verifications) != 1 {
		t.Fatalf("expected pending verification, got %d", len(f.repo.verifications))
	}
	token := f.repo.verifications[0].Value

	rec := f.do(t, http.MethodPost, "/verify-email", `{"token":"`+token+`"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	for _, u := range f.repo.users {
		if !u.EmailVerified {
			t.Fatal("email not marked verified")
		}
	}
}

func TestForgotPasswordAlwaysSucceeds(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/forgot-password", `{"email":"ghost@authboard.local"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown address, got %d", rec.Code)
	}
}
