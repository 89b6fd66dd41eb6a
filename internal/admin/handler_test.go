package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authboard/authboard/internal/registry"
	"github.com/authboard/authboard/internal/shared"
	_ "github.com/authboard/authboard/testing"
)

func newTestHandler(repo *stubRepo) *Handler {
	return NewHandler(slog.Default(), newTestService(repo))
}

func mountTestRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestGetConfigRequiresIdentity(t *testing.T) {
	h := newTestHandler(&stubRepo{})
	r := mountTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetConfigReturnsEntitiesAndIdentity(t *testing.T) {
	h := newTestHandler(&stubRepo{})
	r := mountTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	ctx := shared.ContextWithUser(req.Context(), &shared.CurrentUser{
		ID: "u1", Name: "Admin", Email: "admin@authboard.local", Role: "admin",
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req.WithContext(ctx))

	require.Equal(t, http.StatusOK, rec.Code)

	var body configResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Admin", body.Admin.Name)
	assert.Equal(t, "admin", body.Admin.Role)

	names := make([]string, 0, len(body.Entities))
	for _, d := range body.Entities {
		names = append(names, d.Name)
	}
	assert.Equal(t, registry.Default().Names(), names)
}

func TestGetDataRequiresEntityParam(t *testing.T) {
	h := newTestHandler(&stubRepo{})
	r := mountTestRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDataUnknownEntity(t *testing.T) {
	h := newTestHandler(&stubRepo{})
	r := mountTestRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data?entity=Ghost", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var problem struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "UNKNOWN_ENTITY", problem.Code)
}

func TestGetDataReturnsRecords(t *testing.T) {
	repo := &stubRepo{findResult: []Record{{"id": "u1", "email": "a@b.com"}}}
	h := newTestHandler(repo)
	r := mountTestRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data?entity=User", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var records []Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "u1", records[0].ID())
}

func TestCRUDInvalidActionIsTaxonomyError(t *testing.T) {
	h := newTestHandler(&stubRepo{})
	r := mountTestRouter(h)

	body := `{"entity":"User","action":"upsert","data":{}}`
	req := httptest.NewRequest(http.MethodPost, "/crud", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var problem struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "UNSUPPORTED_ACTION", problem.Code)
}

func TestCRUDMissingFieldsIsValidationError(t *testing.T) {
	h := newTestHandler(&stubRepo{})
	r := mountTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/crud", strings.NewReader(`{"data":{}}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var problem struct {
		Title string `json:"title"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "Validation Failed", problem.Title)
	assert.Empty(t, problem.Code)
}

func TestCRUDMalformedBody(t *testing.T) {
	h := newTestHandler(&stubRepo{})
	r := mountTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/crud", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCRUDCreateRoundTrip(t *testing.T) {
	repo := &stubRepo{}
	h := newTestHandler(repo)
	r := mountTestRouter(h)

	body := `{"entity":"User","action":"create","data":{"email":"new@authboard.local","name":"New"}}`
	req := httptest.NewRequest(http.MethodPost, "/crud", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stored Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, "new@authboard.local", stored["email"])
	assert.NotEmpty(t, stored.ID())
	require.Len(t, repo.inserted, 1)
}

func TestCRUDDeleteReportsSuccess(t *testing.T) {
	repo := &stubRepo{}
	h := newTestHandler(repo)
	r := mountTestRouter(h)

	body := `{"entity":"Session","action":"delete","data":{"id":"s1"}}`
	req := httptest.NewRequest(http.MethodPost, "/crud", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result DeleteResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, []string{"s1"}, repo.deletedIDs)
	assert.Equal(t, "sessions", repo.lastTable)
}
