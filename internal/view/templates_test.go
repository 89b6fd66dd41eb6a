package view

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authboard/authboard/internal/shared"
)

func TestNewEngineParsesEmbeddedTemplates(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	require.NotNil(t, engine)
}

func TestRenderLoginPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "login", TemplateData{
		Title:     "Sign in",
		CSRFToken: "tok-123",
	})
	require.NoError(t, err)

	body := rec.Body.String()
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, `action="/admin/login"`)
	assert.Contains(t, body, `name="csrf_token"`)
	assert.Contains(t, body, "tok-123")
}

func TestRenderIncludesFlash(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "login", TemplateData{
		Flash: &shared.FlashMessage{Kind: "error", Message: "Invalid credentials"},
	})
	require.NoError(t, err)

	body := rec.Body.String()
	assert.Contains(t, body, "flash-error")
	assert.Contains(t, body, "Invalid credentials")
}

func TestRenderUnknownTemplate(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	assert.Error(t, engine.Render(rec, "does-not-exist", TemplateData{}))
}

func TestTemplateHelpers(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	// Helpers are registered on the shared func map used by every page.
	out := &strings.Builder{}
	tpl := engine.templates.Lookup("login")
	require.NotNil(t, tpl)
	require.NoError(t, tpl.Execute(out, TemplateData{Title: "Sign in"}))
	assert.Contains(t, out.String(), "Sign in")
}
