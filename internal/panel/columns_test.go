package panel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authboard/authboard/internal/admin"
	"github.com/authboard/authboard/internal/registry"
)

func TestRenderCellTruncatesIDs(t *testing.T) {
	cell := renderCell(registry.Field{Name: "id", Kind: registry.KindID}, "0123456789abcdef")
	assert.Equal(t, "01234567", cell.Text)
	assert.Equal(t, "cell-id", cell.Class)

	cell = renderCell(registry.Field{Name: "id", Kind: registry.KindID}, "short")
	assert.Equal(t, "short", cell.Text)
}

func TestRenderCellBooleans(t *testing.T) {
	field := registry.Field{Name: "banned", Kind: registry.KindBoolean}

	cell := renderCell(field, true)
	assert.Equal(t, "Yes", cell.Text)
	assert.Equal(t, "cell-bool-true", cell.Class)

	cell = renderCell(field, false)
	assert.Equal(t, "No", cell.Text)
	assert.Equal(t, "cell-bool-false", cell.Class)
}

func TestRenderCellEmptyValues(t *testing.T) {
	for _, kind := range []registry.Kind{registry.KindText, registry.KindEmail, registry.KindDate, registry.KindID} {
		cell := renderCell(registry.Field{Name: "x", Kind: kind}, nil)
		assert.Equal(t, "-", cell.Text, "kind %v", kind)
		assert.Equal(t, "cell-muted", cell.Class)
	}

	cell := renderCell(registry.Field{Name: "x", Kind: registry.KindText}, "")
	assert.Equal(t, "-", cell.Text)
}

func TestRenderCellDateFormat(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
	cell := renderCell(registry.Field{Name: "createdAt", Kind: registry.KindDate}, ts)
	assert.Equal(t, "09 Mar 2024 14:30", cell.Text)
}

func TestRenderCellPasswordMasked(t *testing.T) {
	cell := renderCell(registry.Field{Name: "password", Kind: registry.KindPassword}, "$2a$10$hash")
	assert.Equal(t, "••••••", cell.Text)
	assert.Equal(t, "cell-muted", cell.Class)
}

func TestRenderCellRoleAndEmail(t *testing.T) {
	cell := renderCell(registry.Field{Name: "role", Kind: registry.KindRole}, "admin")
	assert.Equal(t, "cell-badge", cell.Class)

	cell = renderCell(registry.Field{Name: "email", Kind: registry.KindEmail}, "a@b.com")
	assert.Equal(t, "cell-email", cell.Class)
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Created At", humanize("createdAt"))
	assert.Equal(t, "Email Verified", humanize("emailVerified"))
	assert.Equal(t, "Name", humanize("name"))
	assert.Equal(t, "Id", humanize("id"))
}

func TestBuildRowsFollowsFieldOrder(t *testing.T) {
	desc := registry.Descriptor{
		Name:  "User",
		Table: "users",
		Fields: []registry.Field{
			{Name: "id", Kind: registry.KindID},
			{Name: "email", Kind: registry.KindEmail},
			{Name: "banned", Kind: registry.KindBoolean},
		},
	}
	records := []admin.Record{
		{"id": "abcdefgh-1234", "email": "a@b.com", "banned": false},
		{"id": "second", "banned": true},
	}

	rows := buildRows(desc, records)
	require.Len(t, rows, 2)

	assert.Equal(t, "abcdefgh-1234", rows[0].ID)
	require.Len(t, rows[0].Cells, 3)
	assert.Equal(t, "abcdefgh", rows[0].Cells[0].Text)
	assert.Equal(t, "a@b.com", rows[0].Cells[1].Text)
	assert.Equal(t, "No", rows[0].Cells[2].Text)

	// Missing email renders muted, not as a gap.
	assert.Equal(t, "-", rows[1].Cells[1].Text)
	assert.Equal(t, "Yes", rows[1].Cells[2].Text)
}

func TestBuildHeaders(t *testing.T) {
	desc := registry.Descriptor{
		Fields: []registry.Field{
			{Name: "id"}, {Name: "createdAt"}, {Name: "phoneVerified"},
		},
	}
	assert.Equal(t, []string{"Id", "Created At", "Phone Verified"}, buildHeaders(desc))
}
