package panel

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authboard/authboard/internal/admin"
	"github.com/authboard/authboard/internal/registry"
)

func userDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:  "User",
		Table: "users",
		Fields: []registry.Field{
			{Name: "id", Kind: registry.KindID},
			{Name: "email", Kind: registry.KindEmail},
			{Name: "role", Kind: registry.KindRole},
			{Name: "banned", Kind: registry.KindBoolean},
			{Name: "password", Kind: registry.KindPassword},
			{Name: "expiresAt", Kind: registry.KindDate},
		},
	}
}

func TestBuildInputsTypesPerKind(t *testing.T) {
	inputs := buildInputs(userDescriptor(), admin.Record{})
	require.Len(t, inputs, 6)

	byName := make(map[string]Input, len(inputs))
	for _, in := range inputs {
		byName[in.Name] = in
	}

	assert.True(t, byName["id"].ReadOnly)
	assert.Equal(t, "email", byName["email"].Type)
	assert.Equal(t, roleOptions, byName["role"].Options)
	assert.Equal(t, boolOptions, byName["banned"].Options)
	assert.Equal(t, "password", byName["password"].Type)
	assert.Equal(t, "datetime-local", byName["expiresAt"].Type)
}

func TestBuildInputsNeverEchoesPassword(t *testing.T) {
	rec := admin.Record{"password": "$2a$10$secret"}
	inputs := buildInputs(userDescriptor(), rec)
	for _, in := range inputs {
		if in.Name == "password" {
			assert.Empty(t, in.Value)
			return
		}
	}
	t.Fatal("password input missing")
}

func TestBuildInputsFormatsDatesForControl(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
	inputs := buildInputs(userDescriptor(), admin.Record{"expiresAt": ts})
	for _, in := range inputs {
		if in.Name == "expiresAt" {
			assert.Equal(t, "2024-03-09T14:30", in.Value)
			return
		}
	}
	t.Fatal("expiresAt input missing")
}

func TestMergeFormLayersSubmittedValues(t *testing.T) {
	base := admin.Record{"id": "u1", "email": "old@b.com", "role": "user"}
	form := url.Values{"email": {"new@b.com"}, "banned": {"true"}}

	merged := mergeForm(userDescriptor(), base, form)
	assert.Equal(t, "u1", merged.ID())
	assert.Equal(t, "new@b.com", merged["email"])
	assert.Equal(t, "true", merged["banned"])
	assert.Equal(t, "user", merged["role"], "untouched fields keep the stored value")
}

func TestMergeFormBlankPasswordKeepsStoredHash(t *testing.T) {
	base := admin.Record{"id": "a1", "password": "$2a$10$stored"}
	form := url.Values{"password": {""}}

	merged := mergeForm(userDescriptor(), base, form)
	assert.Equal(t, "$2a$10$stored", merged["password"])

	form = url.Values{"password": {"replacement"}}
	merged = mergeForm(userDescriptor(), base, form)
	assert.Equal(t, "replacement", merged["password"])
}
