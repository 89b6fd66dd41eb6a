package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authboard/authboard/internal/shared"
)

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New(
		Descriptor{Name: "user", Table: "users"},
		Descriptor{Name: "user", Table: "users"},
	)
	require.Error(t, err)
}

func TestNewRequiresNameAndTable(t *testing.T) {
	_, err := New(Descriptor{Name: "user"})
	require.Error(t, err)

	_, err = New(Descriptor{Table: "users"})
	require.Error(t, err)
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	reg, err := New(
		Descriptor{Name: "b", Table: "bs"},
		Descriptor{Name: "a", Table: "as"},
		Descriptor{Name: "c", Table: "cs"},
	)
	require.NoError(t, err)

	names := make([]string, 0, 3)
	for _, d := range reg.List() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)
	assert.Equal(t, []string{"b", "a", "c"}, reg.Names())
}

func TestResolveUnknownEntity(t *testing.T) {
	reg, err := New(Descriptor{Name: "user", Table: "users"})
	require.NoError(t, err)

	_, err = reg.Resolve("ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrUnknownEntity))
}

func TestDeriveLabel(t *testing.T) {
	assert.Equal(t, "Users", DeriveLabel("user"))
	assert.Equal(t, "Sessions", DeriveLabel("session"))
	// Already plural-looking names keep their trailing s.
	assert.Equal(t, "News", DeriveLabel("news"))
}

func TestDefaultRegistrations(t *testing.T) {
	reg := Default()

	assert.Equal(t, []string{"User", "Session", "Account", "Verification"}, reg.Names())

	user, err := reg.Resolve("User")
	require.NoError(t, err)
	assert.Equal(t, "users", user.Table)
	assert.Equal(t, KindEmail, user.FieldKind("email"))
	assert.Equal(t, KindRole, user.FieldKind("role"))
	assert.Equal(t, KindBoolean, user.FieldKind("emailVerified"))
	assert.True(t, user.HasField("name"))

	session, err := reg.Resolve("Session")
	require.NoError(t, err)
	assert.Equal(t, "sessions", session.Table)
	assert.Equal(t, KindDate, session.FieldKind("expiresAt"))

	verification, err := reg.Resolve("Verification")
	require.NoError(t, err)
	assert.Equal(t, "verifications", verification.Table)

	// Unregistered field falls back to the text hint.
	assert.Equal(t, KindText, user.FieldKind("nonexistent"))
}
