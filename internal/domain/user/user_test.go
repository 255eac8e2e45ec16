package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	now := time.Now()

	u, err := NewUser("u1", " Maria ", " Maria@Mercado.com ", "", now)
	require.NoError(t, err)
	assert.Equal(t, "Maria", u.Name)
	assert.Equal(t, "maria@mercado.com", u.Email)
	assert.Equal(t, RoleViewer, u.Role)
	assert.False(t, u.IsAdmin())

	_, err = NewUser("u2", "", "a@b.com", RoleAdmin, now)
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = NewUser("u2", "Ana", "sem-arroba", RoleAdmin, now)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = NewUser("u2", "Ana", "ana@b.com", Role("root"), now)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestRolePermissions(t *testing.T) {
	assert.True(t, RoleAdmin.CanSeeCosts())
	assert.False(t, RoleEditor.CanSeeCosts())
	assert.True(t, RoleEditor.CanEdit())
	assert.False(t, RoleViewer.CanEdit())
}
