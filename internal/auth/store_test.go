package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lUISVR2025XD/entregas-ai2025/internal/domain"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.json")
	store, err := NewStore(path)
	require.NoError(t, err)
	return store, path
}

func TestStore_SeedAndLogin(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Seed())

	profile, err := store.Login("ana@cliente.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Ana Cliente", profile.Name)
	assert.Equal(t, domain.RoleClient, profile.Role)

	current, err := store.CurrentUser()
	require.NoError(t, err)
	assert.Equal(t, profile.ID, current.ID)

	// Seeding again must not duplicate users.
	require.NoError(t, store.Seed())
	_, err = store.Login("ana@cliente.com", "password123")
	assert.NoError(t, err)
}

func TestStore_LoginErrors(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Seed())

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"unknown user", "nadie@nada.com", "whatever", ErrUserNotFound},
		{"wrong password", "ana@cliente.com", "incorrecta", ErrWrongPassword},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.Login(tc.email, tc.password)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	// Failed logins must not open a session.
	require.NoError(t, store.Logout())
	_, _ = store.Login("ana@cliente.com", "incorrecta")
	_, err := store.CurrentUser()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestStore_LoginEmailCaseInsensitive(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Seed())

	profile, err := store.Login("ANA@Cliente.COM", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Ana Cliente", profile.Name)
}

func TestStore_Register(t *testing.T) {
	store, _ := newTestStore(t)

	profile, err := store.Register("Luis Nuevo", "luis@nuevo.com", "secreto1", domain.RoleClient)
	require.NoError(t, err)
	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, domain.RoleClient, profile.Role)
	require.NotNil(t, profile.Location, "new users get the default location")

	// Registration opens a session.
	current, err := store.CurrentUser()
	require.NoError(t, err)
	assert.Equal(t, profile.ID, current.ID)

	// The password is stored hashed, so login round-trips.
	require.NoError(t, store.Logout())
	again, err := store.Login("luis@nuevo.com", "secreto1")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, again.ID)

	_, err = store.Register("Otro", "LUIS@nuevo.com", "x", domain.RoleDelivery)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestStore_LogoutAndCurrentUser(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Seed())

	_, err := store.CurrentUser()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = store.Login("pedro@repartidor.com", "password123")
	require.NoError(t, err)

	require.NoError(t, store.Logout())
	_, err = store.CurrentUser()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	// Logout without a session is a no-op.
	assert.NoError(t, store.Logout())
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, store.Seed())
	_, err := store.Register("Luis Nuevo", "luis@nuevo.com", "secreto1", domain.RoleBusiness)
	require.NoError(t, err)

	reopened, err := NewStore(path)
	require.NoError(t, err)

	// Users and the open session both survive.
	profile, err := reopened.Login("luis@nuevo.com", "secreto1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleBusiness, profile.Role)

	current, err := reopened.CurrentUser()
	require.NoError(t, err)
	assert.Equal(t, profile.ID, current.ID)
}
