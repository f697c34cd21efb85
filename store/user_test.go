package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaozhang/xiaoblog/models"
)

func TestUserCreateAndAuthenticate(t *testing.T) {
	db := newTestDB(t)
	s := NewUserStore(db)

	user, err := s.Create("alice", "alice@example.com", "secret123", false)
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	got, err := s.Authenticate("alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = s.Authenticate("alice", "wrong")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = s.Authenticate("nobody", "secret123")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserCreateDuplicate(t *testing.T) {
	db := newTestDB(t)
	s := NewUserStore(db)

	_, err := s.Create("alice", "alice@example.com", "secret123", false)
	require.NoError(t, err)

	_, err = s.Create("alice", "other@example.com", "secret123", false)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.Create("bob", "alice@example.com", "secret123", false)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserUpdateLastAdminGuard(t *testing.T) {
	db := newTestDB(t)
	s := NewUserStore(db)

	admin, err := s.Create("root", "root@example.com", "secret123", true)
	require.NoError(t, err)

	// revoking the only admin: the flag is dropped, the rest applies
	notAdmin := false
	newEmail := "new@example.com"
	got, _, err := s.Update(admin.ID, UserUpdate{IsAdmin: &notAdmin, Email: &newEmail}, admin.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin, "last admin keeps the flag")
	assert.Equal(t, "new@example.com", got.Email)

	n, err := s.CountAdmins()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// with a second admin the revocation goes through
	_, err = s.Create("backup", "backup@example.com", "secret123", true)
	require.NoError(t, err)
	got, _, err = s.Update(admin.ID, UserUpdate{IsAdmin: &notAdmin}, admin.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAdmin)
}

func TestUserUpdateNeedRelogin(t *testing.T) {
	db := newTestDB(t)
	s := NewUserStore(db)

	admin, err := s.Create("root", "root@example.com", "secret123", true)
	require.NoError(t, err)
	other, err := s.Create("bob", "bob@example.com", "secret123", false)
	require.NoError(t, err)

	newPass := "changed456"
	_, needRelogin, err := s.Update(admin.ID, UserUpdate{Password: &newPass}, admin.ID)
	require.NoError(t, err)
	assert.True(t, needRelogin, "changing own password invalidates the session")

	_, err = s.Authenticate("root", "changed456")
	require.NoError(t, err)

	_, needRelogin, err = s.Update(other.ID, UserUpdate{Password: &newPass}, admin.ID)
	require.NoError(t, err)
	assert.False(t, needRelogin, "changing someone else does not log the admin out")

	avatar := "/uploads/a.png"
	_, needRelogin, err = s.Update(admin.ID, UserUpdate{Avatar: &avatar}, admin.ID)
	require.NoError(t, err)
	assert.False(t, needRelogin, "avatar changes never force a relogin")
}

func TestFindOrCreateOAuthUser(t *testing.T) {
	db := newTestDB(t)
	s := NewUserStore(db)

	local, err := s.Create("zhang", "zhang@example.com", "secret123", true)
	require.NoError(t, err)

	// a github login sharing the local username gets its own account
	got, err := s.FindOrCreateOAuthUser("github", "4242", "zhang", "gh@example.com", "https://avatars/1.png")
	require.NoError(t, err)
	assert.NotEqual(t, local.ID, got.ID)
	assert.Equal(t, "zhang_1", got.Username)
	assert.Equal(t, "github", got.Provider)
	assert.Equal(t, "4242", got.ProviderID)
	assert.False(t, got.IsAdmin)
	assert.NotEmpty(t, got.PasswordHash)

	// later logins resolve to the same row and refresh the profile
	again, err := s.FindOrCreateOAuthUser("github", "4242", "zhang", "new@example.com", "https://avatars/2.png")
	require.NoError(t, err)
	assert.Equal(t, got.ID, again.ID)
	assert.Equal(t, "new@example.com", again.Email)
	assert.Equal(t, "https://avatars/2.png", again.Avatar)

	var total int64
	require.NoError(t, db.Model(&models.User{}).Count(&total).Error)
	assert.EqualValues(t, 2, total)

	// the password account is untouched
	fresh, err := s.Get(local.ID)
	require.NoError(t, err)
	assert.Equal(t, "zhang@example.com", fresh.Email)
	assert.True(t, fresh.IsAdmin)
}

func TestFindOrCreateOAuthUserUsernameFallback(t *testing.T) {
	db := newTestDB(t)
	s := NewUserStore(db)

	// a login with no usable characters falls back to provider and id
	got, err := s.FindOrCreateOAuthUser("github", "77", "!!!", "x@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "github_77", got.Username)

	// mixed names are lowered and stripped
	got, err = s.FindOrCreateOAuthUser("github", "78", "Xiao.Zhang", "y@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "xiao_zhang", got.Username)
}
