package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"image_editor/internal/domain"
	"image_editor/internal/errs"
	"image_editor/internal/store"
	"image_editor/internal/testutil"
	"image_editor/internal/utils"
)

func newCredentialStore(t *testing.T) (*CredentialStore, *gorm.DB) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	return NewCredentialStore(store.NewUserRepository(db), bcrypt.MinCost, nil), db
}

func TestRegisterDuplicateUsername(t *testing.T) {
	creds, _ := newCredentialStore(t)
	ctx := context.Background()

	id, err := creds.Register(ctx, "alice", "a@x.com", "pw1")
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = creds.Register(ctx, "alice", "b@x.com", "pw2")
	assert.ErrorIs(t, err, errs.ErrDuplicateUsername)

	// Username conflicts win over email conflicts.
	_, err = creds.Register(ctx, "alice", "a@x.com", "pw3")
	assert.ErrorIs(t, err, errs.ErrDuplicateUsername)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	creds, _ := newCredentialStore(t)
	ctx := context.Background()

	_, err := creds.Register(ctx, "alice", "a@x.com", "pw1")
	require.NoError(t, err)
	_, err = creds.Register(ctx, "bob", "a@x.com", "pw2")
	assert.ErrorIs(t, err, errs.ErrDuplicateEmail)
}

func TestRegisterValidatesFields(t *testing.T) {
	creds, _ := newCredentialStore(t)
	for _, tc := range [][3]string{
		{"", "a@x.com", "pw"},
		{"alice", " ", "pw"},
		{"alice", "a@x.com", ""},
	} {
		_, err := creds.Register(context.Background(), tc[0], tc[1], tc[2])
		var ve *errs.ValidationError
		assert.True(t, errors.As(err, &ve), "%v", tc)
	}
}

func TestRegisterStoresHashNotPassword(t *testing.T) {
	creds, db := newCredentialStore(t)
	id, err := creds.Register(context.Background(), "alice", "a@x.com", "s3cret")
	require.NoError(t, err)

	var u domain.User
	require.NoError(t, db.First(&u, id).Error)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.True(t, CheckPasswordHash("s3cret", u.PasswordHash))
	assert.True(t, u.IsActive)
}

func TestAuthenticate(t *testing.T) {
	creds, db := newCredentialStore(t)
	ctx := context.Background()
	id, err := creds.Register(ctx, "alice", "a@x.com", "pw1")
	require.NoError(t, err)

	got, err := creds.Authenticate(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, wrongPassword := creds.Authenticate(ctx, "alice", "nope")
	_, unknownUser := creds.Authenticate(ctx, "mallory", "pw1")
	_, wrongCase := creds.Authenticate(ctx, "Alice", "pw1")
	assert.ErrorIs(t, wrongPassword, errs.ErrAuthFailure)
	assert.ErrorIs(t, unknownUser, errs.ErrAuthFailure)
	assert.ErrorIs(t, wrongCase, errs.ErrAuthFailure)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())

	require.NoError(t, db.Model(&domain.User{}).Where("id = ?", id).Update("is_active", false).Error)
	_, err = creds.Authenticate(ctx, "alice", "pw1")
	assert.ErrorIs(t, err, errs.ErrAuthFailure)
	_, err = creds.User(ctx, id)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDeleteUserCascades(t *testing.T) {
	creds, db := newCredentialStore(t)
	ctx := context.Background()
	id, err := creds.Register(ctx, "alice", "a@x.com", "pw1")
	require.NoError(t, err)
	keep := testutil.CreateUser(t, db, "bob")

	for _, owner := range []uint{id, keep.ID} {
		p := &domain.Project{UserID: owner, Title: "p"}
		require.NoError(t, db.Omit("History", "SavedImages").Create(p).Error)
		require.NoError(t, db.Create(&domain.ProjectHistory{ProjectID: p.ID, ActionType: domain.ActionCreate}).Error)
		require.NoError(t, db.Create(&domain.SavedImage{ProjectID: p.ID, FilePath: "f.png"}).Error)
	}

	require.NoError(t, creds.DeleteUser(ctx, id))
	assert.ErrorIs(t, creds.DeleteUser(ctx, id), errs.ErrNotFound)

	_, err = creds.User(ctx, id)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	var projects, history, images int64
	require.NoError(t, db.Model(&domain.Project{}).Count(&projects).Error)
	require.NoError(t, db.Model(&domain.ProjectHistory{}).Count(&history).Error)
	require.NoError(t, db.Model(&domain.SavedImage{}).Count(&images).Error)
	assert.Equal(t, int64(1), projects)
	assert.Equal(t, int64(1), history)
	assert.Equal(t, int64(1), images)
}

func TestDeleteUserDropsCachedProjectLoads(t *testing.T) {
	db := testutil.OpenTestDB(t)
	rdb, mr := testutil.OpenTestRedis(t)
	creds := NewCredentialStore(store.NewUserRepository(db), bcrypt.MinCost, rdb)
	ctx := context.Background()

	id, err := creds.Register(ctx, "alice", "a@x.com", "pw1")
	require.NoError(t, err)
	p := &domain.Project{UserID: id, Title: "p"}
	require.NoError(t, db.Omit("History", "SavedImages").Create(p).Error)
	cacheKey := utils.ProjectCacheKey(id, p.ID)
	require.NoError(t, mr.Set(cacheKey, `{"id":1}`))

	require.NoError(t, creds.DeleteUser(ctx, id))
	assert.False(t, mr.Exists(cacheKey))
	version, err := utils.CacheVersion(ctx, rdb, utils.ProjectVersionKey(p.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}
