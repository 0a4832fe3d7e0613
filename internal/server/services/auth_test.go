package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/usergate/internal/common"
	"github.com/dmitrijs2005/usergate/internal/logging"
	"github.com/dmitrijs2005/usergate/internal/server/auth"
	"github.com/dmitrijs2005/usergate/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_RegisterLoginMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "Secret123", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, reg.Role)

	sess, err := f.auth.Login(ctx, "alice@example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, reg.ID, sess.User.ID)
	assert.Equal(t, int64(3600), sess.ExpiresIn)

	claims, err := f.tokens.Verify(sess.AccessToken, auth.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, claims.Subject)
	assert.Equal(t, models.RoleUser, claims.Role)

	me, err := f.auth.Me(ctx, claims.Subject)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Equal(t, models.RoleUser, me.Role)

	_, err = f.auth.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "Secret123", Name: "Alice"})
	assert.ErrorIs(t, err, common.ErrorConflict)
}

func TestAuth_LoginIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, RegisterInput{Email: "Bob@Example.com", Password: "hunter22", Name: "Bob"})
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "bob@EXAMPLE.com", "hunter22")
	assert.NoError(t, err)
}

func TestAuth_LoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "Secret123", Name: "Alice"})
	require.NoError(t, err)

	_, wrongPassword := f.auth.Login(ctx, "alice@example.com", "nope-nope")
	_, unknownEmail := f.auth.Login(ctx, "ghost@example.com", "Secret123")

	require.ErrorIs(t, wrongPassword, common.ErrorUnauthorized)
	require.ErrorIs(t, unknownEmail, common.ErrorUnauthorized)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuth_LoginValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Login(context.Background(), " ", "")
	require.ErrorIs(t, err, common.ErrorValidation)

	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "email")
	assert.Contains(t, ve.Fields, "password")
}

func TestAuth_LoginStoreFailureIsInternal(t *testing.T) {
	as, err := NewAuthService(brokenManager{}, newTokens(t), cheapHasher(), logging.NewNop())
	require.NoError(t, err)

	_, err = as.Login(context.Background(), "a@b.io", "secret")
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.NotErrorIs(t, err, common.ErrorUnauthorized)
}

func TestAuth_RegisterValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Register(context.Background(), RegisterInput{Email: "not-an-email", Password: "123", Name: "A"})
	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "must be a valid email address", ve.Fields["email"])
	assert.Equal(t, "must be at least 6 characters", ve.Fields["password"])
	assert.Equal(t, "must be at least 2 characters", ve.Fields["name"])
}

func TestAuth_Refresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "Secret123", Name: "Alice"})
	require.NoError(t, err)
	sess, err := f.auth.Login(ctx, "alice@example.com", "Secret123")
	require.NoError(t, err)

	t.Run("valid refresh token", func(t *testing.T) {
		next, err := f.auth.Refresh(ctx, sess.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, u.ID, next.User.ID)
		_, err = f.tokens.Verify(next.AccessToken, auth.KindAccess)
		assert.NoError(t, err)
	})

	t.Run("access token is rejected", func(t *testing.T) {
		_, err := f.auth.Refresh(ctx, sess.AccessToken)
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := f.auth.Refresh(ctx, "garbage")
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})

	t.Run("empty is a validation error", func(t *testing.T) {
		_, err := f.auth.Refresh(ctx, "")
		assert.ErrorIs(t, err, common.ErrorValidation)
	})

	t.Run("reflects the current role", func(t *testing.T) {
		role := models.RoleAdmin
		_, err := f.users.Update(ctx, u.ID, UpdateUserInput{Role: &role})
		require.NoError(t, err)

		next, err := f.auth.Refresh(ctx, sess.RefreshToken)
		require.NoError(t, err)
		claims, err := f.tokens.Verify(next.AccessToken, auth.KindAccess)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, claims.Role)
	})

	t.Run("deleted subject is rejected", func(t *testing.T) {
		require.NoError(t, f.users.Delete(ctx, u.ID))
		_, err := f.auth.Refresh(ctx, sess.RefreshToken)
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})
}

func TestAuth_MeUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Me(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAuth_Logout(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.auth.Logout(context.Background(), "u-1"))
	assert.NoError(t, f.auth.Logout(context.Background(), "u-1"))
}

func TestAuth_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "Secret123", Name: "Alice"})
	require.NoError(t, err)

	err = f.auth.ChangePassword(ctx, u.ID, "wrong", "NewSecret1")
	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "is incorrect", ve.Fields["currentPassword"])

	err = f.auth.ChangePassword(ctx, u.ID, "Secret123", "short")
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "newPassword")

	require.NoError(t, f.auth.ChangePassword(ctx, u.ID, "Secret123", "NewSecret1"))

	_, err = f.auth.Login(ctx, "alice@example.com", "Secret123")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = f.auth.Login(ctx, "alice@example.com", "NewSecret1")
	assert.NoError(t, err)

	assert.ErrorIs(t, f.auth.ChangePassword(ctx, "ghost", "x", "NewSecret1"), common.ErrorNotFound)
}

func TestAuth_Seed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.auth.Seed(ctx, DefaultSeedAccounts()))
	require.NoError(t, f.auth.Seed(ctx, DefaultSeedAccounts()), "seeding twice is a no-op")

	all, err := f.rm.Users().All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	admin, err := f.auth.Login(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.User.Role)

	user, err := f.auth.Login(ctx, "user@example.com", "user123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.User.Role)
}

func TestAuth_SeedStoreFailure(t *testing.T) {
	as, err := NewAuthService(brokenManager{}, newTokens(t), cheapHasher(), logging.NewNop())
	require.NoError(t, err)
	assert.ErrorIs(t, as.Seed(context.Background(), DefaultSeedAccounts()), errDB)
}
