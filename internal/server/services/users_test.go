package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/dmitrijs2005/wishlist/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_GetAndUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "a@b.com", "secret123", nil)
	require.NoError(t, err)
	_, err = f.auth.Register(ctx, "taken@b.com", "secret123", nil)
	require.NoError(t, err)

	u, err := f.users.GetProfile(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", u.Email)

	u, err = f.users.UpdateProfile(ctx, reg.User.ID, strPtr("Alice"), strPtr("  New@Mail.com "))
	require.NoError(t, err)
	assert.Equal(t, "new@mail.com", u.Email)
	assert.Equal(t, "Alice", *u.Name)

	_, err = f.users.UpdateProfile(ctx, reg.User.ID, nil, strPtr("TAKEN@b.com"))
	assert.ErrorIs(t, err, common.ErrEmailConflict)

	_, err = f.users.UpdateProfile(ctx, reg.User.ID, nil, strPtr("broken"))
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = f.auth.Login(ctx, "new@mail.com", "secret123")
	assert.NoError(t, err)
}

func TestUserService_UnknownOrMalformedID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.GetProfile(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = f.users.GetProfile(ctx, "8a3e0f8e-6f43-4a59-9d1c-3f6f0d2a9b11")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUserService_ChangePasswordRevokesRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "a@b.com", "secret123", nil)
	require.NoError(t, err)

	err = f.users.ChangePassword(ctx, reg.User.ID, "wrong-one", "newsecret")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	err = f.users.ChangePassword(ctx, reg.User.ID, "secret123", "123")
	assert.ErrorIs(t, err, common.ErrorValidation)

	require.NoError(t, f.users.ChangePassword(ctx, reg.User.ID, "secret123", "newsecret"))
	assert.Equal(t, 0, f.mem.CountTokens(reg.User.ID, models.PurposeRefresh))

	_, err = f.auth.RefreshToken(ctx, reg.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
	_, err = f.auth.Login(ctx, "a@b.com", "newsecret")
	assert.NoError(t, err)
}

func TestUserService_DeleteAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "a@b.com", "secret123", nil)
	require.NoError(t, err)
	_, err = f.auth.ForgotPassword(ctx, "a@b.com")
	require.NoError(t, err)

	require.NoError(t, f.users.DeleteAccount(ctx, reg.User.ID))
	assert.Equal(t, 0, f.mem.CountTokens(reg.User.ID, models.PurposeRefresh))
	assert.Equal(t, 0, f.mem.CountTokens(reg.User.ID, models.PurposePasswordReset))

	_, err = f.auth.Login(ctx, "a@b.com", "secret123")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	_, err = f.users.GetProfile(ctx, reg.User.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, f.users.DeleteAccount(ctx, reg.User.ID), common.ErrorNotFound)

	// The address can be registered again.
	_, err = f.auth.Register(ctx, "a@b.com", "secret123", nil)
	assert.NoError(t, err)
}
