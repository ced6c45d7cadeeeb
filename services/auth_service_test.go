package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/models"
	"storefront/services/servicetest"
	"storefront/utils"
)

const testSecret = "test-secret"

func TestRegisterAndLogin(t *testing.T) {
	users := servicetest.NewUsers()
	svc := NewAuthService(users, testSecret, time.Hour)
	ctx := context.Background()

	resp, err := svc.Register(ctx, models.RegisterRequest{
		Username: "alice",
		Password: "s3cret!",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.User.Username)
	assert.NotEqual(t, "s3cret!", users.Users[0].Password)

	claims, err := utils.ValidateToken(resp.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	_, err = svc.Register(ctx, models.RegisterRequest{Username: "alice", Password: "another"})
	assert.ErrorIs(t, err, ErrConflict)

	login, err := svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "s3cret!"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)

	_, err = svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, models.LoginRequest{Username: "nobody", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
