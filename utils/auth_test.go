package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/models"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, VerifyPassword(hash, "s3cret-pass"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("not-a-hash", "s3cret-pass"))
}

func TestGenerateAndValidateToken(t *testing.T) {
	user := models.User{
		ID:          7,
		Username:    "alice",
		IsStaff:     true,
		Permissions: []string{models.PermViewOrder},
	}

	token, err := GenerateToken(user, "test-secret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "test-secret")
	require.NoError(t, err)

	got := claims.User()
	assert.Equal(t, 7, got.ID)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.IsStaff)
	assert.True(t, got.HasPerm(models.PermViewOrder))
	assert.False(t, got.HasPerm(models.PermAddProduct))
}

func TestValidateTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	token, err := GenerateToken(models.User{ID: 1, Username: "bob"}, "secret-a", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token, "secret-b")
	assert.Error(t, err)

	expired, err := GenerateToken(models.User{ID: 1, Username: "bob"}, "secret-a", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(expired, "secret-a")
	assert.Error(t, err)
}
