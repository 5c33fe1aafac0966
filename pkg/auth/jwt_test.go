package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/nearcart/pkg/auth"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := auth.GenerateToken(7, "shop_owner", time.Hour)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "shop_owner", claims.Role)
}

func TestExpiredTokenRejected(t *testing.T) {
	tok, err := auth.GenerateToken(7, "customer", -time.Minute)
	require.NoError(t, err)

	_, err = auth.ValidateToken(tok)
	assert.Error(t, err)
}

func TestEmptyTokenRejected(t *testing.T) {
	_, err := auth.ValidateToken("")
	assert.ErrorIs(t, err, auth.ErrMissingToken)
}

func TestTamperedTokenRejected(t *testing.T) {
	tok, err := auth.GenerateToken(7, "customer", time.Hour)
	require.NoError(t, err)

	_, err = auth.ValidateToken(tok[:len(tok)-2] + "xx")
	assert.Error(t, err)
}

func TestIdentityContext(t *testing.T) {
	_, ok := auth.FromContext(context.Background())
	assert.False(t, ok)

	ctx := auth.WithIdentity(context.Background(), auth.Identity{UserID: 3, Role: "customer"})
	id, ok := auth.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, uint(3), id.UserID)
}

func TestPasswordHash(t *testing.T) {
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(hash, "secret123"))
	assert.False(t, auth.CheckPassword(hash, "wrong"))
}
