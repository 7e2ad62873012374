package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, err := m.Issue("user-1")
	require.NoError(t, err)

	userID, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenManager_Verify(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	issuer := NewTokenManager("secret", time.Hour)
	issuer.timeNow = func() time.Time { return issuedAt }
	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		m := NewTokenManager("secret", time.Hour)
		m.timeNow = func() time.Time { return issuedAt.Add(2 * time.Hour) }

		_, err := m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		m := NewTokenManager("other", time.Hour)
		m.timeNow = func() time.Time { return issuedAt }

		_, err := m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": issuedAt.Add(time.Hour).Unix(),
		})
		signed, err := raw.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = issuer.Verify(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm rejected", func(t *testing.T) {
		raw := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"user_id": "user-1",
			"exp":     issuedAt.Add(time.Hour).Unix(),
		})
		signed, err := raw.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.Verify(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestUserIDFromContext(t *testing.T) {
	assert.Empty(t, UserIDFromContext(context.Background()))

	ctx := WithUserID(context.Background(), "user-1")
	assert.Equal(t, "user-1", UserIDFromContext(ctx))
}
