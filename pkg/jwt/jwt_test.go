package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"roomchat/internal/entity"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	token, err := m.GenerateAccessToken(entity.User{Id: "u1", Username: "alice"})
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, &entity.TokenClaims{UserId: "u1", Username: "alice"}, claims)
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.GenerateAccessToken(entity.User{Id: "u1", Username: "alice"})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateAccessToken(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret", time.Hour).GenerateAccessToken(entity.User{Id: "u1", Username: "alice"})
	require.NoError(t, err)

	_, err = NewJWTManager("other", time.Hour).ValidateAccessToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewJWTManager("secret", time.Hour).ValidateAccessToken("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
