package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	id := uuid.New()
	tok, err := m.Generate(id)
	require.NoError(t, err)

	claims, err := m.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, id, claims.UserID)
}

func TestVerify_Expired(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := m.Generate(uuid.New())
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(tok)
	require.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerify_WrongSecret(t *testing.T) {
	tok, err := NewTokenManager("one", time.Hour).Generate(uuid.New())
	require.NoError(t, err)
	_, err = NewTokenManager("two", time.Hour).Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{
		UserID:           uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewTokenManager("secret", time.Hour).Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc.def")
	require.True(t, ok)
	require.Equal(t, "abc.def", tok)

	for _, h := range []string{"", "Bearer", "Bearer   ", "Basic abc", "abc"} {
		_, ok := BearerToken(h)
		require.False(t, ok, h)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	require.True(t, CheckPasswordHash("admin123", hash))
	require.False(t, CheckPasswordHash("admin124", hash))
}
