package common

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestUserIDFromToken_Subject(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"sub": "user-42"})

	id, err := UserIDFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-42", id)
}

func TestUserIDFromToken_BearerPrefix(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"sub": "user-42"})

	id, err := UserIDFromToken("Bearer " + tok)
	require.NoError(t, err)
	assert.Equal(t, "user-42", id)
}

func TestUserIDFromToken_UserIDClaim(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"userId": "65f0c0ffee"})

	id, err := UserIDFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "65f0c0ffee", id)
}

func TestUserIDFromToken_Empty(t *testing.T) {
	_, err := UserIDFromToken("")
	assert.ErrorIs(t, err, ErrNoUserID)
}

func TestUserIDFromToken_NoSubject(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"role": "user"})

	_, err := UserIDFromToken(tok)
	assert.ErrorIs(t, err, ErrNoUserID)
}

func TestUserIDFromToken_Garbage(t *testing.T) {
	_, err := UserIDFromToken("not-a-jwt")
	assert.Error(t, err)
}
