package tokensource

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedStore_GetBeforeSetReportsMiss(t *testing.T) {
	s := NewCachedStore()
	_, ok := s.Get(context.Background())
	assert.False(t, ok)
}

func TestCachedStore_GetAfterSet(t *testing.T) {
	s := NewCachedStore()
	s.Set("tok")
	val, ok := s.Get(context.Background())
	require.True(t, ok)
	assert.Equal(t, "tok", val)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	return signed
}

func TestIsJWTExpired_PastExpiryIsExpired(t *testing.T) {
	tok := signedToken(t, time.Now().Add(-time.Hour))
	assert.True(t, IsJWTExpired(tok, 0))
}

func TestIsJWTExpired_FutureExpiryIsFresh(t *testing.T) {
	tok := signedToken(t, time.Now().Add(time.Hour))
	assert.False(t, IsJWTExpired(tok, 0))
}

func TestIsJWTExpired_OpaqueTokenNeverExpired(t *testing.T) {
	assert.False(t, IsJWTExpired("not-a-jwt", 0))
}
