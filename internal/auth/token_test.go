package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elevator-access-backend/internal/errs"
)

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	raw, exp, err := tokens.Issue(Identity{UserID: 7, Email: "ana@example.com"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	id, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 7, Email: "ana@example.com"}, id)
}

func TestTokens_Failures(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	expired := NewTokens("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	old, _, err := expired.Issue(Identity{UserID: 7})
	require.NoError(t, err)

	foreign, _, err := NewTokens("other-secret", time.Hour).Issue(Identity{UserID: 7})
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"userId": 7, "exp": time.Now().Add(time.Hour).Unix()})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	testCases := []struct {
		name string
		raw  string
		want error
	}{
		{"expired", old, errs.ErrTokenExpired},
		{"wrong secret", foreign, errs.ErrInvalidToken},
		{"unsigned", unsigned, errs.ErrInvalidToken},
		{"garbage", "not-a-token", errs.ErrInvalidToken},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tokens.Verify(tc.raw)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	ok, err := CheckPassword("hunter22", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword("hunter23", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}
