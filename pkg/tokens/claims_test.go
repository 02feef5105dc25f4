package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, method jwt.SigningMethod, claims jwt.Claims, key any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestAccessClaimsFromToken(t *testing.T) {
	t.Parallel()

	secret := []byte("access-secret")
	userID := uuid.NewString()
	token := sign(t, jwt.SigningMethodHS256, AccessClaims{
		Role:  "staff",
		Email: "staff@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}, secret)

	claims, err := AccessClaimsFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, "staff", claims.Role)
	assert.Equal(t, "staff@example.com", claims.Email)
}

func TestAccessClaimsFromToken_Rejects(t *testing.T) {
	t.Parallel()

	secret := []byte("access-secret")
	expired := sign(t, jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}, secret)
	wrongAlg := sign(t, jwt.SigningMethodHS512, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u"},
	}, secret)

	tests := []struct {
		name   string
		token  string
		secret []byte
		target error
	}{
		{name: "expired", token: expired, secret: secret, target: jwt.ErrTokenExpired},
		{name: "wrong secret", token: expired, secret: []byte("other"), target: jwt.ErrTokenSignatureInvalid},
		{name: "wrong alg", token: wrongAlg, secret: secret, target: jwt.ErrTokenUnverifiable},
		{name: "garbage", token: "not-a-jwt", secret: secret, target: jwt.ErrTokenMalformed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := AccessClaimsFromToken(tt.token, tt.secret)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestRefreshClaimsFromToken(t *testing.T) {
	t.Parallel()

	secret := []byte("refresh-secret")
	jti := NewJTI()
	token := sign(t, jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, secret)

	claims, err := RefreshClaimsFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestSha256Hex_Stable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Sha256Hex("token"), Sha256Hex("token"))
	assert.NotEqual(t, Sha256Hex("token"), Sha256Hex("token2"))
	assert.Len(t, Sha256Hex("token"), 64)
}
