package jwt

import (
	"testing"
	"time"

	"medledger/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(secret string) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:        secret,
		Issuer:        "medledger-test",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
	})
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	svc := newTestService("secret")
	id := Identity{Subject: "42", Realm: RealmLedger, Role: "admin", Email: "a@b.io"}

	token, tokenID, err := svc.GenerateAccessToken(id)
	require.NoError(t, err)
	require.NotEmpty(t, tokenID)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.Equal(t, tokenID, claims.TokenID)
	assert.Equal(t, id, claims.Identity())
	assert.Equal(t, "medledger-test", claims.Issuer)
}

func TestRefreshTokenHasRefreshType(t *testing.T) {
	svc := newTestService("secret")

	token, _, err := svc.GenerateRefreshToken(Identity{Subject: "u", Realm: RealmPortal, Role: "patient"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, RefreshToken, claims.TokenType)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	token, _, err := newTestService("one").GenerateAccessToken(Identity{Subject: "u", Realm: RealmPortal})
	require.NoError(t, err)

	_, err = newTestService("two").ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "s", AccessExpiry: -time.Minute})

	token, _, err := svc.GenerateAccessToken(Identity{Subject: "u", Realm: RealmPortal})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := newTestService("s").ValidateToken("not-a-token")
	assert.Error(t, err)
}
