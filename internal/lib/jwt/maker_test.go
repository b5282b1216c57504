package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTMaker_GenerateAndParseToken(t *testing.T) {
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker("test_secret_key_1234567890", tokenTTL)

	tests := []struct {
		name     string
		uid      string
		username string
	}{
		{name: "customer", uid: "0b8f3c8e-6a43-4a8b-9a39-0f1c2d3e4f50", username: "jane"},
		{name: "username with dots", uid: "5f0c8a8e-1111-4a8b-9a39-0f1c2d3e4f50", username: "dr.house"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.uid, tt.username)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.uid, claims.UserUID)
			assert.Equal(t, tt.uid, claims.Subject)
			assert.Equal(t, tt.username, claims.Username)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	maker := NewJWTMaker(secretKey, 15*time.Minute)

	validToken, err := maker.GenerateToken("uid-1", "jane")
	require.NoError(t, err)

	expired, err := NewJWTMaker(secretKey, -time.Hour).GenerateToken("uid-1", "jane")
	require.NoError(t, err)

	foreign, err := NewJWTMaker("wrong_secret_key", time.Hour).GenerateToken("uid-1", "jane")
	require.NoError(t, err)

	noSubject, err := maker.GenerateToken("", "jane")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: expired},
		{name: "wrong secret key", token: foreign},
		{name: "tampered token", token: validToken + "tampered"},
		{name: "missing uid", token: noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}
