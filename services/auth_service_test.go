package services

import (
	"context"
	"testing"
	"time"

	"github.com/bracketpulse/tournament-stats/utils"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Login(t *testing.T) {
	hash, err := utils.HashPassword("correct-horse")
	require.NoError(t, err)

	secret := []byte("test-secret")
	service := NewAuthService("admin@example.com", hash, secret, time.Hour)

	token, err := service.Login(context.Background(), "Admin@Example.com", "correct-horse")
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	assert.Equal(t, "admin@example.com", claims["sub"])
	assert.Equal(t, "admin", claims["role"])
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	hash, err := utils.HashPassword("correct-horse")
	require.NoError(t, err)

	service := NewAuthService("admin@example.com", hash, []byte("test-secret"), time.Hour)

	_, err = service.Login(context.Background(), "admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_LoginUnknownEmail(t *testing.T) {
	hash, err := utils.HashPassword("correct-horse")
	require.NoError(t, err)

	service := NewAuthService("admin@example.com", hash, []byte("test-secret"), time.Hour)

	_, err = service.Login(context.Background(), "someone@else.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
