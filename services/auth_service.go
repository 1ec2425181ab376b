package services

import (
	"context"
	"strings"
	"time"

	"github.com/bracketpulse/tournament-stats/utils"
	"github.com/golang-jwt/jwt/v4"
)

// AuthService аутентифицирует оператора синхронизации. Учётная запись
// администратора задаётся конфигурацией, отдельной таблицы пользователей нет.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type authService struct {
	adminEmail        string
	adminPasswordHash string
	jwtSecret         []byte
	tokenTTL          time.Duration
}

func NewAuthService(adminEmail, adminPasswordHash string, jwtSecret []byte, tokenTTL time.Duration) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &authService{
		adminEmail:        adminEmail,
		adminPasswordHash: adminPasswordHash,
		jwtSecret:         jwtSecret,
		tokenTTL:          tokenTTL,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	if !strings.EqualFold(email, s.adminEmail) || !utils.CheckPasswordHash(password, s.adminPasswordHash) {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  s.adminEmail,
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
