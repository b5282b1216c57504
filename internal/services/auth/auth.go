// Package auth проверяет учетные данные и выпускает токены доступа.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/medico/internal/lib/jwt"
	"github.com/magabrotheeeer/medico/internal/lib/password"
	"github.com/magabrotheeeer/medico/internal/models"
)

// ErrInvalidCredentials неверное имя пользователя или пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для поиска пользователей.
type UserRepository interface {
	FindUserByUsername(ctx context.Context, username string) (models.User, bool, error)
}

// Service отвечает за вход и проверку JWT.
type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// New создает новый экземпляр Service.
func New(users UserRepository, jwtMaker jwt.Maker) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Login проверяет пароль и возвращает пользователя вместе с JWT для API-клиентов.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (models.User, string, error) {
	const op = "auth.Login"

	user, found, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return models.User{}, "", ErrInvalidCredentials
	}
	if err = password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return models.User{}, "", ErrInvalidCredentials
		}
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.UUID, user.Username)
	if err != nil {
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}
	return user, token, nil
}

// ValidateToken проверяет JWT и возвращает UID и имя пользователя.
func (s *Service) ValidateToken(_ context.Context, token string) (userUID, username string, err error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return "", "", err
	}
	return claims.UserUID, claims.Username, nil
}
