package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"expense-manager/internal/apperr"
	"expense-manager/internal/model"
	"expense-manager/internal/repository"
)

// CategorySeeder создает категории по умолчанию для нового пользователя
type CategorySeeder interface {
	SeedCategories(ctx context.Context, q repository.Querier, userID uuid.UUID) error
}

type AuthService struct {
	store       Transactor
	users       UserStore
	seeder      CategorySeeder
	jwtSecret   string
	tokenExpiry time.Duration
	now         Clock
	logger      *logrus.Logger
}

func NewAuthService(
	store Transactor,
	users UserStore,
	seeder CategorySeeder,
	jwtSecret string,
	tokenExpiry time.Duration,
	now Clock,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		store:       store,
		users:       users,
		seeder:      seeder,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
		now:         now,
		logger:      logger,
	}
}

// SignUp Регистрация нового пользователя
func (s *AuthService) SignUp(ctx context.Context, input model.SignUpInput) (*model.User, error) {
	s.logger.WithField("alias", input.Alias).Info("Попытка регистрации нового пользователя")

	// Хеширование секретного токена
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Token), bcrypt.DefaultCost)
	if err != nil {
		s.logger.WithError(err).Error("Не удалось захешировать токен")
		return nil, apperr.Internal("Failed to hash token", err)
	}

	now := s.now()
	user := &model.User{
		ID:        uuid.New(),
		Alias:     input.Alias,
		Email:     input.Email,
		TokenHash: string(hashed),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.WithinTx(ctx, func(q repository.Querier) error {
		exists, err := s.users.ExistsByAlias(ctx, q, input.Alias)
		if err != nil {
			return apperr.Internal("Failed to check user existence", err)
		}
		if exists {
			return apperr.ErrUserExists
		}

		if err := s.users.Create(ctx, q, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.ErrUserExists.Wrap(err)
			}
			return apperr.Internal("Failed to create user", err)
		}
		return s.seeder.SeedCategories(ctx, q, user.ID)
	})
	if err != nil {
		s.logger.WithError(err).Warn("Регистрация не выполнена")
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("Пользователь успешно зарегистрирован")
	return user, nil
}

// SignIn Авторизация пользователя и генерация JWT токена
func (s *AuthService) SignIn(ctx context.Context, input model.SignInInput) (string, error) {
	s.logger.WithField("alias", input.Alias).Info("Попытка входа пользователя")

	user, err := s.users.FindByAlias(ctx, s.store.Conn(), input.Alias)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Пользователь не найден")
			return "", apperr.ErrInvalidCredentials
		}
		return "", apperr.Internal("Failed to find user", err)
	}
	if !user.IsActive {
		s.logger.WithField("user_id", user.ID).Warn("Попытка входа неактивного пользователя")
		return "", apperr.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.TokenHash), []byte(input.Token)); err != nil {
		s.logger.Warn("Неверный токен при попытке входа")
		return "", apperr.ErrInvalidCredentials
	}

	token, err := s.GenerateJWTToken(user.ID.String())
	if err != nil {
		s.logger.WithError(err).Error("Не удалось сгенерировать JWT токен")
		return "", apperr.Internal("Failed to generate token", err)
	}

	s.logger.WithField("user_id", user.ID).Info("Пользователь успешно вошёл в систему")
	return token, nil
}

// GenerateJWTToken Генерация JWT токена
func (s *AuthService) GenerateJWTToken(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ParseToken Разбор и валидация JWT токена
func (s *AuthService) ParseToken(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))

	if err != nil || !token.Valid {
		s.logger.WithError(err).Warn("Невалидный JWT токен")
		return uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}

	// Извлечение ID пользователя
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		s.logger.Error("Не удалось извлечь идентификатор пользователя из токена")
		return uuid.Nil, fmt.Errorf("invalid token subject: %w", err)
	}
	return userID, nil
}

// Authenticate проверяет токен и активность пользователя
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (uuid.UUID, error) {
	userID, err := s.ParseToken(tokenString)
	if err != nil {
		return uuid.Nil, apperr.ErrTokenInvalid.Wrap(err)
	}

	user, err := s.users.GetByID(ctx, s.store.Conn(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, apperr.ErrTokenInvalid.Wrap(err)
		}
		return uuid.Nil, apperr.Internal("Failed to load user", err)
	}
	if !user.IsActive {
		return uuid.Nil, apperr.ErrTokenInvalid
	}

	s.logger.WithField("user_id", userID).Debug("JWT токен успешно распознан")
	return userID, nil
}
