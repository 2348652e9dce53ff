package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/apperr"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// AuthMiddleware проверяет наличие и валидность JWT токена в заголовке Authorization
func AuthMiddleware(auth Authenticator, logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Получаем заголовок Authorization
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Отсутствует заголовок Authorization")
				writeError(w, apperr.ErrTokenMissing, logger)
				return
			}

			// Проверяем формат заголовка
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				logger.Warn("Неверный формат заголовка Authorization")
				writeError(w, apperr.ErrTokenMissing, logger)
				return
			}

			userID, err := auth.Authenticate(r.Context(), parts[1])
			if err != nil {
				logger.WithError(err).Warn("Неверный токен")
				writeError(w, err, logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
		})
	}
}

// LoggingMiddleware пишет метод, путь и длительность каждого запроса
func LoggingMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start).String(),
			}).Info("HTTP запрос")
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requireUser достает пользователя из контекста; без AuthMiddleware отвечает 401
func requireUser(w http.ResponseWriter, r *http.Request, logger *logrus.Logger) (uuid.UUID, bool) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperr.ErrTokenMissing, logger)
		return uuid.Nil, false
	}
	return userID, true
}
