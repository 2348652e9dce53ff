package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/model"
)

type AuthService interface {
	SignUp(ctx context.Context, input model.SignUpInput) (*model.User, error)
	SignIn(ctx context.Context, input model.SignInInput) (string, error)
}

// AuthHandler обрабатывает запросы аутентификации
type AuthHandler struct {
	authService AuthService
	logger      *logrus.Logger
}

func NewAuthHandler(authService AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// RegisterRoutes регистрирует маршруты для аутентификации
func (h *AuthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/signup", h.SignUp).Methods(http.MethodPost)
	router.HandleFunc("/signin", h.SignIn).Methods(http.MethodPost)
}

// SignUp обрабатывает запрос на регистрацию нового пользователя
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var input model.SignUpInput
	if err := decodeAndValidate(r, &input); err != nil {
		h.logger.WithError(err).Warn("Ошибка валидации входных данных для регистрации")
		writeError(w, err, h.logger)
		return
	}

	user, err := h.authService.SignUp(r.Context(), input)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusCreated, "User created", map[string]interface{}{
		"id":         user.ID,
		"alias":      user.Alias,
		"email":      user.Email,
		"created_at": user.CreatedAt,
	}, h.logger)
}

// SignIn обрабатывает запрос на вход и возвращает JWT
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var input model.SignInInput
	if err := decodeAndValidate(r, &input); err != nil {
		writeError(w, err, h.logger)
		return
	}

	token, err := h.authService.SignIn(r.Context(), input)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, "Signed in", map[string]string{"token": token}, h.logger)
}
