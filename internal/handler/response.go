package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/apperr"
	"expense-manager/internal/model"
)

// Response единый конверт ответа API
type Response struct {
	Success        bool        `json:"success"`
	Message        string      `json:"message"`
	ResponseObject interface{} `json:"responseObject"`
	StatusCode     int         `json:"statusCode"`
	Code           string      `json:"code"`
}

type ctxKey string

const userIDKey ctxKey = "userID"

func withUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext возвращает идентификатор пользователя, установленный AuthMiddleware
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// newValidator регистрирует проверки перечислений модели
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("month", func(fl validator.FieldLevel) bool {
		return model.Month(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return model.Currency(fl.Field().String()).Valid()
	})
	return v
}

var validate = newValidator()

func writeJSON(w http.ResponseWriter, status int, body Response, logger *logrus.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("Ошибка кодирования ответа")
	}
}

func writeSuccess(w http.ResponseWriter, status int, message string, obj interface{}, logger *logrus.Logger) {
	code := apperr.CodeSuccess200
	if status == http.StatusCreated {
		code = apperr.CodeSuccess201
	}
	writeJSON(w, status, Response{
		Success:        true,
		Message:        message,
		ResponseObject: obj,
		StatusCode:     status,
		Code:           code,
	}, logger)
}

// writeError отдает ошибку в конверте; детали внутренних ошибок только логируются
func writeError(w http.ResponseWriter, err error, logger *logrus.Logger) {
	e := apperr.From(err)
	status := e.Kind.Status()
	message := e.Message
	if e.Kind == apperr.KindInternal {
		logger.WithError(err).Error("Внутренняя ошибка обработки запроса")
		if e.Code == apperr.CodeUnknown500 {
			message = "Internal server error"
		}
	}
	writeJSON(w, status, Response{
		Message:    message,
		StatusCode: status,
		Code:       e.Code,
	}, logger)
}

func badRequest(msg string) *apperr.Error {
	return apperr.New(apperr.KindInvalidInput, apperr.CodeUnknown400, msg)
}

// decodeAndValidate читает тело запроса и проверяет теги validate
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return badRequest("Invalid request body").Wrap(err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return badRequest("Invalid field " + fe.Field() + ": " + fe.Tag()).Wrap(err)
		}
		return badRequest("Invalid request").Wrap(err)
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, badRequest("Invalid id").Wrap(err)
	}
	return id, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("Invalid " + key).Wrap(err)
	}
	return n, nil
}

func queryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, badRequest("Invalid " + key).Wrap(err)
	}
	return &id, nil
}

func queryBool(r *http.Request, key string) (*bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, badRequest("Invalid " + key).Wrap(err)
	}
	return &b, nil
}

func queryDate(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, apperr.ErrInvalidDate.WithMessage("Invalid " + key + " date (use YYYY-MM-DD)").Wrap(err)
	}
	return t, nil
}

func queryMonth(r *http.Request) (*model.Month, error) {
	raw := strings.ToUpper(r.URL.Query().Get("month"))
	if raw == "" {
		return nil, nil
	}
	m := model.Month(raw)
	if !m.Valid() {
		return nil, badRequest("Invalid month")
	}
	return &m, nil
}
