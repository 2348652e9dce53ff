package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/model"
)

type AccountService interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Account, error)
	GetLatest(ctx context.Context, userID uuid.UUID) (*model.Account, error)
	GetDefault(ctx context.Context, userID uuid.UUID) (*model.Account, error)
	List(ctx context.Context, userID uuid.UUID, f model.AccountFilter) (*model.Page[model.Account], error)
	Create(ctx context.Context, userID uuid.UUID, req model.CreateAccountRequest) (*model.Account, error)
	Update(ctx context.Context, userID, id uuid.UUID, req model.UpdateAccountRequest) (*model.Account, error)
	SetDefault(ctx context.Context, userID, id uuid.UUID) (*model.Account, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// AccountHandler обрабатывает запросы, связанные со счетами
type AccountHandler struct {
	accountService AccountService
	logger         *logrus.Logger
}

func NewAccountHandler(accountService AccountService, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{accountService: accountService, logger: logger}
}

// RegisterRoutes регистрирует маршруты для работы со счетами
func (h *AccountHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.List).Methods(http.MethodGet)
	router.HandleFunc("", h.Create).Methods(http.MethodPost)
	router.HandleFunc("/latest", h.GetLatest).Methods(http.MethodGet)
	router.HandleFunc("/default", h.GetDefault).Methods(http.MethodGet)
	router.HandleFunc("/{id}", h.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}", h.Update).Methods(http.MethodPut)
	router.HandleFunc("/{id}", h.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/{id}/default", h.SetDefault).Methods(http.MethodPatch)
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var f model.AccountFilter
	var err error
	if f.Page, err = queryInt(r, "page"); err != nil {
		writeError(w, err, h.logger)
		return
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(w, err, h.logger)
		return
	}
	if f.Month, err = queryMonth(r); err != nil {
		writeError(w, err, h.logger)
		return
	}
	if year, err := queryInt(r, "year"); err != nil {
		writeError(w, err, h.logger)
		return
	} else if year != 0 {
		f.Year = &year
	}

	page, err := h.accountService.List(r.Context(), userID, f)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Accounts retrieved", page, h.logger)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	account, err := h.accountService.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Account retrieved", account, h.logger)
}

func (h *AccountHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	account, err := h.accountService.GetLatest(r.Context(), userID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Latest account retrieved", account, h.logger)
}

func (h *AccountHandler) GetDefault(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	account, err := h.accountService.GetDefault(r.Context(), userID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Default account retrieved", account, h.logger)
}

// Create обрабатывает запрос на создание нового счета
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var req model.CreateAccountRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.logger.WithError(err).Warn("Неверный запрос на создание счета")
		writeError(w, err, h.logger)
		return
	}

	account, err := h.accountService.Create(r.Context(), userID, req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusCreated, "Account created", account, h.logger)
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.UpdateAccountRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	account, err := h.accountService.Update(r.Context(), userID, id, req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Account updated", account, h.logger)
}

func (h *AccountHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	account, err := h.accountService.SetDefault(r.Context(), userID, id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Default account updated", account, h.logger)
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.accountService.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Account deleted", nil, h.logger)
}
