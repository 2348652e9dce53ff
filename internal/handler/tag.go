package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/model"
)

type TagService interface {
	ListCategories(ctx context.Context, userID uuid.UUID) ([]model.TransactionCategory, error)
	CreateCategory(ctx context.Context, userID uuid.UUID, req model.TagRequest) (*model.TransactionCategory, error)
	UpdateCategory(ctx context.Context, userID, id uuid.UUID, req model.TagRequest) (*model.TransactionCategory, error)
	DeleteCategory(ctx context.Context, userID, id uuid.UUID) error
	ListServices(ctx context.Context, userID uuid.UUID) ([]model.TransactionService, error)
	CreateService(ctx context.Context, userID uuid.UUID, req model.TagRequest) (*model.TransactionService, error)
	UpdateService(ctx context.Context, userID, id uuid.UUID, req model.TagRequest) (*model.TransactionService, error)
	DeleteService(ctx context.Context, userID, id uuid.UUID) error
}

// TagHandler обслуживает категории (/api/categories) и сервисы (/api/services)
type TagHandler struct {
	tagService TagService
	logger     *logrus.Logger
}

func NewTagHandler(tagService TagService, logger *logrus.Logger) *TagHandler {
	return &TagHandler{tagService: tagService, logger: logger}
}

func (h *TagHandler) RegisterCategoryRoutes(router *mux.Router) {
	router.HandleFunc("", h.ListCategories).Methods(http.MethodGet)
	router.HandleFunc("", h.CreateCategory).Methods(http.MethodPost)
	router.HandleFunc("/{id}", h.UpdateCategory).Methods(http.MethodPut)
	router.HandleFunc("/{id}", h.DeleteCategory).Methods(http.MethodDelete)
}

func (h *TagHandler) RegisterServiceRoutes(router *mux.Router) {
	router.HandleFunc("", h.ListServices).Methods(http.MethodGet)
	router.HandleFunc("", h.CreateService).Methods(http.MethodPost)
	router.HandleFunc("/{id}", h.UpdateService).Methods(http.MethodPut)
	router.HandleFunc("/{id}", h.DeleteService).Methods(http.MethodDelete)
}

func (h *TagHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	categories, err := h.tagService.ListCategories(r.Context(), userID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Categories retrieved", categories, h.logger)
}

func (h *TagHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req model.TagRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}
	c, err := h.tagService.CreateCategory(r.Context(), userID, req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusCreated, "Category created", c, h.logger)
}

func (h *TagHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	var req model.TagRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}
	c, err := h.tagService.UpdateCategory(r.Context(), userID, id, req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Category updated", c, h.logger)
}

func (h *TagHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	if err := h.tagService.DeleteCategory(r.Context(), userID, id); err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Category deleted", nil, h.logger)
}

func (h *TagHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	services, err := h.tagService.ListServices(r.Context(), userID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Services retrieved", services, h.logger)
}

func (h *TagHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req model.TagRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}
	svc, err := h.tagService.CreateService(r.Context(), userID, req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusCreated, "Service created", svc, h.logger)
}

func (h *TagHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	var req model.TagRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}
	svc, err := h.tagService.UpdateService(r.Context(), userID, id, req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Service updated", svc, h.logger)
}

func (h *TagHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	if err := h.tagService.DeleteService(r.Context(), userID, id); err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Service deleted", nil, h.logger)
}
