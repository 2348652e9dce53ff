package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/model"
)

type TransactionService interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context, userID uuid.UUID, f model.TransactionFilter) (*model.Page[model.Transaction], error)
	Create(ctx context.Context, userID uuid.UUID, req model.CreateTransactionRequest) (*model.Transaction, error)
	Update(ctx context.Context, userID, id uuid.UUID, req model.UpdateTransactionRequest) (*model.Transaction, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type SettlementService interface {
	PayDebtLoan(ctx context.Context, userID, id uuid.UUID, req model.PayDebtLoanRequest) (*model.Transaction, error)
}

// TransactionHandler обрабатывает запросы, связанные с транзакциями
type TransactionHandler struct {
	transactionService TransactionService
	settlementService  SettlementService
	logger             *logrus.Logger
}

func NewTransactionHandler(transactionService TransactionService, settlementService SettlementService, logger *logrus.Logger) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		settlementService:  settlementService,
		logger:             logger,
	}
}

func (h *TransactionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.List).Methods(http.MethodGet)
	router.HandleFunc("", h.Create).Methods(http.MethodPost)
	router.HandleFunc("/{id}", h.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}", h.Update).Methods(http.MethodPut)
	router.HandleFunc("/{id}", h.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/{id}/pay", h.Pay).Methods(http.MethodPost)
}

// parseFilter разбирает параметры списка транзакций
func parseFilter(r *http.Request) (model.TransactionFilter, error) {
	q := r.URL.Query()
	var f model.TransactionFilter
	var err error

	if f.Page, err = queryInt(r, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		return f, err
	}
	if f.AccountID, err = queryUUID(r, "account_id"); err != nil {
		return f, err
	}
	if f.CategoryID, err = queryUUID(r, "category_id"); err != nil {
		return f, err
	}
	if f.ServiceID, err = queryUUID(r, "service_id"); err != nil {
		return f, err
	}
	if f.IsPaid, err = queryBool(r, "is_paid"); err != nil {
		return f, err
	}
	withDeleted, err := queryBool(r, "with_deleted")
	if err != nil {
		return f, err
	}
	f.WithDeleted = withDeleted != nil && *withDeleted

	if raw := q.Get("type"); raw != "" {
		t := model.TransactionType(strings.ToUpper(raw))
		switch t {
		case model.TransactionTypeIncome, model.TransactionTypeExpense, model.TransactionTypeDebt, model.TransactionTypeLoan:
			f.Type = &t
		default:
			return f, badRequest("Invalid type")
		}
	}
	if raw := q.Get("payment_method"); raw != "" {
		pm := model.PaymentMethod(strings.ToUpper(raw))
		f.PaymentMethod = &pm
	}

	f.Search = q.Get("search")
	f.FieldOrder = q.Get("field_order")
	switch model.SortOrder(strings.ToUpper(q.Get("order"))) {
	case "", model.OrderDesc:
		f.Order = model.OrderDesc
	case model.OrderAsc:
		f.Order = model.OrderAsc
	default:
		return f, badRequest("Invalid order")
	}
	return f, nil
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	page, err := h.transactionService.List(r.Context(), userID, f)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Transactions retrieved", page, h.logger)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	t, err := h.transactionService.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Transaction retrieved", t, h.logger)
}

// Create обрабатывает запрос на создание транзакции; счет пересчитывается в той же БД-транзакции
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var req model.CreateTransactionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.logger.WithError(err).Warn("Неверный запрос на создание транзакции")
		writeError(w, err, h.logger)
		return
	}

	t, err := h.transactionService.Create(r.Context(), userID, req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusCreated, "Transaction created", t, h.logger)
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.UpdateTransactionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	t, err := h.transactionService.Update(r.Context(), userID, id, req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Transaction updated", t, h.logger)
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.transactionService.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Transaction deleted", nil, h.logger)
}

// Pay погашает долг или заем полностью либо частично
func (h *TransactionHandler) Pay(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.PayDebtLoanRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	settlement, err := h.settlementService.PayDebtLoan(r.Context(), userID, id, req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusCreated, "Payment registered", settlement, h.logger)
}
