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
	"expense-manager/internal/model"
)

type AnalyticService interface {
	GetFinancialStats(ctx context.Context, userID, accountID uuid.UUID, start, end time.Time) (*model.FinancialStats, error)
	GetDebtLoad(ctx context.Context, userID uuid.UUID) (*model.DebtLoad, error)
	GetBalanceForecast(ctx context.Context, userID, accountID uuid.UUID) ([]model.BalanceForecast, error)
	GetOverview(ctx context.Context, userID uuid.UUID, currency model.Currency, month model.Month, year int) (*model.Overview, error)
}

type AnalyticsHandler struct {
	analyticService AnalyticService
	now             func() time.Time
	logger          *logrus.Logger
}

func NewAnalyticsHandler(analyticService AnalyticService, now func() time.Time, logger *logrus.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticService: analyticService,
		now:             now,
		logger:          logger,
	}
}

func (h *AnalyticsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/stats", h.GetFinancialStats).Methods(http.MethodGet)
	router.HandleFunc("/debts", h.GetDebtLoad).Methods(http.MethodGet)
	router.HandleFunc("/forecast", h.GetBalanceForecast).Methods(http.MethodGet)
	router.HandleFunc("/overview", h.GetOverview).Methods(http.MethodGet)
}

// GetFinancialStats возвращает статистику по доходам/расходам счета
func (h *AnalyticsHandler) GetFinancialStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	accountID, err := requiredAccount(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	startDate, endDate, err := h.parseDateRange(r)
	if err != nil {
		h.logger.WithError(err).Warn("Неверные параметры даты")
		writeError(w, err, h.logger)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"account_id": accountID,
		"start_date": startDate,
		"end_date":   endDate,
	}).Info("Запрос финансовой статистики")

	stats, err := h.analyticService.GetFinancialStats(r.Context(), userID, accountID, startDate, endDate)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Statistics retrieved", stats, h.logger)
}

// GetDebtLoad возвращает непогашенные долги и займы
func (h *AnalyticsHandler) GetDebtLoad(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	load, err := h.analyticService.GetDebtLoad(r.Context(), userID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Debt load retrieved", load, h.logger)
}

// GetBalanceForecast возвращает прогноз баланса до конца периода счета
func (h *AnalyticsHandler) GetBalanceForecast(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	accountID, err := requiredAccount(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	forecast, err := h.analyticService.GetBalanceForecast(r.Context(), userID, accountID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Forecast retrieved", forecast, h.logger)
}

// GetOverview сводит счета периода в одну валюту; период по умолчанию текущий
func (h *AnalyticsHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	currency := model.Currency(strings.ToUpper(r.URL.Query().Get("currency")))
	if !currency.Valid() {
		writeError(w, badRequest("Invalid currency"), h.logger)
		return
	}

	now := h.now()
	month := model.MonthOf(now.Month())
	if m, err := queryMonth(r); err != nil {
		writeError(w, err, h.logger)
		return
	} else if m != nil {
		month = *m
	}
	year, err := queryInt(r, "year")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	if year == 0 {
		year = now.Year()
	}

	overview, err := h.analyticService.GetOverview(r.Context(), userID, currency, month, year)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, "Overview retrieved", overview, h.logger)
}

func requiredAccount(r *http.Request) (uuid.UUID, error) {
	id, err := queryUUID(r, "account_id")
	if err != nil {
		return uuid.Nil, err
	}
	if id == nil {
		return uuid.Nil, badRequest("account_id is required")
	}
	return *id, nil
}

// parseDateRange парсит даты из параметров запроса; по умолчанию последний месяц
func (h *AnalyticsHandler) parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	now := h.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	startDate := today.AddDate(0, -1, 0)
	endDate := today

	var err error
	if r.URL.Query().Get("start") != "" {
		if startDate, err = queryDate(r, "start"); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if r.URL.Query().Get("end") != "" {
		if endDate, err = queryDate(r, "end"); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if startDate.After(endDate) {
		return time.Time{}, time.Time{}, apperr.ErrInvalidRange
	}
	return startDate, endDate, nil
}
