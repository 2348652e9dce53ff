package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Handlers набор обработчиков, монтируемых в маршрутизатор
type Handlers struct {
	Auth         *AuthHandler
	Accounts     *AccountHandler
	Transactions *TransactionHandler
	Tags         *TagHandler
	Analytics    *AnalyticsHandler
}

// NewRouter собирает публичные маршруты /auth и защищенные /api
func NewRouter(h Handlers, auth Authenticator, logger *logrus.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware(logger))

	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, "OK", nil, logger)
	}).Methods(http.MethodGet)

	// 1. Публичные маршруты для аутентификации
	h.Auth.RegisterRoutes(router.PathPrefix("/auth").Subrouter())

	// 2. Защищенные API маршруты (требуется JWT токен)
	api := router.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware(auth, logger))

	h.Accounts.RegisterRoutes(api.PathPrefix("/accounts").Subrouter())
	h.Transactions.RegisterRoutes(api.PathPrefix("/transactions").Subrouter())
	h.Tags.RegisterCategoryRoutes(api.PathPrefix("/categories").Subrouter())
	h.Tags.RegisterServiceRoutes(api.PathPrefix("/services").Subrouter())
	h.Analytics.RegisterRoutes(api.PathPrefix("/analytics").Subrouter())

	return router
}
