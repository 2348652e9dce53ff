package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/config"
	"expense-manager/internal/database"
	"expense-manager/internal/handler"
	"expense-manager/internal/repository"
	"expense-manager/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Загрузка конфигурации приложения
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx := context.Background()

	// Подключение к PostgreSQL и применение схемы
	db, err := database.Open(ctx, cfg.DSN(), logger)
	if err != nil {
		logger.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, logger); err != nil {
		logger.Fatalf("Ошибка применения схемы: %v", err)
	}

	clock := service.Clock(time.Now)

	// Инициализация репозиториев
	logger.Info("Инициализация репозиториев...")
	store := repository.NewStore(db, logger)
	userRepo := repository.NewUserRepository(logger)
	accountRepo := repository.NewAccountRepository(logger)
	transactionRepo := repository.NewTransactionRepository(logger)
	categoryRepo := repository.NewCategoryRepository(logger)
	serviceRepo := repository.NewServiceRepository(logger)

	emailSender := service.NewEmailSender(cfg, clock, logger)
	cbrClient := service.NewCBRClient(cfg.CBREndpoint, cfg.RatesTimeout, logger)

	// Инициализация сервисов
	logger.Info("Инициализация сервисов...")
	recalculator := service.NewAccountRecalculator(accountRepo, transactionRepo, userRepo, emailSender, clock, logger)
	tagService := service.NewTagService(store, categoryRepo, serviceRepo, clock, logger)
	authService := service.NewAuthService(store, userRepo, tagService, cfg.JWTSecret, cfg.TokenExpiry, clock, logger)
	accountService := service.NewAccountService(store, accountRepo, transactionRepo, recalculator, clock, logger)
	transactionService := service.NewTransactionService(store, accountRepo, transactionRepo, categoryRepo, serviceRepo, recalculator, clock, logger)
	settlementService := service.NewSettlementService(store, transactionRepo, serviceRepo, userRepo, recalculator, emailSender, clock, logger)
	analyticService := service.NewAnalyticService(store, accountRepo, transactionRepo, cbrClient, clock, logger)

	// Инициализация HTTP обработчиков
	logger.Info("Инициализация обработчиков API...")
	router := handler.NewRouter(handler.Handlers{
		Auth:         handler.NewAuthHandler(authService, logger),
		Accounts:     handler.NewAccountHandler(accountService, logger),
		Transactions: handler.NewTransactionHandler(transactionService, settlementService, logger),
		Tags:         handler.NewTagHandler(tagService, logger),
		Analytics:    handler.NewAnalyticsHandler(analyticService, clock, logger),
	}, authService, logger)

	// Ежедневный пересчет метрик: дни периода сдвигаются вместе с календарем
	logger.Info("Настройка планировщика пересчета метрик...")
	c := cron.New()
	_, err = c.AddFunc(cfg.MetricsRefreshCron, func() {
		logger.Info("Запуск пересчета метрик счетов")
		if err := accountService.RefreshMetrics(context.Background()); err != nil {
			logger.WithError(err).Error("Ошибка пересчета метрик")
		} else {
			logger.Info("Пересчет метрик завершен успешно")
		}
	})
	if err != nil {
		logger.Fatalf("Ошибка настройки планировщика: %v", err)
	}
	c.Start()

	// Настройка и запуск HTTP сервера
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Запуск сервера на %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Ошибка сервера: %v", err)
		}
	}()

	// Ожидание сигналов для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Завершение работы сервера...")
	<-c.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Ошибка при завершении работы сервера: %v", err)
	}
	logger.Info("Сервер успешно остановлен")
}
