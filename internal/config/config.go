package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config содержит настройки приложения
type Config struct {
	HTTPAddr string // Адрес HTTP сервера

	DBHost     string // Хост базы данных
	DBPort     string // Порт базы данных
	DBUser     string // Пользователь базы данных
	DBPassword string // Пароль базы данных
	DBName     string // Имя базы данных
	DBSSLMode  string

	JWTSecret   string        // Секрет для JWT
	TokenExpiry time.Duration // Время жизни токена

	LogLevel logrus.Level

	// Расписание пересчета метрик счетов текущего месяца
	MetricsRefreshCron string

	SMTPHost           string
	SMTPPort           int
	SMTPUser           string
	SMTPPass           string
	EmailEnabled       bool
	InsecureSkipVerify bool

	CBREndpoint  string        // SOAP сервис курсов валют ЦБ
	RatesTimeout time.Duration // Таймаут запроса курсов
}

// LoadConfig загружает конфигурацию из .env файла и переменных окружения
func LoadConfig() (*Config, error) {
	// Загружаем переменные окружения из .env файла
	if err := godotenv.Load(); err != nil {
		logrus.Warn("Файл .env не найден")
	}

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		logrus.Warnf("Неизвестный уровень логирования %q, используется info", os.Getenv("LOG_LEVEL"))
		level = logrus.InfoLevel
	}

	config := &Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         getEnv("DB_PASSWORD", "postgres"),
		DBName:             getEnv("DB_NAME", "expense_manager"),
		DBSSLMode:          getEnv("DB_SSLMODE", "disable"),
		JWTSecret:          getEnv("JWT_SECRET", "default-secret-key"),
		TokenExpiry:        getDuration("TOKEN_EXPIRY", 24*time.Hour), // По умолчанию 24 часа
		LogLevel:           level,
		MetricsRefreshCron: getEnv("METRICS_REFRESH_CRON", "5 0 * * *"),
		SMTPHost:           getEnv("SMTP_HOST", "smtp.example.com"),
		SMTPPort:           getInt("SMTP_PORT", 587),
		SMTPUser:           getEnv("SMTP_USER", ""),
		SMTPPass:           getEnv("SMTP_PASS", ""),
		EmailEnabled:       getBool("EMAIL_SENDER_ENABLED", false),
		InsecureSkipVerify: getBool("INSECURE_SKIP_VERIFY", false),
		CBREndpoint:        getEnv("CBR_ENDPOINT", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		RatesTimeout:       getDuration("RATES_TIMEOUT", 10*time.Second),
	}

	if config.EmailEnabled && config.SMTPUser == "" {
		return nil, fmt.Errorf("SMTP_USER is required when EMAIL_SENDER_ENABLED is set")
	}

	return config, nil
}

// DSN строка подключения к PostgreSQL
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logrus.Warnf("Некорректное значение %s=%q, используется %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		logrus.Warnf("Некорректное значение %s=%q, используется %t", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		logrus.Warnf("Некорректное значение %s=%q, используется %s", key, raw, defaultValue)
		return defaultValue
	}
	return v
}
