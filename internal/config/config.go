package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const defaultSecret = "your-secret-key-change-in-production"

// Config 应用配置
type Config struct {
	Env         string
	AppSecret   string
	DatabaseURL string
	SessionTTL  time.Duration
	Port        string
	SiteName    string
	SiteUrl     string
	LogLevel    string

	TMDB TMDBConfig
}

// TMDBConfig 外部电影数据 API 配置
type TMDBConfig struct {
	APIKey         string // 客户端直连使用的凭证，为空时直接返回 mock 数据
	ProxyAPIKey    string // 代理端点持有的凭证
	BaseURL        string
	ImageBaseURL   string
	ProxyURL       string // 同源代理的站点根地址，为空时跳过代理阶段
	RequestTimeout time.Duration
	ProxyTimeout   time.Duration
	RetryMax       int
	RetryBaseDelay time.Duration
}

// Load 加载配置
func Load() *Config {
	ttlHours := getEnvInt("SESSION_TTL_HOURS", 24*7)

	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "movie")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	appSecret := getEnv("APP_SECRET", getEnv("JWT_SECRET", defaultSecret))
	if getEnv("APP_ENV", "development") == "production" && appSecret == defaultSecret {
		fmt.Println("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	port := getEnv("PORT", "5005")
	siteURL := getEnv("SITE_URL", "http://localhost:"+port)
	apiKey := getEnv("TMDB_API_KEY", "")

	return &Config{
		Env:         getEnv("APP_ENV", "development"),
		AppSecret:   appSecret,
		DatabaseURL: dbURL,
		SessionTTL:  time.Duration(ttlHours) * time.Hour,
		Port:        port,
		SiteName:    getEnv("SITE_NAME", "Movie Explorer"),
		SiteUrl:     siteURL,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		TMDB: TMDBConfig{
			APIKey:         apiKey,
			ProxyAPIKey:    getEnv("TMDB_PROXY_API_KEY", apiKey),
			BaseURL:        getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
			ImageBaseURL:   getEnv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p"),
			ProxyURL:       getEnv("TMDB_PROXY_URL", siteURL),
			RequestTimeout: time.Duration(getEnvInt("TMDB_TIMEOUT_SECONDS", 10)) * time.Second,
			ProxyTimeout:   time.Duration(getEnvInt("TMDB_PROXY_TIMEOUT_SECONDS", 5)) * time.Second,
			RetryMax:       getEnvInt("TMDB_RETRY_MAX", 3),
			RetryBaseDelay: time.Duration(getEnvInt("TMDB_RETRY_BASE_MS", 300)) * time.Millisecond,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}
