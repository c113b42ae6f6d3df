package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	JWTRefreshSecret       string
	AccessTokenTTL         time.Duration
	RefreshTokenTTL        time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	DashboardCacheTTL      time.Duration
	GradingProvider        string
	OpenRouterAPIKey       string
	OpenRouterModel        string
	OpenRouterURL          string
	GeminiAPIKey           string
	GeminiModel            string
	GradingMaxTokens       int
	GradingTimeout         time.Duration
	OCRPredictionURL       string
	OCRTimeout             time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and an
// optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CLASSLY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Classly API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("jwt.access_ttl", "1h")
	v.SetDefault("jwt.refresh_ttl", "168h")
	v.SetDefault("cloudinary.folder", "classly/artifacts")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("grading.provider", "openrouter")
	v.SetDefault("grading.max_tokens", 150)
	v.SetDefault("grading.timeout", "90s")
	v.SetDefault("ocr.timeout", "30s")

	accessTTL, err := time.ParseDuration(v.GetString("jwt.access_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid access token ttl: %w", err)
	}

	refreshTTL, err := time.ParseDuration(v.GetString("jwt.refresh_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid refresh token ttl: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("dashboard.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	gradingTimeout, err := time.ParseDuration(v.GetString("grading.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid grading timeout: %w", err)
	}

	ocrTimeout, err := time.ParseDuration(v.GetString("ocr.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ocr timeout: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTRefreshSecret:       v.GetString("jwt.refresh_secret"),
		AccessTokenTTL:         accessTTL,
		RefreshTokenTTL:        refreshTTL,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		DashboardCacheTTL:      cacheTTL,
		GradingProvider:        strings.ToLower(v.GetString("grading.provider")),
		OpenRouterAPIKey:       v.GetString("openrouter.api_key"),
		OpenRouterModel:        v.GetString("openrouter.model"),
		OpenRouterURL:          v.GetString("openrouter.url"),
		GeminiAPIKey:           v.GetString("gemini.api_key"),
		GeminiModel:            v.GetString("gemini.model"),
		GradingMaxTokens:       v.GetInt("grading.max_tokens"),
		GradingTimeout:         gradingTimeout,
		OCRPredictionURL:       v.GetString("ocr.prediction_url"),
		OCRTimeout:             ocrTimeout,
	}

	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("jwt secrets must be provided")
	}

	if cfg.GradingMaxTokens <= 0 {
		cfg.GradingMaxTokens = 150
	}

	return cfg, nil
}
