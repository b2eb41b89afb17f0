package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Gateway  GatewayConfig
	Backend  BackendConfig
	Rotation RotationConfig
	Routing  RoutingConfig
	Dedup    DedupConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// GatewayConfig holds the primary cloud messaging gateway credentials.
type GatewayConfig struct {
	BaseURL             string
	Token               string
	TextTimeoutSeconds  int
	ImageTimeoutSeconds int
}

// BackendConfig holds the license/balance backend connection values.
type BackendConfig struct {
	BaseURL               string
	APIKey                string
	UserAgent             string
	ProductTimeoutSeconds int
	BalanceTimeoutSeconds int
}

// RotationConfig selects the sales agent rotation state backend.
type RotationConfig struct {
	Backend   string // "file" or "redis"
	StateFile string
	RedisKey  string
}

// RoutingConfig holds the country routing table and fixed channel ids.
type RoutingConfig struct {
	GroupsFile        string
	DiamondsChannelID string
	ClientGroupLink   string
	SupportLink       string
}

// DedupConfig controls the anti-duplicate report window.
type DedupConfig struct {
	WindowMinutes int
	SweepMinutes  int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines admin endpoint authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-bot"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Gateway: GatewayConfig{
			BaseURL:             getEnv("GATEWAY_BASE_URL", "https://gate.whapi.cloud"),
			Token:               os.Getenv("GATEWAY_TOKEN"),
			TextTimeoutSeconds:  getEnvAsInt("GATEWAY_TEXT_TIMEOUT_SECONDS", 30),
			ImageTimeoutSeconds: getEnvAsInt("GATEWAY_IMAGE_TIMEOUT_SECONDS", 45),
		},
		Backend: BackendConfig{
			BaseURL:               getEnv("BACKEND_BASE_URL", "https://cubanhacks.com/api"),
			APIKey:                getEnv("BACKEND_API_KEY", "cuban_whapi_bot_2024"),
			UserAgent:             getEnv("BACKEND_USER_AGENT", "Cuban-WhatsApp-Bot/1.0"),
			ProductTimeoutSeconds: getEnvAsInt("BACKEND_PRODUCT_TIMEOUT_SECONDS", 20),
			BalanceTimeoutSeconds: getEnvAsInt("BACKEND_BALANCE_TIMEOUT_SECONDS", 15),
		},
		Rotation: RotationConfig{
			Backend:   getEnv("ROTATION_BACKEND", "file"),
			StateFile: getEnv("ROTATION_STATE_FILE", "vendedores-state.json"),
			RedisKey:  getEnv("ROTATION_REDIS_KEY", "rotation:state"),
		},
		Routing: RoutingConfig{
			GroupsFile:        getEnv("ROUTING_GROUPS_FILE", "grupos-paises.json"),
			DiamondsChannelID: getEnv("ROUTING_DIAMONDS_CHANNEL_ID", "120363421613700755@g.us"),
			ClientGroupLink:   getEnv("ROUTING_CLIENT_GROUP_LINK", "https://chat.whatsapp.com/Fa9LYiClTav3qRYopWmIs8"),
			SupportLink:       getEnv("ROUTING_SUPPORT_LINK", "https://t.me/cubanvipmod"),
		},
		Dedup: DedupConfig{
			WindowMinutes: getEnvAsInt("DEDUP_WINDOW_MINUTES", 30),
			SweepMinutes:  getEnvAsInt("DEDUP_SWEEP_MINUTES", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TextTimeout returns the gateway text send timeout.
func (g GatewayConfig) TextTimeout() time.Duration {
	return time.Duration(g.TextTimeoutSeconds) * time.Second
}

// ImageTimeout returns the gateway image send timeout.
func (g GatewayConfig) ImageTimeout() time.Duration {
	return time.Duration(g.ImageTimeoutSeconds) * time.Second
}

// Window returns the duplicate detection window duration.
func (d DedupConfig) Window() time.Duration {
	return time.Duration(d.WindowMinutes) * time.Minute
}

// SweepInterval returns the periodic dedup sweep interval.
func (d DedupConfig) SweepInterval() time.Duration {
	return time.Duration(d.SweepMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
