package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingSessionSecret = errors.New("SESSION_SECRET is required")
	ErrMissingBackendURL    = errors.New("BACKEND_URL is required")
)

type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Session   SessionConfig
	Cache     CacheConfig
	JWT       JWTConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
	Logging   LoggingConfig
	Locale    LocaleConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

type BackendConfig struct {
	BaseURL       string
	Timeout       time.Duration
	UploadTimeout time.Duration
}

type SessionConfig struct {
	Secret string
	Name   string
	MaxAge time.Duration
	Secure bool
	// StoreLimit and StoreIdle bound the in-memory state kept per session,
	// independently of how long the cookie lives.
	StoreLimit int
	StoreIdle  time.Duration
}

type CacheConfig struct {
	TTL            time.Duration
	MaxEntries     int
	SweepInterval  time.Duration
	StaleRetention time.Duration
	RedisURL       string
}

// JWTConfig is optional. When Secret is empty tokens are only checked for
// shape and expiry since the backend owns the signing key.
type JWTConfig struct {
	Secret string
}

type WebSocketConfig struct {
	ReadBufferSize    int
	WriteBufferSize   int
	MaxMessageSize    int64
	WriteWait         time.Duration
	PongWait          time.Duration
	PingPeriod        time.Duration
	MaxConnPerSession int
}

type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type LocaleConfig struct {
	DefaultLanguage     string
	SupportedLanguages  []string
	DefaultCurrency     string
	FallbackCountryCode string
}

func Load() (*Config, error) {
	godotenv.Load()

	sessionSecret := getEnv("SESSION_SECRET", "")
	if sessionSecret == "" {
		return nil, ErrMissingSessionSecret
	}

	backendURL := strings.TrimRight(getEnv("BACKEND_URL", ""), "/")
	if backendURL == "" {
		return nil, ErrMissingBackendURL
	}

	durations := map[string]struct {
		key string
		def string
	}{
		"timeout":   {"BACKEND_TIMEOUT", "10s"},
		"upload":    {"BACKEND_UPLOAD_TIMEOUT", "60s"},
		"session":   {"SESSION_MAX_AGE", "720h"},
		"storeIdle": {"SESSION_STORE_IDLE", "2h"},
		"cacheTTL":  {"CACHE_TTL", "5m"},
		"sweep":     {"CACHE_SWEEP_INTERVAL", "1m"},
		"retention": {"CACHE_STALE_RETENTION", "1h"},
	}
	parsed := make(map[string]time.Duration, len(durations))
	for name, d := range durations {
		value, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		parsed[name] = value
	}

	server := ServerConfig{
		Port: getEnv("PORT", "8080"),
		Host: getEnv("HOST", "0.0.0.0"),
		Env:  getEnv("ENV", "development"),
	}

	return &Config{
		Server: server,
		Backend: BackendConfig{
			BaseURL:       backendURL,
			Timeout:       parsed["timeout"],
			UploadTimeout: parsed["upload"],
		},
		Session: SessionConfig{
			Secret: sessionSecret,
			Name:   getEnv("SESSION_NAME", "__session"),
			MaxAge: parsed["session"],
			Secure: getEnvAsBool("SESSION_SECURE", server.IsProduction()),

			StoreLimit: getEnvAsInt("SESSION_STORE_LIMIT", 10000),
			StoreIdle:  parsed["storeIdle"],
		},
		Cache: CacheConfig{
			TTL:            parsed["cacheTTL"],
			MaxEntries:     getEnvAsInt("CACHE_MAX_ENTRIES", 1000),
			SweepInterval:  parsed["sweep"],
			StaleRetention: parsed["retention"],
			RedisURL:       getEnv("REDIS_URL", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:    getEnvAsInt("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize:   getEnvAsInt("WS_WRITE_BUFFER_SIZE", 1024),
			MaxMessageSize:    int64(getEnvAsInt("WS_MAX_MESSAGE_SIZE", 65536)),
			WriteWait:         10 * time.Second,
			PongWait:          60 * time.Second,
			PingPeriod:        54 * time.Second,
			MaxConnPerSession: getEnvAsInt("WS_MAX_CONN_PER_SESSION", 5),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization,X-Language,X-Currency"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Locale: LocaleConfig{
			DefaultLanguage:     getEnv("DEFAULT_LANGUAGE", "es"),
			SupportedLanguages:  getEnvAsList("SUPPORTED_LANGUAGES", []string{"es", "en"}),
			DefaultCurrency:     getEnv("DEFAULT_CURRENCY", "MXN"),
			FallbackCountryCode: getEnv("FALLBACK_COUNTRY_CODE", "MX"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
