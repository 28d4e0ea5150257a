package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	GRPC     GRPCConfig
	Worker   WorkerConfig
	Backend  BackendConfig
	Sync     SyncConfig
	Routing  RoutingConfig
	Status   StatusConfig
	Redis    RedisConfig
	Analysis AnalysisConfig
	DB       DatabaseConfig
	Logging  LoggingConfig
	Tracing  TracingConfig
}

type GRPCConfig struct {
	Port int
}

type ServerConfig struct {
	Host         string
	Port         int
	RateLimitRPS int
	LayersDir    string
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

// BackendConfig points at the shelter CRUD API.
type BackendConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type SyncConfig struct {
	Enabled  bool
	Interval time.Duration
}

type RoutingConfig struct {
	URL        string
	Debounce   time.Duration
	Timeout    time.Duration
	SessionTTL time.Duration
}

type StatusConfig struct {
	Backend string // sqlite | redis
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AnalysisConfig struct {
	CoverageRadiusM float64
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

type TracingConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS: getEnvInt("RATE_LIMIT_RPS", 10),
			LayersDir:    getEnv("LAYERS_DIR", "./data/layers"),
		},
		GRPC: GRPCConfig{
			Port: getEnvInt("GRPC_PORT", 50051),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 20),
		},
		Backend: BackendConfig{
			URL:     getEnv("BACKEND_URL", "http://localhost:8000/api"),
			Token:   getEnv("BACKEND_TOKEN", ""),
			Timeout: getEnvDuration("BACKEND_TIMEOUT", 15*time.Second),
		},
		Sync: SyncConfig{
			Enabled:  getEnvBool("SYNC_ENABLED", true),
			Interval: getEnvDuration("SYNC_INTERVAL", 5*time.Minute),
		},
		Routing: RoutingConfig{
			URL:        getEnv("ROUTING_URL", "https://router.project-osrm.org"),
			Debounce:   getEnvDuration("ROUTING_DEBOUNCE", 800*time.Millisecond),
			Timeout:    getEnvDuration("ROUTING_TIMEOUT", 15*time.Second),
			SessionTTL: getEnvDuration("NAV_SESSION_TTL", 30*time.Minute),
		},
		Status: StatusConfig{
			Backend: getEnv("STATUS_BACKEND", "sqlite"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Analysis: AnalysisConfig{
			CoverageRadiusM: getEnvFloat("COVERAGE_RADIUS_M", 2000),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/siaga-merapi.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Tracing: TracingConfig{
			Enabled: getEnvBool("TRACING_ENABLED", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("rate limit must be at least 1 request per second")
	}
	if c.Sync.Enabled && c.Sync.Interval < time.Minute {
		return fmt.Errorf("sync interval must be at least 1 minute")
	}
	if c.Routing.Debounce < 0 {
		return fmt.Errorf("routing debounce must not be negative")
	}
	if c.Routing.Timeout <= 0 {
		return fmt.Errorf("routing timeout must be positive")
	}
	if c.Routing.SessionTTL < time.Minute {
		return fmt.Errorf("navigation session TTL must be at least 1 minute")
	}
	if c.Status.Backend != "sqlite" && c.Status.Backend != "redis" {
		return fmt.Errorf("invalid status backend: %s", c.Status.Backend)
	}
	if c.Analysis.CoverageRadiusM <= 0 {
		return fmt.Errorf("coverage radius must be positive")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
