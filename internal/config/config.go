package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Data backends.
const (
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
	BackendSupabase = "supabase"
	BackendRedis    = "redis"
)

// Blob backends.
const (
	BlobLocal = "local"
	BlobS3    = "s3"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port               int
	LogLevel           string
	CORSAllowedOrigins []string

	// Storage
	DataBackend     string
	SQLitePath      string
	SeedDemoData    bool
	SupabaseURL     string
	SupabaseAnonKey string
	SupabaseService string
	SupabaseKVTable string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisNamespace  string

	// Documents
	BlobBackend          string
	BlobDir              string
	S3Endpoint           string
	S3Region             string
	S3Bucket             string
	S3AccessKey          string
	S3SecretKey          string
	S3UsePathStyle       bool
	MaxUploadBytes       int64
	MaxConcurrentUploads int

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Auth
	AuthEnabled         bool
	JWTSecret           string
	JWTAccessTTL        time.Duration
	ManagerPasswordHash string
	ViewerPasswordHash  string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return LoadWith(os.Getenv)
}

// LoadWith reads configuration through getenv, so callers can layer other
// sources (flags, config files) over the environment.
func LoadWith(getenv func(string) string) *Config {
	e := lookup(getenv)
	return &Config{
		Port:               e.getEnvInt("PORT", 8080),
		LogLevel:           e.getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: e.getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		DataBackend:     strings.ToLower(e.getEnv("DATA_BACKEND", BackendSQLite)),
		SQLitePath:      e.getEnv("SQLITE_PATH", "mgm.db"),
		SeedDemoData:    e.getEnvBool("SEED_DEMO_DATA", false),
		SupabaseURL:     e.getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey: e.getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseService: e.getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseKVTable: e.getEnv("SUPABASE_KV_TABLE", "mgm_kv"),
		RedisAddr:       e.getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   e.getEnv("REDIS_PASSWORD", ""),
		RedisDB:         e.getEnvInt("REDIS_DB", 0),
		RedisNamespace:  e.getEnv("REDIS_NAMESPACE", "mgm:"),

		BlobBackend:          strings.ToLower(e.getEnv("BLOB_BACKEND", BlobLocal)),
		BlobDir:              e.getEnv("BLOB_DIR", "data/blobs"),
		S3Endpoint:           e.getEnv("S3_ENDPOINT", ""),
		S3Region:             e.getEnv("S3_REGION", "us-east-1"),
		S3Bucket:             e.getEnv("S3_BUCKET", "mgm-documentos"),
		S3AccessKey:          e.getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:          e.getEnv("S3_SECRET_KEY", ""),
		S3UsePathStyle:       e.getEnvBool("S3_USE_PATH_STYLE", true),
		MaxUploadBytes:       int64(e.getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		MaxConcurrentUploads: e.getEnvInt("MAX_CONCURRENT_UPLOADS", 4),

		HTTPTimeout: e.getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     e.getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: e.getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),

		CacheTTL: e.getEnvDuration("CACHE_TTL", 30*time.Second),

		OTLPEndpoint: e.getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		AuthEnabled:         e.getEnvBool("AUTH_ENABLED", false),
		JWTSecret:           e.getEnv("JWT_SECRET", "mgm-default-dev-secret-change-me"),
		JWTAccessTTL:        e.getEnvDuration("JWT_ACCESS_TTL", 12*time.Hour),
		ManagerPasswordHash: e.getEnv("GESTOR_PASSWORD_HASH", ""),
		ViewerPasswordHash:  e.getEnv("CONSULTA_PASSWORD_HASH", ""),
	}
}

// Validate rejects combinations that cannot start.
func (c *Config) Validate() error {
	switch c.DataBackend {
	case BackendSQLite, BackendMemory, BackendRedis:
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return fmt.Errorf("DATA_BACKEND=supabase requires SUPABASE_URL and SUPABASE_ANON_KEY")
		}
	default:
		return fmt.Errorf("unknown DATA_BACKEND %q", c.DataBackend)
	}

	switch c.BlobBackend {
	case BlobLocal, BlobS3:
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend)
	}

	if c.AuthEnabled && c.ManagerPasswordHash == "" {
		return fmt.Errorf("AUTH_ENABLED=true requires GESTOR_PASSWORD_HASH")
	}
	return nil
}

type lookup func(string) string

func (e lookup) getEnv(key, fallback string) string {
	if v := e(key); v != "" {
		return v
	}
	return fallback
}

func (e lookup) getEnvInt(key string, fallback int) int {
	if v := e(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func (e lookup) getEnvBool(key string, fallback bool) bool {
	if v := e(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value; "none" yields an empty list.
func (e lookup) getEnvList(key string, fallback []string) []string {
	v := strings.TrimSpace(e(key))
	if v == "" {
		return fallback
	}
	if strings.EqualFold(v, "none") {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (e lookup) getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := e(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
