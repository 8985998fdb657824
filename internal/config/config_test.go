package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapEnv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadWithDefaults(t *testing.T) {
	cfg := LoadWith(mapEnv(nil))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, BackendSQLite, cfg.DataBackend)
	assert.Equal(t, "mgm.db", cfg.SQLitePath)
	assert.Equal(t, "mgm_kv", cfg.SupabaseKVTable)
	assert.Equal(t, BlobLocal, cfg.BlobBackend)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 4, cfg.MaxConcurrentUploads)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 12*time.Hour, cfg.JWTAccessTTL)
	assert.False(t, cfg.SeedDemoData)
	assert.False(t, cfg.AuthEnabled)
	assert.True(t, cfg.S3UsePathStyle)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoadWithOverrides(t *testing.T) {
	cfg := LoadWith(mapEnv(map[string]string{
		"PORT":                 "9090",
		"DATA_BACKEND":         "Redis",
		"REDIS_DB":             "2",
		"SEED_DEMO_DATA":       "true",
		"CACHE_TTL":            "1m",
		"MAX_RETRIES":          "not-a-number",
		"CORS_ALLOWED_ORIGINS": "https://mgm.example.com, http://localhost:3000,",
	}))

	assert.Equal(t, []string{"https://mgm.example.com", "http://localhost:3000"}, cfg.CORSAllowedOrigins)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, BackendRedis, cfg.DataBackend)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.True(t, cfg.SeedDemoData)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestValidate(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":      {"DATA_BACKEND": "mongo"},
		"supabase without url": {"DATA_BACKEND": "supabase"},
		"unknown blob backend": {"BLOB_BACKEND": "ftp"},
		"auth without hash":    {"AUTH_ENABLED": "true"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, LoadWith(mapEnv(env)).Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nMGM_TEST_A=1\nexport MGM_TEST_B=\"two\"\nbroken line\nMGM_TEST_C=from-file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("MGM_TEST_C", "from-env")

	require.NoError(t, LoadDotEnv(path))
	t.Cleanup(func() {
		os.Unsetenv("MGM_TEST_A")
		os.Unsetenv("MGM_TEST_B")
	})

	assert.Equal(t, "1", os.Getenv("MGM_TEST_A"))
	assert.Equal(t, "two", os.Getenv("MGM_TEST_B"))
	assert.Equal(t, "from-env", os.Getenv("MGM_TEST_C"))

	assert.Error(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
