package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesLayerOverDefaults(t *testing.T) {
	require.NoError(t, Load())
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "app.json")
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"search_radius_km": 5, "checkout_enforce_radius": true, "app_port": "9000"}`), 0o600))
	require.NoError(t, os.WriteFile(envPath, []byte("# local\nAPP_PORT=7000\nJWT_SECRET=\"from-dotenv\"\n"), 0o600))

	t.Cleanup(func() {
		mu.Lock()
		values = defaultValues()
		mu.Unlock()
	})
	require.NoError(t, loadFromFiles(jsonPath, envPath))

	assert.Equal(t, 5.0, SearchRadiusKm())
	assert.True(t, CheckoutEnforceRadius())
	assert.Equal(t, "7000", AppPort())
	assert.Equal(t, "from-dotenv", JWTSecret())
	assert.Equal(t, 24*time.Hour, IdempotencyTTL())
}

func TestMissingFilesAreIgnored(t *testing.T) {
	t.Cleanup(func() {
		mu.Lock()
		values = defaultValues()
		mu.Unlock()
	})
	dir := t.TempDir()
	assert.NoError(t, loadFromFiles(filepath.Join(dir, "none.json"), filepath.Join(dir, ".env")))
}

func TestEnvironmentWins(t *testing.T) {
	Set("RATE_LIMIT_PER_MINUTE", "50")
	t.Cleanup(func() { Set("RATE_LIMIT_PER_MINUTE", "200") })
	t.Setenv("RATE_LIMIT_PER_MINUTE", "75")
	assert.Equal(t, 75, RateLimitPerMinute())
}

func TestTypedGetters(t *testing.T) {
	t.Setenv("SEARCH_CACHE_TTL", "90")
	assert.Equal(t, 90*time.Second, SearchCacheTTL())

	t.Setenv("SEARCH_CACHE_TTL", "2m")
	assert.Equal(t, 2*time.Minute, SearchCacheTTL())

	t.Setenv("SEARCH_CACHE_TTL", "soon")
	assert.Equal(t, 30*time.Second, SearchCacheTTL())

	t.Setenv("QUEUE_WORKERS", "many")
	assert.Equal(t, 2, QueueWorkers())

	t.Setenv("DB_DRIVER", "oracle")
	assert.Equal(t, "sqlite", DatabaseDriver())
}
