package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_DRIVER", "AUTOSAVE_WINDOW", "AUTOSAVE_ATTEMPTS", "DRAFT_MAX_AGE", "REDIS_URL"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, time.Second, cfg.AutosaveWindow)
	assert.Equal(t, 3, cfg.AutosaveAttempts)
	assert.Equal(t, 720*time.Hour, cfg.DraftMaxAge)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("AUTOSAVE_WINDOW", "250ms")
	t.Setenv("AUTOSAVE_ATTEMPTS", "5")
	t.Setenv("DRAFT_MAX_AGE", "not-a-duration")

	cfg := Load()
	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.AutosaveWindow)
	assert.Equal(t, 5, cfg.AutosaveAttempts)
	assert.Equal(t, 720*time.Hour, cfg.DraftMaxAge, "invalid values fall back to the default")
}
