package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "STORE_DRIVER", "SEARCH_DEBOUNCE", "REDIS_DB", "TIMEZONE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, StoreMySQL, cfg.StoreDriver)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, time.Local, cfg.Location())
	assert.False(t, cfg.GoogleEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_DRIVER", StoreBadger)
	t.Setenv("SEARCH_DEBOUNCE", "150ms")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, StoreBadger, cfg.StoreDriver)
	assert.Equal(t, 150*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "UTC", cfg.Location().String())
	assert.True(t, cfg.GoogleEnabled())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("SEARCH_DEBOUNCE", "-5s")
	t.Setenv("TIMEZONE", "Mars/Olympus")

	cfg := Load()

	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, time.Local, cfg.Location())
}
