package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "http://localhost:3000/api/vscode", cfg.APIBaseURL)
	assert.Equal(t, "http://localhost:3000", cfg.WebBaseURL)
	assert.Equal(t, DefaultPageLimit, cfg.PageLimit)
	assert.Equal(t, 20, cfg.PageLimit)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.NotEmpty(t, cfg.DBPath)
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"API_BASE_URL":            "https://api.snipcity.dev/api/vscode/",
		"WEB_BASE_URL":            "https://snipcity.dev",
		"SNIPCITY_DB_PATH":        "/tmp/s.db",
		"SNIPCITY_PAGE_LIMIT":     "50",
		"SNIPCITY_CALLBACK_ADDR":  "127.0.0.1:7777",
		"SNIPCITY_HTTP_TIMEOUT":   "3s",
		"SNIPCITY_SIGNIN_TIMEOUT": "1m",
		"LOG_LEVEL":               "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://api.snipcity.dev/api/vscode", cfg.APIBaseURL, "trailing slash trimmed")
	assert.Equal(t, "https://snipcity.dev", cfg.WebBaseURL)
	assert.Equal(t, "/tmp/s.db", cfg.DBPath)
	assert.Equal(t, 50, cfg.PageLimit)
	assert.Equal(t, "127.0.0.1:7777", cfg.CallbackAddr)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Minute, cfg.SignInTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestFromLookup_BlankValuesKeepDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"API_BASE_URL":        "  ",
		"SNIPCITY_PAGE_LIMIT": "",
	}))
	require.NoError(t, err)

	assert.Equal(t, Defaults().APIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, DefaultPageLimit, cfg.PageLimit)
}

func TestFromLookup_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "non-numeric page limit", env: map[string]string{"SNIPCITY_PAGE_LIMIT": "lots"}},
		{name: "zero page limit", env: map[string]string{"SNIPCITY_PAGE_LIMIT": "0"}},
		{name: "negative page limit", env: map[string]string{"SNIPCITY_PAGE_LIMIT": "-5"}},
		{name: "bad http timeout", env: map[string]string{"SNIPCITY_HTTP_TIMEOUT": "soon"}},
		{name: "zero sign-in timeout", env: map[string]string{"SNIPCITY_SIGNIN_TIMEOUT": "0s"}},
		{name: "unknown log level", env: map[string]string{"LOG_LEVEL": "chatty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromLookup(lookupFrom(tt.env))
			assert.Error(t, err)
		})
	}
}
