// Package config loads runtime settings for the SnipCity client.
//
// SOURCES & PRECEDENCE:
//  1. Built-in defaults (see Defaults)
//  2. A ".env" file in the working directory, if present (godotenv)
//  3. Real environment variables, which win over .env, because
//     godotenv.Load never overwrites a variable that is already set
//
// SUPPORTED VARIABLES:
//
//	API_BASE_URL             base URL of the snippets REST API
//	WEB_BASE_URL             base URL of the SnipCity website (sign-in, "view on web")
//	SNIPCITY_DB_PATH         SQLite file holding the session
//	SNIPCITY_PAGE_LIMIT      snippets per page (positive integer)
//	SNIPCITY_CALLBACK_ADDR   loopback address for the sign-in callback listener
//	SNIPCITY_HTTP_TIMEOUT    per-request timeout for API calls (Go duration)
//	SNIPCITY_SIGNIN_TIMEOUT  how long to wait for the browser handoff
//	LOG_LEVEL                debug | info | warn | error
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultPageLimit is the page size used by the sidebar list.
// It lives here, not at call sites, so every list request agrees.
const DefaultPageLimit = 20

// Config holds everything main needs to wire the client together.
type Config struct {
	APIBaseURL    string
	WebBaseURL    string
	DBPath        string
	PageLimit     int
	CallbackAddr  string
	HTTPTimeout   time.Duration
	SignInTimeout time.Duration
	LogLevel      slog.Level
}

// Defaults returns the configuration used when nothing is set.
// The session database goes under the OS user config dir
// (~/.config/snipcity on Linux) and falls back to the working directory.
func Defaults() Config {
	dbPath := filepath.Join("data", "session.db")
	if dir, err := os.UserConfigDir(); err == nil {
		dbPath = filepath.Join(dir, "snipcity", "session.db")
	}

	return Config{
		APIBaseURL:    "http://localhost:3000/api/vscode",
		WebBaseURL:    "http://localhost:3000",
		DBPath:        dbPath,
		PageLimit:     DefaultPageLimit,
		CallbackAddr:  "127.0.0.1:0",
		HTTPTimeout:   15 * time.Second,
		SignInTimeout: 5 * time.Minute,
		LogLevel:      slog.LevelWarn,
	}
}

// Load applies .env and the environment on top of Defaults.
// A malformed value is an error rather than a silent fallback. A typo in
// SNIPCITY_PAGE_LIMIT should not quietly turn into 20.
func Load() (Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary variable source.
// Load uses os.LookupEnv; tests pass a map.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("API_BASE_URL"); ok {
		cfg.APIBaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := get("WEB_BASE_URL"); ok {
		cfg.WebBaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := get("SNIPCITY_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := get("SNIPCITY_CALLBACK_ADDR"); ok {
		cfg.CallbackAddr = v
	}

	if v, ok := get("SNIPCITY_PAGE_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("config: SNIPCITY_PAGE_LIMIT must be a positive integer, got %q", v)
		}
		cfg.PageLimit = n
	}

	var err error
	if cfg.HTTPTimeout, err = durationVar(get, "SNIPCITY_HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SignInTimeout, err = durationVar(get, "SNIPCITY_SIGNIN_TIMEOUT", cfg.SignInTimeout); err != nil {
		return Config{}, err
	}

	if v, ok := get("LOG_LEVEL"); ok {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("config: LOG_LEVEL: %w", err)
		}
	}

	return cfg, nil
}

func durationVar(get func(string) (string, bool), key string, def time.Duration) (time.Duration, error) {
	v, ok := get(key)
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive duration like \"15s\", got %q", key, v)
	}
	return d, nil
}
