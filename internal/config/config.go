package config

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	StoreAPIURL     string
	StoreAPITimeout time.Duration
	CheckoutTTL     time.Duration
	CSRFKey         []byte
	SessionKey      []byte
	CookieDomain    string
	CookieSecure    bool
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8585"),
		StoreAPIURL:     getEnv("STORE_API_URL", "http://localhost:8000"),
		StoreAPITimeout: getDuration("STORE_API_TIMEOUT", 10*time.Second),
		CheckoutTTL:     getDuration("CHECKOUT_TTL", 30*time.Minute),
		CookieDomain:    getEnv("COOKIE_DOMAIN", ""),
		CookieSecure:    getEnv("COOKIE_SECURE", "false") == "true",
	}

	// CSRF Key (critical for security)
	cfg.CSRFKey = loadKey("CSRF_KEY")
	// Session Key (critical for security)
	cfg.SessionKey = loadKey("SESSION_KEY")

	// Make sure port is valid
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		slog.Error("Invalid PORT environment variable. Falling back to default.", "PORT", os.Getenv("PORT"))
		cfg.Port = "8585"
	}

	// The backend URL must parse; everything else in this service is
	// built around calling it.
	if _, err := url.Parse(cfg.StoreAPIURL); err != nil {
		slog.Error("Invalid STORE_API_URL", "STORE_API_URL", cfg.StoreAPIURL, "error", err)
		return nil, err
	}

	return cfg, nil
}

// loadKey reads a base64 key from the environment, generating a random one
// for development when missing or invalid.
func loadKey(name string) []byte {
	keyStr := os.Getenv(name)
	if keyStr == "" {
		slog.Warn(name + " environment variable not set. Generating a random key for development. This key will change on each restart. PLEASE SET " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	decodedKey, err := base64.StdEncoding.DecodeString(keyStr)
	if err != nil || len(decodedKey) < 32 {
		slog.Warn(name + " is invalid or too short (min 32 bytes recommended). Generating a random key for development. PLEASE SET A SECURE " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	return decodedKey
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}

// generateRandomBytes generates a random byte slice of specified length
// Uses crypto/rand for secure random numbers.
func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil { // Use crypto/rand
		slog.Error("Failed to read random bytes", "error", err)
		// Fallback to a less secure random string if crypto/rand fails
		// This fallback is only for panic prevention, not for production use
		fallbackKey := "fallback-insecure-key-" + strconv.FormatInt(time.Now().UnixNano(), 10)
		// Ensure the fallback key is at least n bytes long
		if len(fallbackKey) < n {
			paddedKey := make([]byte, n)
			copy(paddedKey, fallbackKey)
			return paddedKey
		}
		return []byte(fallbackKey)[:n]
	}
	return b
}
