package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	ManifestFile       string // path to an external services.yaml (optional, empty = embedded manifest)
	StrictServiceCalls bool   // true => reject unexpected fields in service calls

	// Baby Buddy upstream
	BabyBuddyHost    string        // ex: "http://babybuddy.local"
	BabyBuddyPort    int           // ex: 8000
	BabyBuddyAPIKey  string        // API token
	BabyBuddyTimeout time.Duration // per-request timeout (default: 10s)

	RefreshInterval time.Duration // interval to poll children from upstream (default: 1m)
	GCInterval      time.Duration // interval to run garbage collection (default: 24h)
	GCThreshold     time.Duration // delete children disabled longer than this (default: 30d)

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	// Rate limiting on write endpoints
	RateLimitBurst  int // max burst per IP
	RateLimitPerMin int // sustained calls per IP per minute
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("CRADLE_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("CRADLE_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("CRADLE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("CRADLE_PRETTY_LOG", true),

		// Service manifest
		ManifestFile:       getenv("CRADLE_MANIFEST_FILE", ""),
		StrictServiceCalls: mustBool("CRADLE_STRICT_SERVICE_CALLS", true),

		// Baby Buddy upstream
		BabyBuddyHost:    requireEnv("CRADLE_BABYBUDDY_HOST"),
		BabyBuddyPort:    getenvInt("CRADLE_BABYBUDDY_PORT", 8000),
		BabyBuddyAPIKey:  requireEnv("CRADLE_BABYBUDDY_API_KEY"),
		BabyBuddyTimeout: mustDuration("CRADLE_BABYBUDDY_TIMEOUT", 10*time.Second),

		RefreshInterval: mustDuration("CRADLE_REFRESH_INTERVAL", time.Minute),
		GCInterval:      mustDuration("CRADLE_GC_INTERVAL", 24*time.Hour),
		GCThreshold:     mustDuration("CRADLE_GC_THRESHOLD", 30*24*time.Hour),

		// Redis settings
		RedisAddr:             requireEnv("CRADLE_REDIS_ADDR"),
		RedisUser:             getenv("CRADLE_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("CRADLE_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("CRADLE_REDIS_PASSWORD", ""),
		RedisDB:               requireEnvInt("CRADLE_REDIS_DB"),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("CRADLE_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("CRADLE_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("CRADLE_TRUST_PROXY", true),

		// Rate limiting
		RateLimitBurst:  getenvInt("CRADLE_RATE_LIMIT_BURST", 20),
		RateLimitPerMin: getenvInt("CRADLE_RATE_LIMIT_PER_MIN", 60),
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: CRADLE_REDIS_PASSWORD is required when CRADLE_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		cfgCopy.BabyBuddyAPIKey = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
