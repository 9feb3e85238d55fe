package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Root      string // project directory holding config.yml / config/ (ex: ".")
	OutputDir string // output directory, relative to Root unless absolute (ex: "dist")

	IgnoreEnvOverrides bool // skip MENAV_SET_* layer (--no-env)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Preview server
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RebuildInterval time.Duration // periodic rebuild, 0 = disabled
	Watch           bool          // rebuild on config/template/asset changes
	WatchDebounce   time.Duration // quiet period before a watched change triggers a rebuild
	GCInterval      time.Duration // stale output cleanup, 0 = disabled

	SearchBurst        int // token bucket size per client IP
	SearchRefillPerMin int // tokens refilled per minute

	AllowedCIDRS []string // restrict POST /reload to these networks (empty = loopback only)
	AllowedHosts []string // optional, restrict POST /reload to specific Host headers (ex: "nav.example.com,*.lan")
	TrustProxy   bool     // true => trust X-Forwarded-For headers

	// Redis build cache (optional, empty addr = disabled)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
}

// Load reads the MENAV_* environment. It never fails; call Validate before use.
func Load() *Config {
	return &Config{
		Root:      getenv("MENAV_ROOT", "."),
		OutputDir: getenv("MENAV_OUTPUT_DIR", "dist"),

		// Logging
		LogLevel:  getenv("MENAV_LOG_LEVEL", "info"),
		PrettyLog: mustBool("MENAV_PRETTY_LOG", true),

		// Server settings
		ListenPort:      getenv("MENAV_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("MENAV_SHUTDOWN_TIMEOUT", 5*time.Second),
		RebuildInterval: mustDuration("MENAV_REBUILD_INTERVAL", 0),
		Watch:           mustBool("MENAV_WATCH", false),
		WatchDebounce:   mustDuration("MENAV_WATCH_DEBOUNCE", 500*time.Millisecond),
		GCInterval:      mustDuration("MENAV_GC_INTERVAL", time.Hour),

		SearchBurst:        getenvInt("MENAV_SEARCH_BURST", 30),
		SearchRefillPerMin: getenvInt("MENAV_SEARCH_REFILL_PER_MIN", 60),

		// Access restrictions
		AllowedCIDRS: parseAllowedIPs(getenv("MENAV_ALLOWED_CIDRS", "")),
		AllowedHosts: splitAndTrim(getenv("MENAV_ALLOWED_HOSTS", "")),
		TrustProxy:   mustBool("MENAV_TRUST_PROXY", false),

		// Redis settings
		RedisAddr:           getenv("MENAV_REDIS_ADDR", ""),
		RedisUser:           getenv("MENAV_REDIS_USERNAME", ""),
		RedisPassword:       getenv("MENAV_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("MENAV_REDIS_DB", 0),
		RedisDT:             mustDuration("MENAV_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("MENAV_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("MENAV_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("MENAV_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("MENAV_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("MENAV_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("MENAV_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("MENAV_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("MENAV_REDIS_WARN_THRESHOLD", 3),
	}
}

// RedisEnabled reports whether a build cache address is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// Validate checks the values Load could not reject on its own.
func (c *Config) Validate() error {
	var errs []error

	if c.Root == "" {
		errs = append(errs, errors.New("root directory must not be empty"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output directory must not be empty"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q", c.LogLevel))
	}
	if c.RebuildInterval < 0 {
		errs = append(errs, fmt.Errorf("rebuild interval must not be negative, got %s", c.RebuildInterval))
	}
	if c.GCInterval < 0 {
		errs = append(errs, fmt.Errorf("gc interval must not be negative, got %s", c.GCInterval))
	}
	if c.SearchBurst <= 0 || c.SearchRefillPerMin <= 0 {
		errs = append(errs, fmt.Errorf("search rate limit must be positive, got burst=%d refill=%d",
			c.SearchBurst, c.SearchRefillPerMin))
	}
	for _, cidr := range c.AllowedCIDRS {
		if _, err := netip.ParsePrefix(cidr); err != nil {
			if _, err := netip.ParseAddr(cidr); err != nil {
				errs = append(errs, fmt.Errorf("invalid CIDR or IP %q", cidr))
			}
		}
	}
	for _, host := range c.AllowedHosts {
		if strings.ContainsAny(host, "/ ") || strings.Count(host, "*") > 1 ||
			(strings.Contains(host, "*") && !strings.HasPrefix(host, "*.")) {
			errs = append(errs, fmt.Errorf("invalid allowed host %q", host))
		}
	}
	if c.RedisEnabled() && c.RedisDB < 0 {
		errs = append(errs, fmt.Errorf("invalid redis db %d", c.RedisDB))
	}

	return errors.Join(errs...)
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
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
