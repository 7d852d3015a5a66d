package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// AppConfig holds file and environment driven configuration values.
// Secrets never have defaults in code and must come from the config file or the environment.
type AppConfig struct {
	AppPort            string
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Filtering
	MaxInputBytes   int
	UGCPass         bool
	CacheTTLSeconds int
	LRUSize         int
	AuditSampleSize int
	// Redis result cache; disabled when RedisHost is empty
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// MySQL audit trail; disabled when neither DatabaseURI nor DBHost is set
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Admin API; disabled unless JWTSecret and AdminPasswordHash are set
	JWTSecret         string
	JWTTTLMinutes     int
	AdminUsername     string
	AdminPasswordHash string
	// Failed admin logins per IP within an hour before a temporary ban
	AdminMaxFailures int
	AdminBanMinutes  int
}

// RedisEnabled reports whether a redis host is configured.
func (c AppConfig) RedisEnabled() bool {
	return c.RedisHost != ""
}

// DatabaseEnabled reports whether an audit database is configured.
func (c AppConfig) DatabaseEnabled() bool {
	return c.DatabaseURI != "" || c.DBHost != ""
}

// AdminEnabled reports whether admin tokens can be issued and verified.
func (c AppConfig) AdminEnabled() bool {
	return c.JWTSecret != "" && c.AdminPasswordHash != ""
}

// DefaultPath is the config file read when HTMLFILTER_CONFIG is unset.
var DefaultPath = filepath.Join("config", "config.json")

var (
	cfg    AppConfig
	loaded bool
	mu     sync.RWMutex
)

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return cfg
	}

	// Precedence: config file -> defaults -> environment variable overrides
	path := getEnv("HTMLFILTER_CONFIG", DefaultPath)
	var c AppConfig
	if err := loadJSONConfig(path, &c); err != nil {
		log.Printf("ignoring invalid config file %s: %v", path, err)
	}
	applyDefaults(&c)
	applyEnvOverrides(&c)

	cfg = c
	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	mu.RLock()
	if loaded {
		defer mu.RUnlock()
		return cfg
	}
	mu.RUnlock()
	return Load()
}

// Set replaces the cached configuration. Zero values are filled with defaults.
func Set(c AppConfig) {
	applyDefaults(&c)
	mu.Lock()
	cfg = c
	loaded = true
	mu.Unlock()
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads the JSON file into out if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if s, ok := m[key].(string); ok {
			return s
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		switch t := m[key].(type) {
		case float64:
			return int(t)
		case string:
			i, _ := strconv.Atoi(t)
			return i
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		b, _ := m[key].(bool)
		return b
	}
	getStringSlice := func(m map[string]any, key string) []string {
		arr, ok := m[key].([]any)
		if !ok {
			return nil
		}
		res := make([]string, 0, len(arr))
		for _, it := range arr {
			if s, ok := it.(string); ok {
				res = append(res, s)
			}
		}
		return res
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.RateLimitPerMinute = getInt(app, "RateLimitPerMinute")
		out.AllowedOrigins = getStringSlice(app, "AllowedOrigins")
	}

	if g, ok := raw["gin"].(map[string]any); ok {
		out.GinMode = getString(g, "Mode")
		out.GinPath = getString(g, "LogPath")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}

	if s, ok := raw["sanitizer"].(map[string]any); ok {
		out.MaxInputBytes = getInt(s, "MaxInputBytes")
		out.UGCPass = getBool(s, "UGCPass")
		out.CacheTTLSeconds = getInt(s, "CacheTTLSeconds")
		out.LRUSize = getInt(s, "LRUSize")
		out.AuditSampleSize = getInt(s, "AuditSampleSize")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if adm, ok := raw["admin"].(map[string]any); ok {
		out.JWTSecret = getString(adm, "JWTSecret")
		out.JWTTTLMinutes = getInt(adm, "JWTTTLMinutes")
		out.AdminUsername = getString(adm, "Username")
		out.AdminPasswordHash = getString(adm, "PasswordHash")
		out.AdminMaxFailures = getInt(adm, "MaxFailures")
		out.AdminBanMinutes = getInt(adm, "BanMinutes")
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 120
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MaxInputBytes == 0 {
		c.MaxInputBytes = 1 << 20
	}
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = 3600
	}
	if c.LRUSize == 0 {
		c.LRUSize = 4096
	}
	if c.AuditSampleSize == 0 {
		c.AuditSampleSize = 10
	}
	if c.RedisHost != "" && c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.DBHost != "" && c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.JWTTTLMinutes == 0 {
		c.JWTTTLMinutes = 60
	}
	if c.AdminUsername == "" {
		c.AdminUsername = "admin"
	}
	if c.AdminMaxFailures == 0 {
		c.AdminMaxFailures = 5
	}
	if c.AdminBanMinutes == 0 {
		c.AdminBanMinutes = 15
	}
}

func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		c.RateLimitPerMinute = parseInt(v, c.RateLimitPerMinute)
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("MAX_INPUT_BYTES", ""); v != "" {
		c.MaxInputBytes = parseInt(v, c.MaxInputBytes)
	}
	if v := getEnv("UGC_PASS", ""); v != "" {
		c.UGCPass = parseBool(v, c.UGCPass)
	}
	if v := getEnv("CACHE_TTL_SECONDS", ""); v != "" {
		c.CacheTTLSeconds = parseInt(v, c.CacheTTLSeconds)
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
		if c.RedisPort == 0 {
			c.RedisPort = 6379
		}
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = parseInt(v, c.RedisPort)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = parseInt(v, c.RedisDB)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("ADMIN_USERNAME", ""); v != "" {
		c.AdminUsername = v
	}
	if v := getEnv("ADMIN_PASSWORD_HASH", ""); v != "" {
		c.AdminPasswordHash = v
	}
	if v := getEnv("ADMIN_MAX_FAILURES", ""); v != "" {
		c.AdminMaxFailures = parseInt(v, c.AdminMaxFailures)
	}
}

func parseInt(val string, fallback int) int {
	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		log.Printf("invalid integer value %q: %v", val, err)
		return fallback
	}
	return i
}

func parseBool(val string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		log.Printf("invalid boolean value %q: %v", val, err)
		return fallback
	}
	return b
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
