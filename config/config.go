package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort     string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Upload ingestion
	UploadDir       string
	ChunkSize       int
	RequiredColumns []string
	MaxUploadMB     int
	// Retention of saved upload files
	CleanupEnabled bool
	RetentionHours int
	// Rate limiting for the upload endpoint
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Gin framework configuration
	GinMode string
	// Redis for caching
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
// Precedence: config/config.json -> defaults -> environment variable overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	cfg.CleanupEnabled = true // default on; json/env may switch it off

	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// loadJSONConfig reads JSON file into cfg if present. Returns error only for invalid JSON.
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
		case int:
			return t
		}
		return 0
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
		if v := getInt(app, "RateLimitPerMinute"); v != 0 {
			out.RateLimitPerMinute = v
		}
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
		if v := getString(app, "GinMode"); v != "" {
			out.GinMode = v
		}
	}

	if up, ok := raw["upload"].(map[string]any); ok {
		if v := getString(up, "UploadDir"); v != "" {
			out.UploadDir = v
		}
		if v := getInt(up, "ChunkSize"); v != 0 {
			out.ChunkSize = v
		}
		if list := getStringSlice(up, "RequiredColumns"); len(list) > 0 {
			out.RequiredColumns = list
		}
		if v := getInt(up, "MaxUploadMB"); v != 0 {
			out.MaxUploadMB = v
		}
		if v, ok := up["CleanupEnabled"].(bool); ok {
			out.CleanupEnabled = v
		}
		if v := getInt(up, "RetentionHours"); v != 0 {
			out.RetentionHours = v
		}
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rds, "RedisHost")
		if v := getInt(rds, "RedisPort"); v != 0 {
			out.RedisPort = v
		}
		if v := getInt(rds, "RedisDB"); v != 0 {
			out.RedisDB = v
		}
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		if v := getString(lg, "Level"); v != "" {
			out.LogLevel = v
		}
		if v := getString(lg, "Path"); v != "" {
			out.LogPath = v
		}
		if v := getInt(lg, "MaxSizeMB"); v != 0 {
			out.LogMaxSizeMB = v
		}
		if v := getInt(lg, "MaxBackups"); v != 0 {
			out.LogMaxBackups = v
		}
		if v := getInt(lg, "MaxAgeDays"); v != 0 {
			out.LogMaxAgeDays = v
		}
		if v, ok := lg["Compress"].(bool); ok {
			out.LogCompress = v
		}
	}

	return nil
}

func applyDefaults(out *AppConfig) {
	if out.AppPort == "" {
		out.AppPort = "8080"
	}
	if out.DBHost == "" {
		out.DBHost = "127.0.0.1"
	}
	if out.DBPort == "" {
		out.DBPort = "3306"
	}
	if out.DBUser == "" {
		out.DBUser = "root"
	}
	if out.DBName == "" {
		out.DBName = "sheetsink"
	}
	if out.UploadDir == "" {
		out.UploadDir = "data/uploads"
	}
	if out.ChunkSize <= 0 {
		out.ChunkSize = 500
	}
	if len(out.RequiredColumns) == 0 {
		out.RequiredColumns = []string{"name", "email", "age"}
	}
	if out.MaxUploadMB <= 0 {
		out.MaxUploadMB = 50
	}
	if out.RetentionHours <= 0 {
		out.RetentionHours = 72
	}
	if out.RateLimitPerMinute <= 0 {
		out.RateLimitPerMinute = 30
	}
	if len(out.AllowedOrigins) == 0 {
		out.AllowedOrigins = []string{"*"}
	}
	if out.GinMode == "" {
		out.GinMode = "release"
	}
	if out.RedisPort == 0 {
		out.RedisPort = 6379
	}
	if out.LogLevel == "" {
		out.LogLevel = "info"
	}
	if out.LogPath == "" {
		out.LogPath = "logs/sheetsink.log"
	}
}

func applyEnvOverrides(out *AppConfig) {
	setString(&out.AppPort, "APP_PORT")
	setString(&out.DatabaseURI, "DATABASE_URI")
	setString(&out.DBHost, "DB_HOST")
	setString(&out.DBPort, "DB_PORT")
	setString(&out.DBUser, "DB_USER")
	setString(&out.DBPassword, "DB_PASSWORD")
	setString(&out.DBName, "DB_NAME")
	setString(&out.UploadDir, "UPLOAD_DIR")
	setInt(&out.ChunkSize, "CHUNK_SIZE")
	setInt(&out.MaxUploadMB, "MAX_UPLOAD_MB")
	setBool(&out.CleanupEnabled, "CLEANUP_EXPIRED_UPLOADS")
	setInt(&out.RetentionHours, "UPLOAD_FILE_RETENTION_HOURS")
	setInt(&out.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE")
	setString(&out.GinMode, "GIN_MODE")
	setString(&out.RedisHost, "REDIS_HOST")
	setInt(&out.RedisPort, "REDIS_PORT")
	setInt(&out.RedisDB, "REDIS_DB")
	setString(&out.RedisPassword, "REDIS_PASSWORD")
	setString(&out.LogLevel, "LOG_LEVEL")
	setString(&out.LogPath, "LOG_PATH")

	if v := os.Getenv("REQUIRED_COLUMNS"); v != "" {
		cols := make([]string, 0, 4)
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cols = append(cols, c)
			}
		}
		if len(cols) > 0 {
			out.RequiredColumns = cols
		}
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		out.AllowedOrigins = strings.Split(v, ",")
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			*dst = true
		default:
			*dst = false
		}
	}
}
