package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported storage drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort   string
	JWTSecret string
	TokenTTL  time.Duration
	// Storage
	DBDriver      string
	DatabaseURI   string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	MongoURI      string
	MongoDatabase string
	// Redis for list caching and revoked tokens
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	ListCacheTTL  time.Duration
	// HTTP surface
	RateLimitPerMinute int
	AllowedOrigins     []string
	MetricsEnabled     bool
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
}

// env bindings: viper key -> environment variable.
var envBindings = map[string]string{
	"app.port":               "APP_PORT",
	"app.jwtsecret":          "JWT_SECRET",
	"app.tokenttl":           "TOKEN_TTL",
	"app.ratelimitperminute": "RATE_LIMIT_PER_MINUTE",
	"app.metricsenabled":     "METRICS_ENABLED",
	"cors.allowedorigins":    "CORS_ALLOWED_ORIGINS",
	"database.driver":        "DB_DRIVER",
	"database.uri":           "DATABASE_URI",
	"database.host":          "DB_HOST",
	"database.port":          "DB_PORT",
	"database.user":          "DB_USER",
	"database.password":      "DB_PASSWORD",
	"database.name":          "DB_NAME",
	"database.mongouri":      "MONGODB_URI",
	"database.mongodatabase": "MONGODB_DATABASE",
	"redis.host":             "REDIS_HOST",
	"redis.port":             "REDIS_PORT",
	"redis.db":               "REDIS_DB",
	"redis.password":         "REDIS_PASSWORD",
	"redis.listcachettl":     "LIST_CACHE_TTL",
	"gin.mode":               "GIN_MODE",
	"gin.logpath":            "GIN_LOG_PATH",
	"log.level":              "LOG_LEVEL",
	"log.path":               "LOG_PATH",
	"log.maxsizemb":          "LOG_MAX_SIZE_MB",
	"log.maxbackups":         "LOG_MAX_BACKUPS",
	"log.maxagedays":         "LOG_MAX_AGE_DAYS",
	"log.compress":           "LOG_COMPRESS",
}

// Load reads configuration once during boot.
// Precedence: .env (into the process env) -> JSON file at path -> defaults -> environment variable overrides.
func Load(path string) (AppConfig, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return AppConfig{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return AppConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := AppConfig{
		AppPort:            v.GetString("app.port"),
		JWTSecret:          v.GetString("app.jwtsecret"),
		TokenTTL:           v.GetDuration("app.tokenttl"),
		RateLimitPerMinute: v.GetInt("app.ratelimitperminute"),
		MetricsEnabled:     v.GetBool("app.metricsenabled"),
		AllowedOrigins:     stringList(v, "cors.allowedorigins"),
		DBDriver:           strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURI:        v.GetString("database.uri"),
		DBHost:             v.GetString("database.host"),
		DBPort:             v.GetString("database.port"),
		DBUser:             v.GetString("database.user"),
		DBPassword:         v.GetString("database.password"),
		DBName:             v.GetString("database.name"),
		MongoURI:           v.GetString("database.mongouri"),
		MongoDatabase:      v.GetString("database.mongodatabase"),
		RedisHost:          v.GetString("redis.host"),
		RedisPort:          v.GetInt("redis.port"),
		RedisDB:            v.GetInt("redis.db"),
		RedisPassword:      v.GetString("redis.password"),
		ListCacheTTL:       v.GetDuration("redis.listcachettl"),
		GinMode:            v.GetString("gin.mode"),
		GinPath:            v.GetString("gin.logpath"),
		LogLevel:           strings.ToLower(v.GetString("log.level")),
		LogPath:            v.GetString("log.path"),
		LogMaxSizeMB:       v.GetInt("log.maxsizemb"),
		LogMaxBackups:      v.GetInt("log.maxbackups"),
		LogMaxAgeDays:      v.GetInt("log.maxagedays"),
		LogCompress:        v.GetBool("log.compress"),
	}

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.tokenttl", time.Hour)
	v.SetDefault("app.ratelimitperminute", 60)
	v.SetDefault("app.metricsenabled", true)
	v.SetDefault("cors.allowedorigins", "*")
	v.SetDefault("database.driver", DriverMySQL)
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.name", "blogapi")
	v.SetDefault("database.mongouri", "mongodb://127.0.0.1:27017")
	v.SetDefault("database.mongodatabase", "blogapi")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.listcachettl", time.Minute)
	v.SetDefault("gin.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.maxsizemb", 100)
	v.SetDefault("log.maxbackups", 3)
	v.SetDefault("log.maxagedays", 7)
}

// Validate reports configuration that makes the server unable to start.
func (c AppConfig) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	return nil
}

// RedisEnabled reports whether a Redis host is configured.
func (c AppConfig) RedisEnabled() bool {
	return strings.TrimSpace(c.RedisHost) != ""
}

// stringList accepts either a JSON array or a comma separated string.
func stringList(v *viper.Viper, key string) []string {
	switch raw := v.Get(key).(type) {
	case string:
		return splitAndTrim(raw)
	case []any:
		items := make([]string, 0, len(raw))
		for _, it := range raw {
			if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
				items = append(items, strings.TrimSpace(s))
			}
		}
		return items
	default:
		return v.GetStringSlice(key)
	}
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
