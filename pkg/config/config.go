package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Connection defaults applied when neither a connection URL nor discrete
// variables are present.
const (
	defaultDBHost    = "localhost"
	defaultDBUser    = "root"
	defaultDBName    = "courses_platform"
	defaultDBPort    = 3306
	defaultDBCharset = "utf8mb4"
)

// Alias lists are checked in this exact order per field.
var (
	urlAliases      = []string{"DATABASE_URL", "MYSQL_URL", "MYSQL_PUBLIC_URL"}
	hostAliases     = []string{"MYSQLHOST", "MYSQL_HOST", "DB_HOST"}
	userAliases     = []string{"MYSQLUSER", "MYSQL_USER", "DB_USER"}
	passwordAliases = []string{"MYSQLPASSWORD", "MYSQL_PASSWORD", "DB_PASSWORD"}
	nameAliases     = []string{"MYSQLDATABASE", "MYSQL_DATABASE", "DB_NAME"}
	portAliases     = []string{"MYSQLPORT", "MYSQL_PORT", "DB_PORT"}
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Fallback FallbackConfig
	Uploads  UploadsConfig
	Exports  ExportsConfig
	CORS     CORSConfig
	Log      LogConfig
}

// DatabaseConfig describes the primary MySQL tier.
type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	Charset        string
	MaxOpenConns   int
	MaxIdleConns   int
	AutoAddColumns bool
}

// FallbackConfig locates the lower persistence tiers.
type FallbackConfig struct {
	SQLitePath string
	DataDir    string
}

// UploadsConfig controls receipt storage.
type UploadsConfig struct {
	Dir               string
	AllowedExtensions []string
}

// ExportsConfig configures asynchronous roster exports.
type ExportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	WorkerConcurrency int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// The .env file is optional; only a present-but-unreadable file is fatal.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = ResolveDatabase(v)
	cfg.Database.MaxOpenConns = v.GetInt("DB_MAX_OPEN_CONNS")
	cfg.Database.MaxIdleConns = v.GetInt("DB_MAX_IDLE_CONNS")
	cfg.Database.AutoAddColumns = v.GetBool("DB_AUTO_ADD_COLUMNS")

	cfg.Fallback = FallbackConfig{
		SQLitePath: v.GetString("SQLITE_PATH"),
		DataDir:    v.GetString("DATA_DIR"),
	}

	cfg.Uploads = UploadsConfig{
		Dir:               v.GetString("UPLOADS_DIR"),
		AllowedExtensions: splitAndTrim(v.GetString("UPLOADS_ALLOWED_EXTENSIONS")),
	}

	cfg.Exports = ExportsConfig{
		Enabled:           v.GetBool("ENABLE_EXPORTS"),
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

// ResolveDatabase derives the MySQL connection parameters from the
// environment snapshot held by v. A connection URL (first alias that is
// set) wins; a malformed URL falls through silently to the discrete
// variables. Each URL component keeps its own default when absent.
func ResolveDatabase(v *viper.Viper) DatabaseConfig {
	cfg := DatabaseConfig{
		Host:     firstString(v, hostAliases, defaultDBHost),
		User:     firstString(v, userAliases, defaultDBUser),
		Password: firstString(v, passwordAliases, ""),
		Name:     firstString(v, nameAliases, defaultDBName),
		Port:     firstInt(v, portAliases, defaultDBPort),
		Charset:  defaultDBCharset,
	}
	if charset := v.GetString("DB_CHARSET"); charset != "" {
		cfg.Charset = charset
	}

	raw := firstString(v, urlAliases, "")
	if raw == "" {
		return cfg
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return cfg
	}

	cfg.Host = defaultDBHost
	if host := u.Hostname(); host != "" {
		cfg.Host = host
	}
	cfg.User = defaultDBUser
	if u.User != nil && u.User.Username() != "" {
		cfg.User = u.User.Username()
	}
	cfg.Password = ""
	if u.User != nil {
		if pass, ok := u.User.Password(); ok {
			cfg.Password = pass
		}
	}
	cfg.Name = defaultDBName
	if name := strings.TrimPrefix(u.Path, "/"); name != "" {
		cfg.Name = name
	}
	cfg.Port = defaultDBPort
	if port := u.Port(); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			cfg.Port = n
		}
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_CHARSET", defaultDBCharset)
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_ADD_COLUMNS", false)

	v.SetDefault("SQLITE_PATH", "./data/fallback.db")
	v.SetDefault("DATA_DIR", "./data")

	v.SetDefault("UPLOADS_DIR", "./uploads")
	v.SetDefault("UPLOADS_ALLOWED_EXTENSIONS", ".jpg,.jpeg,.png,.pdf")

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func firstString(v *viper.Viper, keys []string, fallback string) string {
	for _, key := range keys {
		if val := v.GetString(key); val != "" {
			return val
		}
	}
	return fallback
}

func firstInt(v *viper.Viper, keys []string, fallback int) int {
	for _, key := range keys {
		if raw := v.GetString(key); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				return n
			}
		}
	}
	return fallback
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
