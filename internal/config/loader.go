package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/lumenhq/adminapi/internal/db"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string
	Port            int
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// RedisConfig holds session cache settings. An empty Addr disables Redis and
// the server falls back to the in-process cache.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	SessionTTL time.Duration
}

// BootstrapConfig seeds the initial administrator on first start.
type BootstrapConfig struct {
	AdminEmail string
	AdminName  string
}

// Config is the full server configuration.
type Config struct {
	Database  db.Config
	Server    ServerConfig
	Redis     RedisConfig
	Bootstrap BootstrapConfig
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Database: db.DefaultConfig(),
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			AllowedOrigins:  []string{"http://localhost:5173"},
			ShutdownTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			SessionTTL: 15 * time.Minute,
		},
	}
}

// Load reads config.yaml from the given path, with environment overrides
// mapped through the ADMINAPI prefix (ADMINAPI_DATABASE_HOST and so on).
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("ADMINAPI")

	v.BindEnv("database.host", "ADMINAPI_DATABASE_HOST")
	v.BindEnv("database.port", "ADMINAPI_DATABASE_PORT")
	v.BindEnv("database.user", "ADMINAPI_DATABASE_USER")
	v.BindEnv("database.password", "ADMINAPI_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "ADMINAPI_DATABASE_DBNAME")
	v.BindEnv("database.sslmode", "ADMINAPI_DATABASE_SSLMODE")
	v.BindEnv("server.host", "ADMINAPI_SERVER_HOST")
	v.BindEnv("server.port", "ADMINAPI_SERVER_PORT")
	v.BindEnv("redis.addr", "ADMINAPI_REDIS_ADDR")
	v.BindEnv("redis.password", "ADMINAPI_REDIS_PASSWORD")
	v.BindEnv("redis.db", "ADMINAPI_REDIS_DB")
	v.BindEnv("bootstrap.admin_email", "ADMINAPI_BOOTSTRAP_ADMIN_EMAIL")
	v.BindEnv("bootstrap.admin_name", "ADMINAPI_BOOTSTRAP_ADMIN_NAME")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.host") {
		cfg.Server.Host = v.GetString("server.host")
	}
	if v.IsSet("server.port") {
		cfg.Server.Port = v.GetInt("server.port")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("server.shutdown_timeout") {
		cfg.Server.ShutdownTimeout = v.GetDuration("server.shutdown_timeout")
	}
	if v.IsSet("redis.addr") {
		cfg.Redis.Addr = v.GetString("redis.addr")
	}
	if v.IsSet("redis.password") {
		cfg.Redis.Password = v.GetString("redis.password")
	}
	if v.IsSet("redis.db") {
		cfg.Redis.DB = v.GetInt("redis.db")
	}
	if v.IsSet("redis.session_ttl") {
		cfg.Redis.SessionTTL = v.GetDuration("redis.session_ttl")
	}
	if v.IsSet("bootstrap.admin_email") {
		cfg.Bootstrap.AdminEmail = v.GetString("bootstrap.admin_email")
	}
	if v.IsSet("bootstrap.admin_name") {
		cfg.Bootstrap.AdminName = v.GetString("bootstrap.admin_name")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("server port %d out of range", cfg.Server.Port)
	}
	if cfg.Redis.SessionTTL <= 0 {
		cfg.Redis.SessionTTL = 15 * time.Minute
	}
	return cfg, nil
}
