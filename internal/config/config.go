package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	Env             string
	ServerPort      string
	DBDriver        string
	DatabaseDSN     string
	ResetDB         bool
	RedisAddr       string
	RedisDB         int
	RedisPass       string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SwaggerHost     string
	TimeZone        string

	// Location is TimeZone resolved; naive due dates are interpreted in it.
	Location *time.Location
}

// Load builds Config from an optional .env file and the environment, with sensible defaults.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("app_env", EnvLocal)
	v.SetDefault("server_port", "8080")
	v.SetDefault("db_driver", "mysql")
	v.SetDefault("mysql_dsn", "user:password@tcp(localhost:3306)/tasks?charset=utf8mb4&parseTime=True&loc=UTC")
	v.SetDefault("database_dsn", "")
	v.SetDefault("reset_db", false)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_password", "")
	v.SetDefault("jwt_secret", "change-me")
	v.SetDefault("access_token_ttl", "15m")
	v.SetDefault("refresh_token_ttl", "168h")
	v.SetDefault("swagger_host", "")
	v.SetDefault("time_zone", "UTC")
	v.AutomaticEnv()

	cfg := &Config{
		Env:             v.GetString("app_env"),
		ServerPort:      v.GetString("server_port"),
		DBDriver:        v.GetString("db_driver"),
		DatabaseDSN:     v.GetString("database_dsn"),
		ResetDB:         v.GetBool("reset_db"),
		RedisAddr:       v.GetString("redis_addr"),
		RedisDB:         v.GetInt("redis_db"),
		RedisPass:       v.GetString("redis_password"),
		JWTSecret:       v.GetString("jwt_secret"),
		AccessTokenTTL:  v.GetDuration("access_token_ttl"),
		RefreshTokenTTL: v.GetDuration("refresh_token_ttl"),
		SwaggerHost:     v.GetString("swagger_host"),
		TimeZone:        v.GetString("time_zone"),
	}

	// MYSQL_DSN is kept for existing deployments.
	if cfg.DatabaseDSN == "" && cfg.DBDriver == "mysql" {
		cfg.DatabaseDSN = v.GetString("mysql_dsn")
	}
	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN is required for driver %q", cfg.DBDriver)
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", cfg.TimeZone, err)
	}
	cfg.Location = loc

	return cfg, nil
}
