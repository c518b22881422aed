package config

import "os"

// Environment variables that override secrets and connection strings, so
// they need not live in config files.
const (
	EnvDatabaseDSN   = "OCLUS_DATABASE_DSN"
	EnvAuthSecret    = "OCLUS_AUTH_SECRET"
	EnvRefreshSecret = "OCLUS_REFRESH_SECRET"
	EnvOTPSecret     = "OCLUS_OTP_SECRET"
	EnvRedisAddr     = "OCLUS_REDIS_ADDR"
)

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvDatabaseDSN); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv(EnvAuthSecret); v != "" {
		cfg.AuthSecretKey = v
	}
	if v := os.Getenv(EnvRefreshSecret); v != "" {
		cfg.RefreshSecretKey = v
	}
	if v := os.Getenv(EnvOTPSecret); v != "" {
		cfg.OTPSecret = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.RedisAddr = v
	}
}
