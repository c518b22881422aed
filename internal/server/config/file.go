package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/oclus/internal/flagx"
	"github.com/dmitrijs2005/oclus/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration, shared by JSON and
// YAML files. Durations accept strings such as "15m" or integer nanoseconds.
// Zero values leave the current setting untouched.
type FileConfig struct {
	EndpointAddrHTTP string `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPC string `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN      string `json:"database_dsn" yaml:"database_dsn"`

	AuthSecretKey                string         `json:"auth_secret_key" yaml:"auth_secret_key"`
	RefreshSecretKey             string         `json:"refresh_secret_key" yaml:"refresh_secret_key"`
	OTPSecret                    string         `json:"otp_secret" yaml:"otp_secret"`
	AuthTokenValidityDuration    timex.Duration `json:"auth_token_validity_duration" yaml:"auth_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	TokenLeeway                  timex.Duration `json:"token_leeway" yaml:"token_leeway"`
	BcryptCost                   int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`

	RegistrationWindow    timex.Duration `json:"registration_window" yaml:"registration_window"`
	RegistrationMaxTrials int            `json:"registration_max_trials" yaml:"registration_max_trials"`

	RedisAddr        string         `json:"redis_addr" yaml:"redis_addr"`
	LoginMaxAttempts int            `json:"login_max_attempts" yaml:"login_max_attempts"`
	LoginCooldown    timex.Duration `json:"login_cooldown" yaml:"login_cooldown"`

	S3RootUser     string `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region       string `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`

	LogLevel  string `json:"log_level" yaml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format"`
}

// parseFile overlays values from the file named by -c/-config. Files ending
// in .yaml or .yml are decoded as YAML, anything else as JSON. A missing or
// malformed file panics.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)

	setString(&config.AuthSecretKey, c.AuthSecretKey)
	setString(&config.RefreshSecretKey, c.RefreshSecretKey)
	setString(&config.OTPSecret, c.OTPSecret)
	setDuration(&config.AuthTokenValidityDuration, c.AuthTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setDuration(&config.TokenLeeway, c.TokenLeeway)
	setInt(&config.BcryptCost, c.BcryptCost)

	setDuration(&config.RegistrationWindow, c.RegistrationWindow)
	setInt(&config.RegistrationMaxTrials, c.RegistrationMaxTrials)

	setString(&config.RedisAddr, c.RedisAddr)
	setInt(&config.LoginMaxAttempts, c.LoginMaxAttempts)
	setDuration(&config.LoginCooldown, c.LoginCooldown)

	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
