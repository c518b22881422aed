package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/oclus/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   auth token HMAC secret
//	-k string   refresh token HMAC secret
//	-o string   registration code secret
//	-t int      auth token validity, minutes
//	-r int      refresh token validity, minutes
//	-w int      registration window, minutes
//	-m int      registration max trials
//	-R string   Redis address for login throttling ("" disables)
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 mail drop bucket ("" disables)
//	-n string   S3 region
//	-e string   S3 base endpoint
//	-l string   log level
//
// Flags are filtered with flagx.FilterArgs first, so -c/-config and unknown
// flags never reach this FlagSet.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-g", "-d", "-s", "-k", "-o", "-t", "-r", "-w", "-m", "-R", "-u", "-p", "-b", "-n", "-e", "-l",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to serve HTTP on")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to serve gRPC health on")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AuthSecretKey, "s", config.AuthSecretKey, "auth token secret")
	fs.StringVar(&config.RefreshSecretKey, "k", config.RefreshSecretKey, "refresh token secret")
	fs.StringVar(&config.OTPSecret, "o", config.OTPSecret, "registration code secret")

	authTokenValidity := fs.Int("t", int(config.AuthTokenValidityDuration.Minutes()), "auth token validity (in minutes)")
	refreshTokenValidity := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")
	registrationWindow := fs.Int("w", int(config.RegistrationWindow.Minutes()), "registration window (in minutes)")
	fs.IntVar(&config.RegistrationMaxTrials, "m", config.RegistrationMaxTrials, "registration max trials")

	fs.StringVar(&config.RedisAddr, "R", config.RedisAddr, "redis address")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 mail drop bucket")
	fs.StringVar(&config.S3Region, "n", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AuthTokenValidityDuration = time.Duration(*authTokenValidity) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidity) * time.Minute
	config.RegistrationWindow = time.Duration(*registrationWindow) * time.Minute
}
