package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-m", "-l", "-s", "-S", "-t", "-r", "-R", "-k", "-p"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-m string   storage mode: postgres or memory
//	-l string   log level
//	-s string   access token HMAC secret
//	-S string   refresh token HMAC secret
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-R int      password reset token validity, minutes
//	-k int      bcrypt cost
//	-p int      auth requests per minute per client (0 disables)
//
// Only these flags are looked at; the rest of args is left for other parsers.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.StorageMode, "m", config.StorageMode, "storage mode (postgres|memory)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.AccessTokenSecret, "s", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "S", config.RefreshTokenSecret, "refresh token secret")

	accessMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshMinutes := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")
	resetMinutes := fs.Int("R", int(config.PasswordResetValidityDuration.Minutes()), "password reset token validity (in minutes)")

	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.IntVar(&config.RateLimitPerMinute, "p", config.RateLimitPerMinute, "auth requests per minute per client")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return err
	}

	// Only overwrite durations that were given explicitly: the minute round
	// trip would otherwise truncate sub-minute values coming from JSON or env.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessMinutes) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshMinutes) * time.Minute
		case "R":
			config.PasswordResetValidityDuration = time.Duration(*resetMinutes) * time.Minute
		}
	})

	return nil
}
