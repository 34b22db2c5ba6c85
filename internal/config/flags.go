package config

import (
	"flag"
	"io"
	"strings"
)

// configPath returns the value of -config/--config, if any.
func configPath(args []string) string {
	for i, a := range args {
		name, val, hasVal := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || name != "config" {
			continue
		}
		if hasVal {
			return val
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// parseFlags overlays command-line flags on config.
//
// Supported flags:
//
//	-config string          YAML file applied before flags
//	-addr string            HTTP listen address
//	-dsn string             PostgreSQL DSN
//	-token-ttl duration     lifetime of issued tokens
//	-tz string              IANA time zone for "today" and rendered timestamps
//	-dev                    development logging
//	-shutdown-timeout dur   graceful shutdown budget
//	-rps float              per-IP request rate, 0 disables
//	-burst int              per-IP burst
//	-login-window duration  failed-login counting window
//	-login-max-fails int    failures before lockout
//	-login-block duration   lockout duration
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("foodpocket", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.String("config", "", "YAML config file")
	fs.StringVar(&config.HTTPAddr, "addr", config.HTTPAddr, "HTTP listen address")
	fs.StringVar(&config.DatabaseDSN, "dsn", config.DatabaseDSN, "PostgreSQL DSN")
	fs.DurationVar(&config.TokenTTL, "token-ttl", config.TokenTTL, "token lifetime")
	fs.StringVar(&config.TimeZone, "tz", config.TimeZone, "time zone")
	fs.BoolVar(&config.Dev, "dev", config.Dev, "development logging")
	fs.DurationVar(&config.ShutdownTimeout, "shutdown-timeout", config.ShutdownTimeout, "graceful shutdown timeout")

	fs.Float64Var(&config.RateLimit.RPS, "rps", config.RateLimit.RPS, "per-IP requests per second, 0 disables")
	fs.IntVar(&config.RateLimit.Burst, "burst", config.RateLimit.Burst, "per-IP burst")

	fs.DurationVar(&config.Login.Window, "login-window", config.Login.Window, "failed login window")
	fs.IntVar(&config.Login.MaxFails, "login-max-fails", config.Login.MaxFails, "failed logins before lockout")
	fs.DurationVar(&config.Login.BlockFor, "login-block", config.Login.BlockFor, "lockout duration")

	return fs.Parse(args)
}
