// Package limiter throttles login attempts and request rates.
package limiter

import (
	"context"
	"crypto/sha256"
	"time"
)

// Limiter tracks failed logins per (username, client) and locks the pair out
// for a while once too many failures pile up inside the window.
type Limiter interface {
	// Allow reports whether a login may be attempted now and, if not, how long to wait.
	Allow(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error)
	// Success forgets earlier failures.
	Success(ctx context.Context, username string, ipHash []byte) error
	// Failure records a failed attempt and reports whether it triggered a lockout.
	Failure(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error)
}

// Policy configures the lockout rule.
type Policy struct {
	Window   time.Duration // failures older than this no longer count
	MaxFails int           // failures inside Window that trigger a lockout
	BlockFor time.Duration // lockout length
}

// HashIP returns a stable hash of a client address so raw IPs are never stored.
func HashIP(ip string) []byte {
	h := sha256.Sum256([]byte(ip))
	return h[:]
}

// Nop never limits.
type Nop struct{}

func (Nop) Allow(context.Context, string, []byte) (bool, time.Duration, error) { return true, 0, nil }
func (Nop) Success(context.Context, string, []byte) error { return nil }
func (Nop) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	return false, 0, nil
}
