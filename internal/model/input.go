package model

import (
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/and161185/foodpocket/internal/errs"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Score bounds of a visit record.
const (
	MinScore     = 1
	MaxScore     = 5
	DefaultScore = 3
)

var emailRe = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+`)

// NormalizeUsername checks length and charset and lowercases the name.
func NormalizeUsername(username string) (string, error) {
	if utf8.RuneCountInString(username) > MaxUsernameLen {
		return "", errs.Invalid("Username length exceed 64 characters")
	}
	b := []byte(username)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
			b[i] = c + ('a' - 'A')
		default:
			return "", errs.Invalid("Username contains invalid character(s)")
		}
	}
	return string(b), nil
}

// ValidateEmail accepts anything shaped like local@domain.tld.
func ValidateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return errs.Invalid("Email format is invalid")
	}
	return nil
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// CleanName rejects empty names and truncates to MaxNameLen.
func CleanName(name string) (string, error) {
	if name == "" {
		return "", errs.Invalid("Name field cannot be empty")
	}
	return Truncate(name, MaxNameLen), nil
}

// ClampScore bounds a score to [MinScore, MaxScore].
func ClampScore(score int) int {
	return max(min(score, MaxScore), MinScore)
}

// DateOf returns the calendar day of t (in t's location) as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }
