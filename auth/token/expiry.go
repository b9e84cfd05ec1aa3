package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Expiry is the lifetime requested for an issued token. The zero value means
// "no expiration".
type Expiry struct {
	ms  float64
	set bool
}

// NoExpiry issues tokens without an exp claim.
var NoExpiry = Expiry{}

// MaxLifetimeSeconds bounds the magnitude of an expiry. Beyond it the exp
// claim no longer fits an integer NumericDate.
const MaxLifetimeSeconds = 1 << 52

// ErrExpiryRange is returned for lifetimes longer than MaxLifetimeSeconds.
var ErrExpiryRange = errors.New("token: expiresIn out of range")

// Seconds returns an expiry of n seconds. Zero means no expiration.
func Seconds(n float64) Expiry {
	if n == 0 {
		return NoExpiry
	}
	return Expiry{ms: n * 1000, set: true}
}

// Duration returns an expiry of d. Zero means no expiration.
func Duration(d time.Duration) Expiry {
	if d == 0 {
		return NoExpiry
	}
	return Expiry{ms: float64(d) / float64(time.Millisecond), set: true}
}

// durationPattern accepts "<number>[ ]<unit>" with an optional sign and
// fraction. A missing unit means milliseconds.
var durationPattern = regexp.MustCompile(`(?i)^(-?(?:\d+)?\.?\d+) *(milliseconds?|msecs?|ms|seconds?|secs?|s|minutes?|mins?|m|hours?|hrs?|h|days?|d|weeks?|w|years?|yrs?|y)?$`)

const (
	msSecond = 1000.0
	msMinute = msSecond * 60
	msHour   = msMinute * 60
	msDay    = msHour * 24
	msWeek   = msDay * 7
	msYear   = msDay * 365.25
)

// ParseExpiry parses a human-readable duration such as "1h", "2d",
// "90 minutes", "-1s" or "1.5 Hours". Units are case-insensitive.
// A string is always an explicit expiry, so "0s" yields an already
// expired token.
func ParseExpiry(s string) (Expiry, error) {
	if s == "" || len(s) > 100 {
		return NoExpiry, fmt.Errorf("token: expiresIn should be a number of seconds or string representing a timespan (got %q)", s)
	}
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return NoExpiry, fmt.Errorf("token: expiresIn should be a number of seconds or string representing a timespan (got %q)", s)
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return NoExpiry, fmt.Errorf("token: parse expiresIn %q: %w", s, err)
	}
	e := Expiry{ms: n * unitMillis(m[2]), set: true}
	if !e.inRange() {
		return NoExpiry, fmt.Errorf("%w (got %q)", ErrExpiryRange, s)
	}
	return e, nil
}

func unitMillis(unit string) float64 {
	switch strings.ToLower(unit) {
	case "years", "year", "yrs", "yr", "y":
		return msYear
	case "weeks", "week", "w":
		return msWeek
	case "days", "day", "d":
		return msDay
	case "hours", "hour", "hrs", "hr", "h":
		return msHour
	case "minutes", "minute", "mins", "min", "m":
		return msMinute
	case "seconds", "second", "secs", "sec", "s":
		return msSecond
	default:
		return 1
	}
}

// IsZero reports whether the expiry is absent.
func (e Expiry) IsZero() bool { return !e.set }

// Lifetime returns the expiry as a time.Duration.
func (e Expiry) Lifetime() time.Duration {
	return time.Duration(e.ms * float64(time.Millisecond))
}

func (e Expiry) inRange() bool {
	return math.Abs(e.ms/1000) <= MaxLifetimeSeconds
}

// expiresAt returns the exp claim for a token issued at iat (unix seconds).
func (e Expiry) expiresAt(iat int64) (int64, error) {
	if !e.inRange() {
		return 0, ErrExpiryRange
	}
	return int64(math.Floor(float64(iat) + e.ms/1000)), nil
}

// UnmarshalJSON accepts a number of seconds, a duration string or null.
func (e *Expiry) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == "" {
		*e = NoExpiry
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*e = NoExpiry
			return nil
		}
		parsed, err := ParseExpiry(s)
		if err != nil {
			return err
		}
		*e = parsed
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("token: expiresIn must be a number or a string: %w", err)
	}
	parsed := Seconds(n)
	if !parsed.inRange() {
		return fmt.Errorf("%w (got %v)", ErrExpiryRange, n)
	}
	*e = parsed
	return nil
}

// MarshalJSON renders the expiry as seconds, or null when absent.
func (e Expiry) MarshalJSON() ([]byte, error) {
	if !e.set {
		return []byte("null"), nil
	}
	return json.Marshal(e.ms / 1000)
}
