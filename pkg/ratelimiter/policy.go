package ratelimiter

import (
	"fmt"
	"time"
)

// Policy describes the cooldown schedule of an action.
type Policy struct {
	MaxAttempts int
	// Cooldowns[i] applies after the (i+1)-th failure while below MaxAttempts.
	// The last value repeats if there are more failures than entries.
	Cooldowns []time.Duration
	Lockout   time.Duration
	Staleness time.Duration
}

// DefaultPolicy allows two attempts: 60s after the first failure, then a
// ten-minute lockout. Entries are forgotten after five minutes of inactivity.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 2,
		Cooldowns:   []time.Duration{60 * time.Second, 120 * time.Second},
		Lockout:     600 * time.Second,
		Staleness:   300 * time.Second,
	}
}

// Validate reports whether the policy can be enforced.
func (p Policy) Validate() error {
	switch {
	case p.MaxAttempts < 1:
		return fmt.Errorf("%w: max attempts must be positive", ErrInvalidPolicy)
	case p.Lockout < 0 || p.Staleness <= 0:
		return fmt.Errorf("%w: negative lockout or non-positive staleness", ErrInvalidPolicy)
	}
	for _, c := range p.Cooldowns {
		if c < 0 {
			return fmt.Errorf("%w: negative cooldown", ErrInvalidPolicy)
		}
	}
	return nil
}

// Cooldown returns the wait imposed after the given number of failures.
func (p Policy) Cooldown(attempts int) time.Duration {
	switch {
	case attempts <= 0:
		return 0
	case attempts >= p.MaxAttempts:
		return p.Lockout
	case len(p.Cooldowns) == 0:
		return 0
	default:
		return p.Cooldowns[min(attempts-1, len(p.Cooldowns)-1)]
	}
}

// Config is the environment form of Policy plus the store selection.
type Config struct {
	MaxAttempts int             `env:"RATELIMIT_MAX_ATTEMPTS" envDefault:"2"`
	Cooldowns   []time.Duration `env:"RATELIMIT_COOLDOWNS" envDefault:"60s,120s" envSeparator:","`
	Lockout     time.Duration   `env:"RATELIMIT_LOCKOUT" envDefault:"10m"`
	Staleness   time.Duration   `env:"RATELIMIT_STALENESS" envDefault:"5m"`
	Store       string          `env:"RATELIMIT_STORE" envDefault:"cookie"` // cookie, redis or memory
}

// Policy converts the config into a Policy.
func (c Config) Policy() Policy {
	return Policy{
		MaxAttempts: c.MaxAttempts,
		Cooldowns:   c.Cooldowns,
		Lockout:     c.Lockout,
		Staleness:   c.Staleness,
	}
}
