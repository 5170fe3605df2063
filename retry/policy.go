// Package retry implements the backoff policy engine used by the fetch
// client's retry interceptor. It is a pure decision layer: given the number
// of retries already performed and a Policy, it answers whether another
// attempt is allowed and how long to wait before it.
package retry

import (
	"fmt"
	"math/rand"
	"time"
)

// Strategy selects the backoff curve used between attempts.
type Strategy int

const (
	// Fixed waits Interval before every retry.
	Fixed Strategy = iota
	// Linear waits Interval multiplied by the retry number.
	Linear
	// Exponential waits Interval * 2^retry, with the exponent capped to
	// avoid overflow for large retry counts.
	Exponential
	// Jittered waits a uniform random duration drawn from
	// [MinRandomInterval, MaxRandomInterval]. When the bounds are unset it
	// behaves like Fixed.
	Jittered
)

// String returns the configuration name of the strategy.
func (s Strategy) String() string {
	switch s {
	case Fixed:
		return "fixed"
	case Linear:
		return "linear"
	case Exponential:
		return "exponential"
	case Jittered:
		return "random"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy converts a configuration name into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "fixed", "":
		return Fixed, nil
	case "linear":
		return Linear, nil
	case "exponential":
		return Exponential, nil
	case "random", "jittered":
		return Jittered, nil
	default:
		return Fixed, fmt.Errorf("unknown retry strategy %q", name)
	}
}

// DelayFunc computes a custom delay from the retry number. The first retry
// is number 1.
type DelayFunc func(attempt int) time.Duration

// maxExponent caps the exponential shift (2^20 ~ 1M multiplier).
const maxExponent = 20

// Policy holds the retry decision parameters for a client. It carries no
// per-call state; attempt counters live with the logical call that uses the
// policy.
type Policy struct {
	// MaxRetries is the maximum number of retries after the initial
	// attempt. Zero means never retry.
	MaxRetries int `validate:"gte=0"`
	// Interval is the base delay used by the Fixed, Linear and Exponential
	// strategies.
	Interval time.Duration `validate:"gte=0"`
	// Strategy selects the backoff curve. Ignored when Custom is set.
	Strategy Strategy
	// Custom overrides Strategy when non-nil. Negative results are treated
	// as zero.
	Custom DelayFunc
	// MinRandomInterval and MaxRandomInterval bound the Jittered strategy.
	MinRandomInterval time.Duration `validate:"gte=0"`
	MaxRandomInterval time.Duration `validate:"gte=0,gtefield=MinRandomInterval"`
	// Rand is the random source for the Jittered strategy. Tests inject a
	// seeded source; when nil the shared process source is used.
	Rand *rand.Rand
}

// Allow reports whether another retry may be made after the given number of
// completed retries.
func (p *Policy) Allow(retries int) bool {
	return retries < p.MaxRetries
}

// Delay computes the wait before the given retry. Retries are numbered from
// 1; the initial attempt is not a retry. The result is deterministic for
// every strategy except Jittered.
func (p *Policy) Delay(attempt int) time.Duration {
	if p.Custom != nil {
		if d := p.Custom(attempt); d > 0 {
			return d
		}
		return 0
	}

	switch p.Strategy {
	case Linear:
		return p.Interval * time.Duration(attempt)
	case Exponential:
		if attempt > maxExponent {
			attempt = maxExponent
		}
		if attempt < 0 {
			attempt = 0
		}
		return p.Interval * time.Duration(1<<attempt)
	case Jittered:
		if p.MinRandomInterval == 0 && p.MaxRandomInterval == 0 {
			// Bounds were never configured; fall back to fixed-interval
			// behavior rather than failing the call.
			return p.Interval
		}
		lo, hi := p.MinRandomInterval, p.MaxRandomInterval
		if hi < lo {
			lo, hi = hi, lo
		}
		span := int64(hi - lo)
		if span == 0 {
			return lo
		}
		return lo + time.Duration(p.int63n(span+1))
	default:
		return p.Interval
	}
}

func (p *Policy) int63n(n int64) int64 {
	if p.Rand != nil {
		return p.Rand.Int63n(n)
	}
	return rand.Int63n(n)
}
