package security

import (
	"fmt"
	"sync"
	"time"

	"github.com/dnoice/roachtrack/internal/models"
)

// Rate limiter defaults
const (
	DefaultMaxAttempts     = 5
	DefaultAttemptWindow   = 300 * time.Second
	DefaultLockoutDuration = 900 * time.Second
)

type attempt struct {
	at      time.Time
	success bool
}

// RateLimiter tracks authentication attempts per identifier (normalized
// username or client IP, tracked independently) with a sliding window
// and a timed lockout. State is process-local; multiple instances of
// the service do not share it. Safe for concurrent use.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]attempt
	lockouts map[string]time.Time

	maxAttempts     int
	window          time.Duration
	lockoutDuration time.Duration

	auditor *Auditor
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter with the given thresholds.
// Non-positive values fall back to the defaults. auditor may be nil;
// when set, a lockout transition emits an account_locked event.
func NewRateLimiter(maxAttempts int, window, lockoutDuration time.Duration, auditor *Auditor) *RateLimiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultAttemptWindow
	}
	if lockoutDuration <= 0 {
		lockoutDuration = DefaultLockoutDuration
	}
	return &RateLimiter{
		attempts:        make(map[string][]attempt),
		lockouts:        make(map[string]time.Time),
		maxAttempts:     maxAttempts,
		window:          window,
		lockoutDuration: lockoutDuration,
		auditor:         auditor,
		now:             time.Now,
	}
}

// pruneLocked drops attempts older than the window. Caller holds mu.
func (rl *RateLimiter) pruneLocked(identifier string) {
	cutoff := rl.now().Add(-rl.window)
	kept := rl.attempts[identifier][:0]
	for _, a := range rl.attempts[identifier] {
		if a.at.After(cutoff) {
			kept = append(kept, a)
		}
	}
	if len(kept) == 0 {
		delete(rl.attempts, identifier)
	} else {
		rl.attempts[identifier] = kept
	}
}

func (rl *RateLimiter) failuresLocked(identifier string) int {
	n := 0
	for _, a := range rl.attempts[identifier] {
		if !a.success {
			n++
		}
	}
	return n
}

// RecordAttempt records one authentication attempt. A success clears
// all failure history and any active lockout for the identifier. A
// failure that brings the in-window failure count to the threshold
// transitions the identifier to Locked and emits an audit event.
func (rl *RateLimiter) RecordAttempt(identifier string, success bool) {
	rl.mu.Lock()
	lockedOut := false

	rl.pruneLocked(identifier)
	rl.attempts[identifier] = append(rl.attempts[identifier], attempt{at: rl.now(), success: success})

	if success {
		delete(rl.attempts, identifier)
		delete(rl.lockouts, identifier)
	} else if rl.failuresLocked(identifier) >= rl.maxAttempts {
		rl.lockouts[identifier] = rl.now().Add(rl.lockoutDuration)
		lockedOut = true
	}
	rl.mu.Unlock()

	// Audit outside the lock; the auditor may hit the database.
	if lockedOut && rl.auditor != nil {
		rl.auditor.LogEvent(Event{
			Type:      models.EventAccountLocked,
			Details:   fmt.Sprintf("locked after %d failed attempts", rl.maxAttempts),
			IPAddress: identifier,
			Success:   false,
		})
	}
}

// IsLockedOut reports whether the identifier is currently locked out.
// An expired lockout is removed, along with its failure history, as a
// side effect of this check; there is no background sweep.
func (rl *RateLimiter) IsLockedOut(identifier string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	until, ok := rl.lockouts[identifier]
	if !ok {
		return false
	}
	if rl.now().Before(until) {
		return true
	}
	delete(rl.lockouts, identifier)
	delete(rl.attempts, identifier)
	return false
}

// RemainingAttempts returns how many more failures the identifier can
// accumulate within the window before lockout, floored at zero.
func (rl *RateLimiter) RemainingAttempts(identifier string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.pruneLocked(identifier)
	remaining := rl.maxAttempts - rl.failuresLocked(identifier)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TimeRemaining returns the remaining lockout duration, or zero when
// the identifier is not locked out. An expired lockout is removed.
func (rl *RateLimiter) TimeRemaining(identifier string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	until, ok := rl.lockouts[identifier]
	if !ok {
		return 0
	}
	remaining := until.Sub(rl.now())
	if remaining <= 0 {
		delete(rl.lockouts, identifier)
		return 0
	}
	return remaining
}
