// Package gate turns a submitted access code into an authenticated session,
// with attempt limiting and a cooldown after repeated failures.
package gate

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"datavault/api/internal/identity"
)

const (
	RoleInvestor = "investor"
	RoleAdmin    = "admin"

	investorEmail = "investor@dataroom.app"
	adminEmail    = "admin@dataroom.app"

	// CodeLength is the exact length of an access code.
	CodeLength = 10
)

var (
	// ErrCodeLength rejects input of the wrong length before any backend
	// call; it does not count as an attempt.
	ErrCodeLength = fmt.Errorf("access code must be exactly %d characters", CodeLength)

	ErrInvalidCode = errors.New("invalid access code")
)

// LockedOutError is returned while the cooldown is active. Submissions
// during the cooldown make no backend call.
type LockedOutError struct {
	Until time.Time
	now   func() time.Time
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %s", e.Remaining().Round(time.Second))
}

func (e *LockedOutError) Remaining() time.Duration {
	remaining := e.Until.Sub(e.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Backend is the identity boundary the gate delegates to.
type Backend interface {
	SignInWithCode(ctx context.Context, email, sharedSecret string) (identity.Session, error)
	SignUpWithCode(ctx context.Context, email, sharedSecret, role string) (identity.Session, error)
}

// Config carries the two recognized codes and the lockout policy.
type Config struct {
	InvestorCode string
	AdminCode    string
	SharedSecret string
	MaxAttempts  int
	Cooldown     time.Duration
}

// Gate is the access-code state machine. The attempt counter lives in
// memory only; a process restart clears the lockout. That mirrors the
// source behavior and is flagged as a known weakness rather than fixed here.
type Gate struct {
	backend Backend
	cfg     Config
	now     func() time.Time

	mu            sync.Mutex
	attempts      int
	cooldownUntil time.Time
}

func New(backend Backend, cfg Config) *Gate {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &Gate{backend: backend, cfg: cfg, now: time.Now}
}

// Normalize folds gate input the way the entry form does: uppercase, strip
// anything outside [A-Z0-9], cap at the code length.
func Normalize(input string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(input) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == CodeLength {
				break
			}
		}
	}
	return b.String()
}

// Submit runs one authentication attempt. Recognized codes delegate to the
// identity backend, provisioning the fixed identity on first use. Failures
// of either kind count toward the lockout.
func (g *Gate) Submit(ctx context.Context, code string) (identity.Session, error) {
	normalized := Normalize(code)

	g.mu.Lock()
	if err := g.checkCooldownLocked(); err != nil {
		g.mu.Unlock()
		return identity.Session{}, err
	}
	g.mu.Unlock()

	if len(normalized) != CodeLength {
		return identity.Session{}, ErrCodeLength
	}

	email, role, recognized := g.resolve(normalized)
	if !recognized {
		return identity.Session{}, g.recordFailure()
	}

	sess, err := g.backend.SignInWithCode(ctx, email, g.cfg.SharedSecret)
	if err != nil {
		// First use of this code: provision the identity, then retry the
		// sign-in in case a concurrent submit won the provisioning race.
		sess, err = g.backend.SignUpWithCode(ctx, email, g.cfg.SharedSecret, role)
		if err != nil {
			sess, err = g.backend.SignInWithCode(ctx, email, g.cfg.SharedSecret)
		}
	}
	if err != nil {
		return identity.Session{}, g.recordFailure()
	}

	g.mu.Lock()
	g.attempts = 0
	g.mu.Unlock()
	return sess, nil
}

// Attempts returns the current consecutive-failure count.
func (g *Gate) Attempts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempts
}

// CooldownRemaining returns how long until submissions are accepted again,
// or zero when the gate is open.
func (g *Gate) CooldownRemaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cooldownUntil.IsZero() {
		return 0
	}
	remaining := g.cooldownUntil.Sub(g.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (g *Gate) checkCooldownLocked() error {
	if g.cooldownUntil.IsZero() {
		return nil
	}
	if g.now().Before(g.cooldownUntil) {
		return &LockedOutError{Until: g.cooldownUntil, now: g.now}
	}
	// Cooldown expired: back to Idle with a fresh counter.
	g.cooldownUntil = time.Time{}
	g.attempts = 0
	return nil
}

func (g *Gate) recordFailure() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attempts++
	if g.attempts >= g.cfg.MaxAttempts {
		g.cooldownUntil = g.now().Add(g.cfg.Cooldown)
		return &LockedOutError{Until: g.cooldownUntil, now: g.now}
	}
	return ErrInvalidCode
}

// resolve maps a code to its fixed identity. Both comparisons always run so
// the check takes the same time for either code.
func (g *Gate) resolve(code string) (email, role string, ok bool) {
	investor := subtle.ConstantTimeCompare([]byte(code), []byte(g.cfg.InvestorCode)) == 1
	admin := subtle.ConstantTimeCompare([]byte(code), []byte(g.cfg.AdminCode)) == 1
	switch {
	case investor:
		return investorEmail, RoleInvestor, true
	case admin:
		return adminEmail, RoleAdmin, true
	default:
		return "", "", false
	}
}
