package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"datavault/api/internal/identity"
)

type fakeBackend struct {
	signInFn func(ctx context.Context, email, sharedSecret string) (identity.Session, error)
	signUpFn func(ctx context.Context, email, sharedSecret, role string) (identity.Session, error)
	calls    int
}

func (f *fakeBackend) SignInWithCode(ctx context.Context, email, sharedSecret string) (identity.Session, error) {
	f.calls++
	if f.signInFn == nil {
		return identity.Session{}, errors.New("no sign-in stub")
	}
	return f.signInFn(ctx, email, sharedSecret)
}

func (f *fakeBackend) SignUpWithCode(ctx context.Context, email, sharedSecret, role string) (identity.Session, error) {
	f.calls++
	if f.signUpFn == nil {
		return identity.Session{}, errors.New("no sign-up stub")
	}
	return f.signUpFn(ctx, email, sharedSecret, role)
}

func testConfig() Config {
	return Config{
		InvestorCode: "INV2024ABC",
		AdminCode:    "ADM2024XYZ",
		SharedSecret: "dataroom123",
		MaxAttempts:  3,
		Cooldown:     30 * time.Second,
	}
}

func signInOK(_ context.Context, email, _ string) (identity.Session, error) {
	role := RoleInvestor
	if email == "admin@dataroom.app" {
		role = RoleAdmin
	}
	return identity.Session{UserID: "user-" + role, Email: email, Role: role, Token: "tok"}, nil
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercase folded", input: "inv2024abc", want: "INV2024ABC"},
		{name: "punctuation stripped", input: "inv-2024 abc!", want: "INV2024ABC"},
		{name: "capped at code length", input: "INV2024ABCDEF", want: "INV2024ABC"},
		{name: "short stays short", input: "abc", want: "ABC"},
		{name: "empty", input: "", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.input); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSubmitRecognizedCodes(t *testing.T) {
	backend := &fakeBackend{signInFn: signInOK}
	g := New(backend, testConfig())

	sess, err := g.Submit(context.Background(), "inv 2024-abc")
	if err != nil {
		t.Fatalf("Submit investor code: %v", err)
	}
	if sess.Role != RoleInvestor {
		t.Fatalf("expected investor role, got %q", sess.Role)
	}

	sess, err = g.Submit(context.Background(), "ADM2024XYZ")
	if err != nil {
		t.Fatalf("Submit admin code: %v", err)
	}
	if sess.Role != RoleAdmin {
		t.Fatalf("expected admin role, got %q", sess.Role)
	}
}

func TestSubmitProvisionsIdentityOnFirstUse(t *testing.T) {
	provisioned := false
	backend := &fakeBackend{
		signInFn: func(ctx context.Context, email, secret string) (identity.Session, error) {
			if !provisioned {
				return identity.Session{}, errors.New("unknown identity")
			}
			return signInOK(ctx, email, secret)
		},
		signUpFn: func(_ context.Context, email, _, role string) (identity.Session, error) {
			provisioned = true
			return identity.Session{UserID: "user-1", Email: email, Role: role, Token: "tok"}, nil
		},
	}
	g := New(backend, testConfig())

	sess, err := g.Submit(context.Background(), "ADM2024XYZ")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sess.Role != RoleAdmin {
		t.Fatalf("expected admin role from sign-up, got %q", sess.Role)
	}
	if !provisioned {
		t.Fatalf("expected lazy provisioning on first use")
	}
}

func TestWrongLengthDoesNotCountAsAttempt(t *testing.T) {
	backend := &fakeBackend{}
	g := New(backend, testConfig())

	if _, err := g.Submit(context.Background(), "SHORT"); !errors.Is(err, ErrCodeLength) {
		t.Fatalf("expected ErrCodeLength, got %v", err)
	}
	if g.Attempts() != 0 {
		t.Fatalf("length rejection must not count, attempts = %d", g.Attempts())
	}
	if backend.calls != 0 {
		t.Fatalf("length rejection must not reach the backend")
	}
}

func TestLockoutAfterThreeConsecutiveFailures(t *testing.T) {
	backend := &fakeBackend{}
	g := New(backend, testConfig())
	now := time.Now()
	g.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if _, err := g.Submit(context.Background(), "WRONG00000"); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("attempt %d: expected ErrInvalidCode, got %v", i+1, err)
		}
	}
	if g.Attempts() != 2 {
		t.Fatalf("expected 2 attempts, got %d", g.Attempts())
	}

	_, err := g.Submit(context.Background(), "WRONG00000")
	var locked *LockedOutError
	if !errors.As(err, &locked) {
		t.Fatalf("expected LockedOutError on third failure, got %v", err)
	}
	if remaining := g.CooldownRemaining(); remaining != 30*time.Second {
		t.Fatalf("expected exactly 30s cooldown, got %v", remaining)
	}

	// Submissions during cooldown reach neither the code check nor the
	// backend, even with a valid code.
	before := backend.calls
	if _, err := g.Submit(context.Background(), "INV2024ABC"); !errors.As(err, &locked) {
		t.Fatalf("expected LockedOutError during cooldown, got %v", err)
	}
	if backend.calls != before {
		t.Fatalf("cooldown submission must make no backend call")
	}

	// After expiry the counter resets and the gate opens again.
	now = now.Add(31 * time.Second)
	backend.signInFn = signInOK
	if _, err := g.Submit(context.Background(), "INV2024ABC"); err != nil {
		t.Fatalf("expected success after cooldown, got %v", err)
	}
	if g.Attempts() != 0 {
		t.Fatalf("expected attempts reset after cooldown, got %d", g.Attempts())
	}
}

func TestSuccessResetsConsecutiveFailures(t *testing.T) {
	backend := &fakeBackend{signInFn: signInOK}
	g := New(backend, testConfig())

	// Two wrong codes, then the right one: lockout only triggers on three
	// consecutive failures.
	for i := 0; i < 2; i++ {
		if _, err := g.Submit(context.Background(), "WRONG00000"); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("expected ErrInvalidCode, got %v", err)
		}
	}
	if g.Attempts() != 2 {
		t.Fatalf("expected 2 attempts before the correct code, got %d", g.Attempts())
	}

	sess, err := g.Submit(context.Background(), "INV2024ABC")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sess.Role != RoleInvestor {
		t.Fatalf("expected read-only investor session, got %q", sess.Role)
	}
	if g.Attempts() != 0 {
		t.Fatalf("expected attempts reset on success, got %d", g.Attempts())
	}
}

func TestBackendFailureCountsTowardLockout(t *testing.T) {
	backend := &fakeBackend{
		signInFn: func(context.Context, string, string) (identity.Session, error) {
			return identity.Session{}, errors.New("backend down")
		},
		signUpFn: func(context.Context, string, string, string) (identity.Session, error) {
			return identity.Session{}, errors.New("backend down")
		},
	}
	g := New(backend, testConfig())

	if _, err := g.Submit(context.Background(), "INV2024ABC"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode for backend failure, got %v", err)
	}
	if g.Attempts() != 1 {
		t.Fatalf("backend failure must count as an attempt, got %d", g.Attempts())
	}
}
