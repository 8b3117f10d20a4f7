// Package identity implements the authentication boundary behind the access
// gate: two fixed identities, lazily provisioned, with bcrypt-verified
// shared secrets and HMAC access tokens plus Redis-backed refresh sessions.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"datavault/api/internal/auth"
	"datavault/api/internal/session"
	"datavault/api/internal/store"
	"datavault/api/internal/util"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Session is the pair of tokens plus identity claims handed back to the
// gate on success.
type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	Email        string
	Role         string
	ExpiresAt    time.Time
}

// UserStore is the subset of the persistence layer identity needs.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	CreateUser(ctx context.Context, user store.User) error
}

// SessionStore holds refresh sessions keyed by token hash.
type SessionStore interface {
	Save(ctx context.Context, tokenHash string, data session.Data, expiresAt time.Time) error
	Lookup(ctx context.Context, tokenHash string) (session.Data, error)
	Revoke(ctx context.Context, tokenHash string) error
}

type Service struct {
	users      UserStore
	sessions   SessionStore
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(users UserStore, sessions SessionStore, tokenSecret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		secret:     []byte(tokenSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// SignInWithCode authenticates one of the fixed identities with the shared
// secret. An unknown email or a wrong secret both come back as
// ErrInvalidCredentials.
func (s *Service) SignInWithCode(ctx context.Context, email, sharedSecret string) (Session, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(sharedSecret)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(ctx, user.ID, user.Email, user.Role)
}

// SignUpWithCode provisions a fixed identity with its role metadata and
// signs it in. Used once per role, the first time its access code is used.
func (s *Service) SignUpWithCode(ctx context.Context, email, sharedSecret, role string) (Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(sharedSecret), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash shared secret: %w", err)
	}

	user := store.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return Session{}, fmt.Errorf("provision identity: %w", err)
	}
	return s.issue(ctx, user.ID, user.Email, user.Role)
}

// SessionFromToken verifies an access token and returns its claims.
func (s *Service) SessionFromToken(token string) (auth.Claims, error) {
	return auth.ParseToken(s.secret, token)
}

// Refresh rotates a refresh token: the old session is revoked and a new
// token pair issued for the same identity.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	hash := auth.HashToken(refreshToken)
	data, err := s.sessions.Lookup(ctx, hash)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if err := s.sessions.Revoke(ctx, hash); err != nil {
		return Session{}, fmt.Errorf("rotate session: %w", err)
	}
	return s.issue(ctx, data.UserID, data.Email, data.Role)
}

// SignOut revokes the refresh session. The access token simply ages out at
// its short TTL.
func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, auth.HashToken(refreshToken))
}

func (s *Service) issue(ctx context.Context, userID, email, role string) (Session, error) {
	expiresAt := time.Now().Add(s.accessTTL)
	token, err := auth.IssueToken(s.secret, auth.Claims{
		Sub:   userID,
		Email: email,
		Role:  role,
		JTI:   util.NewID(""),
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken := util.NewID("rt")
	err = s.sessions.Save(ctx, auth.HashToken(refreshToken), session.Data{
		UserID: userID,
		Email:  email,
		Role:   role,
	}, time.Now().Add(s.refreshTTL))
	if err != nil {
		return Session{}, fmt.Errorf("save refresh session: %w", err)
	}

	return Session{
		Token:        token,
		RefreshToken: refreshToken,
		UserID:       userID,
		Email:        email,
		Role:         role,
		ExpiresAt:    expiresAt,
	}, nil
}
