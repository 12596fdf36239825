// Package auth issues and verifies admin session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/wisp-cms/wisp/internal/app/domain/user"
	"github.com/wisp-cms/wisp/internal/app/storage"
	"github.com/wisp-cms/wisp/pkg/logger"
)

// ErrInvalidCredentials is returned for a wrong email or password. Callers
// must not reveal which one was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUserInactive is returned when the account exists but may not sign in.
var ErrUserInactive = errors.New("user is not active")

// Claims carries the session identity inside a signed token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Service authenticates staff users and issues HS256 session tokens.
type Service struct {
	users  storage.UserStore
	secret []byte
	ttl    time.Duration
	log    *logger.Logger
}

// New constructs an auth service signing tokens with secret.
func New(users storage.UserStore, secret string, ttl time.Duration, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{users: users, secret: []byte(secret), ttl: ttl, log: log}
}

// Login checks the credentials and returns a signed session token with the
// authenticated user.
func (s *Service) Login(ctx context.Context, email, password string) (string, user.User, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", user.User{}, ErrInvalidCredentials
		}
		return "", user.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", user.User{}, ErrInvalidCredentials
	}
	if u.Status != user.StatusActive {
		return "", user.User{}, ErrUserInactive
	}

	now := time.Now()
	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "wisp",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", user.User{}, fmt.Errorf("failed to sign token: %w", err)
	}

	s.log.Infof("user %s logged in", u.ID)
	return token, u, nil
}

// Verify parses and validates a session token.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
