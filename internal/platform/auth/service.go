package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"geoattend-backend/internal/platform/apierr"
	"geoattend-backend/internal/platform/clock"
)

const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Me(ctx context.Context, id string) (*Profile, error)
}

type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type LoginResult struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Employee    Profile   `json:"employee"`
}

type Service struct {
	store  AccountStore
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
	logger *zap.Logger
}

func NewService(store AccountStore, secret []byte, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{store: store, secret: secret, ttl: ttl, clock: clock.System(), logger: logger}
}

// WithClock swaps the clock, for tests.
func (s *Service) WithClock(c clock.Clock) *Service {
	s.clock = c
	return s
}

func invalidCredentials() *apierr.Error {
	return apierr.Unauthorized("Invalid email or password")
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	acct, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	// unknown and inactive accounts look the same as a wrong password
	if acct == nil || !acct.IsActive {
		return nil, invalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, invalidCredentials()
	}

	expiresAt := s.clock.Now().Add(s.ttl)
	token, err := SignToken(s.secret, acct.ID, acct.Role, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info("login", zap.String("employee_id", acct.ID), zap.String("role", acct.Role))
	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   expiresAt.UTC(),
		Employee:    profileOf(acct),
	}, nil
}

func (s *Service) Me(ctx context.Context, id string) (*Profile, error) {
	acct, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if acct == nil {
		return nil, apierr.NotFound("Employee not found")
	}
	p := profileOf(acct)
	return &p, nil
}

func profileOf(a *Account) Profile {
	return Profile{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role}
}

// SignToken issues an HS256 token carrying sub, role and exp.
func SignToken(secret []byte, sub, role string, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  expiresAt.Unix(),
	})
	return token.SignedString(secret)
}
