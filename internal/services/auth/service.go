// Package auth handles account registration and credential login. It issues
// the bearer tokens the API middleware validates; everything past the token
// is the job of the wallet and order services.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bbraka/wallet-pay-sub000/internal/config"
	errs "github.com/bbraka/wallet-pay-sub000/internal/errors"
	"github.com/bbraka/wallet-pay-sub000/internal/models"
	"github.com/bbraka/wallet-pay-sub000/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any login failure. The cause is
// deliberately not distinguished.
var ErrInvalidCredentials = errors.New("invalid credentials")

const minPasswordLength = 8

// DefaultTokenTTL applies when TOKEN_TTL is not configured.
const DefaultTokenTTL = 24 * time.Hour

type Service interface {
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
}

type service struct {
	users repositories.UserRepository
}

func NewService(users repositories.UserRepository) Service {
	if users == nil {
		panic("user repository is required")
	}
	return &service{users: users}
}

func (s *service) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errs.NewValidation("email", "must be a valid email address")
	}
	if len(password) < minPasswordLength {
		return nil, errs.NewValidation("password", "must be at least 8 characters")
	}
	if name == "" {
		return nil, errs.NewValidation("name", "is required")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, errs.NewValidation("email", "already registered")
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:    email,
		Password: string(hashed),
		Name:     name,
		Role:     models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *service) generateToken(user *models.User) (string, error) {
	ttl := config.GetDurationEnv("TOKEN_TTL", DefaultTokenTTL)
	claims := &models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.GetEnv("JWT_SECRET", "wallet-dev-secret")))
}
