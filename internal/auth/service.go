package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aidosk/fileharbor/internal/config"
	"github.com/aidosk/fileharbor/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// userStore abstracts the persistence layer.
type userStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (User, error)
}

// Service encapsulates sign-up and sign-in use cases.
type Service struct {
	store   userStore
	cfg     config.AuthConfig
	log     *zap.Logger
	nowFunc func() time.Time
}

// NewService creates a Service with dependencies.
func NewService(store userStore, cfg config.AuthConfig, log *zap.Logger) *Service {
	return &Service{
		store:   store,
		cfg:     cfg,
		log:     log,
		nowFunc: time.Now,
	}
}

// SignUp registers a new user and returns a bearer token for the created
// account. A taken email fails with ErrEmailAlreadyExists.
func (s *Service) SignUp(ctx context.Context, email, password string) (string, error) {
	log := logger.WithContext(ctx, s.log)
	log.Info("sign up attempt", zap.String("email", email))

	passwordHash, err := HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, email, passwordHash)
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			log.Warn("sign up failed, email taken", zap.String("email", email))
			return "", ErrEmailAlreadyExists
		}
		log.Error("sign up failed", zap.Error(err))
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := IssueToken(user, s.cfg.TokenSecret, s.cfg.TokenTTL, s.nowFunc())
	if err != nil {
		log.Error("sign up failed", zap.Error(err))
		return "", fmt.Errorf("issue token: %w", err)
	}

	log.Info("user signed up", zap.String("user_id", user.ID.String()))
	return token, nil
}

// SignIn authenticates credentials and returns a fresh bearer token. An
// unknown email and a wrong password are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	log := logger.WithContext(ctx, s.log)
	log.Info("sign in attempt", zap.String("email", email))

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.Warn("sign in failed, user not found", zap.String("email", email))
			return "", ErrInvalidCredentials
		}
		log.Error("sign in failed", zap.Error(err))
		return "", fmt.Errorf("find user: %w", err)
	}

	if !VerifyPassword(user.PasswordHash, password) {
		log.Warn("sign in failed, invalid password", zap.String("email", email))
		return "", ErrInvalidCredentials
	}

	token, err := IssueToken(user, s.cfg.TokenSecret, s.cfg.TokenTTL, s.nowFunc())
	if err != nil {
		log.Error("sign in failed", zap.Error(err))
		return "", fmt.Errorf("issue token: %w", err)
	}

	log.Info("user signed in", zap.String("user_id", user.ID.String()))
	return token, nil
}

// ResolveUser verifies a bearer token and re-resolves the full user record
// from the store. Any failure along the way fails closed with
// ErrUnauthorized.
func (s *Service) ResolveUser(ctx context.Context, tokenString string) (User, error) {
	claims, err := VerifyToken(tokenString, s.cfg.TokenSecret)
	if err != nil {
		return User{}, ErrUnauthorized
	}

	user, err := s.store.FindUserByID(ctx, claims.UserID)
	if err != nil {
		return User{}, ErrUnauthorized
	}

	return user, nil
}
