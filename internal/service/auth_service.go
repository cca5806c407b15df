package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-gin-helpdesk/internal/cache"
	"go-gin-helpdesk/internal/model"
	"go-gin-helpdesk/internal/repository"
	apperrors "go-gin-helpdesk/pkg/app_errors"
	"go-gin-helpdesk/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	// Register 建立使用者，email 已存在時回傳 ErrDuplicateEmail
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	// Login 驗證帳密，失敗時回傳 ErrInvalidCredentials；失敗次數過多時回傳 ErrTooManyAttempts
	Login(ctx context.Context, email, password string) (*model.User, error)
}

type AuthServiceImpl struct {
	users    repository.UserRepository
	attempts cache.LoginAttemptLimiter
	hashCost int
}

// NewAuthService uses bcrypt.DefaultCost when hashCost is zero.
func NewAuthService(users repository.UserRepository, attempts cache.LoginAttemptLimiter, hashCost int) AuthService {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &AuthServiceImpl{users: users, attempts: attempts, hashCost: hashCost}
}

func (s *AuthServiceImpl) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperrors.ErrInvalidInput
	}

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, apperrors.ErrDuplicateEmail
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.ErrInvalidInput
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// the unique index still guards a concurrent registration of the same email
	user, err := s.users.Create(ctx, &model.User{
		Firstname: strings.TrimSpace(req.Firstname),
		Lastname:  strings.TrimSpace(req.Lastname),
		Email:     email,
		Password:  string(hashed),
	})
	if err != nil {
		return nil, err
	}

	logger.WithComponent("service").Info("user registered", zap.Int("user_id", user.ID))
	return user, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)

	allowed, err := s.attempts.Allowed(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check login attempts: %w", err)
	}
	if !allowed {
		return nil, apperrors.ErrTooManyAttempts
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, s.loginFailed(ctx, email)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, s.loginFailed(ctx, email)
	}

	if err := s.attempts.Reset(ctx, email); err != nil {
		logger.WithComponent("service").Warn("failed to reset login attempts", zap.Error(err))
	}
	return user, nil
}

// loginFailed counts the failure; the caller still gets ErrInvalidCredentials.
func (s *AuthServiceImpl) loginFailed(ctx context.Context, email string) error {
	count, err := s.attempts.RecordFailure(ctx, email)
	if err != nil {
		logger.WithComponent("service").Warn("failed to record login attempt", zap.Error(err))
		return apperrors.ErrInvalidCredentials
	}
	if count > 0 {
		logger.WithComponent("service").Info("login failed", zap.Int("failures", count))
	}
	return apperrors.ErrInvalidCredentials
}
