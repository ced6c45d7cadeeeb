package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/models"
	"storefront/repositories"
	"storefront/utils"
)

type AuthService struct {
	users     UserStore
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthService(users UserStore, jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*models.LoginResponse, error) {
	token, err := utils.GenerateToken(*user, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	withProfile, err := s.users.GetWithProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{
		Token: token,
		User:  *withProfile,
	}, nil
}

// Register creates the account with an empty profile and logs it in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if existing, _ := s.users.FindByUsername(ctx, username); existing != nil {
		return nil, fmt.Errorf("%w: username %q is taken", ErrConflict, username)
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:  username,
		Email:     req.Email,
		Password:  hashed,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: username %q is taken", ErrConflict, username)
		}
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.VerifyPassword(user.Password, req.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, user)
}
