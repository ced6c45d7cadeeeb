package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"storefront/libs"
	"storefront/models"
	"storefront/repositories"
)

type UserService struct {
	users   UserStore
	storage libs.Storage
}

func NewUserService(users UserStore, storage libs.Storage) *UserService {
	return &UserService{users: users, storage: storage}
}

func (s *UserService) List(ctx context.Context, page, limit int) ([]models.UserWithProfile, models.PaginationMeta, error) {
	page, limit = normalizePage(page, limit)
	users, total, err := s.users.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, models.PaginationMeta{}, err
	}
	return users, models.NewPaginationMeta(page, limit, total), nil
}

func (s *UserService) Get(ctx context.Context, id int) (*models.UserWithProfile, error) {
	return s.users.GetWithProfile(ctx, id)
}

// Update changes names, email, bio and avatar. Staff may edit anyone, other
// users only themselves.
func (s *UserService) Update(ctx context.Context, caller models.User, id int, req models.UpdateUserRequest, avatar *multipart.FileHeader) (*models.UserWithProfile, error) {
	if caller.ID != id && !caller.IsStaff && !caller.IsSuperuser {
		return nil, ErrForbidden
	}
	current, err := s.users.GetWithProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	user := current.User
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		user.Email = strings.TrimSpace(*req.Email)
	}
	if err := s.users.Update(ctx, &user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	profile := current.Profile
	profile.UserID = id
	if req.Bio != nil {
		profile.Bio = *req.Bio
	}
	old := profile.Avatar
	if avatar != nil {
		url, err := s.storage.Save(ctx, avatar, "profiles")
		if err != nil {
			return nil, storageErr("avatar", err)
		}
		profile.Avatar = url
	}
	if err := s.users.UpsertProfile(ctx, &profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if avatar != nil && old != "" {
		if err := s.storage.Delete(ctx, old); err != nil {
			log.Warn().Err(err).Str("file", old).Msg("failed to remove old avatar")
		}
	}
	return s.users.GetWithProfile(ctx, id)
}

func (s *UserService) ListGroups(ctx context.Context) ([]models.Group, error) {
	return s.users.ListGroups(ctx)
}

func (s *UserService) CreateGroup(ctx context.Context, req models.GroupRequest) (*models.Group, error) {
	for _, code := range req.Permissions {
		if !slices.Contains(models.KnownPermissions, code) {
			return nil, invalidf("unknown permission %q", code)
		}
	}
	g := &models.Group{
		Name:        strings.TrimSpace(req.Name),
		Permissions: req.Permissions,
	}
	if g.Name == "" {
		return nil, invalidf("name is required")
	}
	if g.Permissions == nil {
		g.Permissions = []string{}
	}
	if err := s.users.CreateGroup(ctx, g); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: group %q", ErrConflict, g.Name)
		}
		return nil, err
	}
	return g, nil
}
