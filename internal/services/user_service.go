package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"lost-persons/internal/proxy"
	"lost-persons/internal/repository"
	lperrors "lost-persons/pkg/errors"

	"github.com/google/uuid"
)

type UserService struct {
	repo      repository.UserRepository
	directory *Directory
	access    *proxy.AccessControl
}

func NewUserService(repo repository.UserRepository, directory *Directory, access *proxy.AccessControl) *UserService {
	return &UserService{repo: repo, directory: directory, access: access}
}

// ProfileUpdate carries the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name           *string
	Email          *string
	Phone          *string
	ContactInfo    *string
	ProfilePicture *string
}

type UserPage struct {
	Users      []UserInfo `json:"users"`
	Pagination Pagination `json:"pagination"`
}

func (s *UserService) Me(ctx context.Context, actor proxy.Actor) (UserInfo, error) {
	u, err := s.repo.GetUserByID(ctx, actor.ID)
	if err != nil {
		return UserInfo{}, err
	}
	return toUserInfo(u), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, actor proxy.Actor, in ProfileUpdate) (UserInfo, error) {
	u, err := s.repo.GetUserByID(ctx, actor.ID)
	if err != nil {
		return UserInfo{}, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return UserInfo{}, fmt.Errorf("name cannot be empty: %w", lperrors.ErrInvalidInput)
		}
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" || !strings.Contains(email, "@") {
			return UserInfo{}, fmt.Errorf("invalid email: %w", lperrors.ErrInvalidInput)
		}
		u.Email = email
	}
	if in.Phone != nil {
		u.Phone = toNullString(*in.Phone)
	}
	if in.ContactInfo != nil {
		u.ContactInfo = toNullString(*in.ContactInfo)
	}
	if in.ProfilePicture != nil {
		u.ProfilePicture = toNullString(*in.ProfilePicture)
	}

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return UserInfo{}, err
	}
	s.directory.Invalidate(ctx, u.ID)

	updated, err := s.repo.GetUserByID(ctx, u.ID)
	if err != nil {
		return UserInfo{}, err
	}
	return toUserInfo(updated), nil
}

func (s *UserService) List(ctx context.Context, actor proxy.Actor, page, limit int) (UserPage, error) {
	if err := s.access.CanListUsers(actor); err != nil {
		return UserPage{}, err
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	users, total, err := s.repo.GetAllUsers(ctx, page, limit)
	if err != nil {
		return UserPage{}, err
	}
	out := UserPage{
		Users: make([]UserInfo, 0, len(users)),
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Pages: int(math.Ceil(float64(total) / float64(limit))),
			Total: total,
		},
	}
	for _, u := range users {
		out.Users = append(out.Users, toUserInfo(u))
	}
	return out, nil
}

// GetByID is used by admins inspecting a single account.
func (s *UserService) GetByID(ctx context.Context, actor proxy.Actor, rawID string) (UserInfo, error) {
	if err := s.access.CanListUsers(actor); err != nil {
		return UserInfo{}, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return UserInfo{}, fmt.Errorf("user id: %w", lperrors.ErrInvalidInput)
	}
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return UserInfo{}, err
	}
	return toUserInfo(u), nil
}
