package domain

import (
	"context"
	"errors"
	"strings"

	"example.com/genid/internal/observability"
)

// UserService manages profile setup and edits.
type UserService struct {
	repo     UserRepository
	cache    ProfileCache
	calendar Calendar
}

// NewUserService constructs a UserService.
func NewUserService(repo UserRepository, cache ProfileCache, calendar Calendar) *UserService {
	return &UserService{repo: repo, cache: cache, calendar: calendar}
}

// SetupInput is the one-time profile creation payload.
type SetupInput struct {
	UserID      string `json:"user_id" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	Username    string `json:"username" validate:"required,min=3,max=30,username"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=50"`
}

// ProfileUpdate carries optional profile changes. Nil fields are left untouched.
type ProfileUpdate struct {
	Username    *string `json:"username,omitempty" validate:"omitempty,min=3,max=30,username"`
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,min=2,max=50"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
}

func (in *SetupInput) normalize() {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Email = strings.TrimSpace(in.Email)
}

func (u *ProfileUpdate) normalize() {
	if u.Username != nil {
		v := strings.ToLower(strings.TrimSpace(*u.Username))
		u.Username = &v
	}
	if u.DisplayName != nil {
		v := strings.TrimSpace(*u.DisplayName)
		u.DisplayName = &v
	}
	if u.Email != nil {
		v := strings.TrimSpace(*u.Email)
		u.Email = &v
	}
}

// Setup creates the caller's profile. Usernames are stored lowercased.
func (s *UserService) Setup(ctx context.Context, input SetupInput) (*User, error) {
	input.normalize()
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrProfileExists
	}

	user := User{
		ID:          input.UserID,
		Username:    input.Username,
		DisplayName: input.DisplayName,
		Email:       input.Email,
		CreatedAt:   s.calendar.now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies changes to an existing profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error) {
	update.normalize()
	if err := validateStruct(update); err != nil {
		return nil, err
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.DisplayName != nil {
		user.DisplayName = *update.DisplayName
	}
	if update.Email != nil {
		user.Email = *update.Email
	}

	if err := s.repo.UpdateUser(ctx, *user); err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, userID)
	return user, nil
}

// Get fetches a profile by id.
func (s *UserService) Get(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// List returns every profile, newest first.
func (s *UserService) List(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// invalidate drops a cached profile. Failures are counted, not returned.
func invalidate(ctx context.Context, cache ProfileCache, userID string) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, userID); err != nil && !errors.Is(err, context.Canceled) {
		observability.RecordProfileCacheError("invalidate")
	}
}
