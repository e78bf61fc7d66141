package services

import (
	"context"
	"sync"

	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/repositories"
)

type ProfileService struct {
	Repo repositories.ProfileRepository

	// ids already known to have a profile row
	known sync.Map
}

func NewProfileService(repo repositories.ProfileRepository) *ProfileService {
	return &ProfileService{Repo: repo}
}

// Me returns the caller's profile, creating it on first sight from the
// token's identity. Tokens without an email get a placeholder address, since
// profile emails are unique.
func (s *ProfileService) Me(ctx context.Context, userID string, role models.UserRole, email string) (*models.Profile, error) {
	if email == "" {
		email = userID + "@users.invalid"
	}
	p, err := s.Repo.Ensure(ctx, &models.Profile{
		ID:          userID,
		Email:       email,
		Role:        role,
		NotifyEmail: true,
	})
	if err != nil {
		return nil, storeErr("ensure profile", err)
	}
	s.known.Store(userID, struct{}{})
	return p, nil
}

// Ensure makes sure the caller has a profile row, so that leads, deals and
// notes referencing them can be written. Ids seen once are not checked again.
func (s *ProfileService) Ensure(ctx context.Context, userID string, role models.UserRole, email string) error {
	if _, ok := s.known.Load(userID); ok {
		return nil
	}
	_, err := s.Me(ctx, userID, role, email)
	return err
}

func (s *ProfileService) List(ctx context.Context) ([]*models.Profile, error) {
	out, err := s.Repo.List(ctx)
	if err != nil {
		return nil, storeErr("list profiles", err)
	}
	return out, nil
}

// Preferences is what a user may change about their own profile.
type Preferences struct {
	FullName       *string
	AvatarURL      *string
	NotifyEmail    *bool
	NotifyTelegram *bool
}

func (s *ProfileService) UpdatePreferences(ctx context.Context, userID string, in Preferences) (*models.Profile, error) {
	p, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr("get profile", err)
	}
	if in.FullName != nil {
		p.FullName = in.FullName
	}
	if in.AvatarURL != nil {
		p.AvatarURL = in.AvatarURL
	}
	if in.NotifyEmail != nil {
		p.NotifyEmail = *in.NotifyEmail
	}
	if in.NotifyTelegram != nil {
		p.NotifyTelegram = *in.NotifyTelegram
	}
	if err := s.Repo.UpdatePreferences(ctx, p); err != nil {
		return nil, storeErr("update profile", err)
	}
	return p, nil
}
