// Package profiles reads and writes user profiles.
package profiles

import (
	"context"
	"strings"

	"github.com/hackcrew/service_layer/internal/app/core/service"
	"github.com/hackcrew/service_layer/internal/app/domain/profile"
	"github.com/hackcrew/service_layer/internal/app/storage"
	"github.com/hackcrew/service_layer/internal/errors"
	"github.com/hackcrew/service_layer/internal/logging"
)

const defaultAvailability = "student"

// Service manages user profiles.
type Service struct {
	store storage.ProfileStore
	log   *logging.Logger
}

func New(store storage.ProfileStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("profiles")
	}
	return &Service{store: store, log: log}
}

func (s *Service) Descriptor() service.Descriptor {
	return service.Descriptor{Name: "profiles", Domain: "profile", Capabilities: []string{"get", "upsert", "create"}}
}

// Summary is the public view of a profile.
type Summary struct {
	Username  string       `json:"username"`
	Role      profile.Role `json:"role"`
	Bio       string       `json:"bio"`
	AvatarURL string       `json:"avatar_url"`
	Skills    []string     `json:"skills"`
}

// Get returns the public summary of userID's profile.
func (s *Service) Get(ctx context.Context, userID string) (Summary, error) {
	if strings.TrimSpace(userID) == "" {
		return Summary{}, errors.Required("user_id")
	}
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return Summary{}, service.FromStore("profile", err)
	}
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	return Summary{Username: p.Username, Role: p.Role, Bio: p.Bio, AvatarURL: p.AvatarURL, Skills: skills}, nil
}

// Upsert creates or replaces a profile.
func (s *Service) Upsert(ctx context.Context, p profile.Profile) error {
	p, err := normalize(p)
	if err != nil {
		return err
	}
	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return service.FromStore("profile", err)
	}
	s.log.WithContext(ctx).WithField("user_id", p.UserID).Info("profile saved")
	return nil
}

// Create inserts a profile; an existing profile for the user is a CONFLICT.
func (s *Service) Create(ctx context.Context, p profile.Profile) error {
	p, err := normalize(p)
	if err != nil {
		return err
	}
	if err := s.store.InsertProfile(ctx, p); err != nil {
		return service.FromStore("profile", err)
	}
	s.log.WithContext(ctx).WithField("user_id", p.UserID).Info("profile created")
	return nil
}

func normalize(p profile.Profile) (profile.Profile, error) {
	p.UserID = strings.TrimSpace(p.UserID)
	if p.UserID == "" {
		return p, errors.Required("user_id")
	}
	if len(p.FullName) > 100 {
		return p, errors.Validation("full_name must be at most 100 characters")
	}
	if p.Availability == "" {
		p.Availability = defaultAvailability
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	return p, nil
}
