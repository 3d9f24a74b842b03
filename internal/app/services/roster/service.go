// Package roster assembles a project's team with member profiles.
package roster

import (
	"context"
	"strings"

	"github.com/hackcrew/service_layer/internal/app/core/service"
	"github.com/hackcrew/service_layer/internal/app/domain/profile"
	"github.com/hackcrew/service_layer/internal/app/storage"
	"github.com/hackcrew/service_layer/internal/errors"
	"github.com/hackcrew/service_layer/internal/logging"
)

// Member is one roster entry.
type Member struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Service resolves project → team → profiles.
type Service struct {
	projects storage.ProjectStore
	teams    storage.TeamStore
	profiles storage.ProfileStore
	log      *logging.Logger
}

// New constructs a roster service.
func New(projects storage.ProjectStore, teams storage.TeamStore, profiles storage.ProfileStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("roster")
	}
	return &Service{projects: projects, teams: teams, profiles: profiles, log: log}
}

func (s *Service) Descriptor() service.Descriptor {
	return service.Descriptor{Name: "roster", Domain: "team", Capabilities: []string{"team-members"}}
}

// TeamMembers returns the project's team in roster order. Profiles are fetched
// with one batched lookup; members without a profile are skipped.
func (s *Service) TeamMembers(ctx context.Context, projectID string) ([]Member, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.Required("project_id")
	}
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, service.FromStore("project", err)
	}
	if p.TeamID == "" {
		return nil, errors.NotFound("team")
	}
	t, err := s.teams.GetTeam(ctx, p.TeamID)
	if err != nil {
		return nil, service.FromStore("team", err)
	}
	if len(t.Members) == 0 {
		return []Member{}, nil
	}

	byID, err := ProfilesByID(ctx, s.profiles, t.Members)
	if err != nil {
		return nil, err
	}

	out := make([]Member, 0, len(t.Members))
	for _, id := range t.Members {
		prof, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, Member{UserID: id, Name: prof.FullName, Role: prof.Role.Display()})
	}
	return out, nil
}

// ProfilesByID fetches the profiles of ids with a single ListProfiles call and
// indexes them by user id.
func ProfilesByID(ctx context.Context, store storage.ProfileStore, ids []string) (map[string]profile.Profile, error) {
	profiles, err := store.ListProfiles(ctx, ids)
	if err != nil {
		return nil, service.FromStore("profiles", err)
	}
	byID := make(map[string]profile.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.UserID] = p
	}
	return byID, nil
}
