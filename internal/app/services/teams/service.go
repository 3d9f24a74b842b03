// Package teams manages team rosters.
package teams

import (
	"context"
	"strings"

	"github.com/hackcrew/service_layer/internal/app/core/service"
	"github.com/hackcrew/service_layer/internal/app/domain/team"
	"github.com/hackcrew/service_layer/internal/app/storage"
	"github.com/hackcrew/service_layer/internal/errors"
	"github.com/hackcrew/service_layer/internal/lock"
	"github.com/hackcrew/service_layer/internal/logging"
)

// Service creates teams and adds members.
type Service struct {
	store  storage.TeamStore
	locker lock.Locker
	log    *logging.Logger
}

// New constructs a team service. Membership changes are serialized per team
// through locker; nil means an in-process keyed mutex.
func New(store storage.TeamStore, locker lock.Locker, log *logging.Logger) *Service {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if log == nil {
		log = logging.NewDefault("teams")
	}
	return &Service{store: store, locker: locker, log: log}
}

func (s *Service) Descriptor() service.Descriptor {
	return service.Descriptor{Name: "teams", Domain: "team", Capabilities: []string{"create", "add-member"}}
}

// CreateInput is the request to create a team.
type CreateInput struct {
	UserID      string   `json:"user_id"`
	TeamName    string   `json:"team_name"`
	ProjectID   string   `json:"project_id"`
	TeamLeader  string   `json:"team_leader"`
	TeamMembers []string `json:"team_members"`
}

// Create stores a new team. The name defaults to team.DefaultName, the leader
// to the requesting user, and members are deduplicated.
func (s *Service) Create(ctx context.Context, in CreateInput) (team.Team, error) {
	leader := strings.TrimSpace(in.TeamLeader)
	if leader == "" {
		leader = strings.TrimSpace(in.UserID)
	}
	if leader == "" {
		return team.Team{}, errors.Required("team_leader")
	}
	name := strings.TrimSpace(in.TeamName)
	if name == "" {
		name = team.DefaultName
	}

	created, err := s.store.CreateTeam(ctx, team.Team{
		ProjectID: strings.TrimSpace(in.ProjectID),
		Name:      name,
		Leader:    leader,
		Members:   team.NormalizeMembers(in.TeamMembers),
	})
	if err != nil {
		return team.Team{}, service.FromStore("team", err)
	}
	s.log.WithContext(ctx).
		WithField("team_id", created.ID).
		WithField("members", len(created.Members)).
		Info("team created")
	return created, nil
}

// AddMember adds userID to the team. Adding an existing member is a no-op
// that writes nothing; the result reports whether the roster changed.
func (s *Service) AddMember(ctx context.Context, teamID, userID string) (bool, error) {
	teamID, userID = strings.TrimSpace(teamID), strings.TrimSpace(userID)
	if teamID == "" {
		return false, errors.Required("team_id")
	}
	if userID == "" {
		return false, errors.Required("user_id")
	}

	release, err := s.locker.Lock(ctx, "team:"+teamID)
	if err != nil {
		return false, errors.Upstream("acquire team lock", err)
	}
	defer release()

	t, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return false, service.FromStore("team", err)
	}
	if !t.AddMember(userID) {
		return false, nil
	}
	if err := s.store.UpdateTeamMembers(ctx, teamID, t.Members); err != nil {
		return false, service.FromStore("team", err)
	}
	s.log.WithContext(ctx).
		WithField("team_id", teamID).
		WithField("user_id", userID).
		Info("team member added")
	return true, nil
}
