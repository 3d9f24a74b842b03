// Package projects creates projects and tracks the workflow stage each one
// is in.
package projects

import (
	"context"
	"strings"

	"github.com/hackcrew/service_layer/internal/app/core/service"
	"github.com/hackcrew/service_layer/internal/app/domain/project"
	"github.com/hackcrew/service_layer/internal/app/domain/team"
	"github.com/hackcrew/service_layer/internal/app/storage"
	"github.com/hackcrew/service_layer/internal/errors"
	"github.com/hackcrew/service_layer/internal/events"
	"github.com/hackcrew/service_layer/internal/logging"
)

// Service manages projects and their stage.
type Service struct {
	store  storage.ProjectStore
	events events.Publisher
	log    *logging.Logger
}

// New constructs a project service. A nil publisher discards events.
func New(store storage.ProjectStore, pub events.Publisher, log *logging.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = logging.NewDefault("projects")
	}
	return &Service{store: store, events: pub, log: log}
}

func (s *Service) Descriptor() service.Descriptor {
	return service.Descriptor{
		Name:         "projects",
		Domain:       "project",
		Capabilities: []string{"create", "problem-statement", "update-stage", "user-projects"},
	}
}

// CreateInput is the request to create a project.
type CreateInput struct {
	UserID        string `json:"user_id"`
	ProjectName   string `json:"project_name"`
	HackathonID   string `json:"hackathon_id"`
	HackathonName string `json:"hackathon_name"`
	Description   string `json:"description"`
}

// Created is returned after a project is created.
type Created struct {
	ProjectID string `json:"project_id"`
	TeamID    string `json:"team_id"`
	Status    string `json:"status"`
}

// Create writes the project, the creator's membership at the first stage and
// a default team led by the creator.
func (s *Service) Create(ctx context.Context, in CreateInput) (Created, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return Created{}, errors.Required("user_id")
	}
	name := strings.TrimSpace(in.ProjectName)
	if name == "" {
		name = project.DefaultName
	}

	p, t, err := s.store.CreateProject(ctx, storage.NewProject{
		Project: project.Project{
			Name:          name,
			TeamLeader:    userID,
			HackathonID:   strings.TrimSpace(in.HackathonID),
			HackathonName: in.HackathonName,
			Description:   in.Description,
		},
		Membership: project.Membership{
			UserID:        userID,
			ProjectName:   name,
			HackathonName: in.HackathonName,
			CurrentStatus: project.StageManageTeam.Label(),
			State:         project.StateActive,
		},
		Team: team.Team{
			Name:    team.DefaultName,
			Leader:  userID,
			Members: []string{userID},
		},
	})
	if err != nil {
		return Created{}, service.FromStore("project", err)
	}

	s.log.WithContext(ctx).
		WithField("project_id", p.ID).
		WithField("team_id", t.ID).
		Info("project created")
	s.publish(ctx, events.SubjectProjectCreated, events.ProjectCreated{ProjectID: p.ID, TeamID: t.ID, UserID: userID})

	return Created{ProjectID: p.ID, TeamID: t.ID, Status: project.StatusCreated}, nil
}

// Get returns a project or NOT_FOUND.
func (s *Service) Get(ctx context.Context, projectID string) (project.Project, error) {
	if strings.TrimSpace(projectID) == "" {
		return project.Project{}, errors.Required("project_id")
	}
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return project.Project{}, service.FromStore("project", err)
	}
	return p, nil
}

// ProblemStatement returns the project's statement, "" when unset.
func (s *Service) ProblemStatement(ctx context.Context, projectID string) (string, error) {
	p, err := s.Get(ctx, projectID)
	if err != nil {
		return "", err
	}
	return p.ProblemStatement, nil
}

// SetProblemStatement replaces the project's statement.
func (s *Service) SetProblemStatement(ctx context.Context, projectID, statement string) error {
	if strings.TrimSpace(projectID) == "" {
		return errors.Required("project_id")
	}
	if strings.TrimSpace(statement) == "" {
		return errors.Required("problem_statement")
	}
	if err := s.store.UpdateProblemStatement(ctx, projectID, statement); err != nil {
		return service.FromStore("project", err)
	}
	s.log.WithContext(ctx).WithField("project_id", projectID).Info("problem statement updated")
	return nil
}

// StageUpdate is the result of UpdateStage.
type StageUpdate struct {
	Message     string `json:"message"`
	ProjectID   string `json:"project_id"`
	StageNumber int    `json:"stage_number"`
	StageLabel  string `json:"stage_label"`
}

// UpdateStage moves every membership of the project to stage. Out-of-range
// stages are rejected before the store is touched.
func (s *Service) UpdateStage(ctx context.Context, projectID string, stage int) (StageUpdate, error) {
	if strings.TrimSpace(projectID) == "" {
		return StageUpdate{}, errors.Required("project_id")
	}
	st := project.Stage(stage)
	if !st.Valid() {
		return StageUpdate{}, errors.Validation("stage must be between 1 and 5").WithDetails("stage", stage)
	}

	if err := s.store.UpdateStage(ctx, projectID, st.Label()); err != nil {
		return StageUpdate{}, service.FromStore("project", err)
	}

	s.log.WithContext(ctx).
		WithField("project_id", projectID).
		WithField("stage", st.Label()).
		Info("project stage updated")
	s.publish(ctx, events.SubjectStageUpdated, events.StageUpdated{ProjectID: projectID, StageNumber: int(st), StageLabel: st.Label()})

	return StageUpdate{
		Message:     "Project stage updated successfully",
		ProjectID:   projectID,
		StageNumber: int(st),
		StageLabel:  st.Label(),
	}, nil
}

// UserProject is one entry of a user's project list.
type UserProject struct {
	ProjectID     string `json:"project_id"`
	ProjectName   string `json:"project_name"`
	HackathonName string `json:"hackathon_name"`
	CurrentStatus string `json:"current_status"`
	StageNumber   int    `json:"stage_number"`
	StageLabel    string `json:"stage_label"`
}

// ListUserProjects lists a user's projects with the stage resolved through
// the stage table. Unknown stored labels come back with stage 0 and the raw
// label.
func (s *Service) ListUserProjects(ctx context.Context, userID string) ([]UserProject, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.Required("query")
	}
	memberships, err := s.store.ListMemberships(ctx, userID)
	if err != nil {
		return nil, service.FromStore("user projects", err)
	}

	out := make([]UserProject, 0, len(memberships))
	for _, m := range memberships {
		st := m.Stage()
		label := st.Label()
		if label == "" {
			label = m.CurrentStatus
		}
		out = append(out, UserProject{
			ProjectID:     m.ProjectID,
			ProjectName:   m.ProjectName,
			HackathonName: m.HackathonName,
			CurrentStatus: m.CurrentStatus,
			StageNumber:   int(st),
			StageLabel:    label,
		})
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, subject string, payload interface{}) {
	if err := s.events.Publish(ctx, subject, payload); err != nil {
		s.log.WithContext(ctx).WithError(err).WithField("subject", subject).Warn("publish event")
	}
}
