package storage

import (
	"context"
	"errors"

	"github.com/hackcrew/service_layer/internal/app/domain/account"
	"github.com/hackcrew/service_layer/internal/app/domain/ideation"
	"github.com/hackcrew/service_layer/internal/app/domain/profile"
	"github.com/hackcrew/service_layer/internal/app/domain/project"
	"github.com/hackcrew/service_layer/internal/app/domain/research"
	"github.com/hackcrew/service_layer/internal/app/domain/team"
)

var (
	// ErrNotFound is returned when a keyed lookup or update matches no row.
	ErrNotFound = errors.New("storage: not found")
	// ErrConflict is returned when an insert hits an existing key.
	ErrConflict = errors.New("storage: conflict")
)

// NewProject bundles the three rows written when a project is created. The
// store writes them atomically or not at all.
type NewProject struct {
	Project    project.Project
	Membership project.Membership
	Team       team.Team
}

// ProjectStore persists projects and user memberships.
type ProjectStore interface {
	CreateProject(ctx context.Context, np NewProject) (project.Project, team.Team, error)
	GetProject(ctx context.Context, id string) (project.Project, error)
	UpdateProblemStatement(ctx context.Context, projectID, statement string) error
	// UpdateStage sets current_status on every membership of the project and
	// returns ErrNotFound when there is none.
	UpdateStage(ctx context.Context, projectID, label string) error
	ListMemberships(ctx context.Context, userID string) ([]project.Membership, error)
}

// TeamStore persists teams.
type TeamStore interface {
	CreateTeam(ctx context.Context, t team.Team) (team.Team, error)
	GetTeam(ctx context.Context, id string) (team.Team, error)
	UpdateTeamMembers(ctx context.Context, id string, members []string) error
}

// ProfileStore persists user profiles. ListProfiles must issue a single
// batched query regardless of how many IDs are passed.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (profile.Profile, error)
	ListProfiles(ctx context.Context, userIDs []string) ([]profile.Profile, error)
	InsertProfile(ctx context.Context, p profile.Profile) error
	UpsertProfile(ctx context.Context, p profile.Profile) error
}

// IdeationStore persists ideation_stage rows.
type IdeationStore interface {
	GetIdeation(ctx context.Context, projectID string) (ideation.Record, error)
	UpsertIdeation(ctx context.Context, u ideation.Update) (ideation.Record, error)
}

// ResearchStore persists research_stage rows. ListResearch returns rows in
// insertion order.
type ResearchStore interface {
	ListResearch(ctx context.Context, projectID string) ([]research.Assignment, error)
	GetResearch(ctx context.Context, projectID, userID string) (research.Assignment, error)
	UpsertResearchTasks(ctx context.Context, assignments []research.Assignment) error
	UpsertResearchPDF(ctx context.Context, projectID, userID, url string) error
}

// AccountStore persists login accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, acct account.Account) (account.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (account.Account, error)
	GetAccount(ctx context.Context, id string) (account.Account, error)
}

// ObjectStore stores uploaded files. PutObject overwrites and returns the
// object's public URL.
type ObjectStore interface {
	PutObject(ctx context.Context, path string, data []byte, contentType string) (string, error)
	RemoveObject(ctx context.Context, path string) error
}

// Store is the union implemented by every table-backed driver.
type Store interface {
	ProjectStore
	TeamStore
	ProfileStore
	IdeationStore
	ResearchStore
	AccountStore
}
