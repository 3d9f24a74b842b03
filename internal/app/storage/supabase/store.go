// Package supabase implements the storage interfaces over Supabase's
// PostgREST and Storage APIs.
package supabase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hackcrew/service_layer/internal/app/domain/account"
	"github.com/hackcrew/service_layer/internal/app/domain/ideation"
	"github.com/hackcrew/service_layer/internal/app/domain/profile"
	"github.com/hackcrew/service_layer/internal/app/domain/project"
	"github.com/hackcrew/service_layer/internal/app/domain/research"
	"github.com/hackcrew/service_layer/internal/app/domain/team"
	"github.com/hackcrew/service_layer/internal/app/storage"
	"github.com/hackcrew/service_layer/internal/logging"
	"github.com/hackcrew/service_layer/supabase/client"
)

// Store implements storage.Store against PostgREST.
type Store struct {
	db  *client.Client
	log *logging.Logger
}

var _ storage.Store = (*Store)(nil)

// New creates a Store using the provided client.
func New(db *client.Client, log *logging.Logger) *Store {
	if log == nil {
		log = logging.NewDefault("supabase-store")
	}
	return &Store{db: db, log: log}
}

// translate maps PostgREST failures onto the storage sentinels.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case client.IsNoRows(err):
		return storage.ErrNotFound
	case client.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, storage.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// --- ProjectStore -----------------------------------------------------------

// CreateProject writes project_db, user_projects and team_db in order.
// PostgREST has no multi-request transaction, so a failed step deletes the
// rows written before it.
func (s *Store) CreateProject(ctx context.Context, np storage.NewProject) (project.Project, team.Team, error) {
	p, m, t := np.Project, np.Membership, np.Team
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	p.TeamID = t.ID
	t.ProjectID = p.ID
	m.ProjectID = p.ID

	var created []projectRow
	if err := s.db.From(tableProjects).Insert(toProjectRow(p)).ExecuteInto(ctx, &created); err != nil {
		return project.Project{}, team.Team{}, translate("insert project", err)
	}
	if len(created) > 0 {
		p = created[0].toDomain()
	}

	if _, err := s.db.From(tableMemberships).Insert(membershipRow(m)).Execute(ctx); err != nil {
		s.compensate(ctx, p.ID, false)
		return project.Project{}, team.Team{}, translate("insert user project", err)
	}

	var teams []teamRow
	if err := s.db.From(tableTeams).Insert(toTeamRow(t)).ExecuteInto(ctx, &teams); err != nil {
		s.compensate(ctx, p.ID, true)
		return project.Project{}, team.Team{}, translate("insert team", err)
	}
	if len(teams) > 0 {
		t = teams[0].toDomain()
	}
	return p, t, nil
}

// compensate removes a partially created project. It uses a fresh context so
// that a cancelled request still cleans up.
func (s *Store) compensate(ctx context.Context, projectID string, memberships bool) {
	cleanup := context.WithoutCancel(ctx)
	entry := s.log.WithContext(ctx).WithField("project_id", projectID)
	if memberships {
		if _, err := s.db.From(tableMemberships).Delete().Eq("project_id", projectID).Execute(cleanup); err != nil {
			entry.WithError(err).Error("compensating delete of user_projects failed")
		}
	}
	if _, err := s.db.From(tableProjects).Delete().Eq("id", projectID).Execute(cleanup); err != nil {
		entry.WithError(err).Error("compensating delete of project failed")
		return
	}
	entry.Warn("project creation rolled back")
}

func (s *Store) GetProject(ctx context.Context, id string) (project.Project, error) {
	var rows []projectRow
	if err := s.db.From(tableProjects).Select("*").Eq("id", id).Limit(1).ExecuteInto(ctx, &rows); err != nil {
		return project.Project{}, translate("get project", err)
	}
	if len(rows) == 0 {
		return project.Project{}, storage.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

func (s *Store) UpdateProblemStatement(ctx context.Context, projectID, statement string) error {
	var rows []projectRow
	err := s.db.From(tableProjects).
		Update(map[string]string{"problem_statement": statement}).
		Eq("id", projectID).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return translate("update problem statement", err)
	}
	if len(rows) == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateStage(ctx context.Context, projectID, label string) error {
	var rows []membershipRow
	err := s.db.From(tableMemberships).
		Update(map[string]string{"current_status": label}).
		Eq("project_id", projectID).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return translate("update stage", err)
	}
	if len(rows) == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListMemberships(ctx context.Context, userID string) ([]project.Membership, error) {
	var rows []membershipRow
	err := s.db.From(tableMemberships).
		Select("user_id,project_id,project_name,hackathon_name,current_status,state").
		Eq("user_id", userID).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, translate("list user projects", err)
	}
	result := make([]project.Membership, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

// --- TeamStore --------------------------------------------------------------

func (s *Store) CreateTeam(ctx context.Context, t team.Team) (team.Team, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	var rows []teamRow
	if err := s.db.From(tableTeams).Insert(toTeamRow(t)).ExecuteInto(ctx, &rows); err != nil {
		return team.Team{}, translate("insert team", err)
	}
	if len(rows) > 0 {
		return rows[0].toDomain(), nil
	}
	return t, nil
}

func (s *Store) GetTeam(ctx context.Context, id string) (team.Team, error) {
	var rows []teamRow
	if err := s.db.From(tableTeams).Select("*").Eq("team_id", id).Limit(1).ExecuteInto(ctx, &rows); err != nil {
		return team.Team{}, translate("get team", err)
	}
	if len(rows) == 0 {
		return team.Team{}, storage.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

func (s *Store) UpdateTeamMembers(ctx context.Context, id string, members []string) error {
	if members == nil {
		members = []string{}
	}
	var rows []teamRow
	err := s.db.From(tableTeams).
		Update(map[string][]string{"team_members": members}).
		Eq("team_id", id).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return translate("update team members", err)
	}
	if len(rows) == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- ProfileStore -----------------------------------------------------------

func (s *Store) GetProfile(ctx context.Context, userID string) (profile.Profile, error) {
	var rows []profileRow
	if err := s.db.From(tableProfiles).Select("*").Eq("user_id", userID).Limit(1).ExecuteInto(ctx, &rows); err != nil {
		return profile.Profile{}, translate("get profile", err)
	}
	if len(rows) == 0 {
		return profile.Profile{}, storage.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

// ListProfiles issues one `in` query for all IDs.
func (s *Store) ListProfiles(ctx context.Context, userIDs []string) ([]profile.Profile, error) {
	if len(userIDs) == 0 {
		return []profile.Profile{}, nil
	}
	var rows []profileRow
	err := s.db.From(tableProfiles).
		Select("user_id,full_name,username,role,skills").
		In("user_id", userIDs).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, translate("list profiles", err)
	}
	result := make([]profile.Profile, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) InsertProfile(ctx context.Context, p profile.Profile) error {
	if _, err := s.db.From(tableProfiles).Insert(toProfileRow(p)).Execute(ctx); err != nil {
		return translate("insert profile", err)
	}
	return nil
}

func (s *Store) UpsertProfile(ctx context.Context, p profile.Profile) error {
	if _, err := s.db.From(tableProfiles).Upsert(toProfileRow(p), "user_id").Execute(ctx); err != nil {
		return translate("upsert profile", err)
	}
	return nil
}

// --- IdeationStore ----------------------------------------------------------

func (s *Store) GetIdeation(ctx context.Context, projectID string) (ideation.Record, error) {
	var rows []ideationRow
	err := s.db.From(tableIdeation).
		Select("project_id,q_n_a,pitch,prd").
		Eq("project_id", projectID).
		Limit(1).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return ideation.Record{}, translate("get ideation", err)
	}
	if len(rows) == 0 {
		return ideation.Record{}, storage.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

func (s *Store) UpsertIdeation(ctx context.Context, u ideation.Update) (ideation.Record, error) {
	var rows []ideationRow
	if err := s.db.From(tableIdeation).Upsert(ideationPatch(u), "project_id").ExecuteInto(ctx, &rows); err != nil {
		return ideation.Record{}, translate("upsert ideation", err)
	}
	if len(rows) == 0 {
		return u.Apply(ideation.Record{}), nil
	}
	return rows[0].toDomain(), nil
}

// --- ResearchStore ----------------------------------------------------------

func (s *Store) ListResearch(ctx context.Context, projectID string) ([]research.Assignment, error) {
	var rows []researchRow
	err := s.db.From(tableResearch).
		Select("project_id,user_id,tasks,pdf_url").
		Eq("project_id", projectID).
		Order("id", true).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, translate("list research", err)
	}
	result := make([]research.Assignment, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) GetResearch(ctx context.Context, projectID, userID string) (research.Assignment, error) {
	var rows []researchRow
	err := s.db.From(tableResearch).
		Select("project_id,user_id,tasks,pdf_url").
		Eq("project_id", projectID).
		Eq("user_id", userID).
		Limit(1).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return research.Assignment{}, translate("get research", err)
	}
	if len(rows) == 0 {
		return research.Assignment{}, storage.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

// UpsertResearchTasks writes all rows in one bulk upsert. Only the tasks
// column is sent, so an existing pdf_url survives.
func (s *Store) UpsertResearchTasks(ctx context.Context, assignments []research.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	rows := make([]researchTasksRow, 0, len(assignments))
	for _, a := range assignments {
		tasks := a.Tasks
		if tasks == nil {
			tasks = []string{}
		}
		rows = append(rows, researchTasksRow{ProjectID: a.ProjectID, UserID: a.UserID, Tasks: tasks})
	}
	if _, err := s.db.From(tableResearch).Upsert(rows, "project_id,user_id").Execute(ctx); err != nil {
		return translate("upsert research tasks", err)
	}
	return nil
}

func (s *Store) UpsertResearchPDF(ctx context.Context, projectID, userID, url string) error {
	row := researchPDFRow{ProjectID: projectID, UserID: userID, PDFURL: url}
	if _, err := s.db.From(tableResearch).Upsert(row, "project_id,user_id").Execute(ctx); err != nil {
		return translate("upsert research pdf", err)
	}
	return nil
}

// --- AccountStore -----------------------------------------------------------

func (s *Store) CreateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	row := accountRow{ID: acct.ID, Email: acct.Email, Password: acct.PasswordHash, Role: acct.Role}
	var rows []accountRow
	if err := s.db.From(tableAccounts).Insert(row).ExecuteInto(ctx, &rows); err != nil {
		return account.Account{}, translate("insert account", err)
	}
	if len(rows) == 0 {
		return account.Account{}, fmt.Errorf("insert account: empty representation")
	}
	return rows[0].toDomain(), nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	return s.getAccount(ctx, "email", strings.TrimSpace(email))
}

func (s *Store) GetAccount(ctx context.Context, id string) (account.Account, error) {
	return s.getAccount(ctx, "id", id)
}

func (s *Store) getAccount(ctx context.Context, column, value string) (account.Account, error) {
	var rows []accountRow
	err := s.db.From(tableAccounts).
		Select("id,email,password,role,created_at").
		Eq(column, value).
		Limit(1).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return account.Account{}, translate("get account", err)
	}
	if len(rows) == 0 {
		return account.Account{}, storage.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

// --- ObjectStore ------------------------------------------------------------

// Objects stores files in a Supabase Storage bucket.
type Objects struct {
	bucket *client.BucketClient
}

var _ storage.ObjectStore = (*Objects)(nil)

// NewObjects binds an object store to bucket.
func NewObjects(db *client.Client, bucket string) *Objects {
	return &Objects{bucket: db.Storage().From(bucket)}
}

// PutObject uploads (overwriting) and returns the object's public URL.
func (o *Objects) PutObject(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if _, err := o.bucket.Upload(ctx, path, data, contentType); err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	return o.bucket.GetPublicURL(path), nil
}

// RemoveObject deletes one object.
func (o *Objects) RemoveObject(ctx context.Context, path string) error {
	if err := o.bucket.Remove(ctx, []string{path}); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
