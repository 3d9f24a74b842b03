package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hackcrew/service_layer/internal/app/domain/account"
	"github.com/hackcrew/service_layer/internal/app/domain/ideation"
	"github.com/hackcrew/service_layer/internal/app/domain/profile"
	"github.com/hackcrew/service_layer/internal/app/domain/project"
	"github.com/hackcrew/service_layer/internal/app/domain/research"
	"github.com/hackcrew/service_layer/internal/app/domain/team"
	"github.com/hackcrew/service_layer/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

var _ storage.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithTimeout bounds every store call. Zero leaves calls on the caller's
// deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// New creates a Store using the provided database handle.
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Open connects to dsn with the lib/pq driver.
func Open(ctx context.Context, dsn string, maxOpenConns int) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

const uniqueViolation = "23505"

func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, storage.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireRows(op string, result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- ProjectStore -----------------------------------------------------------

type projectRow struct {
	ID               string         `db:"id"`
	Name             string         `db:"project_name"`
	TeamID           string         `db:"team_id"`
	TeamLeader       string         `db:"team_leader"`
	ProblemStatement sql.NullString `db:"problem_statement"`
	HackathonID      sql.NullString `db:"hackathon_id"`
	HackathonName    sql.NullString `db:"hackathon_name"`
	Description      sql.NullString `db:"description"`
	CreatedAt        time.Time      `db:"created_at"`
}

func (r projectRow) toDomain() project.Project {
	return project.Project{
		ID:               r.ID,
		Name:             r.Name,
		TeamID:           r.TeamID,
		TeamLeader:       r.TeamLeader,
		ProblemStatement: r.ProblemStatement.String,
		HackathonID:      r.HackathonID.String,
		HackathonName:    r.HackathonName.String,
		Description:      r.Description.String,
		CreatedAt:        r.CreatedAt,
	}
}

// CreateProject writes the project, the creator's membership and the team in
// one transaction.
func (s *Store) CreateProject(ctx context.Context, np storage.NewProject) (project.Project, team.Team, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	p, m, t := np.Project, np.Membership, np.Team
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.TeamID, p.CreatedAt = t.ID, now
	t.ProjectID, t.CreatedAt = p.ID, now
	m.ProjectID = p.ID
	if t.Members == nil {
		t.Members = []string{}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return project.Project{}, team.Team{}, translate("begin create project", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO project_db (id, project_name, team_id, team_leader, hackathon_id, hackathon_name, description, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)
	`, p.ID, p.Name, p.TeamID, p.TeamLeader, p.HackathonID, p.HackathonName, p.Description, p.CreatedAt); err != nil {
		return project.Project{}, team.Team{}, translate("insert project", err)
	}

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO user_projects (user_id, project_id, project_name, hackathon_name, current_status, state)
		VALUES (:user_id, :project_id, :project_name, :hackathon_name, :current_status, :state)
	`, map[string]interface{}{
		"user_id":        m.UserID,
		"project_id":     m.ProjectID,
		"project_name":   m.ProjectName,
		"hackathon_name": m.HackathonName,
		"current_status": m.CurrentStatus,
		"state":          m.State,
	}); err != nil {
		return project.Project{}, team.Team{}, translate("insert user project", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO team_db (team_id, project_id, team_name, team_leader, team_members, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID, t.ProjectID, t.Name, t.Leader, pq.Array(t.Members), t.CreatedAt); err != nil {
		return project.Project{}, team.Team{}, translate("insert team", err)
	}

	if err := tx.Commit(); err != nil {
		return project.Project{}, team.Team{}, translate("commit create project", err)
	}
	return p, t, nil
}

func (s *Store) GetProject(ctx context.Context, id string) (project.Project, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	var row projectRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, project_name, team_id, team_leader, problem_statement, hackathon_id, hackathon_name, description, created_at
		FROM project_db
		WHERE id = $1
	`, id)
	if err != nil {
		return project.Project{}, translate("get project", err)
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateProblemStatement(ctx context.Context, projectID, statement string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	result, err := s.db.ExecContext(ctx, `
		UPDATE project_db SET problem_statement = $2 WHERE id = $1
	`, projectID, statement)
	if err != nil {
		return translate("update problem statement", err)
	}
	return requireRows("update problem statement", result)
}

func (s *Store) UpdateStage(ctx context.Context, projectID, label string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	result, err := s.db.ExecContext(ctx, `
		UPDATE user_projects SET current_status = $2 WHERE project_id = $1
	`, projectID, label)
	if err != nil {
		return translate("update stage", err)
	}
	return requireRows("update stage", result)
}

type membershipRow struct {
	UserID        string         `db:"user_id"`
	ProjectID     string         `db:"project_id"`
	ProjectName   sql.NullString `db:"project_name"`
	HackathonName sql.NullString `db:"hackathon_name"`
	CurrentStatus string         `db:"current_status"`
	State         string         `db:"state"`
}

func (s *Store) ListMemberships(ctx context.Context, userID string) ([]project.Membership, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	var rows []membershipRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT user_id, project_id, project_name, hackathon_name, current_status, state
		FROM user_projects
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, translate("list user projects", err)
	}
	result := make([]project.Membership, 0, len(rows))
	for _, r := range rows {
		result = append(result, project.Membership{
			UserID:        r.UserID,
			ProjectID:     r.ProjectID,
			ProjectName:   r.ProjectName.String,
			HackathonName: r.HackathonName.String,
			CurrentStatus: r.CurrentStatus,
			State:         r.State,
		})
	}
	return result, nil
}

// --- TeamStore --------------------------------------------------------------

type teamRow struct {
	ID        string         `db:"team_id"`
	ProjectID sql.NullString `db:"project_id"`
	Name      string         `db:"team_name"`
	Leader    sql.NullString `db:"team_leader"`
	Members   pq.StringArray `db:"team_members"`
	CreatedAt time.Time      `db:"created_at"`
}

func (s *Store) CreateTeam(ctx context.Context, t team.Team) (team.Team, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now().UTC()
	if t.Members == nil {
		t.Members = []string{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO team_db (team_id, project_id, team_name, team_leader, team_members, created_at)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5, $6)
	`, t.ID, t.ProjectID, t.Name, t.Leader, pq.Array(t.Members), t.CreatedAt)
	if err != nil {
		return team.Team{}, translate("insert team", err)
	}
	return t, nil
}

func (s *Store) GetTeam(ctx context.Context, id string) (team.Team, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	var row teamRow
	err := s.db.GetContext(ctx, &row, `
		SELECT team_id, project_id, team_name, team_leader, team_members, created_at
		FROM team_db
		WHERE team_id = $1
	`, id)
	if err != nil {
		return team.Team{}, translate("get team", err)
	}
	return team.Team{
		ID:        row.ID,
		ProjectID: row.ProjectID.String,
		Name:      row.Name,
		Leader:    row.Leader.String,
		Members:   []string(row.Members),
		CreatedAt: row.CreatedAt,
	}, nil
}

func (s *Store) UpdateTeamMembers(ctx context.Context, id string, members []string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	if members == nil {
		members = []string{}
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE team_db SET team_members = $2 WHERE team_id = $1
	`, id, pq.Array(members))
	if err != nil {
		return translate("update team members", err)
	}
	return requireRows("update team members", result)
}

// --- ProfileStore -----------------------------------------------------------

type profileRow struct {
	UserID       string         `db:"user_id"`
	FullName     sql.NullString `db:"full_name"`
	Username     sql.NullString `db:"username"`
	Headline     sql.NullString `db:"headline"`
	Bio          sql.NullString `db:"bio"`
	Location     sql.NullString `db:"location"`
	AvatarURL    sql.NullString `db:"avatar_url"`
	ResumeURL    sql.NullString `db:"resume_url"`
	Availability sql.NullString `db:"availability"`
	Role         []byte         `db:"role"`
	Skills       pq.StringArray `db:"skills"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r profileRow) toDomain() (profile.Profile, error) {
	p := profile.Profile{
		UserID:       r.UserID,
		FullName:     r.FullName.String,
		Username:     r.Username.String,
		Headline:     r.Headline.String,
		Bio:          r.Bio.String,
		Location:     r.Location.String,
		AvatarURL:    r.AvatarURL.String,
		ResumeURL:    r.ResumeURL.String,
		Availability: r.Availability.String,
		Skills:       []string(r.Skills),
		CreatedAt:    r.CreatedAt,
	}
	if len(r.Role) > 0 {
		if err := json.Unmarshal(r.Role, &p.Role); err != nil {
			return profile.Profile{}, fmt.Errorf("decode role for %s: %w", r.UserID, err)
		}
	}
	return p, nil
}

const profileColumns = `user_id, full_name, username, headline, bio, location, avatar_url, resume_url, availability, role, skills, created_at`

func (s *Store) GetProfile(ctx context.Context, userID string) (profile.Profile, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	var row profileRow
	err := s.db.GetContext(ctx, &row, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return profile.Profile{}, translate("get profile", err)
	}
	return row.toDomain()
}

// ListProfiles fetches every requested profile with one ANY($1) query.
func (s *Store) ListProfiles(ctx context.Context, userIDs []string) ([]profile.Profile, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	if len(userIDs) == 0 {
		return []profile.Profile{}, nil
	}
	var rows []profileRow
	err := s.db.SelectContext(ctx, &rows, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id = ANY($1)`, pq.Array(userIDs))
	if err != nil {
		return nil, translate("list profiles", err)
	}
	result := make([]profile.Profile, 0, len(rows))
	for _, r := range rows {
		p, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

func profileArgs(p profile.Profile) ([]interface{}, error) {
	var role interface{}
	if !p.Role.IsZero() {
		raw, err := json.Marshal(p.Role)
		if err != nil {
			return nil, err
		}
		role = raw
	}
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	availability := p.Availability
	if availability == "" {
		availability = "student"
	}
	return []interface{}{
		p.UserID, p.FullName, p.Username, p.Headline, p.Bio, p.Location,
		p.AvatarURL, p.ResumeURL, availability, role, pq.Array(skills),
	}, nil
}

const insertProfile = `
	INSERT INTO user_profiles (user_id, full_name, username, headline, bio, location, avatar_url, resume_url, availability, role, skills)
	VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, $10, $11)`

func (s *Store) InsertProfile(ctx context.Context, p profile.Profile) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	args, err := profileArgs(p)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, insertProfile, args...); err != nil {
		return translate("insert profile", err)
	}
	return nil
}

func (s *Store) UpsertProfile(ctx context.Context, p profile.Profile) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	args, err := profileArgs(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, insertProfile+`
	ON CONFLICT (user_id) DO UPDATE SET
		full_name = EXCLUDED.full_name,
		username = EXCLUDED.username,
		headline = EXCLUDED.headline,
		bio = EXCLUDED.bio,
		location = EXCLUDED.location,
		avatar_url = EXCLUDED.avatar_url,
		resume_url = EXCLUDED.resume_url,
		availability = EXCLUDED.availability,
		role = EXCLUDED.role,
		skills = EXCLUDED.skills`, args...)
	if err != nil {
		return translate("upsert profile", err)
	}
	return nil
}

// --- IdeationStore ----------------------------------------------------------

type ideationRow struct {
	ProjectID string         `db:"project_id"`
	QnA       []byte         `db:"q_n_a"`
	Pitch     sql.NullString `db:"pitch"`
	PRD       sql.NullString `db:"prd"`
}

func (r ideationRow) toDomain() (ideation.Record, error) {
	rec := ideation.Record{ProjectID: r.ProjectID, Pitch: r.Pitch.String, PRD: r.PRD.String}
	if len(r.QnA) > 0 {
		var list ideation.QnAList
		if err := json.Unmarshal(r.QnA, &list); err != nil {
			return ideation.Record{}, fmt.Errorf("decode q_n_a for %s: %w", r.ProjectID, err)
		}
		rec.QnA = list
	}
	return rec, nil
}

func (s *Store) GetIdeation(ctx context.Context, projectID string) (ideation.Record, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	var row ideationRow
	err := s.db.GetContext(ctx, &row, `
		SELECT project_id, q_n_a, pitch, prd FROM ideation_stage WHERE project_id = $1
	`, projectID)
	if err != nil {
		return ideation.Record{}, translate("get ideation", err)
	}
	return row.toDomain()
}

// UpsertIdeation only overwrites the columns set in u.
func (s *Store) UpsertIdeation(ctx context.Context, u ideation.Update) (ideation.Record, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	var qna interface{}
	if u.QnA != nil {
		list := *u.QnA
		if list == nil {
			list = []ideation.QnA{}
		}
		raw, err := json.Marshal(list)
		if err != nil {
			return ideation.Record{}, err
		}
		qna = raw
	}

	var row ideationRow
	err := s.db.GetContext(ctx, &row, `
		INSERT INTO ideation_stage (project_id, q_n_a, pitch, prd)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id) DO UPDATE SET
			q_n_a = CASE WHEN $5 THEN EXCLUDED.q_n_a ELSE ideation_stage.q_n_a END,
			pitch = CASE WHEN $6 THEN EXCLUDED.pitch ELSE ideation_stage.pitch END,
			prd = CASE WHEN $7 THEN EXCLUDED.prd ELSE ideation_stage.prd END,
			updated_at = now()
		RETURNING project_id, q_n_a, pitch, prd
	`, u.ProjectID, qna, nullable(u.Pitch), nullable(u.PRD), u.QnA != nil, u.Pitch != nil, u.PRD != nil)
	if err != nil {
		return ideation.Record{}, translate("upsert ideation", err)
	}
	return row.toDomain()
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// --- ResearchStore ----------------------------------------------------------

type researchRow struct {
	ProjectID string         `db:"project_id"`
	UserID    string         `db:"user_id"`
	Tasks     pq.StringArray `db:"tasks"`
	PDFURL    sql.NullString `db:"pdf_url"`
}

func (r researchRow) toDomain() research.Assignment {
	return research.Assignment{ProjectID: r.ProjectID, UserID: r.UserID, Tasks: []string(r.Tasks), PDFURL: r.PDFURL.String}
}

func (s *Store) ListResearch(ctx context.Context, projectID string) ([]research.Assignment, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	var rows []researchRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT project_id, user_id, tasks, pdf_url FROM research_stage WHERE project_id = $1 ORDER BY id
	`, projectID)
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
	ctx, cancel := s.bound(ctx)
	defer cancel()
	var row researchRow
	err := s.db.GetContext(ctx, &row, `
		SELECT project_id, user_id, tasks, pdf_url FROM research_stage WHERE project_id = $1 AND user_id = $2
	`, projectID, userID)
	if err != nil {
		return research.Assignment{}, translate("get research", err)
	}
	return row.toDomain(), nil
}

// UpsertResearchTasks writes every row in one transaction, leaving pdf_url
// untouched on existing rows.
func (s *Store) UpsertResearchTasks(ctx context.Context, assignments []research.Assignment) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	if len(assignments) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return translate("begin research upsert", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, a := range assignments {
		tasks := a.Tasks
		if tasks == nil {
			tasks = []string{}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO research_stage (project_id, user_id, tasks)
			VALUES ($1, $2, $3)
			ON CONFLICT (project_id, user_id) DO UPDATE SET tasks = EXCLUDED.tasks
		`, a.ProjectID, a.UserID, pq.Array(tasks)); err != nil {
			return translate("upsert research tasks", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return translate("commit research upsert", err)
	}
	return nil
}

func (s *Store) UpsertResearchPDF(ctx context.Context, projectID, userID, url string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO research_stage (project_id, user_id, pdf_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, user_id) DO UPDATE SET pdf_url = EXCLUDED.pdf_url
	`, projectID, userID, url)
	if err != nil {
		return translate("upsert research pdf", err)
	}
	return nil
}

// --- AccountStore -----------------------------------------------------------

type accountRow struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

func (r accountRow) toDomain() account.Account {
	return account.Account{ID: r.ID, Email: r.Email, PasswordHash: r.Password, Role: r.Role, CreatedAt: r.CreatedAt}
}

func (s *Store) CreateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	if acct.Role == "" {
		acct.Role = "user"
	}
	var row accountRow
	err := s.db.GetContext(ctx, &row, `
		INSERT INTO users (id, email, password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password, role, created_at
	`, acct.ID, acct.Email, acct.PasswordHash, acct.Role)
	if err != nil {
		return account.Account{}, translate("insert account", err)
	}
	return row.toDomain(), nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	var row accountRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, email, password, role, created_at FROM users WHERE email = $1
	`, email)
	if err != nil {
		return account.Account{}, translate("get account", err)
	}
	return row.toDomain(), nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (account.Account, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	var row accountRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, email, password, role, created_at FROM users WHERE id = $1
	`, id)
	if err != nil {
		return account.Account{}, translate("get account", err)
	}
	return row.toDomain(), nil
}
