package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackcrew/service_layer/internal/app/domain/account"
	"github.com/hackcrew/service_layer/internal/app/domain/ideation"
	"github.com/hackcrew/service_layer/internal/app/domain/profile"
	"github.com/hackcrew/service_layer/internal/app/domain/project"
	"github.com/hackcrew/service_layer/internal/app/domain/research"
	"github.com/hackcrew/service_layer/internal/app/domain/team"
	"github.com/hackcrew/service_layer/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
// Every method counts its calls and can be made to fail, see FailOn.
type Store struct {
	mu              sync.RWMutex
	projects        map[string]project.Project
	memberships     []project.Membership
	teams           map[string]team.Team
	profiles        map[string]profile.Profile
	ideation        map[string]ideation.Record
	research        []research.Assignment
	accounts        map[string]account.Account
	accountsByEmail map[string]string

	statsMu  sync.Mutex
	calls    map[string]int
	failures map[string]error
}

var _ storage.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		projects:        make(map[string]project.Project),
		teams:           make(map[string]team.Team),
		profiles:        make(map[string]profile.Profile),
		ideation:        make(map[string]ideation.Record),
		accounts:        make(map[string]account.Account),
		accountsByEmail: make(map[string]string),
		calls:           make(map[string]int),
		failures:        make(map[string]error),
	}
}

// Calls returns how many times the named method has been invoked.
func (s *Store) Calls(method string) int {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.calls[method]
}

// FailOn makes the named method return err until cleared with a nil err.
func (s *Store) FailOn(method string, err error) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

func (s *Store) track(method string) error {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.calls[method]++
	return s.failures[method]
}

// ProjectStore implementation -------------------------------------------------

func (s *Store) CreateProject(_ context.Context, np storage.NewProject) (project.Project, team.Team, error) {
	if err := s.track("CreateProject"); err != nil {
		return project.Project{}, team.Team{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, m, t := np.Project, np.Membership, np.Team
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, exists := s.projects[p.ID]; exists {
		return project.Project{}, team.Team{}, storage.ErrConflict
	}
	if _, exists := s.teams[t.ID]; exists {
		return project.Project{}, team.Team{}, storage.ErrConflict
	}

	now := time.Now().UTC()
	p.TeamID = t.ID
	p.CreatedAt = now
	t.ProjectID = p.ID
	t.CreatedAt = now
	t.Members = append([]string(nil), t.Members...)
	m.ProjectID = p.ID

	s.projects[p.ID] = p
	s.teams[t.ID] = t
	s.memberships = append(s.memberships, m)
	return p, cloneTeam(t), nil
}

func (s *Store) GetProject(_ context.Context, id string) (project.Project, error) {
	if err := s.track("GetProject"); err != nil {
		return project.Project{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return project.Project{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpdateProblemStatement(_ context.Context, projectID, statement string) error {
	if err := s.track("UpdateProblemStatement"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return storage.ErrNotFound
	}
	p.ProblemStatement = statement
	s.projects[projectID] = p
	return nil
}

func (s *Store) UpdateStage(_ context.Context, projectID, label string) error {
	if err := s.track("UpdateStage"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for i := range s.memberships {
		if s.memberships[i].ProjectID == projectID {
			s.memberships[i].CurrentStatus = label
			updated++
		}
	}
	if updated == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListMemberships(_ context.Context, userID string) ([]project.Membership, error) {
	if err := s.track("ListMemberships"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []project.Membership
	for _, m := range s.memberships {
		if m.UserID == userID {
			result = append(result, m)
		}
	}
	return result, nil
}

// AddMembership records an additional user on a project. Tests use it to
// seed memberships for team members other than the creator.
func (s *Store) AddMembership(m project.Membership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships = append(s.memberships, m)
}

// TeamStore implementation ----------------------------------------------------

func (s *Store) CreateTeam(_ context.Context, t team.Team) (team.Team, error) {
	if err := s.track("CreateTeam"); err != nil {
		return team.Team{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	} else if _, exists := s.teams[t.ID]; exists {
		return team.Team{}, storage.ErrConflict
	}
	t.CreatedAt = time.Now().UTC()
	t = cloneTeam(t)
	s.teams[t.ID] = t
	return cloneTeam(t), nil
}

func (s *Store) GetTeam(_ context.Context, id string) (team.Team, error) {
	if err := s.track("GetTeam"); err != nil {
		return team.Team{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[id]
	if !ok {
		return team.Team{}, storage.ErrNotFound
	}
	return cloneTeam(t), nil
}

func (s *Store) UpdateTeamMembers(_ context.Context, id string, members []string) error {
	if err := s.track("UpdateTeamMembers"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.teams[id]
	if !ok {
		return storage.ErrNotFound
	}
	t.Members = append([]string(nil), members...)
	s.teams[id] = t
	return nil
}

// ProfileStore implementation -------------------------------------------------

func (s *Store) GetProfile(_ context.Context, userID string) (profile.Profile, error) {
	if err := s.track("GetProfile"); err != nil {
		return profile.Profile{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return profile.Profile{}, storage.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (s *Store) ListProfiles(_ context.Context, userIDs []string) ([]profile.Profile, error) {
	if err := s.track("ListProfiles"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]profile.Profile, 0, len(userIDs))
	seen := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := s.profiles[id]; ok {
			result = append(result, cloneProfile(p))
		}
	}
	return result, nil
}

func (s *Store) InsertProfile(_ context.Context, p profile.Profile) error {
	if err := s.track("InsertProfile"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[p.UserID]; exists {
		return storage.ErrConflict
	}
	p.CreatedAt = time.Now().UTC()
	s.profiles[p.UserID] = cloneProfile(p)
	return nil
}

func (s *Store) UpsertProfile(_ context.Context, p profile.Profile) error {
	if err := s.track("UpsertProfile"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = time.Now().UTC()
	}
	s.profiles[p.UserID] = cloneProfile(p)
	return nil
}

// IdeationStore implementation ------------------------------------------------

func (s *Store) GetIdeation(_ context.Context, projectID string) (ideation.Record, error) {
	if err := s.track("GetIdeation"); err != nil {
		return ideation.Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.ideation[projectID]
	if !ok {
		return ideation.Record{}, storage.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *Store) UpsertIdeation(_ context.Context, u ideation.Update) (ideation.Record, error) {
	if err := s.track("UpsertIdeation"); err != nil {
		return ideation.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := u.Apply(s.ideation[u.ProjectID])
	s.ideation[u.ProjectID] = rec
	return cloneRecord(rec), nil
}

// ResearchStore implementation ------------------------------------------------

func (s *Store) ListResearch(_ context.Context, projectID string) ([]research.Assignment, error) {
	if err := s.track("ListResearch"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []research.Assignment
	for _, a := range s.research {
		if a.ProjectID == projectID {
			result = append(result, cloneAssignment(a))
		}
	}
	return result, nil
}

func (s *Store) GetResearch(_ context.Context, projectID, userID string) (research.Assignment, error) {
	if err := s.track("GetResearch"); err != nil {
		return research.Assignment{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.researchIndexLocked(projectID, userID); i >= 0 {
		return cloneAssignment(s.research[i]), nil
	}
	return research.Assignment{}, storage.ErrNotFound
}

func (s *Store) UpsertResearchTasks(_ context.Context, assignments []research.Assignment) error {
	if err := s.track("UpsertResearchTasks"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range assignments {
		tasks := append([]string(nil), a.Tasks...)
		if i := s.researchIndexLocked(a.ProjectID, a.UserID); i >= 0 {
			s.research[i].Tasks = tasks
			continue
		}
		s.research = append(s.research, research.Assignment{ProjectID: a.ProjectID, UserID: a.UserID, Tasks: tasks})
	}
	return nil
}

func (s *Store) UpsertResearchPDF(_ context.Context, projectID, userID, url string) error {
	if err := s.track("UpsertResearchPDF"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.researchIndexLocked(projectID, userID); i >= 0 {
		s.research[i].PDFURL = url
		return nil
	}
	s.research = append(s.research, research.Assignment{ProjectID: projectID, UserID: userID, PDFURL: url})
	return nil
}

func (s *Store) researchIndexLocked(projectID, userID string) int {
	for i, a := range s.research {
		if a.ProjectID == projectID && a.UserID == userID {
			return i
		}
	}
	return -1
}

// AccountStore implementation -------------------------------------------------

func (s *Store) CreateAccount(_ context.Context, acct account.Account) (account.Account, error) {
	if err := s.track("CreateAccount"); err != nil {
		return account.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(acct.Email)
	if _, exists := s.accountsByEmail[email]; exists {
		return account.Account{}, storage.ErrConflict
	}
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	acct.CreatedAt = time.Now().UTC()
	s.accounts[acct.ID] = acct
	s.accountsByEmail[email] = acct.ID
	return acct, nil
}

func (s *Store) GetAccountByEmail(_ context.Context, email string) (account.Account, error) {
	if err := s.track("GetAccountByEmail"); err != nil {
		return account.Account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.accountsByEmail[strings.ToLower(email)]
	if !ok {
		return account.Account{}, storage.ErrNotFound
	}
	return s.accounts[id], nil
}

func (s *Store) GetAccount(_ context.Context, id string) (account.Account, error) {
	if err := s.track("GetAccount"); err != nil {
		return account.Account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[id]
	if !ok {
		return account.Account{}, storage.ErrNotFound
	}
	return acct, nil
}

func cloneTeam(t team.Team) team.Team {
	t.Members = append([]string(nil), t.Members...)
	return t
}

func cloneProfile(p profile.Profile) profile.Profile {
	p.Skills = append([]string(nil), p.Skills...)
	return p
}

func cloneRecord(r ideation.Record) ideation.Record {
	r.QnA = append([]ideation.QnA(nil), r.QnA...)
	return r
}

func cloneAssignment(a research.Assignment) research.Assignment {
	a.Tasks = append([]string(nil), a.Tasks...)
	return a
}
