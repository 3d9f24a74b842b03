package supabase

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/hackcrew/service_layer/internal/app/domain/account"
	"github.com/hackcrew/service_layer/internal/app/domain/ideation"
	"github.com/hackcrew/service_layer/internal/app/domain/profile"
	"github.com/hackcrew/service_layer/internal/app/domain/project"
	"github.com/hackcrew/service_layer/internal/app/domain/research"
	"github.com/hackcrew/service_layer/internal/app/domain/team"
)

// Table names.
const (
	tableProjects    = "project_db"
	tableMemberships = "user_projects"
	tableTeams       = "team_db"
	tableProfiles    = "user_profiles"
	tableIdeation    = "ideation_stage"
	tableResearch    = "research_stage"
	tableAccounts    = "users"
)

type projectRow struct {
	ID               string     `json:"id"`
	Name             string     `json:"project_name"`
	TeamID           string     `json:"team_id"`
	TeamLeader       string     `json:"team_leader"`
	ProblemStatement string     `json:"problem_statement,omitempty"`
	HackathonID      flexString `json:"hackathon_id,omitempty"`
	HackathonName    string     `json:"hackathon_name,omitempty"`
	Description      string     `json:"description,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
}

func toProjectRow(p project.Project) projectRow {
	return projectRow{
		ID:               p.ID,
		Name:             p.Name,
		TeamID:           p.TeamID,
		TeamLeader:       p.TeamLeader,
		ProblemStatement: p.ProblemStatement,
		HackathonID:      flexString(p.HackathonID),
		HackathonName:    p.HackathonName,
		Description:      p.Description,
	}
}

func (r projectRow) toDomain() project.Project {
	p := project.Project{
		ID:               r.ID,
		Name:             r.Name,
		TeamID:           r.TeamID,
		TeamLeader:       r.TeamLeader,
		ProblemStatement: r.ProblemStatement,
		HackathonID:      string(r.HackathonID),
		HackathonName:    r.HackathonName,
		Description:      r.Description,
	}
	if r.CreatedAt != nil {
		p.CreatedAt = *r.CreatedAt
	}
	return p
}

type membershipRow struct {
	UserID        string `json:"user_id"`
	ProjectID     string `json:"project_id"`
	ProjectName   string `json:"project_name"`
	HackathonName string `json:"hackathon_name"`
	CurrentStatus string `json:"current_status"`
	State         string `json:"state"`
}

func (r membershipRow) toDomain() project.Membership {
	return project.Membership(r)
}

type teamRow struct {
	ID        string   `json:"team_id"`
	ProjectID string   `json:"project_id"`
	Name      string   `json:"team_name"`
	Leader    string   `json:"team_leader"`
	Members   []string `json:"team_members"`
}

func toTeamRow(t team.Team) teamRow {
	members := t.Members
	if members == nil {
		members = []string{}
	}
	return teamRow{ID: t.ID, ProjectID: t.ProjectID, Name: t.Name, Leader: t.Leader, Members: members}
}

func (r teamRow) toDomain() team.Team {
	return team.Team{ID: r.ID, ProjectID: r.ProjectID, Name: r.Name, Leader: r.Leader, Members: r.Members}
}

type profileRow struct {
	UserID       string       `json:"user_id"`
	FullName     string       `json:"full_name,omitempty"`
	Username     string       `json:"username,omitempty"`
	Headline     string       `json:"headline,omitempty"`
	Bio          string       `json:"bio,omitempty"`
	Location     string       `json:"location,omitempty"`
	AvatarURL    string       `json:"avatar_url,omitempty"`
	ResumeURL    string       `json:"resume_url,omitempty"`
	Availability string       `json:"availability,omitempty"`
	Role         profile.Role `json:"role"`
	Skills       []string     `json:"skills"`
}

func toProfileRow(p profile.Profile) profileRow {
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	return profileRow{
		UserID:       p.UserID,
		FullName:     p.FullName,
		Username:     p.Username,
		Headline:     p.Headline,
		Bio:          p.Bio,
		Location:     p.Location,
		AvatarURL:    p.AvatarURL,
		ResumeURL:    p.ResumeURL,
		Availability: p.Availability,
		Role:         p.Role,
		Skills:       skills,
	}
}

func (r profileRow) toDomain() profile.Profile {
	return profile.Profile{
		UserID:       r.UserID,
		FullName:     r.FullName,
		Username:     r.Username,
		Headline:     r.Headline,
		Bio:          r.Bio,
		Location:     r.Location,
		AvatarURL:    r.AvatarURL,
		ResumeURL:    r.ResumeURL,
		Availability: r.Availability,
		Role:         r.Role,
		Skills:       r.Skills,
	}
}

type ideationRow struct {
	ProjectID string         `json:"project_id"`
	QnA       []ideation.QnA `json:"q_n_a"`
	Pitch     string         `json:"pitch"`
	PRD       string         `json:"prd"`
}

func (r ideationRow) toDomain() ideation.Record {
	return ideation.Record{ProjectID: r.ProjectID, QnA: r.QnA, Pitch: r.Pitch, PRD: r.PRD}
}

// ideationPatch only carries the columns being written so the merge upsert
// leaves the others untouched.
func ideationPatch(u ideation.Update) map[string]any {
	patch := map[string]any{"project_id": u.ProjectID}
	if u.QnA != nil {
		qna := *u.QnA
		if qna == nil {
			qna = []ideation.QnA{}
		}
		patch["q_n_a"] = qna
	}
	if u.Pitch != nil {
		patch["pitch"] = *u.Pitch
	}
	if u.PRD != nil {
		patch["prd"] = *u.PRD
	}
	return patch
}

type researchRow struct {
	ProjectID string   `json:"project_id"`
	UserID    string   `json:"user_id"`
	Tasks     []string `json:"tasks"`
	PDFURL    string   `json:"pdf_url"`
}

func (r researchRow) toDomain() research.Assignment {
	return research.Assignment{ProjectID: r.ProjectID, UserID: r.UserID, Tasks: r.Tasks, PDFURL: r.PDFURL}
}

type researchTasksRow struct {
	ProjectID string   `json:"project_id"`
	UserID    string   `json:"user_id"`
	Tasks     []string `json:"tasks"`
}

type researchPDFRow struct {
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
	PDFURL    string `json:"pdf_url"`
}

type accountRow struct {
	ID        string     `json:"id,omitempty"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	Role      string     `json:"role,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func (r accountRow) toDomain() account.Account {
	a := account.Account{ID: r.ID, Email: r.Email, PasswordHash: r.Password, Role: r.Role}
	if r.CreatedAt != nil {
		a.CreatedAt = *r.CreatedAt
	}
	return a
}

// flexString decodes a JSON string or number into a string. hackathon_id is
// numeric in some deployments and text in others.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}
