// Package project holds hackathon projects and the fixed five-stage workflow
// they move through.
package project

import "time"

// Stage is a position in the project workflow. The zero value is not a
// valid stage.
type Stage int

const (
	StageManageTeam Stage = iota + 1
	StageResearch
	StageIdeation
	StagePRD
	StageImplementation
)

// stageLabels is the only mapping between stage numbers and the labels
// persisted in user_projects.current_status.
var stageLabels = [...]string{
	StageManageTeam:     "Manage Team",
	StageResearch:       "Research",
	StageIdeation:       "Ideation",
	StagePRD:            "PRD",
	StageImplementation: "Implementation",
}

// Stages lists every stage in workflow order.
func Stages() []Stage {
	return []Stage{StageManageTeam, StageResearch, StageIdeation, StagePRD, StageImplementation}
}

// Valid reports whether s is one of the five stages.
func (s Stage) Valid() bool {
	return s >= StageManageTeam && s <= StageImplementation
}

// Label returns the persisted label, or "" for an invalid stage.
func (s Stage) Label() string {
	if !s.Valid() {
		return ""
	}
	return stageLabels[s]
}

func (s Stage) String() string {
	if l := s.Label(); l != "" {
		return l
	}
	return "Unknown"
}

// StageFromLabel is the inverse of Label. Unknown labels return false.
func StageFromLabel(label string) (Stage, bool) {
	for _, s := range Stages() {
		if stageLabels[s] == label {
			return s, true
		}
	}
	return 0, false
}

const (
	DefaultName   = "new project"
	StateActive   = "active"
	StatusCreated = "project_created"
)

// Project is one row of project_db.
type Project struct {
	ID               string
	Name             string
	TeamID           string
	TeamLeader       string
	ProblemStatement string
	HackathonID      string
	HackathonName    string
	Description      string
	CreatedAt        time.Time
}

// Membership links a user to a project and records the project's current
// stage label. One row per user and project.
type Membership struct {
	UserID        string
	ProjectID     string
	ProjectName   string
	HackathonName string
	CurrentStatus string
	State         string
}

// Stage resolves CurrentStatus; unknown labels yield 0.
func (m Membership) Stage() Stage {
	s, _ := StageFromLabel(m.CurrentStatus)
	return s
}
