package httpapi

import (
	"net/http"
	"strings"

	"github.com/hackcrew/service_layer/internal/app/domain/ideation"
	"github.com/hackcrew/service_layer/internal/app/domain/profile"
	"github.com/hackcrew/service_layer/internal/app/domain/team"
	"github.com/hackcrew/service_layer/internal/app/services/projects"
	"github.com/hackcrew/service_layer/internal/app/services/teams"
	"github.com/hackcrew/service_layer/internal/errors"
)

func (h *handler) createProject(w http.ResponseWriter, r *http.Request) {
	var in projects.CreateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	created, err := h.app.Projects.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) problemStatement(w http.ResponseWriter, r *http.Request) {
	ps, err := h.app.Projects.ProblemStatement(r.Context(), pathVar(r, "project_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"problem_statement": ps})
}

func (h *handler) setProblemStatement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProblemStatement string `json:"problem_statement"`
		ProjectID        string `json:"project_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.app.Projects.SetProblemStatement(r.Context(), req.ProjectID, req.ProblemStatement); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":           "Problem statement saved successfully",
		"project_id":        req.ProjectID,
		"problem_statement": req.ProblemStatement,
	})
}

func (h *handler) updateStage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID string `json:"project_id"`
		Stage     *int   `json:"stage"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Stage == nil {
		writeError(w, r, errors.Required("stage"))
		return
	}
	update, err := h.app.Projects.UpdateStage(r.Context(), req.ProjectID, *req.Stage)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, update)
}

func (h *handler) userProjects(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Projects.ListUserProjects(r.Context(), strings.TrimSpace(r.URL.Query().Get("query")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": list})
}

func (h *handler) teamMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.app.Roster.TeamMembers(r.Context(), pathVar(r, "project_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

type ideationResponse struct {
	Message   string         `json:"message"`
	ProjectID string         `json:"project_id"`
	QnA       []ideation.QnA `json:"q_n_a"`
	PRD       *string        `json:"prd,omitempty"`
}

func (h *handler) saveIdeation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID string            `json:"project_id"`
		QnA       *ideation.QnAList `json:"q_n_a"`
		PRD       *string           `json:"prd"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	var qna *[]ideation.QnA
	if req.QnA != nil {
		items := []ideation.QnA(*req.QnA)
		if items == nil {
			items = []ideation.QnA{}
		}
		qna = &items
	}
	rec, err := h.app.Ideation.Save(r.Context(), req.ProjectID, qna, req.PRD)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := ideationResponse{Message: "Ideation stage saved successfully", ProjectID: rec.ProjectID, QnA: rec.QnA}
	if resp.QnA == nil {
		resp.QnA = []ideation.QnA{}
	}
	if rec.PRD != "" {
		prd := rec.PRD
		resp.PRD = &prd
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) saveQnA(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID string           `json:"project_id"`
		QnA       ideation.QnAList `json:"q_n_a"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.app.Ideation.SaveQnA(r.Context(), req.ProjectID, req.QnA)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ideationResponse{Message: "Q&A saved successfully", ProjectID: rec.ProjectID, QnA: rec.QnA})
}

type teamView struct {
	ID        string   `json:"team_id"`
	ProjectID string   `json:"project_id"`
	Name      string   `json:"team_name"`
	Leader    string   `json:"team_leader"`
	Members   []string `json:"team_members"`
}

func newTeamView(t team.Team) teamView {
	members := t.Members
	if members == nil {
		members = []string{}
	}
	return teamView{ID: t.ID, ProjectID: t.ProjectID, Name: t.Name, Leader: t.Leader, Members: members}
}

func (h *handler) createTeam(w http.ResponseWriter, r *http.Request) {
	var in teams.CreateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	created, err := h.app.Teams.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Team created successfully",
		"team":    newTeamView(created),
	})
}

func (h *handler) addMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeamID string `json:"team_id"`
		UserID string `json:"user_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	added, err := h.app.Teams.AddMember(r.Context(), req.TeamID, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	msg := "Member added successfully"
	if !added {
		msg = "User is already a team member"
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg, "team_id": req.TeamID, "user_id": req.UserID})
}

func (h *handler) profileSummary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	summary, err := h.app.Profiles.Get(r.Context(), req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *handler) upsertProfile(w http.ResponseWriter, r *http.Request) {
	var p profile.Profile
	if !decodeJSON(w, r, &p) {
		return
	}
	if err := h.app.Profiles.Upsert(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile saved successfully", "user_id": p.UserID})
}

func (h *handler) createProfile(w http.ResponseWriter, r *http.Request) {
	var p profile.Profile
	if !decodeJSON(w, r, &p) {
		return
	}
	if err := h.app.Profiles.Create(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "Profile created successfully"})
}
