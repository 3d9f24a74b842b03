package generation

import (
	"context"

	"github.com/hackcrew/service_layer/internal/app/core/service"
	"github.com/hackcrew/service_layer/internal/app/domain/profile"
	"github.com/hackcrew/service_layer/internal/app/domain/research"
	"github.com/hackcrew/service_layer/internal/app/services/roster"
	"github.com/hackcrew/service_layer/internal/errors"
	"github.com/hackcrew/service_layer/internal/generator"
)

// unknownMember names overview rows whose profile is gone.
const unknownMember = "Unknown User"

// ResearchResult lists each member's research tasks.
type ResearchResult struct {
	Members []research.Member `json:"members"`
}

// Overview is the stored research state of a project.
type Overview struct {
	ProjectID string            `json:"project_id"`
	Members   []research.Member `json:"members"`
}

// ResearchTodo returns per-member research tasks, assigning them with the
// generator on first use.
func (s *Service) ResearchTodo(ctx context.Context, projectID string) (ResearchResult, error) {
	if err := requireProject(projectID); err != nil {
		return ResearchResult{}, err
	}
	return Run(ctx, s.orch, s.research, projectID)
}

// ResearchOverview reports stored research rows without generating.
func (s *Service) ResearchOverview(ctx context.Context, projectID string) (Overview, error) {
	if err := requireProject(projectID); err != nil {
		return Overview{}, err
	}
	if _, err := s.project(ctx, projectID); err != nil {
		return Overview{}, err
	}
	rows, err := s.stores.Research.ListResearch(ctx, projectID)
	if err != nil {
		return Overview{}, service.FromStore("research", err)
	}
	members, err := s.membersFromRows(ctx, rows)
	if err != nil {
		return Overview{}, err
	}
	for i := range members {
		if members[i].Name == nil {
			members[i].Name = strPtr(unknownMember)
		}
	}
	return Overview{ProjectID: projectID, Members: members}, nil
}

func (s *Service) lookupResearch(ctx context.Context, projectID string) (ResearchResult, bool, error) {
	if _, err := s.project(ctx, projectID); err != nil {
		return ResearchResult{}, false, err
	}
	rows, err := s.stores.Research.ListResearch(ctx, projectID)
	if err != nil {
		return ResearchResult{}, false, service.FromStore("research", err)
	}
	// Rows holding only an uploaded PDF are not assignments.
	assigned := make([]research.Assignment, 0, len(rows))
	for _, r := range rows {
		if r.HasTasks() {
			assigned = append(assigned, r)
		}
	}
	if len(assigned) == 0 {
		return ResearchResult{}, false, nil
	}
	members, err := s.membersFromRows(ctx, assigned)
	if err != nil {
		return ResearchResult{}, false, err
	}
	return ResearchResult{Members: members}, true, nil
}

func (s *Service) membersFromRows(ctx context.Context, rows []research.Assignment) ([]research.Member, error) {
	members := make([]research.Member, 0, len(rows))
	if len(rows) == 0 {
		return members, nil
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	byID, err := roster.ProfilesByID(ctx, s.stores.Profiles, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		members = append(members, member(r.UserID, r.Tasks, byID, r.PDFURL))
	}
	return members, nil
}

func (s *Service) generateResearch(ctx context.Context, projectID string) (ResearchResult, error) {
	p, err := s.project(ctx, projectID)
	if err != nil {
		return ResearchResult{}, err
	}
	if p.TeamID == "" {
		return ResearchResult{}, errors.NotFound("team")
	}
	t, err := s.stores.Teams.GetTeam(ctx, p.TeamID)
	if err != nil {
		return ResearchResult{}, service.FromStore("team", err)
	}
	if len(t.Members) == 0 {
		return ResearchResult{Members: []research.Member{}}, nil
	}

	byID, err := roster.ProfilesByID(ctx, s.stores.Profiles, t.Members)
	if err != nil {
		return ResearchResult{}, err
	}
	ps, err := s.statement(ctx, projectID)
	if err != nil {
		return ResearchResult{}, err
	}

	payload := make([]generator.TeamMember, 0, len(t.Members))
	for _, id := range t.Members {
		prof, ok := byID[id]
		if !ok {
			continue
		}
		payload = append(payload, generator.TeamMember{Name: id, Role: prof.Role.Display(), Skills: prof.Skills})
	}

	topics, err := s.gen.AssignResearch(ctx, payload, ps)
	if err != nil {
		return ResearchResult{}, err
	}
	onTeam := make(map[string]bool, len(t.Members))
	for _, id := range t.Members {
		onTeam[id] = true
	}
	kept := make([]research.Topic, 0, len(topics))
	for _, tp := range topics {
		if onTeam[tp.AssignedTo] {
			kept = append(kept, tp)
		}
	}
	if dropped := len(topics) - len(kept); dropped > 0 {
		s.log.WithContext(ctx).WithField("project_id", projectID).WithField("dropped", dropped).Warn("generator assigned topics outside the team")
	}
	groups := research.GroupByAssignee(kept)
	if len(groups) == 0 {
		return ResearchResult{}, errors.Upstream("generator assigned no research topics", nil)
	}

	existing, err := s.stores.Research.ListResearch(ctx, projectID)
	if err != nil {
		return ResearchResult{}, service.FromStore("research", err)
	}
	pdfs := make(map[string]string, len(existing))
	for _, r := range existing {
		pdfs[r.UserID] = r.PDFURL
	}

	members := make([]research.Member, 0, len(groups))
	for _, g := range groups {
		members = append(members, member(g.UserID, g.Topics, byID, pdfs[g.UserID]))
	}
	return ResearchResult{Members: members}, nil
}

func (s *Service) persistResearch(ctx context.Context, projectID string, v ResearchResult) error {
	if len(v.Members) == 0 {
		return nil
	}
	rows := make([]research.Assignment, 0, len(v.Members))
	for _, m := range v.Members {
		rows = append(rows, research.Assignment{ProjectID: projectID, UserID: m.UserID, Tasks: m.Task})
	}
	if err := s.stores.Research.UpsertResearchTasks(ctx, rows); err != nil {
		return errors.Upstream("save research assignments", err)
	}
	return nil
}

func member(userID string, tasks []string, profiles map[string]profile.Profile, pdfURL string) research.Member {
	m := research.Member{UserID: userID, Task: tasks}
	if m.Task == nil {
		m.Task = []string{}
	}
	if prof, ok := profiles[userID]; ok && prof.FullName != "" {
		m.Name = strPtr(prof.FullName)
	}
	if pdfURL != "" {
		m.PDFURL = strPtr(pdfURL)
	}
	return m
}

func strPtr(s string) *string { return &s }
