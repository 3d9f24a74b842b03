package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/hackcrew/service_layer/internal/app/domain/ideation"
	"github.com/hackcrew/service_layer/internal/app/domain/project"
	"github.com/hackcrew/service_layer/internal/app/domain/research"
	"github.com/hackcrew/service_layer/internal/app/domain/team"
	"github.com/hackcrew/service_layer/internal/app/storage"
)

func TestCreateProjectLinksRows(t *testing.T) {
	s := New()
	ctx := context.Background()

	p, tm, err := s.CreateProject(ctx, storage.NewProject{
		Project:    project.Project{Name: project.DefaultName, TeamLeader: "u1"},
		Membership: project.Membership{UserID: "u1", CurrentStatus: "Manage Team", State: project.StateActive},
		Team:       team.Team{Name: "t", Leader: "u1", Members: []string{"u1"}},
	})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if p.TeamID != tm.ID || tm.ProjectID != p.ID {
		t.Errorf("project/team not linked: %+v %+v", p, tm)
	}

	ms, _ := s.ListMemberships(ctx, "u1")
	if len(ms) != 1 || ms[0].ProjectID != p.ID {
		t.Errorf("memberships = %+v", ms)
	}
}

func TestUpdateStageRequiresMembership(t *testing.T) {
	s := New()
	if err := s.UpdateStage(context.Background(), "missing", "PRD"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateStage() error = %v, want ErrNotFound", err)
	}
}

func TestFailOnAndCalls(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.FailOn("GetProject", boom)

	if _, err := s.GetProject(context.Background(), "p"); !errors.Is(err, boom) {
		t.Errorf("GetProject() error = %v, want boom", err)
	}
	s.FailOn("GetProject", nil)
	if _, err := s.GetProject(context.Background(), "p"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetProject() error = %v, want ErrNotFound", err)
	}
	if got := s.Calls("GetProject"); got != 2 {
		t.Errorf("Calls(GetProject) = %d, want 2", got)
	}
}

func TestResearchUpsertsPreserveOtherColumn(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.UpsertResearchPDF(ctx, "p1", "u1", "https://cdn/x.pdf"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertResearchTasks(ctx, []research.Assignment{{ProjectID: "p1", UserID: "u1", Tasks: []string{"a"}}}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetResearch(ctx, "p1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.PDFURL != "https://cdn/x.pdf" || len(got.Tasks) != 1 {
		t.Errorf("assignment = %+v", got)
	}
}

func TestUpsertIdeationMerges(t *testing.T) {
	s := New()
	ctx := context.Background()
	pitch := ""
	qna := []ideation.QnA{{Question: "q"}}
	if _, err := s.UpsertIdeation(ctx, ideation.Update{ProjectID: "p1", QnA: &qna, Pitch: &pitch}); err != nil {
		t.Fatal(err)
	}
	prd := "document body"
	rec, err := s.UpsertIdeation(ctx, ideation.Update{ProjectID: "p1", PRD: &prd})
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.QnA) != 1 || rec.PRD != prd {
		t.Errorf("record = %+v", rec)
	}
}
