package projects

import (
	"context"
	"fmt"
	"testing"

	"github.com/hackcrew/service_layer/internal/app/domain/project"
	"github.com/hackcrew/service_layer/internal/app/storage/memory"
	"github.com/hackcrew/service_layer/internal/errors"
	"github.com/hackcrew/service_layer/internal/events"
	"github.com/hackcrew/service_layer/internal/logging"
)

func newService() (*Service, *memory.Store, *events.Recorder) {
	store := memory.New()
	rec := &events.Recorder{}
	return New(store, rec, logging.Discard()), store, rec
}

func TestCreateProject(t *testing.T) {
	svc, store, rec := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{UserID: "u1", HackathonName: "HackX"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != project.StatusCreated || created.ProjectID == "" || created.TeamID == "" {
		t.Fatalf("unexpected result: %+v", created)
	}

	p, err := store.GetProject(ctx, created.ProjectID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if p.Name != project.DefaultName || p.TeamID != created.TeamID {
		t.Fatalf("unexpected project: %+v", p)
	}
	tm, err := store.GetTeam(ctx, created.TeamID)
	if err != nil {
		t.Fatalf("get team: %v", err)
	}
	if tm.Leader != "u1" || !tm.HasMember("u1") {
		t.Fatalf("creator must lead the team: %+v", tm)
	}

	list, err := svc.ListUserProjects(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}
	if list[0].StageNumber != 1 || list[0].StageLabel != "Manage Team" {
		t.Fatalf("new projects start at Manage Team: %+v", list[0])
	}
	if got := rec.Subjects(); len(got) != 1 || got[0] != events.SubjectProjectCreated {
		t.Fatalf("events = %v", got)
	}
}

func TestCreateRequiresUser(t *testing.T) {
	svc, store, _ := newService()
	if _, err := svc.Create(context.Background(), CreateInput{}); !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.Calls("CreateProject") != 0 {
		t.Fatalf("store must not be called")
	}
}

func TestUpdateStageConsistentWithUserProjects(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	created, err := svc.Create(ctx, CreateInput{UserID: "u1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, st := range project.Stages() {
		res, err := svc.UpdateStage(ctx, created.ProjectID, int(st))
		if err != nil {
			t.Fatalf("update stage %d: %v", st, err)
		}
		if res.StageLabel != st.Label() || res.StageNumber != int(st) {
			t.Fatalf("UpdateStage(%d) = %+v", st, res)
		}
		list, err := svc.ListUserProjects(ctx, "u1")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if list[0].StageNumber != int(st) || list[0].StageLabel != st.Label() || list[0].CurrentStatus != st.Label() {
			t.Fatalf("after stage %d got %+v", st, list[0])
		}
	}
}

func TestUpdateStageRejectsOutOfRange(t *testing.T) {
	svc, store, _ := newService()
	for _, stage := range []int{0, 6, -1} {
		_, err := svc.UpdateStage(context.Background(), "p1", stage)
		if !errors.IsValidation(err) {
			t.Fatalf("stage %d: expected validation error, got %v", stage, err)
		}
	}
	if store.Calls("UpdateStage") != 0 {
		t.Fatalf("store must not be touched for invalid stages")
	}
}

func TestUpdateStageUnknownProject(t *testing.T) {
	svc, _, rec := newService()
	_, err := svc.UpdateStage(context.Background(), "missing", 2)
	if !errors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(rec.Events()) != 0 {
		t.Fatalf("no event on failure")
	}
}

func TestListUserProjectsUnknownLabel(t *testing.T) {
	svc, store, _ := newService()
	store.AddMembership(project.Membership{UserID: "u9", ProjectID: "p9", CurrentStatus: "Archived"})

	list, err := svc.ListUserProjects(context.Background(), "u9")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list[0].StageNumber != 0 || list[0].StageLabel != "Archived" {
		t.Fatalf("unknown label must pass through: %+v", list[0])
	}
}

func TestProblemStatement(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	created, _ := svc.Create(ctx, CreateInput{UserID: "u1"})

	ps, err := svc.ProblemStatement(ctx, created.ProjectID)
	if err != nil || ps != "" {
		t.Fatalf("unset statement = %q, %v", ps, err)
	}
	if err := svc.SetProblemStatement(ctx, created.ProjectID, "Reduce food waste"); err != nil {
		t.Fatalf("set: %v", err)
	}
	ps, _ = svc.ProblemStatement(ctx, created.ProjectID)
	if ps != "Reduce food waste" {
		t.Fatalf("statement = %q", ps)
	}
	if err := svc.SetProblemStatement(ctx, "missing", "x"); !errors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.ProblemStatement(ctx, "missing"); !errors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreFailuresAreUpstream(t *testing.T) {
	svc, store, _ := newService()
	store.FailOn("ListMemberships", fmt.Errorf("gateway down"))
	if _, err := svc.ListUserProjects(context.Background(), "u1"); !errors.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestEventPublishFailureDoesNotFailRequest(t *testing.T) {
	store := memory.New()
	svc := New(store, &events.Recorder{Err: fmt.Errorf("nats down")}, logging.Discard())
	if _, err := svc.Create(context.Background(), CreateInput{UserID: "u1"}); err != nil {
		t.Fatalf("create should succeed: %v", err)
	}
}
