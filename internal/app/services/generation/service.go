package generation

import (
	"context"
	"strings"

	"github.com/hackcrew/service_layer/internal/app/core/service"
	"github.com/hackcrew/service_layer/internal/app/domain/ideation"
	"github.com/hackcrew/service_layer/internal/app/domain/project"
	"github.com/hackcrew/service_layer/internal/app/domain/research"
	"github.com/hackcrew/service_layer/internal/app/storage"
	"github.com/hackcrew/service_layer/internal/errors"
	"github.com/hackcrew/service_layer/internal/generator"
	"github.com/hackcrew/service_layer/internal/logging"
)

// Generator is the external content generator. *generator.Client satisfies it.
type Generator interface {
	GenerateQuestions(ctx context.Context, statement string) ([]string, error)
	AssignResearch(ctx context.Context, team []generator.TeamMember, statement string) ([]research.Topic, error)
	DraftPRD(ctx context.Context, statement, pitch string, qna []ideation.QnA) (string, error)
}

// Stores groups the tables the flows read and write.
type Stores struct {
	Projects storage.ProjectStore
	Teams    storage.TeamStore
	Profiles storage.ProfileStore
	Ideation storage.IdeationStore
	Research storage.ResearchStore
}

// Service exposes the Q&A, research and PRD flows.
type Service struct {
	stores Stores
	gen    Generator
	orch   *Orchestrator
	log    *logging.Logger

	qna      Flow[QnAResult]
	research Flow[ResearchResult]
	prd      Flow[PRDResult]
}

// New wires the three flows over one orchestrator.
func New(stores Stores, gen Generator, orch *Orchestrator, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("generation")
	}
	if orch == nil {
		orch = NewOrchestrator(nil, nil, log)
	}
	s := &Service{stores: stores, gen: gen, orch: orch, log: log}
	s.qna = Flow[QnAResult]{Kind: generator.KindQuestions, Lookup: s.lookupQnA, Generate: s.generateQnA, Persist: s.persistQnA}
	s.research = Flow[ResearchResult]{Kind: generator.KindAssignments, Lookup: s.lookupResearch, Generate: s.generateResearch, Persist: s.persistResearch, ReadBack: true}
	s.prd = Flow[PRDResult]{Kind: generator.KindPRD, Lookup: s.lookupPRD, Generate: s.generatePRD, Persist: s.persistPRD}
	return s
}

func (s *Service) Descriptor() service.Descriptor {
	return service.Descriptor{
		Name:         "generation",
		Domain:       "stages",
		Capabilities: []string{"qna", "research-todo", "research-overview", "prd"},
	}
}

// Status reports the generation state of one kind for a project.
func (s *Service) Status(ctx context.Context, kind, projectID string) (State, error) {
	switch kind {
	case generator.KindQuestions:
		return Status(ctx, s.orch, s.qna, projectID)
	case generator.KindAssignments:
		return Status(ctx, s.orch, s.research, projectID)
	case generator.KindPRD:
		return Status(ctx, s.orch, s.prd, projectID)
	default:
		return StateEmpty, errors.Validation("unknown generation kind").WithDetails("kind", kind)
	}
}

func requireProject(projectID string) error {
	if strings.TrimSpace(projectID) == "" {
		return errors.Required("project_id")
	}
	return nil
}

func (s *Service) project(ctx context.Context, projectID string) (project.Project, error) {
	p, err := s.stores.Projects.GetProject(ctx, projectID)
	if err != nil {
		return project.Project{}, service.FromStore("project", err)
	}
	return p, nil
}

// statement loads the project's problem statement and rejects an empty one
// before any generator call.
func (s *Service) statement(ctx context.Context, projectID string) (string, error) {
	p, err := s.project(ctx, projectID)
	if err != nil {
		return "", err
	}
	ps := strings.TrimSpace(p.ProblemStatement)
	if ps == "" {
		return "", errors.Validation("problem statement is empty").WithDetails("project_id", projectID)
	}
	return ps, nil
}

// ideationRecord returns the project's ideation row, or a zero record when
// there is none.
func (s *Service) ideationRecord(ctx context.Context, projectID string) (ideation.Record, error) {
	rec, err := s.stores.Ideation.GetIdeation(ctx, projectID)
	found, err := service.Found("ideation", err)
	if err != nil {
		return ideation.Record{}, err
	}
	if !found {
		return ideation.Record{ProjectID: projectID}, nil
	}
	return rec, nil
}
