package generation

import (
	"context"

	"github.com/hackcrew/service_layer/internal/app/domain/ideation"
	"github.com/hackcrew/service_layer/internal/errors"
)

// PRDResult carries a product requirements document.
type PRDResult struct {
	PRD string `json:"prd"`
}

// PRD returns the project's PRD, drafting it on first use from the problem
// statement plus any stored pitch and Q&A.
func (s *Service) PRD(ctx context.Context, projectID string) (PRDResult, error) {
	if err := requireProject(projectID); err != nil {
		return PRDResult{}, err
	}
	return Run(ctx, s.orch, s.prd, projectID)
}

func (s *Service) lookupPRD(ctx context.Context, projectID string) (PRDResult, bool, error) {
	rec, err := s.ideationRecord(ctx, projectID)
	if err != nil || !rec.HasPRD() {
		return PRDResult{}, false, err
	}
	return PRDResult{PRD: rec.PRD}, true, nil
}

func (s *Service) generatePRD(ctx context.Context, projectID string) (PRDResult, error) {
	ps, err := s.statement(ctx, projectID)
	if err != nil {
		return PRDResult{}, err
	}
	rec, err := s.ideationRecord(ctx, projectID)
	if err != nil {
		return PRDResult{}, err
	}
	text, err := s.gen.DraftPRD(ctx, ps, rec.Pitch, rec.QnA)
	if err != nil {
		return PRDResult{}, err
	}
	return PRDResult{PRD: text}, nil
}

func (s *Service) persistPRD(ctx context.Context, projectID string, v PRDResult) error {
	prd := v.PRD
	if _, err := s.stores.Ideation.UpsertIdeation(ctx, ideation.Update{ProjectID: projectID, PRD: &prd}); err != nil {
		return errors.Upstream("save generated PRD", err)
	}
	return nil
}
