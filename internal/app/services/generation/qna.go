package generation

import (
	"context"
	"strings"

	"github.com/hackcrew/service_layer/internal/app/domain/ideation"
	"github.com/hackcrew/service_layer/internal/errors"
)

// QnAResult is the clarifying Q&A response.
type QnAResult struct {
	QnA   []ideation.QnA `json:"qna"`
	Pitch string         `json:"pitch"`
}

// QnA returns the project's clarifying questions, generating them from the
// problem statement on first use.
func (s *Service) QnA(ctx context.Context, projectID string) (QnAResult, error) {
	if err := requireProject(projectID); err != nil {
		return QnAResult{}, err
	}
	return Run(ctx, s.orch, s.qna, projectID)
}

func (s *Service) lookupQnA(ctx context.Context, projectID string) (QnAResult, bool, error) {
	rec, err := s.ideationRecord(ctx, projectID)
	if err != nil || !rec.HasQnA() {
		return QnAResult{}, false, err
	}
	return QnAResult{QnA: rec.QnA, Pitch: rec.Pitch}, true, nil
}

func (s *Service) generateQnA(ctx context.Context, projectID string) (QnAResult, error) {
	ps, err := s.statement(ctx, projectID)
	if err != nil {
		return QnAResult{}, err
	}
	questions, err := s.gen.GenerateQuestions(ctx, ps)
	if err != nil {
		return QnAResult{}, err
	}

	qna := make([]ideation.QnA, 0, len(questions))
	for _, q := range questions {
		if q = strings.TrimSpace(q); q != "" {
			qna = append(qna, ideation.QnA{Question: q, Answer: ""})
		}
	}
	if len(qna) == 0 {
		return QnAResult{}, errors.Upstream("generator returned no questions", nil)
	}
	return QnAResult{QnA: qna, Pitch: ""}, nil
}

func (s *Service) persistQnA(ctx context.Context, projectID string, v QnAResult) error {
	qna, pitch := v.QnA, v.Pitch
	_, err := s.stores.Ideation.UpsertIdeation(ctx, ideation.Update{ProjectID: projectID, QnA: &qna, Pitch: &pitch})
	if err != nil {
		return errors.Upstream("save generated questions", err)
	}
	return nil
}
