// Package ideation stores client-supplied ideation content: answered Q&A and
// hand-edited PRDs. Generated content goes through the generation package.
package ideation

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hackcrew/service_layer/internal/app/core/service"
	"github.com/hackcrew/service_layer/internal/app/domain/ideation"
	"github.com/hackcrew/service_layer/internal/app/storage"
	"github.com/hackcrew/service_layer/internal/errors"
	"github.com/hackcrew/service_layer/internal/logging"
)

type Service struct {
	store storage.IdeationStore
	log   *logging.Logger
}

func New(store storage.IdeationStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("ideation")
	}
	return &Service{store: store, log: log}
}

func (s *Service) Descriptor() service.Descriptor {
	return service.Descriptor{Name: "ideation", Domain: "ideation", Capabilities: []string{"save", "save-qna", "get-prd"}}
}

// Save writes whichever of qna and prd are non-nil. A PRD shorter than
// ideation.MinPRDLength characters is rejected.
func (s *Service) Save(ctx context.Context, projectID string, qna *[]ideation.QnA, prd *string) (ideation.Record, error) {
	if strings.TrimSpace(projectID) == "" {
		return ideation.Record{}, errors.Required("project_id")
	}
	if prd != nil && utf8.RuneCountInString(strings.TrimSpace(*prd)) < ideation.MinPRDLength {
		return ideation.Record{}, errors.Validation(fmt.Sprintf("prd must be at least %d characters", ideation.MinPRDLength))
	}

	rec, err := s.store.UpsertIdeation(ctx, ideation.Update{ProjectID: projectID, QnA: qna, PRD: prd})
	if err != nil {
		return ideation.Record{}, service.FromStore("ideation", err)
	}
	s.log.WithContext(ctx).
		WithField("project_id", projectID).
		WithField("qna", qna != nil).
		WithField("prd", prd != nil).
		Info("ideation saved")
	return rec, nil
}

// SaveQnA replaces the project's Q&A, keeping pitch and PRD.
func (s *Service) SaveQnA(ctx context.Context, projectID string, qna []ideation.QnA) (ideation.Record, error) {
	if qna == nil {
		return ideation.Record{}, errors.Required("q_n_a")
	}
	return s.Save(ctx, projectID, &qna, nil)
}

// PRD returns the stored PRD. A project without an ideation row is
// NOT_FOUND; a row without a PRD yields "".
func (s *Service) PRD(ctx context.Context, projectID string) (string, error) {
	if strings.TrimSpace(projectID) == "" {
		return "", errors.Required("project_id")
	}
	rec, err := s.store.GetIdeation(ctx, projectID)
	if err != nil {
		return "", service.FromStore("PRD", err)
	}
	return rec.PRD, nil
}
