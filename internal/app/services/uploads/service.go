// Package uploads stores members' research PDFs and records their URLs.
package uploads

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/hackcrew/service_layer/internal/app/core/service"
	"github.com/hackcrew/service_layer/internal/app/storage"
	"github.com/hackcrew/service_layer/internal/errors"
	"github.com/hackcrew/service_layer/internal/logging"
)

const pdfContentType = "application/pdf"

// DefaultMaxBytes caps an upload when no limit is configured.
const DefaultMaxBytes int64 = 10 << 20

// Service uploads research PDFs.
type Service struct {
	objects  storage.ObjectStore
	research storage.ResearchStore
	maxBytes int64
	log      *logging.Logger
}

func New(objects storage.ObjectStore, research storage.ResearchStore, maxBytes int64, log *logging.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if log == nil {
		log = logging.NewDefault("uploads")
	}
	return &Service{objects: objects, research: research, maxBytes: maxBytes, log: log}
}

func (s *Service) Descriptor() service.Descriptor {
	return service.Descriptor{Name: "uploads", Domain: "research", Capabilities: []string{"upload-pdf", "view-pdf"}}
}

// MaxBytes is the largest accepted upload.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// ObjectPath is where a member's research PDF lives in the bucket.
func ObjectPath(projectID, userID string) string {
	return fmt.Sprintf("user_docs/%s_%s_research.pdf", userID, projectID)
}

// Upload stores data as the member's research PDF, overwriting any previous
// one, and records its public URL on the member's research row. Only
// application/pdf is accepted; other types are rejected before any storage
// call.
func (s *Service) Upload(ctx context.Context, projectID, userID, contentType string, data []byte) (string, error) {
	projectID, userID = strings.TrimSpace(projectID), strings.TrimSpace(userID)
	if projectID == "" {
		return "", errors.Required("project_id")
	}
	if userID == "" {
		return "", errors.Required("user_id")
	}
	if !isPDF(contentType) {
		return "", errors.Validation("Only PDF files are allowed").WithDetails("content_type", contentType)
	}
	if len(data) == 0 {
		return "", errors.Validation("file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return "", errors.Validation("file is too large").WithDetails("max_bytes", s.maxBytes)
	}

	path := ObjectPath(projectID, userID)
	url, err := s.objects.PutObject(ctx, path, data, pdfContentType)
	if err != nil {
		return "", errors.Upstream("store research PDF", err)
	}

	if err := s.research.UpsertResearchPDF(ctx, projectID, userID, url); err != nil {
		// The object is orphaned without its row; remove it even if the
		// request context is gone.
		if rmErr := s.objects.RemoveObject(context.WithoutCancel(ctx), path); rmErr != nil {
			s.log.WithContext(ctx).WithError(rmErr).WithField("path", path).Warn("remove orphaned research PDF")
		}
		return "", service.FromStore("research", err)
	}

	s.log.WithContext(ctx).
		WithField("project_id", projectID).
		WithField("user_id", userID).
		WithField("bytes", len(data)).
		Info("research PDF uploaded")
	return url, nil
}

// View returns the member's PDF URL and whether one exists.
func (s *Service) View(ctx context.Context, projectID, userID string) (string, bool, error) {
	if strings.TrimSpace(projectID) == "" {
		return "", false, errors.Required("project_id")
	}
	if strings.TrimSpace(userID) == "" {
		return "", false, errors.Required("user_id")
	}
	row, err := s.research.GetResearch(ctx, projectID, userID)
	found, err := service.Found("research", err)
	if err != nil {
		return "", false, err
	}
	if !found || row.PDFURL == "" {
		return "", false, nil
	}
	return row.PDFURL, true, nil
}

func isPDF(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && strings.EqualFold(mediaType, pdfContentType)
}
