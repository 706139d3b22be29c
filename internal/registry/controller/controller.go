// Package controller implements the core business logic (service layer) for
// the registry: entity CRUD with confirmed deletes, document intake and text
// extraction, and the event registration workflow.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/gartstein/registo/internal/registry/db"
	e "github.com/gartstein/registo/internal/registry/errors"
	"github.com/gartstein/registo/internal/registry/models"
	"go.uber.org/zap"
)

// Repository defines the storage interface the service depends on.
type Repository interface {
	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, id uint) (*models.Company, error)
	ListCompanies(ctx context.Context) ([]models.Company, error)
	DeleteCompany(ctx context.Context, id uint) error

	CreatePartner(ctx context.Context, partner *models.Partner) error
	GetPartner(ctx context.Context, id uint) (*models.Partner, error)
	ListPartners(ctx context.Context) ([]models.Partner, error)
	DeletePartner(ctx context.Context, id uint) error

	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id uint) (*models.Document, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
	DeleteDocument(ctx context.Context, id uint) error

	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id uint) (*models.Event, error)
	ListEvents(ctx context.Context, filter db.EventFilter) ([]models.Event, error)
	DeleteEvent(ctx context.Context, id uint) error

	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
	Close() error
}

// TextExtractor turns raw PDF bytes into plain text.
type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}

// RegistryService provides the registry use cases over a repository and a
// text extractor.
type RegistryService struct {
	repo      Repository
	extractor TextExtractor
	logger    *zap.Logger
}

// NewRegistryService constructs a RegistryService.
func NewRegistryService(repo Repository, extractor TextExtractor, logger *zap.Logger) *RegistryService {
	return &RegistryService{
		repo:      repo,
		extractor: extractor,
		logger:    logger.Named("registry_service"),
	}
}

// validationErr names the violated workflow step so rejections report where
// they failed.
func validationErr(step, msg string) error {
	return fmt.Errorf("%w: %s: %s", e.ErrValidation, step, msg)
}

// CreateCompany adds a company after checking its required fields.
func (s *RegistryService) CreateCompany(ctx context.Context, company *models.Company) (*models.Company, error) {
	if company.Name == "" {
		return nil, validationErr("required fields", "company name is required")
	}
	if company.LegalForm == "" {
		return nil, validationErr("required fields", "legal form is required")
	}
	if company.IncorporationDate.IsZero() {
		return nil, validationErr("required fields", "incorporation date is required")
	}
	if err := s.repo.CreateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	return company, nil
}

// ListCompanies returns all companies, id ascending.
func (s *RegistryService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	return s.repo.ListCompanies(ctx)
}

// DeleteCompany removes a company and its event history. Deletion is
// two-step: an unconfirmed request is a no-op reported as
// ErrConfirmationRequired, not a failure of the record itself.
func (s *RegistryService) DeleteCompany(ctx context.Context, id uint, confirmed bool) error {
	if !confirmed {
		return e.ErrConfirmationRequired
	}
	if err := s.repo.DeleteCompany(ctx, id); err != nil {
		return err
	}
	s.logger.Info("company deleted", zap.Uint("company_id", id))
	return nil
}

// CreatePartner adds a partner after checking its required fields.
func (s *RegistryService) CreatePartner(ctx context.Context, partner *models.Partner) (*models.Partner, error) {
	if partner.Name == "" {
		return nil, validationErr("required fields", "partner name is required")
	}
	if err := s.repo.CreatePartner(ctx, partner); err != nil {
		return nil, fmt.Errorf("failed to create partner: %w", err)
	}
	return partner, nil
}

// ListPartners returns all partners, id ascending.
func (s *RegistryService) ListPartners(ctx context.Context) ([]models.Partner, error) {
	return s.repo.ListPartners(ctx)
}

// DeletePartner removes a partner and its event history, two-step like
// DeleteCompany.
func (s *RegistryService) DeletePartner(ctx context.Context, id uint, confirmed bool) error {
	if !confirmed {
		return e.ErrConfirmationRequired
	}
	if err := s.repo.DeletePartner(ctx, id); err != nil {
		return err
	}
	s.logger.Info("partner deleted", zap.Uint("partner_id", id))
	return nil
}

// DocumentUpload is one file of an upload batch.
type DocumentUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// UploadDocuments stores each file of a batch as one document row, content
// verbatim. The batch is one transaction: all rows commit or none do.
func (s *RegistryService) UploadDocuments(ctx context.Context, uploads []DocumentUpload) ([]models.Document, error) {
	if len(uploads) == 0 {
		return nil, validationErr("required fields", "no files in upload batch")
	}
	docs := make([]models.Document, 0, len(uploads))
	for _, u := range uploads {
		if len(u.Content) == 0 {
			return nil, validationErr("required fields", fmt.Sprintf("file %q has no content", u.Filename))
		}
		docs = append(docs, models.Document{
			Filename:    u.Filename,
			ContentType: u.ContentType,
			Size:        int64(len(u.Content)),
			Content:     u.Content,
			UploadedAt:  time.Now().UTC(),
		})
	}
	err := s.repo.WithTransaction(ctx, func(repo *db.Repository) error {
		for i := range docs {
			if err := repo.CreateDocument(ctx, &docs[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store upload batch: %w", err)
	}
	s.logger.Info("documents uploaded", zap.Int("count", len(docs)))
	return docs, nil
}

// ListDocuments returns document metadata, id ascending.
func (s *RegistryService) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return s.repo.ListDocuments(ctx)
}

// GetDocument returns a stored document including its content.
func (s *RegistryService) GetDocument(ctx context.Context, id uint) (*models.Document, error) {
	return s.repo.GetDocument(ctx, id)
}

// DeleteDocument removes a document, two-step. A document still referenced
// by events is rejected until the references are cleared.
func (s *RegistryService) DeleteDocument(ctx context.Context, id uint, confirmed bool) error {
	if !confirmed {
		return e.ErrConfirmationRequired
	}
	return s.repo.DeleteDocument(ctx, id)
}

// ExtractDocumentText runs on-demand text extraction over a stored
// document. Nothing is cached; repeated calls redo the work.
func (s *RegistryService) ExtractDocumentText(ctx context.Context, id uint) (string, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}
	text, err := s.extractor.ExtractText(doc.Content)
	if err != nil {
		s.logger.Warn("text extraction failed",
			zap.Uint("document_id", id),
			zap.Error(err),
		)
		return "", err
	}
	return text, nil
}

// ListEvents returns events matching the filter, id ascending.
func (s *RegistryService) ListEvents(ctx context.Context, filter db.EventFilter) ([]models.Event, error) {
	return s.repo.ListEvents(ctx, filter)
}

// DeleteEvent removes an event, two-step. No cascade of its own.
func (s *RegistryService) DeleteEvent(ctx context.Context, id uint, confirmed bool) error {
	if !confirmed {
		return e.ErrConfirmationRequired
	}
	return s.repo.DeleteEvent(ctx, id)
}
