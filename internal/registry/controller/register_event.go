package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/gartstein/registo/internal/registry/db"
	"github.com/gartstein/registo/internal/registry/models"
	"go.uber.org/zap"
)

// NewCompany carries the fields of the company a formation event creates.
type NewCompany struct {
	Name              string
	LegalForm         models.LegalForm
	IncorporationDate time.Time
}

// NewPartner carries the fields of the partner an admission event creates.
type NewPartner struct {
	Name    string
	TaxID   string
	Address string
}

// EventInput is one registration-form submission.
type EventInput struct {
	Kind      models.EventKind
	EventDate time.Time
	// CompanyID selects the existing company the event belongs to. Required
	// for every kind except CompanyFormation, where the company is created
	// as a side effect.
	CompanyID uint
	// PartnerID optionally selects an existing partner.
	PartnerID *uint
	// DocumentID optionally links the source document.
	DocumentID *uint
	// Details is the raw payload, converted parse-or-fallback.
	Details string

	// NewCompanyData is required for CompanyFormation.
	NewCompanyData *NewCompany
	// NewPartnerData is required for PartnerAdmission.
	NewPartnerData *NewPartner
}

// RegisterEvent turns a submission into one committed event. For the two
// side-effect kinds the created entity and the event commit in a single
// transaction: both or neither. Validation fails fast, naming the violated
// step, and a rejected submission is terminal — nothing is retried.
func (s *RegistryService) RegisterEvent(ctx context.Context, input *EventInput) (*models.Event, error) {
	// Step 1: required-field presence.
	if input.Kind == "" {
		return nil, validationErr("required fields", "event kind is required")
	}
	if input.EventDate.IsZero() {
		return nil, validationErr("required fields", "event date is required")
	}

	// Step 2: referential existence of selected ids.
	if input.Kind != models.CompanyFormation {
		if input.CompanyID == 0 {
			return nil, validationErr("references", "an existing company must be selected")
		}
		if _, err := s.repo.GetCompany(ctx, input.CompanyID); err != nil {
			return nil, validationErr("references", fmt.Sprintf("company %d does not exist", input.CompanyID))
		}
	}
	if input.PartnerID != nil {
		if _, err := s.repo.GetPartner(ctx, *input.PartnerID); err != nil {
			return nil, validationErr("references", fmt.Sprintf("partner %d does not exist", *input.PartnerID))
		}
	}
	if input.DocumentID != nil {
		if _, err := s.repo.GetDocument(ctx, *input.DocumentID); err != nil {
			return nil, validationErr("references", fmt.Sprintf("document %d does not exist", *input.DocumentID))
		}
	}

	// Step 3: kind-specific field presence.
	switch input.Kind {
	case models.CompanyFormation:
		nc := input.NewCompanyData
		if nc == nil {
			return nil, validationErr("kind fields", "formation events require the new company's data")
		}
		if nc.Name == "" || nc.LegalForm == "" || nc.IncorporationDate.IsZero() {
			return nil, validationErr("kind fields", "new company name, legal form and incorporation date are required")
		}
	case models.PartnerAdmission:
		np := input.NewPartnerData
		if np == nil {
			return nil, validationErr("kind fields", "admission events require the new partner's data")
		}
		if np.Name == "" {
			return nil, validationErr("kind fields", "new partner name is required")
		}
	}

	// Step 4: payload parse-or-fallback. Total, never rejects.
	event := &models.Event{
		CompanyID:  input.CompanyID,
		PartnerID:  input.PartnerID,
		DocumentID: input.DocumentID,
		EventDate:  input.EventDate,
		Kind:       input.Kind,
		Details:    models.ParseDetails(input.Details),
	}

	switch input.Kind {
	case models.CompanyFormation:
		err := s.repo.WithTransaction(ctx, func(repo *db.Repository) error {
			company := &models.Company{
				Name:              input.NewCompanyData.Name,
				LegalForm:         input.NewCompanyData.LegalForm,
				IncorporationDate: input.NewCompanyData.IncorporationDate,
			}
			if err := repo.CreateCompany(ctx, company); err != nil {
				return err
			}
			event.CompanyID = company.ID
			return repo.CreateEvent(ctx, event)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to register formation event: %w", err)
		}
	case models.PartnerAdmission:
		err := s.repo.WithTransaction(ctx, func(repo *db.Repository) error {
			partner := &models.Partner{
				Name:    input.NewPartnerData.Name,
				TaxID:   input.NewPartnerData.TaxID,
				Address: input.NewPartnerData.Address,
			}
			if err := repo.CreatePartner(ctx, partner); err != nil {
				return err
			}
			event.PartnerID = &partner.ID
			return repo.CreateEvent(ctx, event)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to register admission event: %w", err)
		}
	default:
		if err := s.repo.CreateEvent(ctx, event); err != nil {
			return nil, fmt.Errorf("failed to register event: %w", err)
		}
	}

	s.logger.Info("event registered",
		zap.Uint("event_id", event.ID),
		zap.String("kind", string(event.Kind)),
		zap.Uint("company_id", event.CompanyID),
	)
	return event, nil
}
