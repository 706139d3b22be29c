package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gartstein/registo/internal/registry/controller"
	"github.com/gartstein/registo/internal/registry/models"
)

// dateLayout is the wire format for all date fields.
const dateLayout = "2006-01-02"

// CompanyRequest is the payload for creating a company.
type CompanyRequest struct {
	Name              string `json:"name" validate:"required"`
	LegalForm         string `json:"legal_form" validate:"required,oneof=Lda SA Unipessoal Cooperativa"`
	IncorporationDate string `json:"incorporation_date" validate:"required"`
}

// PartnerRequest is the payload for creating a partner.
type PartnerRequest struct {
	Name    string `json:"name" validate:"required"`
	TaxID   string `json:"tax_id"`
	Address string `json:"address"`
}

// NewCompanyRequest carries the company a formation event creates.
type NewCompanyRequest struct {
	Name              string `json:"name" validate:"required"`
	LegalForm         string `json:"legal_form" validate:"required,oneof=Lda SA Unipessoal Cooperativa"`
	IncorporationDate string `json:"incorporation_date" validate:"required"`
}

// NewPartnerRequest carries the partner an admission event creates.
type NewPartnerRequest struct {
	Name    string `json:"name" validate:"required"`
	TaxID   string `json:"tax_id"`
	Address string `json:"address"`
}

// EventRequest is the payload for the event registration workflow. Details
// accepts any JSON value: objects stay structured, everything else becomes
// free text.
type EventRequest struct {
	Kind       string          `json:"kind" validate:"required"`
	EventDate  string          `json:"event_date" validate:"required"`
	CompanyID  uint            `json:"company_id"`
	PartnerID  *uint           `json:"partner_id"`
	DocumentID *uint           `json:"document_id"`
	Details    json.RawMessage `json:"details"`

	NewCompany *NewCompanyRequest `json:"new_company"`
	NewPartner *NewPartnerRequest `json:"new_partner"`
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a %s date", field, dateLayout)
	}
	return t, nil
}

func (r *CompanyRequest) toModel() (*models.Company, error) {
	date, err := parseDate("incorporation_date", r.IncorporationDate)
	if err != nil {
		return nil, err
	}
	return &models.Company{
		Name:              r.Name,
		LegalForm:         models.LegalForm(r.LegalForm),
		IncorporationDate: date,
	}, nil
}

func (r *PartnerRequest) toModel() *models.Partner {
	return &models.Partner{
		Name:    r.Name,
		TaxID:   r.TaxID,
		Address: r.Address,
	}
}

func (r *EventRequest) toInput() (*controller.EventInput, error) {
	date, err := parseDate("event_date", r.EventDate)
	if err != nil {
		return nil, err
	}
	input := &controller.EventInput{
		Kind:       models.EventKind(r.Kind),
		EventDate:  date,
		CompanyID:  r.CompanyID,
		PartnerID:  r.PartnerID,
		DocumentID: r.DocumentID,
		Details:    string(r.Details),
	}
	if r.NewCompany != nil {
		incDate, err := parseDate("new_company.incorporation_date", r.NewCompany.IncorporationDate)
		if err != nil {
			return nil, err
		}
		input.NewCompanyData = &controller.NewCompany{
			Name:              r.NewCompany.Name,
			LegalForm:         models.LegalForm(r.NewCompany.LegalForm),
			IncorporationDate: incDate,
		}
	}
	if r.NewPartner != nil {
		input.NewPartnerData = &controller.NewPartner{
			Name:    r.NewPartner.Name,
			TaxID:   r.NewPartner.TaxID,
			Address: r.NewPartner.Address,
		}
	}
	return input, nil
}
