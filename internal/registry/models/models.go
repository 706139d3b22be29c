// Package models defines the core domain models for the registry:
// companies, their partners, uploaded source documents, and the lifecycle
// events transcribed from them.
package models

import (
	"time"
)

// LegalForm represents the legal form of a company.
type LegalForm string

const (
	// Lda represents a private limited company ("Sociedade por Quotas").
	Lda         LegalForm = "Lda"
	SA          LegalForm = "SA"
	Unipessoal  LegalForm = "Unipessoal"
	Cooperativa LegalForm = "Cooperativa"
)

// EventKind classifies a lifecycle event. The set is open-ended: unknown
// kinds are accepted and follow the generic registration path.
type EventKind string

const (
	// CompanyFormation registers the incorporation of a new company and
	// creates the company itself as a side effect.
	CompanyFormation EventKind = "constituicao_sociedade"
	// PartnerAdmission registers the entry of a new partner and creates
	// the partner as a side effect.
	PartnerAdmission  EventKind = "entrada_socio"
	CapitalIncrease   EventKind = "alteracao_aumento"
	ContractAmendment EventKind = "alteracao_contrato"
	Designation       EventKind = "designacao"
	Cessation         EventKind = "cessacao"
)

// Company is a legal entity tracked by the registry.
type Company struct {
	// ID is the sequential primary key, assigned by the store and never
	// reused after deletion.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the company's registered name.
	Name string `gorm:"not null" json:"name"`
	// LegalForm is the company's legal form.
	LegalForm LegalForm `gorm:"not null" json:"legal_form"`
	// IncorporationDate is the date the company was constituted.
	IncorporationDate time.Time `gorm:"not null" json:"incorporation_date"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Partner is an individual or entity holding a stake in, or role at, a
// company.
type Partner struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
	// TaxID is the partner's NIF/NIPC, optional.
	TaxID string `json:"tax_id,omitempty"`
	// Address is the partner's registered address, optional.
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document is an uploaded legal-act PDF, stored verbatim. The content is
// immutable after upload.
type Document struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Filename    string `gorm:"not null" json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	// Content holds the raw uploaded bytes. Listings omit it.
	Content    []byte    `gorm:"not null" json:"-"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Event is a dated, typed fact about a company's lifecycle, optionally tied
// to a partner and to the source document it was transcribed from.
type Event struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// CompanyID references the owning company. Required; deleting the
	// company deletes its events.
	CompanyID uint `gorm:"not null;index" json:"company_id"`
	// PartnerID optionally references an involved partner.
	PartnerID *uint `gorm:"index" json:"partner_id,omitempty"`
	// DocumentID optionally references the source document.
	DocumentID *uint        `gorm:"index" json:"document_id,omitempty"`
	EventDate  time.Time    `gorm:"not null" json:"event_date"`
	Kind       EventKind    `gorm:"not null" json:"kind"`
	Details    EventDetails `gorm:"type:text" json:"details"`
	CreatedAt  time.Time    `json:"created_at"`
}
