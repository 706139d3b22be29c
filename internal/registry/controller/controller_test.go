package controller

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gartstein/registo/internal/pkg/utils"
	"github.com/gartstein/registo/internal/registry/db"
	e "github.com/gartstein/registo/internal/registry/errors"
	"github.com/gartstein/registo/internal/registry/models"
	"go.uber.org/zap/zaptest"
)

// MockRepository implements the Repository interface for testing.
type MockRepository struct {
	createCompany func(context.Context, *models.Company) error
	getCompany    func(context.Context, uint) (*models.Company, error)
	listCompanies func(context.Context) ([]models.Company, error)
	deleteCompany func(context.Context, uint) error

	createPartner func(context.Context, *models.Partner) error
	getPartner    func(context.Context, uint) (*models.Partner, error)
	listPartners  func(context.Context) ([]models.Partner, error)
	deletePartner func(context.Context, uint) error

	createDocument func(context.Context, *models.Document) error
	getDocument    func(context.Context, uint) (*models.Document, error)
	listDocuments  func(context.Context) ([]models.Document, error)
	deleteDocument func(context.Context, uint) error

	createEvent func(context.Context, *models.Event) error
	getEvent    func(context.Context, uint) (*models.Event, error)
	listEvents  func(context.Context, db.EventFilter) ([]models.Event, error)
	deleteEvent func(context.Context, uint) error

	withTransaction func(context.Context, func(*db.Repository) error) error
}

func (m *MockRepository) CreateCompany(ctx context.Context, c *models.Company) error {
	return m.createCompany(ctx, c)
}

func (m *MockRepository) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	return m.getCompany(ctx, id)
}

func (m *MockRepository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	return m.listCompanies(ctx)
}

func (m *MockRepository) DeleteCompany(ctx context.Context, id uint) error {
	return m.deleteCompany(ctx, id)
}

func (m *MockRepository) CreatePartner(ctx context.Context, p *models.Partner) error {
	return m.createPartner(ctx, p)
}

func (m *MockRepository) GetPartner(ctx context.Context, id uint) (*models.Partner, error) {
	return m.getPartner(ctx, id)
}

func (m *MockRepository) ListPartners(ctx context.Context) ([]models.Partner, error) {
	return m.listPartners(ctx)
}

func (m *MockRepository) DeletePartner(ctx context.Context, id uint) error {
	return m.deletePartner(ctx, id)
}

func (m *MockRepository) CreateDocument(ctx context.Context, d *models.Document) error {
	return m.createDocument(ctx, d)
}

func (m *MockRepository) GetDocument(ctx context.Context, id uint) (*models.Document, error) {
	return m.getDocument(ctx, id)
}

func (m *MockRepository) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return m.listDocuments(ctx)
}

func (m *MockRepository) DeleteDocument(ctx context.Context, id uint) error {
	return m.deleteDocument(ctx, id)
}

func (m *MockRepository) CreateEvent(ctx context.Context, ev *models.Event) error {
	return m.createEvent(ctx, ev)
}

func (m *MockRepository) GetEvent(ctx context.Context, id uint) (*models.Event, error) {
	return m.getEvent(ctx, id)
}

func (m *MockRepository) ListEvents(ctx context.Context, f db.EventFilter) ([]models.Event, error) {
	return m.listEvents(ctx, f)
}

func (m *MockRepository) DeleteEvent(ctx context.Context, id uint) error {
	return m.deleteEvent(ctx, id)
}

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(*db.Repository) error) error {
	return m.withTransaction(ctx, fn)
}

func (m *MockRepository) Close() error {
	return nil
}

// MockExtractor is a test double for the PDF text extractor.
type MockExtractor struct {
	extractText func([]byte) (string, error)
}

func (m *MockExtractor) ExtractText(data []byte) (string, error) {
	return m.extractText(data)
}

func newService(t *testing.T, repo Repository) *RegistryService {
	t.Helper()
	return NewRegistryService(repo, &MockExtractor{}, zaptest.NewLogger(t))
}

func date(value string) time.Time {
	d, _ := time.Parse("2006-01-02", value)
	return d
}

func TestRegistryService_CreateCompany(t *testing.T) {
	tests := []struct {
		name          string
		input         *models.Company
		mockSetup     func(*MockRepository)
		expectedError error
	}{
		{
			name: "successful creation",
			input: &models.Company{
				Name:              "Nova Lda",
				LegalForm:         models.Lda,
				IncorporationDate: date("2020-01-01"),
			},
			mockSetup: func(mr *MockRepository) {
				mr.createCompany = func(_ context.Context, c *models.Company) error {
					c.ID = 1
					return nil
				}
			},
		},
		{
			name:          "missing name",
			input:         &models.Company{LegalForm: models.SA, IncorporationDate: date("2020-01-01")},
			mockSetup:     func(_ *MockRepository) {},
			expectedError: e.ErrValidation,
		},
		{
			name:          "missing legal form",
			input:         &models.Company{Name: "Sem Forma", IncorporationDate: date("2020-01-01")},
			mockSetup:     func(_ *MockRepository) {},
			expectedError: e.ErrValidation,
		},
		{
			name:          "missing incorporation date",
			input:         &models.Company{Name: "Sem Data", LegalForm: models.Lda},
			mockSetup:     func(_ *MockRepository) {},
			expectedError: e.ErrValidation,
		},
		{
			name: "repository error",
			input: &models.Company{
				Name:              "Falha Lda",
				LegalForm:         models.Lda,
				IncorporationDate: date("2020-01-01"),
			},
			mockSetup: func(mr *MockRepository) {
				mr.createCompany = func(_ context.Context, _ *models.Company) error {
					return e.ErrStorage
				}
			},
			expectedError: e.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRepository{}
			tt.mockSetup(mockRepo)
			service := newService(t, mockRepo)

			result, err := service.CreateCompany(context.Background(), tt.input)

			if tt.expectedError != nil {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if !errors.Is(err, tt.expectedError) {
					t.Errorf("expected error %v, got %v", tt.expectedError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.ID == 0 {
				t.Error("expected company ID to be set")
			}
		})
	}
}

func TestRegistryService_DeleteConfirmation(t *testing.T) {
	deleted := false
	mockRepo := &MockRepository{
		deleteCompany: func(_ context.Context, _ uint) error {
			deleted = true
			return nil
		},
	}
	service := newService(t, mockRepo)

	// Unconfirmed request: a no-op reported as confirmation required.
	err := service.DeleteCompany(context.Background(), 1, false)
	if !errors.Is(err, e.ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}
	if deleted {
		t.Fatal("unconfirmed delete must not reach the repository")
	}

	// Confirmed request deletes.
	if err := service.DeleteCompany(context.Background(), 1, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Fatal("confirmed delete should reach the repository")
	}
}

func TestRegistryService_RegisterEvent_Validation(t *testing.T) {
	existingCompany := &models.Company{ID: 7, Name: "Existente Lda"}

	tests := []struct {
		name      string
		input     *EventInput
		mockSetup func(*MockRepository)
		// wantStep is the step name the rejection must report.
		wantStep string
	}{
		{
			name:      "missing kind fails at required fields",
			input:     &EventInput{EventDate: date("2024-01-01"), CompanyID: 7},
			mockSetup: func(_ *MockRepository) {},
			wantStep:  "required fields",
		},
		{
			name:      "missing date fails at required fields",
			input:     &EventInput{Kind: models.CapitalIncrease, CompanyID: 7},
			mockSetup: func(_ *MockRepository) {},
			wantStep:  "required fields",
		},
		{
			name:  "unknown company fails at references",
			input: &EventInput{Kind: models.CapitalIncrease, EventDate: date("2024-01-01"), CompanyID: 99},
			mockSetup: func(mr *MockRepository) {
				mr.getCompany = func(_ context.Context, _ uint) (*models.Company, error) {
					return nil, e.ErrNotFound
				}
			},
			wantStep: "references",
		},
		{
			name: "unknown partner fails at references",
			input: &EventInput{
				Kind:      models.Designation,
				EventDate: date("2024-01-01"),
				CompanyID: 7,
				PartnerID: utils.Ptr(uint(55)),
			},
			mockSetup: func(mr *MockRepository) {
				mr.getCompany = func(_ context.Context, _ uint) (*models.Company, error) {
					return existingCompany, nil
				}
				mr.getPartner = func(_ context.Context, _ uint) (*models.Partner, error) {
					return nil, e.ErrNotFound
				}
			},
			wantStep: "references",
		},
		{
			name: "formation without new company fails at kind fields",
			input: &EventInput{
				Kind:      models.CompanyFormation,
				EventDate: date("2024-01-01"),
			},
			mockSetup: func(_ *MockRepository) {},
			wantStep:  "kind fields",
		},
		{
			name: "admission without partner name fails at kind fields",
			input: &EventInput{
				Kind:           models.PartnerAdmission,
				EventDate:      date("2024-01-01"),
				CompanyID:      7,
				NewPartnerData: &NewPartner{TaxID: "999999999"},
			},
			mockSetup: func(mr *MockRepository) {
				mr.getCompany = func(_ context.Context, _ uint) (*models.Company, error) {
					return existingCompany, nil
				}
			},
			wantStep: "kind fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRepository{}
			tt.mockSetup(mockRepo)
			service := newService(t, mockRepo)

			_, err := service.RegisterEvent(context.Background(), tt.input)
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if !errors.Is(err, e.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantStep) {
				t.Errorf("error %q should name the %q step", err.Error(), tt.wantStep)
			}
		})
	}
}

func TestRegistryService_RegisterEvent_Generic(t *testing.T) {
	var captured *models.Event
	mockRepo := &MockRepository{
		getCompany: func(_ context.Context, id uint) (*models.Company, error) {
			return &models.Company{ID: id}, nil
		},
		createEvent: func(_ context.Context, ev *models.Event) error {
			ev.ID = 3
			captured = ev
			return nil
		},
	}
	service := newService(t, mockRepo)

	event, err := service.RegisterEvent(context.Background(), &EventInput{
		Kind:      models.EventKind("futuro_desconhecido"),
		EventDate: date("2025-03-03"),
		CompanyID: 7,
		Details:   "ad-hoc note",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.ID != 3 {
		t.Errorf("expected committed event id 3, got %d", event.ID)
	}
	if captured == nil {
		t.Fatal("expected event to reach the repository")
	}
	// Unknown kinds take the generic path with the fallback-wrapped payload.
	if got := captured.Details.AsMap()[models.FreeTextKey]; got != "ad-hoc note" {
		t.Errorf("expected wrapped free text, got %v", captured.Details.AsMap())
	}
}

func TestRegistryService_RegisterEvent_StructuredDetails(t *testing.T) {
	var captured *models.Event
	mockRepo := &MockRepository{
		getCompany: func(_ context.Context, id uint) (*models.Company, error) {
			return &models.Company{ID: id}, nil
		},
		createEvent: func(_ context.Context, ev *models.Event) error {
			captured = ev
			return nil
		},
	}
	service := newService(t, mockRepo)

	_, err := service.RegisterEvent(context.Background(), &EventInput{
		Kind:      models.CapitalIncrease,
		EventDate: date("2025-04-04"),
		CompanyID: 7,
		Details:   `{"capital": "5000"}`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := captured.Details.AsMap()["capital"]; got != "5000" {
		t.Errorf("expected structured capital field, got %v", captured.Details.AsMap())
	}
}

func TestRegistryService_UploadDocuments(t *testing.T) {
	mockRepo := &MockRepository{}
	service := newService(t, mockRepo)

	// Empty batch is rejected before any write.
	_, err := service.UploadDocuments(context.Background(), nil)
	if !errors.Is(err, e.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	// A file without content is rejected before the transaction starts.
	_, err = service.UploadDocuments(context.Background(), []DocumentUpload{
		{Filename: "vazio.pdf"},
	})
	if !errors.Is(err, e.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestRegistryService_ExtractDocumentText(t *testing.T) {
	doc := &models.Document{ID: 4, Filename: "ato.pdf", Content: []byte("%PDF")}
	mockRepo := &MockRepository{
		getDocument: func(_ context.Context, _ uint) (*models.Document, error) {
			return doc, nil
		},
	}
	extractor := &MockExtractor{
		extractText: func(data []byte) (string, error) {
			if string(data) != "%PDF" {
				t.Error("extractor should receive the stored bytes")
			}
			return "texto do ato", nil
		},
	}
	service := NewRegistryService(mockRepo, extractor, zaptest.NewLogger(t))

	text, err := service.ExtractDocumentText(context.Background(), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "texto do ato" {
		t.Errorf("expected extracted text, got %q", text)
	}

	// Extraction failures pass through untouched.
	extractor.extractText = func(_ []byte) (string, error) {
		return "", e.ErrExtraction
	}
	_, err = service.ExtractDocumentText(context.Background(), 4)
	if !errors.Is(err, e.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}
