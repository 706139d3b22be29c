// Package handlers exposes the registry over HTTP/JSON, bridging the echo
// transport and the service layer and mapping domain errors to status codes.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gartstein/registo/internal/registry/controller"
	"github.com/gartstein/registo/internal/registry/db"
	e "github.com/gartstein/registo/internal/registry/errors"
	"github.com/gartstein/registo/internal/registry/models"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RegistryController defines the business logic interface the HTTP handlers
// invoke.
type RegistryController interface {
	CreateCompany(ctx context.Context, company *models.Company) (*models.Company, error)
	ListCompanies(ctx context.Context) ([]models.Company, error)
	DeleteCompany(ctx context.Context, id uint, confirmed bool) error

	CreatePartner(ctx context.Context, partner *models.Partner) (*models.Partner, error)
	ListPartners(ctx context.Context) ([]models.Partner, error)
	DeletePartner(ctx context.Context, id uint, confirmed bool) error

	UploadDocuments(ctx context.Context, uploads []controller.DocumentUpload) ([]models.Document, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
	GetDocument(ctx context.Context, id uint) (*models.Document, error)
	DeleteDocument(ctx context.Context, id uint, confirmed bool) error
	ExtractDocumentText(ctx context.Context, id uint) (string, error)

	RegisterEvent(ctx context.Context, input *controller.EventInput) (*models.Event, error)
	ListEvents(ctx context.Context, filter db.EventFilter) ([]models.Event, error)
	DeleteEvent(ctx context.Context, id uint, confirmed bool) error
}

// RegistryHandler holds the HTTP handlers for every registry section.
type RegistryHandler struct {
	service  RegistryController
	validate *validator.Validate
	logger   *zap.Logger
}

// NewRegistryHandler constructs a RegistryHandler.
func NewRegistryHandler(service RegistryController, validate *validator.Validate, logger *zap.Logger) *RegistryHandler {
	return &RegistryHandler{
		service:  service,
		validate: validate,
		logger:   logger.Named("http_handler"),
	}
}

// mapServiceError maps domain errors to HTTP responses. An unconfirmed
// delete is not an error: the record is untouched and the caller is told
// why nothing happened.
func (h *RegistryHandler) mapServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, e.ErrConfirmationRequired):
		return c.JSON(http.StatusOK, echo.Map{
			"status":  "confirmation_required",
			"message": "nothing was deleted: resend the request with confirm=true to proceed",
		})
	case errors.Is(err, e.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, e.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, e.ErrExtraction):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	default:
		h.logger.Error("internal error", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func idParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, errors.New("id must be a positive integer")
	}
	return uint(id), nil
}

func confirmed(c echo.Context) bool {
	return c.QueryParam("confirm") == "true"
}

// CreateCompany handles POST /api/companies.
func (h *RegistryHandler) CreateCompany(c echo.Context) error {
	var req CompanyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}
	company, err := req.toModel()
	if err != nil {
		return badRequest(c, err.Error())
	}
	created, err := h.service.CreateCompany(c.Request().Context(), company)
	if err != nil {
		return h.mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// ListCompanies handles GET /api/companies.
func (h *RegistryHandler) ListCompanies(c echo.Context) error {
	companies, err := h.service.ListCompanies(c.Request().Context())
	if err != nil {
		return h.mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"companies": companies})
}

// DeleteCompany handles DELETE /api/companies/:id.
func (h *RegistryHandler) DeleteCompany(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.service.DeleteCompany(c.Request().Context(), id, confirmed(c)); err != nil {
		return h.mapServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CreatePartner handles POST /api/partners.
func (h *RegistryHandler) CreatePartner(c echo.Context) error {
	var req PartnerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}
	created, err := h.service.CreatePartner(c.Request().Context(), req.toModel())
	if err != nil {
		return h.mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// ListPartners handles GET /api/partners.
func (h *RegistryHandler) ListPartners(c echo.Context) error {
	partners, err := h.service.ListPartners(c.Request().Context())
	if err != nil {
		return h.mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"partners": partners})
}

// DeletePartner handles DELETE /api/partners/:id.
func (h *RegistryHandler) DeletePartner(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.service.DeletePartner(c.Request().Context(), id, confirmed(c)); err != nil {
		return h.mapServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadDocuments handles POST /api/documents. Accepts a multipart batch
// under the "files" field; each file becomes one document row.
func (h *RegistryHandler) UploadDocuments(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "multipart form with a files field is required")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return badRequest(c, "no files in upload batch")
	}
	uploads := make([]controller.DocumentUpload, 0, len(files))
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return badRequest(c, "unreadable file "+fh.Filename)
		}
		content, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return badRequest(c, "unreadable file "+fh.Filename)
		}
		uploads = append(uploads, controller.DocumentUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Content:     content,
		})
	}
	docs, err := h.service.UploadDocuments(c.Request().Context(), uploads)
	if err != nil {
		return h.mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"documents": docs})
}

// ListDocuments handles GET /api/documents.
func (h *RegistryHandler) ListDocuments(c echo.Context) error {
	docs, err := h.service.ListDocuments(c.Request().Context())
	if err != nil {
		return h.mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"documents": docs})
}

// DownloadDocument handles GET /api/documents/:id/download, returning the
// stored bytes verbatim.
func (h *RegistryHandler) DownloadDocument(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	doc, err := h.service.GetDocument(c.Request().Context(), id)
	if err != nil {
		return h.mapServiceError(c, err)
	}
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+doc.Filename+`"`)
	return c.Blob(http.StatusOK, contentType, doc.Content)
}

// DeleteDocument handles DELETE /api/documents/:id.
func (h *RegistryHandler) DeleteDocument(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.service.DeleteDocument(c.Request().Context(), id, confirmed(c)); err != nil {
		return h.mapServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ExtractDocumentText handles GET /api/documents/:id/text.
func (h *RegistryHandler) ExtractDocumentText(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	text, err := h.service.ExtractDocumentText(c.Request().Context(), id)
	if err != nil {
		return h.mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"document_id": id, "text": text})
}

// RegisterEvent handles POST /api/events.
func (h *RegistryHandler) RegisterEvent(c echo.Context) error {
	var req EventRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}
	input, err := req.toInput()
	if err != nil {
		return badRequest(c, err.Error())
	}
	event, err := h.service.RegisterEvent(c.Request().Context(), input)
	if err != nil {
		return h.mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, event)
}

// ListEvents handles GET /api/events with optional company_id, partner_id
// and document_id filters.
func (h *RegistryHandler) ListEvents(c echo.Context) error {
	var filter db.EventFilter
	for param, target := range map[string]**uint{
		"company_id":  &filter.CompanyID,
		"partner_id":  &filter.PartnerID,
		"document_id": &filter.DocumentID,
	} {
		raw := c.QueryParam(param)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return badRequest(c, param+" must be a positive integer")
		}
		v := uint(id)
		*target = &v
	}
	events, err := h.service.ListEvents(c.Request().Context(), filter)
	if err != nil {
		return h.mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// DeleteEvent handles DELETE /api/events/:id.
func (h *RegistryHandler) DeleteEvent(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.service.DeleteEvent(c.Request().Context(), id, confirmed(c)); err != nil {
		return h.mapServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
