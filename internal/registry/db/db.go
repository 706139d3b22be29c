// Package db implements durable keyed storage for the registry entities on
// top of GORM. The default store is a single-file embedded SQLite database;
// Postgres can be selected via configuration for server deployments.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	e "github.com/gartstein/registo/internal/registry/errors"
	"github.com/gartstein/registo/internal/registry/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Repository is the storage handle passed explicitly to every operation. It
// is opened once at startup and closed at shutdown.
type Repository struct {
	db *gorm.DB
}

// Config selects and parameterizes the database driver.
type Config struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string
	// Path is the SQLite database file.
	Path string
	// Postgres settings, used only when Driver is "postgres".
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewRepository opens the configured database and ensures the schema exists.
// Schema evolution is additive only: AutoMigrate adds missing tables and
// nullable columns in place and never drops or rewrites existing data.
func NewRepository(cfg *Config) (*Repository, error) {
	gdb, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := gdb.AutoMigrate(
		&models.Company{},
		&models.Partner{},
		&models.Document{},
		&models.Event{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: gdb}, nil
}

func open(cfg *Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	if cfg.Driver == "postgres" {
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		return gorm.Open(postgres.Open(dsn), gormCfg)
	}

	path := cfg.Path
	if path == "" {
		path = "empresas.db"
	}
	gdb, err := gorm.Open(sqlite.Open(path), gormCfg)
	if err != nil {
		return nil, err
	}
	// SQLite assumes exactly one writer.
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return gdb, nil
}

// storageErr translates an unexpected GORM error into the storage sentinel.
func storageErr(err error) error {
	return fmt.Errorf("%w: %v", e.ErrStorage, err)
}

// CreateCompany inserts a company and assigns its sequential id.
func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	if result := r.db.WithContext(ctx).Create(company); result.Error != nil {
		return storageErr(result.Error)
	}
	return nil
}

// GetCompany fetches a company by id.
func (r *Repository) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).First(&company, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, storageErr(result.Error)
	}
	return &company, nil
}

// ListCompanies returns all companies ordered by primary key ascending.
func (r *Repository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	result := r.db.WithContext(ctx).Order("id ASC").Find(&companies)
	if result.Error != nil {
		return nil, storageErr(result.Error)
	}
	return companies, nil
}

// DeleteCompany removes a company and all events it owns in one transaction.
// Events owned by other companies are untouched.
func (r *Repository) DeleteCompany(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var company models.Company
		if err := tx.First(&company, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return e.ErrNotFound
			}
			return storageErr(err)
		}
		if err := tx.Where("company_id = ?", id).Delete(&models.Event{}).Error; err != nil {
			return storageErr(err)
		}
		if err := tx.Delete(&models.Company{}, id).Error; err != nil {
			return storageErr(err)
		}
		return nil
	})
}

// CreatePartner inserts a partner.
func (r *Repository) CreatePartner(ctx context.Context, partner *models.Partner) error {
	if result := r.db.WithContext(ctx).Create(partner); result.Error != nil {
		return storageErr(result.Error)
	}
	return nil
}

// GetPartner fetches a partner by id.
func (r *Repository) GetPartner(ctx context.Context, id uint) (*models.Partner, error) {
	var partner models.Partner
	result := r.db.WithContext(ctx).First(&partner, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, storageErr(result.Error)
	}
	return &partner, nil
}

// ListPartners returns all partners ordered by primary key ascending.
func (r *Repository) ListPartners(ctx context.Context) ([]models.Partner, error) {
	var partners []models.Partner
	result := r.db.WithContext(ctx).Order("id ASC").Find(&partners)
	if result.Error != nil {
		return nil, storageErr(result.Error)
	}
	return partners, nil
}

// DeletePartner removes a partner and all events that reference it, in one
// transaction. The cascade mirrors DeleteCompany.
func (r *Repository) DeletePartner(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var partner models.Partner
		if err := tx.First(&partner, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return e.ErrNotFound
			}
			return storageErr(err)
		}
		if err := tx.Where("partner_id = ?", id).Delete(&models.Event{}).Error; err != nil {
			return storageErr(err)
		}
		if err := tx.Delete(&models.Partner{}, id).Error; err != nil {
			return storageErr(err)
		}
		return nil
	})
}

// CreateDocument inserts an uploaded document, content verbatim.
func (r *Repository) CreateDocument(ctx context.Context, doc *models.Document) error {
	if result := r.db.WithContext(ctx).Create(doc); result.Error != nil {
		return storageErr(result.Error)
	}
	return nil
}

// GetDocument fetches a document by id, including its content.
func (r *Repository) GetDocument(ctx context.Context, id uint) (*models.Document, error) {
	var doc models.Document
	result := r.db.WithContext(ctx).First(&doc, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, storageErr(result.Error)
	}
	return &doc, nil
}

// ListDocuments returns document metadata ordered by primary key ascending.
// Content is not loaded.
func (r *Repository) ListDocuments(ctx context.Context) ([]models.Document, error) {
	var docs []models.Document
	result := r.db.WithContext(ctx).
		Select("id", "filename", "content_type", "size", "uploaded_at").
		Order("id ASC").
		Find(&docs)
	if result.Error != nil {
		return nil, storageErr(result.Error)
	}
	return docs, nil
}

// DeleteDocument removes a document. A document still referenced by events
// is rejected with ErrValidation; the references must be cleared first.
func (r *Repository) DeleteDocument(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		if err := tx.Select("id").First(&doc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return e.ErrNotFound
			}
			return storageErr(err)
		}
		var refs int64
		if err := tx.Model(&models.Event{}).Where("document_id = ?", id).Count(&refs).Error; err != nil {
			return storageErr(err)
		}
		if refs > 0 {
			return fmt.Errorf("%w: document %d is referenced by %d event(s)", e.ErrValidation, id, refs)
		}
		if err := tx.Delete(&models.Document{}, id).Error; err != nil {
			return storageErr(err)
		}
		return nil
	})
}

// CreateEvent inserts a lifecycle event.
func (r *Repository) CreateEvent(ctx context.Context, event *models.Event) error {
	if result := r.db.WithContext(ctx).Create(event); result.Error != nil {
		return storageErr(result.Error)
	}
	return nil
}

// GetEvent fetches an event by id.
func (r *Repository) GetEvent(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	result := r.db.WithContext(ctx).First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, storageErr(result.Error)
	}
	return &event, nil
}

// EventFilter narrows ListEvents by foreign key. Nil fields match all rows.
type EventFilter struct {
	CompanyID  *uint
	PartnerID  *uint
	DocumentID *uint
}

// ListEvents returns events matching the filter, ordered by primary key
// ascending.
func (r *Repository) ListEvents(ctx context.Context, filter EventFilter) ([]models.Event, error) {
	q := r.db.WithContext(ctx).Order("id ASC")
	if filter.CompanyID != nil {
		q = q.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.PartnerID != nil {
		q = q.Where("partner_id = ?", *filter.PartnerID)
	}
	if filter.DocumentID != nil {
		q = q.Where("document_id = ?", *filter.DocumentID)
	}
	var events []models.Event
	if result := q.Find(&events); result.Error != nil {
		return nil, storageErr(result.Error)
	}
	return events, nil
}

// DeleteEvent removes an event by id. No cascade effects of its own.
func (r *Repository) DeleteEvent(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Event{}, id)
	if result.Error != nil {
		return storageErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// WithTransaction runs fn against a transaction-scoped repository. All
// writes inside fn commit together or roll back together.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// Close releases the underlying connection at process shutdown.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
