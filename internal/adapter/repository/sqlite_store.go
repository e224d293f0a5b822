package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cv-studio/internal/domain"
	"cv-studio/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type profileRow struct {
	OwnerID     string `gorm:"primaryKey"`
	Kind        string
	DisplayName string
	Title       string
	PhotoURL    string
	CV          datatypes.JSON
	CommittedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (profileRow) TableName() string { return "profiles" }

type draftRow struct {
	OwnerID   string `gorm:"primaryKey"`
	Document  datatypes.JSON
	UpdatedAt time.Time `gorm:"index"`
}

func (draftRow) TableName() string { return "cv_drafts" }

// SQLiteStore is the single-node ProfileStore used for local runs, the CLI
// and tests.
type SQLiteStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating when needed) the database at dbPath and
// migrates its tables.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&profileRow{}, &draftRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	return sqlDB.Close()
}

func (s *SQLiteStore) GetDraft(ctx context.Context, ownerID uuid.UUID) (*model.Document, error) {
	var row draftRow
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return decodeDocument(row.Document)
}

func (s *SQLiteStore) SaveDraft(ctx context.Context, ownerID uuid.UUID, doc *model.Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	row := draftRow{OwnerID: ownerID.String(), Document: datatypes.JSON(b), UpdatedAt: s.now()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteDraft(ctx context.Context, ownerID uuid.UUID) error {
	if err := s.db.WithContext(ctx).Delete(&draftRow{}, "owner_id = ?", ownerID.String()).Error; err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

func (s *SQLiteStore) PurgeDrafts(ctx context.Context, olderThan time.Time) (int64, error) {
	tx := s.db.WithContext(ctx).Where("updated_at < ?", olderThan).Delete(&draftRow{})
	if tx.Error != nil {
		return 0, fmt.Errorf("purge drafts: %w", tx.Error)
	}
	return tx.RowsAffected, nil
}

func (s *SQLiteStore) Commit(ctx context.Context, ownerID uuid.UUID, doc *model.Document) (*domain.Profile, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode cv: %w", err)
	}
	now := s.now()
	row := profileRow{
		OwnerID:     ownerID.String(),
		Kind:        string(domain.Freelancer),
		CV:          datatypes.JSON(b),
		CommittedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"cv", "committed_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("commit cv: %w", err)
	}
	return s.GetProfile(ctx, ownerID)
}

func (s *SQLiteStore) GetProfile(ctx context.Context, ownerID uuid.UUID) (*domain.Profile, error) {
	var row profileRow
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p := &domain.Profile{
		OwnerID:     ownerID,
		Kind:        domain.OwnerKind(row.Kind),
		DisplayName: row.DisplayName,
		Title:       row.Title,
		PhotoURL:    row.PhotoURL,
		CommittedAt: row.CommittedAt,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if p.CV, err = decodeDocument(row.CV); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStore) UpsertProfile(ctx context.Context, p *domain.Profile) error {
	now := s.now()
	row := profileRow{
		OwnerID:     p.OwnerID.String(),
		Kind:        string(p.Kind),
		DisplayName: p.DisplayName,
		Title:       p.Title,
		PhotoURL:    p.PhotoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "display_name", "title", "photo_url", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
