package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cv-studio/internal/domain"
	"cv-studio/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ProfileRepo keeps profiles and CV drafts in PostgreSQL. The CV travels as
// JSONB in both tables.
type ProfileRepo struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool, now: time.Now}
}

func (r *ProfileRepo) GetDraft(ctx context.Context, ownerID uuid.UUID) (*model.Document, error) {
	if r.pool == nil {
		return nil, domain.ErrNotFound
	}
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT document FROM cv_drafts WHERE owner_id = $1`, ownerID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeDocument(raw)
}

func (r *ProfileRepo) SaveDraft(ctx context.Context, ownerID uuid.UUID, doc *model.Document) error {
	if r.pool == nil {
		return nil
	}
	docB, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO cv_drafts (owner_id, document, updated_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (owner_id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`,
		ownerID, docB, r.now())
	return err
}

func (r *ProfileRepo) DeleteDraft(ctx context.Context, ownerID uuid.UUID) error {
	if r.pool == nil {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM cv_drafts WHERE owner_id = $1`, ownerID)
	return err
}

// PurgeDrafts deletes drafts last written before olderThan.
func (r *ProfileRepo) PurgeDrafts(ctx context.Context, olderThan time.Time) (int64, error) {
	if r.pool == nil {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM cv_drafts WHERE updated_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Commit embeds doc in the owner's profile, creating a freelancer profile
// when none exists yet.
func (r *ProfileRepo) Commit(ctx context.Context, ownerID uuid.UUID, doc *model.Document) (*domain.Profile, error) {
	if r.pool == nil {
		return nil, errors.New("profile repo: no database configured")
	}
	docB, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode cv: %w", err)
	}
	now := r.now()
	_, err = r.pool.Exec(ctx, `INSERT INTO profiles (owner_id, kind, display_name, title, photo_url, cv, committed_at, created_at, updated_at)
		VALUES ($1,$2,'','','',$3,$4,$4,$4)
		ON CONFLICT (owner_id) DO UPDATE SET cv = EXCLUDED.cv, committed_at = EXCLUDED.committed_at, updated_at = EXCLUDED.updated_at`,
		ownerID, domain.Freelancer, docB, now)
	if err != nil {
		return nil, err
	}
	return r.GetProfile(ctx, ownerID)
}

func (r *ProfileRepo) GetProfile(ctx context.Context, ownerID uuid.UUID) (*domain.Profile, error) {
	if r.pool == nil {
		return nil, domain.ErrNotFound
	}
	var (
		p     domain.Profile
		kind  string
		cvRaw []byte
	)
	err := r.pool.QueryRow(ctx, `SELECT owner_id, kind, display_name, title, photo_url, cv, committed_at, created_at, updated_at
		FROM profiles WHERE owner_id = $1`, ownerID).
		Scan(&p.OwnerID, &kind, &p.DisplayName, &p.Title, &p.PhotoURL, &cvRaw, &p.CommittedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Kind = domain.OwnerKind(kind)
	if len(cvRaw) > 0 {
		if p.CV, err = decodeDocument(cvRaw); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// UpsertProfile writes the presentation fields. The embedded CV is left to
// Commit.
func (r *ProfileRepo) UpsertProfile(ctx context.Context, p *domain.Profile) error {
	if r.pool == nil {
		return nil
	}
	now := r.now()
	_, err := r.pool.Exec(ctx, `INSERT INTO profiles (owner_id, kind, display_name, title, photo_url, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$6)
		ON CONFLICT (owner_id) DO UPDATE SET kind = EXCLUDED.kind, display_name = EXCLUDED.display_name, title = EXCLUDED.title, photo_url = EXCLUDED.photo_url, updated_at = EXCLUDED.updated_at`,
		p.OwnerID, string(p.Kind), p.DisplayName, p.Title, p.PhotoURL, now)
	return err
}

func decodeDocument(raw []byte) (*model.Document, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var doc model.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode cv: %w", err)
	}
	return &doc, nil
}
