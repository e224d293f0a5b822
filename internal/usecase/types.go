package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cv-studio/internal/domain"
	"cv-studio/internal/model"

	"github.com/google/uuid"
)

// ProfileStore is the remote side of the CV lifecycle: drafts while editing
// and the profile record the committed CV is embedded in.
type ProfileStore interface {
	GetDraft(ctx context.Context, ownerID uuid.UUID) (*model.Document, error)
	SaveDraft(ctx context.Context, ownerID uuid.UUID, doc *model.Document) error
	DeleteDraft(ctx context.Context, ownerID uuid.UUID) error
	Commit(ctx context.Context, ownerID uuid.UUID, doc *model.Document) (*domain.Profile, error)
	GetProfile(ctx context.Context, ownerID uuid.UUID) (*domain.Profile, error)
	UpsertProfile(ctx context.Context, p *domain.Profile) error
}

// DraftCache is the ephemeral local copy of a draft keyed by owner.
type DraftCache interface {
	Get(ctx context.Context, ownerID uuid.UUID) (*model.Document, error)
	Put(ctx context.Context, ownerID uuid.UUID, doc *model.Document) error
	Delete(ctx context.Context, ownerID uuid.UUID) error
}

// PDFRenderer prints a rendered CV for download.
type PDFRenderer interface {
	RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error)
}

// Translator resolves label keys to localized strings.
type Translator interface {
	T(key string, params map[string]any) string
}

type TranslatorFunc func(key string, params map[string]any) string

func (f TranslatorFunc) T(key string, params map[string]any) string { return f(key, params) }

type TemplateStyle string

const (
	Classic TemplateStyle = "classic"
	Modern  TemplateStyle = "modern"
	ATS     TemplateStyle = "ats"
)

var TemplateStyles = []TemplateStyle{Classic, Modern, ATS}

var ErrUnknownTemplate = errors.New("unknown template style")

// ParseTemplateStyle maps user input to a style; empty input means classic.
func ParseTemplateStyle(s string) (TemplateStyle, error) {
	switch TemplateStyle(strings.ToLower(strings.TrimSpace(s))) {
	case "", Classic:
		return Classic, nil
	case Modern:
		return Modern, nil
	case ATS:
		return ATS, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, s)
}

// RenderContext carries the presentation parameters that are not part of
// the document itself. Empty strings are rendered as empty.
type RenderContext struct {
	DisplayName string
	Title       string
	PhotoURL    string
	Style       TemplateStyle
	Lang        string
}

// CommitBlockedError is returned when a commit is attempted on a document
// that does not validate.
type CommitBlockedError struct {
	Errors model.ValidationErrors
}

func (e *CommitBlockedError) Error() string {
	return "commit blocked: " + e.Errors.Error()
}

var ErrNoSession = errors.New("no editing session")
