package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cv-studio/internal/domain"
	"cv-studio/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// rootField carries failures of the validator itself so they show up next to
// the form instead of breaking the editing session.
const rootField = "(root)"

// EditResult is returned after every change so the UI can refresh inline
// errors and the save indicator in one round trip.
type EditResult struct {
	Document *model.Document        `json:"document"`
	Errors   model.ValidationErrors `json:"errors"`
	Status   SaveStatus             `json:"status"`
}

// Editor owns the in-memory editing sessions, one per owner.
type Editor struct {
	store ProfileStore
	cache DraftCache
	log   *zap.Logger
	opts  []AutosaveOption

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

type session struct {
	owner    uuid.UUID
	mu       sync.Mutex
	doc      *model.Document
	autosave *Autosave
}

func NewEditor(store ProfileStore, cache DraftCache, log *zap.Logger, opts ...AutosaveOption) *Editor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Editor{
		store:    store,
		cache:    cache,
		log:      log,
		opts:     append([]AutosaveOption{WithLogger(log)}, opts...),
		sessions: map[uuid.UUID]*session{},
	}
}

func (e *Editor) newAutosave(owner uuid.UUID) *Autosave {
	var remote DraftSaver
	if e.store != nil {
		remote = e.store
	}
	return NewAutosave(owner, e.cache, remote, e.opts...)
}

// Open starts (or resumes) editing owner's CV and returns the current state.
func (e *Editor) Open(ctx context.Context, owner uuid.UUID) (*EditResult, error) {
	s, err := e.session(ctx, owner)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return e.result(s), nil
}

func (e *Editor) session(ctx context.Context, owner uuid.UUID) (*session, error) {
	e.mu.Lock()
	if s, ok := e.sessions[owner]; ok {
		e.mu.Unlock()
		return s, nil
	}
	e.mu.Unlock()

	doc, err := e.load(ctx, owner)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[owner]; ok {
		return s, nil
	}
	s := &session{owner: owner, doc: doc, autosave: e.newAutosave(owner)}
	e.sessions[owner] = s
	e.log.Info("editing session opened", zap.String("owner_id", owner.String()))
	return s, nil
}

// load picks the freshest copy: local cache, remote draft, committed CV,
// then an empty document.
func (e *Editor) load(ctx context.Context, owner uuid.UUID) (*model.Document, error) {
	if e.cache != nil {
		doc, err := e.cache.Get(ctx, owner)
		if err != nil {
			e.log.Warn("draft cache read failed", zap.String("owner_id", owner.String()), zap.Error(err))
		} else if doc != nil {
			return doc, nil
		}
	}
	if e.store == nil {
		return &model.Document{}, nil
	}
	doc, err := e.store.GetDraft(ctx, owner)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if doc != nil {
		return doc, nil
	}
	p, err := e.store.GetProfile(ctx, owner)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p != nil && p.CV != nil {
		return p.CV.Clone(), nil
	}
	return &model.Document{}, nil
}

// Apply runs typed edits against the session document. A rejected edit
// leaves the document untouched; validation problems are returned as data.
func (e *Editor) Apply(ctx context.Context, owner uuid.UUID, edits ...model.Edit) (*EditResult, error) {
	s, err := e.session(ctx, owner)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.doc.Apply(edits...); err != nil {
		return nil, err
	}
	s.autosave.Changed(s.doc)
	return e.result(s), nil
}

// Replace swaps the whole session document, e.g. when importing a CV.
func (e *Editor) Replace(ctx context.Context, owner uuid.UUID, doc *model.Document) (*EditResult, error) {
	s, err := e.session(ctx, owner)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = &model.Document{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	s.autosave.Changed(s.doc)
	return e.result(s), nil
}

// Validate returns the errors below path, or all errors for an empty path.
func (e *Editor) Validate(ctx context.Context, owner uuid.UUID, path string) (model.ValidationErrors, error) {
	s, err := e.session(ctx, owner)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return e.validate(s.doc).For(path), nil
}

// Document returns a copy of the session document.
func (e *Editor) Document(ctx context.Context, owner uuid.UUID) (*model.Document, error) {
	s, err := e.session(ctx, owner)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), nil
}

func (e *Editor) Status(owner uuid.UUID) (SaveStatus, error) {
	e.mu.Lock()
	s, ok := e.sessions[owner]
	e.mu.Unlock()
	if !ok {
		return SaveStatus{}, ErrNoSession
	}
	return s.autosave.Status(), nil
}

// Preview renders the session document. Presentation fields left empty in rc
// are taken from the owner's profile when there is one.
func (e *Editor) Preview(ctx context.Context, owner uuid.UUID, rc RenderContext, tr Translator) (string, error) {
	doc, err := e.Document(ctx, owner)
	if err != nil {
		return "", err
	}
	if e.store != nil && (rc.DisplayName == "" || rc.Title == "" || rc.PhotoURL == "") {
		p, err := e.store.GetProfile(ctx, owner)
		switch {
		case err == nil:
			if rc.DisplayName == "" {
				rc.DisplayName = p.DisplayName
			}
			if rc.Title == "" {
				rc.Title = p.Title
			}
			if rc.PhotoURL == "" {
				rc.PhotoURL = p.PhotoURL
			}
		case !errors.Is(err, domain.ErrNotFound):
			e.log.Warn("profile lookup for preview failed", zap.String("owner_id", owner.String()), zap.Error(err))
		}
	}
	return Render(doc, rc, tr)
}

// Commit embeds the session document in the owner's profile. It is refused
// with a *CommitBlockedError while the document does not validate. On
// success both draft copies are discarded and the session ends.
func (e *Editor) Commit(ctx context.Context, owner uuid.UUID) (*domain.Profile, error) {
	if e.store == nil {
		return nil, errors.New("no profile store configured")
	}
	s, err := e.session(ctx, owner)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	errs, err := model.Validate(s.doc)
	if err != nil {
		return nil, err
	}
	if !errs.Valid() {
		return nil, &CommitBlockedError{Errors: errs}
	}

	// a late autosave must not recreate the draft after it is discarded
	s.autosave.Close()
	p, err := e.store.Commit(ctx, owner, s.doc.Clone())
	if err != nil {
		s.autosave = e.newAutosave(owner)
		s.autosave.Changed(s.doc)
		return nil, fmt.Errorf("commit cv: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if e.cache != nil {
		g.Go(func() error { return e.cache.Delete(gctx, owner) })
	}
	g.Go(func() error { return e.store.DeleteDraft(gctx, owner) })
	if err := g.Wait(); err != nil {
		e.log.Warn("discarding drafts after commit failed", zap.String("owner_id", owner.String()), zap.Error(err))
	}

	e.mu.Lock()
	// Close and a new Open may have replaced the session meanwhile
	if e.sessions[owner] == s {
		delete(e.sessions, owner)
	}
	e.mu.Unlock()
	e.log.Info("cv committed", zap.String("owner_id", owner.String()))
	return p, nil
}

// Close ends owner's session. With flush the pending autosave is written
// first, otherwise it is discarded.
func (e *Editor) Close(ctx context.Context, owner uuid.UUID, flush bool) error {
	e.mu.Lock()
	s, ok := e.sessions[owner]
	delete(e.sessions, owner)
	e.mu.Unlock()
	if !ok {
		return ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if flush {
		err = s.autosave.Flush(ctx)
	}
	s.autosave.Close()
	return err
}

// Shutdown flushes and closes every session.
func (e *Editor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	owners := make([]uuid.UUID, 0, len(e.sessions))
	for id := range e.sessions {
		owners = append(owners, id)
	}
	e.mu.Unlock()

	var errs []error
	for _, id := range owners {
		if err := e.Close(ctx, id, true); err != nil && !errors.Is(err, ErrNoSession) {
			errs = append(errs, fmt.Errorf("flush %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (e *Editor) validate(doc *model.Document) model.ValidationErrors {
	errs, err := model.Validate(doc)
	if err != nil {
		e.log.Error("validator unavailable", zap.Error(err))
		return model.ValidationErrors{rootField: "validation is temporarily unavailable"}
	}
	return errs
}

func (e *Editor) result(s *session) *EditResult {
	return &EditResult{
		Document: s.doc.Clone(),
		Errors:   e.validate(s.doc),
		Status:   s.autosave.Status(),
	}
}
