package http

import (
	"errors"

	"cv-studio/internal/domain"
	"cv-studio/internal/model"
	"cv-studio/internal/usecase"
	"cv-studio/pkg/i18n"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	editor      *usecase.Editor
	profiles    usecase.ProfileStore
	pdf         usecase.PDFRenderer
	catalog     *i18n.Catalog
	defaultLang string
	log         *zap.Logger
}

// NewHandler wires the HTTP surface. pdf may be nil, in which case PDF
// downloads answer 501.
func NewHandler(editor *usecase.Editor, profiles usecase.ProfileStore, pdf usecase.PDFRenderer, catalog *i18n.Catalog, defaultLang string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if catalog == nil {
		catalog = i18n.Default()
	}
	if defaultLang == "" {
		defaultLang = i18n.DefaultLanguage
	}
	return &Handler{editor: editor, profiles: profiles, pdf: pdf, catalog: catalog, defaultLang: defaultLang, log: log}
}

// RegisterRoutes mounts all routes on r, usually the /api/v1 group.
func (h *Handler) RegisterRoutes(r fiber.Router) {
	r.Get("/health", h.Health)

	r.Get("/profiles/:ownerId", h.GetProfile)
	r.Put("/profiles/:ownerId", h.PutProfile)

	cv := r.Group("/cv/:ownerId")
	cv.Get("/draft", h.OpenDraft)
	cv.Patch("/draft", h.EditDraft)
	cv.Put("/draft", h.ReplaceDraft)
	cv.Delete("/session", h.CloseSession)
	cv.Post("/validate", h.Validate)
	cv.Get("/status", h.Status)
	cv.Get("/preview", h.Preview)
	cv.Get("/download", h.Download)
	cv.Post("/commit", h.Commit)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "service": "cv-studio"})
}

type profileReq struct {
	Kind        domain.OwnerKind `json:"kind"`
	DisplayName string           `json:"display_name"`
	Title       string           `json:"title"`
	PhotoURL    string           `json:"photo_url"`
}

func (h *Handler) GetProfile(c *fiber.Ctx) error {
	owner, err := ownerParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	p, err := h.profiles.GetProfile(c.UserContext(), owner)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) PutProfile(c *fiber.Ctx) error {
	owner, err := ownerParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req profileReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if req.Kind == "" {
		req.Kind = domain.Freelancer
	}
	if !req.Kind.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid kind"})
	}
	p := &domain.Profile{OwnerID: owner, Kind: req.Kind, DisplayName: req.DisplayName, Title: req.Title, PhotoURL: req.PhotoURL}
	if err := h.profiles.UpsertProfile(c.UserContext(), p); err != nil {
		return h.fail(c, err)
	}
	saved, err := h.profiles.GetProfile(c.UserContext(), owner)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(saved)
}

func (h *Handler) OpenDraft(c *fiber.Ctx) error {
	owner, err := ownerParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	res, err := h.editor.Open(c.UserContext(), owner)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

type editReq struct {
	Edits []model.Edit `json:"edits"`
}

func (h *Handler) EditDraft(c *fiber.Ctx) error {
	owner, err := ownerParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req editReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	res, err := h.editor.Apply(c.UserContext(), owner, req.Edits...)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) ReplaceDraft(c *fiber.Ctx) error {
	owner, err := ownerParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	var doc model.Document
	if err := c.BodyParser(&doc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	res, err := h.editor.Replace(c.UserContext(), owner, &doc)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// CloseSession ends the editing session; ?flush=false discards the pending
// autosave instead of writing it.
func (h *Handler) CloseSession(c *fiber.Ctx) error {
	owner, err := ownerParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.editor.Close(c.UserContext(), owner, c.QueryBool("flush", true)); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type validateReq struct {
	Path string `json:"path"`
}

func (h *Handler) Validate(c *fiber.Ctx) error {
	owner, err := ownerParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req validateReq
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
		}
	}
	errs, err := h.editor.Validate(c.UserContext(), owner, req.Path)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"valid": errs.Valid(), "errors": errs})
}

func (h *Handler) Status(c *fiber.Ctx) error {
	owner, err := ownerParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	st, err := h.editor.Status(owner)
	if errors.Is(err, usecase.ErrNoSession) {
		st = usecase.SaveStatus{State: usecase.StateIdle}
	} else if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(st)
}

func (h *Handler) Preview(c *fiber.Ctx) error {
	out, err := h.render(c)
	if err != nil {
		return h.fail(c, err)
	}
	c.Set(fiber.HeaderContentSecurityPolicy, "sandbox")
	c.Type("html", "utf-8")
	return c.SendString(out)
}

// Download serves the rendered CV as an attachment, ?format=html (default)
// or ?format=pdf.
func (h *Handler) Download(c *fiber.Ctx) error {
	format := c.Query("format", "html")
	if format != "html" && format != "pdf" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "format must be html or pdf"})
	}
	out, err := h.render(c)
	if err != nil {
		return h.fail(c, err)
	}
	if format == "html" {
		c.Attachment("cv.html")
		c.Type("html", "utf-8")
		return c.SendString(out)
	}
	if h.pdf == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "pdf rendering is not configured"})
	}
	pdf, err := h.pdf.RenderHTMLToPDF(c.UserContext(), out)
	if err != nil {
		h.log.Error("pdf rendering failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "pdf rendering failed"})
	}
	c.Attachment("cv.pdf")
	c.Type("pdf")
	return c.Send(pdf)
}

func (h *Handler) render(c *fiber.Ctx) (string, error) {
	owner, err := ownerParam(c)
	if err != nil {
		return "", err
	}
	style, err := usecase.ParseTemplateStyle(c.Query("template"))
	if err != nil {
		return "", err
	}
	lang := c.Query("lang", h.defaultLang)
	rc := usecase.RenderContext{Style: style, Lang: lang}
	return h.editor.Preview(c.UserContext(), owner, rc, h.catalog.Localizer(lang))
}

func (h *Handler) Commit(c *fiber.Ctx) error {
	owner, err := ownerParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	p, err := h.editor.Commit(c.UserContext(), owner)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(p)
}

func ownerParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("ownerId"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid ownerId")
	}
	return id, nil
}

// fail maps domain errors to status codes; anything unexpected is logged and
// reported as 500.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var blocked *usecase.CommitBlockedError
	var fe *fiber.Error
	switch {
	case errors.As(err, &blocked):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "cv has validation errors", "errors": blocked.Errors})
	case errors.As(err, &fe):
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, usecase.ErrNoSession):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, model.ErrBadPath), errors.Is(err, model.ErrIndexOutOfRange),
		errors.Is(err, model.ErrWrongValue), errors.Is(err, model.ErrUnsupportedOp),
		errors.Is(err, usecase.ErrUnknownTemplate):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	h.log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
