package usecase

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"cv-studio/internal/model"
	"cv-studio/pkg/i18n"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var loadTemplates = sync.OnceValues(func() (*template.Template, error) {
	return template.New("cv").
		Funcs(template.FuncMap{"join": strings.Join, "text": textNode}).
		ParseFS(templateFS, "templates/*.html.tmpl")
})

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

// textNode escapes user text placed between tags. Only markup-significant
// characters are replaced so "C++" and "I'm" reach the output verbatim.
// Attribute values keep html/template's contextual escaping.
func textNode(s string) template.HTML {
	return template.HTML(textEscaper.Replace(s))
}

// section headings and inline labels, resolved once per render
var labelKeys = []string{
	"summary", "experience", "education", "skills", "languages",
	"projects", "certifications", "awards", "volunteering", "interests",
	"achievements", "tech_stack", "links", "present",
}

type view struct {
	Lang      string
	Name      string
	Title     string
	PhotoURL  string
	ShowPhoto bool
	Doc       *model.Document
	L         map[string]string

	tr       Translator
	fallback i18n.Localizer
}

// Render turns doc into a standalone HTML document in the requested style.
// It performs no I/O and its output depends only on its inputs. User text
// between tags goes through textNode; attributes are escaped by html/template.
func Render(doc *model.Document, rc RenderContext, tr Translator) (string, error) {
	style, err := ParseTemplateStyle(string(rc.Style))
	if err != nil {
		return "", err
	}
	tpl, err := loadTemplates()
	if err != nil {
		return "", fmt.Errorf("load templates: %w", err)
	}
	if doc == nil {
		doc = &model.Document{}
	}
	lang := rc.Lang
	if lang == "" {
		lang = i18n.DefaultLanguage
	}
	v := &view{
		Lang:      lang,
		Name:      rc.DisplayName,
		Title:     rc.Title,
		PhotoURL:  rc.PhotoURL,
		ShowPhoto: style != ATS,
		Doc:       doc,
		tr:        tr,
		fallback:  i18n.Default().Localizer(i18n.DefaultLanguage),
	}
	v.L = make(map[string]string, len(labelKeys))
	for _, k := range labelKeys {
		v.L[k] = v.t("cv."+k, nil)
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, string(style), v); err != nil {
		return "", fmt.Errorf("render %s: %w", style, err)
	}
	return buf.String(), nil
}

// t asks the caller's translator first and falls back to English when it has
// nothing for key.
func (v *view) t(key string, params map[string]any) string {
	if v.tr != nil {
		if s := v.tr.T(key, params); s != "" && s != key {
			return s
		}
	}
	return v.fallback.T(key, params)
}

func (v *view) DocumentTitle() string {
	if v.Name == "" {
		return v.Title
	}
	return v.t("cv.document_title", map[string]any{"name": v.Name})
}

func (v *view) Employment(t model.EmploymentType) string {
	if t == "" {
		return ""
	}
	return v.t("cv.employment_type."+string(t), nil)
}

func (v *view) Proficiency(p model.Proficiency) string {
	if p == "" {
		return ""
	}
	return v.t("cv.proficiency."+string(p), nil)
}

func (v *view) IssuedBy(issuer string) string {
	if issuer == "" {
		return ""
	}
	return v.t("cv.issued_by", map[string]any{"issuer": issuer})
}

// Period formats a date range; a current role ends with the "present" label.
func (v *view) Period(start, end string, current bool) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if current {
		end = v.L["present"]
	}
	switch {
	case start != "" && end != "":
		return start + " – " + end
	case start != "":
		return start
	default:
		return end
	}
}

// Links drops entries that carry neither a name nor a URL.
func (v *view) Links(links []model.Link) []model.Link {
	out := make([]model.Link, 0, len(links))
	for _, l := range links {
		if strings.TrimSpace(l.Name) != "" || strings.TrimSpace(l.URL) != "" {
			out = append(out, l)
		}
	}
	return out
}
