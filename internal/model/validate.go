package model

import (
	_ "embed"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed cv.schema.json
var schemaJSON []byte

// ValidationErrors maps a dotted field path (experience.0.end_date) to a
// human readable reason. An empty map means the document is valid.
type ValidationErrors map[string]string

func (v ValidationErrors) Valid() bool { return len(v) == 0 }

// Fields returns the failing paths in a stable order.
func (v ValidationErrors) Fields() []string {
	out := make([]string, 0, len(v))
	for k := range v {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// For narrows the errors to path and everything nested below it. It backs
// per-field validation while a form is being edited.
func (v ValidationErrors) For(path string) ValidationErrors {
	out := ValidationErrors{}
	for k, msg := range v {
		if path == "" || k == path || strings.HasPrefix(k, path+".") {
			out[k] = msg
		}
	}
	return out
}

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, k := range v.Fields() {
		parts = append(parts, k+": "+v[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type formatFunc func(s string) bool

func (f formatFunc) IsFormat(input interface{}) bool {
	s, ok := input.(string)
	if !ok {
		return true
	}
	return f(s)
}

func nonBlank(s string) bool { return strings.TrimSpace(s) != "" }

func partialDate(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	_, ok := ParseDate(s)
	return ok
}

func requiredDate(s string) bool {
	_, ok := ParseDate(s)
	return ok
}

// urlOrEmpty accepts "" or an absolute URL with scheme and host.
func urlOrEmpty(s string) bool {
	if s == "" {
		return true
	}
	u, err := url.ParseRequestURI(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

var formatMessages = map[string]string{
	"non-blank":     "is required",
	"partial-date":  "must be a date in YYYY-MM or YYYY-MM-DD form",
	"required-date": "is required and must be a date in YYYY-MM or YYYY-MM-DD form",
	"url-or-empty":  "must be a valid absolute URL",
}

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	gojsonschema.FormatCheckers.
		Add("non-blank", formatFunc(nonBlank)).
		Add("partial-date", formatFunc(partialDate)).
		Add("required-date", formatFunc(requiredDate)).
		Add("url-or-empty", formatFunc(urlOrEmpty))
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// Validate checks doc against cv.schema.json and the chronology rule for
// experience entries. Rule violations are returned as data; the error is
// reserved for a schema that cannot be loaded or evaluated.
func Validate(doc *Document) (ValidationErrors, error) {
	if doc == nil {
		doc = &Document{}
	}
	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load cv schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("evaluate cv schema: %w", err)
	}

	errs := ValidationErrors{}
	for _, e := range res.Errors() {
		field := e.Field()
		if _, seen := errs[field]; seen {
			continue
		}
		errs[field] = describe(e)
	}

	for i, e := range doc.Experience {
		if e.IsCurrent || strings.TrimSpace(e.EndDate) == "" {
			continue
		}
		start, okStart := ParseDate(e.StartDate)
		end, okEnd := ParseDate(e.EndDate)
		if !okStart || !okEnd {
			continue
		}
		if end.Before(start) {
			errs[fmt.Sprintf("experience.%d.end_date", i)] = "must not be before the start date"
		}
	}
	return errs, nil
}

func describe(e gojsonschema.ResultError) string {
	d := e.Details()
	switch e.Type() {
	case "format":
		if name, ok := d["format"].(string); ok {
			if msg, ok := formatMessages[name]; ok {
				return msg
			}
		}
	case "string_lte":
		return fmt.Sprintf("must be at most %v characters", d["max"])
	case "enum":
		return fmt.Sprintf("must be one of %v", d["allowed"])
	}
	return e.Description()
}
