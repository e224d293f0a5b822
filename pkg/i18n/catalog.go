// Package i18n resolves the user-facing labels used by the CV renderer.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const DefaultLanguage = "en"

//go:embed labels/*.yaml
var labelFiles embed.FS

// Catalog holds label tables per language. Tables loaded from the embedded
// YAML files can be overlaid at runtime with Merge.
type Catalog struct {
	mu       sync.RWMutex
	tables   map[string]map[string]string
	fallback string
}

// Load reads every embedded labels/<lang>.yaml file.
func Load() (*Catalog, error) {
	entries, err := labelFiles.ReadDir("labels")
	if err != nil {
		return nil, err
	}
	c := &Catalog{tables: map[string]map[string]string{}, fallback: DefaultLanguage}
	for _, e := range entries {
		b, err := labelFiles.ReadFile(path.Join("labels", e.Name()))
		if err != nil {
			return nil, err
		}
		table := map[string]string{}
		if err := yaml.Unmarshal(b, &table); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		c.tables[strings.TrimSuffix(e.Name(), path.Ext(e.Name()))] = table
	}
	if _, ok := c.tables[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("missing %s labels", DefaultLanguage)
	}
	return c, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Load()
	if err != nil {
		panic(fmt.Sprintf("i18n: embedded labels are broken: %v", err))
	}
	return c
})

// Default returns the catalog built from the embedded label files.
func Default() *Catalog { return defaultCatalog() }

// Merge overlays labels onto lang, creating the table when needed.
func (c *Catalog) Merge(lang string, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	table, ok := c.tables[lang]
	if !ok {
		table = map[string]string{}
		c.tables[lang] = table
	}
	for k, v := range labels {
		if v != "" {
			table[k] = v
		}
	}
}

func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.tables))
	for l := range c.tables {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Keys returns the label keys of the fallback language.
func (c *Catalog) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.tables[c.fallback]))
	for k := range c.tables[c.fallback] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) lookup(lang, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.tables[lang][key]; ok {
		return v, true
	}
	// "pt-BR" falls back to "pt" before the default language.
	if base, _, found := strings.Cut(lang, "-"); found {
		if v, ok := c.tables[base][key]; ok {
			return v, true
		}
	}
	v, ok := c.tables[c.fallback][key]
	return v, ok
}

// Localizer translates keys for a single language.
type Localizer struct {
	catalog *Catalog
	lang    string
}

func (c *Catalog) Localizer(lang string) Localizer {
	if lang == "" {
		lang = c.fallback
	}
	return Localizer{catalog: c, lang: lang}
}

func (l Localizer) Lang() string { return l.lang }

// T returns the label for key with {param} placeholders substituted. Unknown
// keys come back unchanged so a missing label is visible but harmless.
func (l Localizer) T(key string, params map[string]any) string {
	s, ok := l.catalog.lookup(l.lang, key)
	if !ok {
		return key
	}
	if len(params) == 0 {
		return s
	}
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	pairs := make([]string, 0, 2*len(names))
	for _, k := range names {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(params[k]))
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
