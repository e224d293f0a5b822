package model

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrBadPath         = errors.New("unknown field path")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrWrongValue      = errors.New("value does not fit field")
	ErrUnsupportedOp   = errors.New("operation not supported on field")
)

// Field identifies one editable location kind in a Document.
type Field uint8

const (
	FieldInvalid Field = iota
	FieldSummary
	FieldSkills
	FieldInterests

	FieldExperience
	FieldJobTitle
	FieldCompany
	FieldLocation
	FieldEmploymentType
	FieldExperienceStart
	FieldExperienceEnd
	FieldIsCurrent
	FieldExperienceDescription
	FieldAchievements
	FieldTechStack
	FieldLinks
	FieldLinkName
	FieldLinkURL

	FieldEducation
	FieldDegree
	FieldInstitution
	FieldEducationStart
	FieldEducationEnd

	FieldProjects
	FieldProjectName
	FieldProjectDescription

	FieldLanguages
	FieldLanguage
	FieldProficiency

	FieldCertifications
	FieldCertificationName
	FieldCertificationIssuer
	FieldCertificationDate

	FieldAwards
	FieldAwardTitle
	FieldAwardIssuer
	FieldAwardDate
	FieldAwardDescription

	FieldVolunteering
	FieldVolunteerRole
	FieldVolunteerOrganization
	FieldVolunteerStart
	FieldVolunteerEnd
	FieldVolunteerDescription
)

type fieldKind uint8

const (
	kindText fieldKind = iota + 1
	kindBool
	kindList    // list of strings, items addressed by Item
	kindSection // list of entries, entries addressed by Entry
	kindLinks   // list of links inside an experience entry
)

type fieldSpec struct {
	section string
	name    string // "" for the section itself
	kind    fieldKind
	nested  bool // lives inside a section entry
	linkKey string
}

var fieldSpecs = map[Field]fieldSpec{
	FieldSummary:   {section: "summary", kind: kindText},
	FieldSkills:    {section: "skills", kind: kindList},
	FieldInterests: {section: "interests", kind: kindList},

	FieldExperience:            {section: "experience", kind: kindSection},
	FieldJobTitle:              {section: "experience", name: "job_title", kind: kindText, nested: true},
	FieldCompany:               {section: "experience", name: "company", kind: kindText, nested: true},
	FieldLocation:              {section: "experience", name: "location", kind: kindText, nested: true},
	FieldEmploymentType:        {section: "experience", name: "employment_type", kind: kindText, nested: true},
	FieldExperienceStart:       {section: "experience", name: "start_date", kind: kindText, nested: true},
	FieldExperienceEnd:         {section: "experience", name: "end_date", kind: kindText, nested: true},
	FieldIsCurrent:             {section: "experience", name: "is_current", kind: kindBool, nested: true},
	FieldExperienceDescription: {section: "experience", name: "description", kind: kindText, nested: true},
	FieldAchievements:          {section: "experience", name: "achievements", kind: kindList, nested: true},
	FieldTechStack:             {section: "experience", name: "tech_stack", kind: kindList, nested: true},
	FieldLinks:                 {section: "experience", name: "links", kind: kindLinks, nested: true},
	FieldLinkName:              {section: "experience", name: "links", kind: kindText, nested: true, linkKey: "name"},
	FieldLinkURL:               {section: "experience", name: "links", kind: kindText, nested: true, linkKey: "url"},

	FieldEducation:      {section: "education", kind: kindSection},
	FieldDegree:         {section: "education", name: "degree", kind: kindText, nested: true},
	FieldInstitution:    {section: "education", name: "institution", kind: kindText, nested: true},
	FieldEducationStart: {section: "education", name: "start_date", kind: kindText, nested: true},
	FieldEducationEnd:   {section: "education", name: "end_date", kind: kindText, nested: true},

	FieldProjects:           {section: "projects", kind: kindSection},
	FieldProjectName:        {section: "projects", name: "name", kind: kindText, nested: true},
	FieldProjectDescription: {section: "projects", name: "description", kind: kindText, nested: true},

	FieldLanguages:   {section: "languages", kind: kindSection},
	FieldLanguage:    {section: "languages", name: "language", kind: kindText, nested: true},
	FieldProficiency: {section: "languages", name: "proficiency", kind: kindText, nested: true},

	FieldCertifications:      {section: "certifications", kind: kindSection},
	FieldCertificationName:   {section: "certifications", name: "name", kind: kindText, nested: true},
	FieldCertificationIssuer: {section: "certifications", name: "issuer", kind: kindText, nested: true},
	FieldCertificationDate:   {section: "certifications", name: "date", kind: kindText, nested: true},

	FieldAwards:           {section: "awards", kind: kindSection},
	FieldAwardTitle:       {section: "awards", name: "title", kind: kindText, nested: true},
	FieldAwardIssuer:      {section: "awards", name: "issuer", kind: kindText, nested: true},
	FieldAwardDate:        {section: "awards", name: "date", kind: kindText, nested: true},
	FieldAwardDescription: {section: "awards", name: "description", kind: kindText, nested: true},

	FieldVolunteering:          {section: "volunteering", kind: kindSection},
	FieldVolunteerRole:         {section: "volunteering", name: "role", kind: kindText, nested: true},
	FieldVolunteerOrganization: {section: "volunteering", name: "organization", kind: kindText, nested: true},
	FieldVolunteerStart:        {section: "volunteering", name: "start_date", kind: kindText, nested: true},
	FieldVolunteerEnd:          {section: "volunteering", name: "end_date", kind: kindText, nested: true},
	FieldVolunteerDescription:  {section: "volunteering", name: "description", kind: kindText, nested: true},
}

// fieldIndex resolves "section" or "section/name[/linkKey]" to a Field.
var fieldIndex = func() map[string]Field {
	m := make(map[string]Field, len(fieldSpecs))
	for f, s := range fieldSpecs {
		key := s.section
		if s.name != "" {
			key += "/" + s.name
		}
		if s.linkKey != "" {
			key += "/" + s.linkKey
		}
		m[key] = f
	}
	return m
}()

// Path addresses a value inside a Document. Entry selects the section entry
// and Item the element of a nested list; -1 means "not addressed".
type Path struct {
	Field Field
	Entry int
	Item  int
}

// At builds a path for a field nested in entry.
func At(f Field, entry int) Path { return Path{Field: f, Entry: entry, Item: -1} }

// Top builds a path for a top-level field or a whole section.
func Top(f Field) Path { return Path{Field: f, Entry: -1, Item: -1} }

// Item builds a path addressing element item of a nested list.
func Item(f Field, entry, item int) Path { return Path{Field: f, Entry: entry, Item: item} }

// ParsePath parses the dotted form used in ValidationErrors keys, e.g.
// "summary", "skills.2", "experience.0", "experience.0.links.1.url".
func ParsePath(s string) (Path, error) {
	bad := fmt.Errorf("%w: %q", ErrBadPath, s)
	if strings.Contains(s, "/") {
		return Path{}, bad
	}
	segs := strings.Split(s, ".")
	p := Path{Entry: -1, Item: -1}

	f, ok := fieldIndex[segs[0]]
	if !ok || fieldSpecs[f].nested {
		return Path{}, bad
	}
	spec := fieldSpecs[f]
	rest := segs[1:]

	switch spec.kind {
	case kindText:
		if len(rest) != 0 {
			return Path{}, bad
		}
		p.Field = f
		return p, nil
	case kindList:
		p.Field = f
		if len(rest) == 0 {
			return p, nil
		}
		if len(rest) != 1 {
			return Path{}, bad
		}
		n, err := index(rest[0])
		if err != nil {
			return Path{}, bad
		}
		p.Item = n
		return p, nil
	}

	// entry sections
	p.Field = f
	if len(rest) == 0 {
		return p, nil
	}
	n, err := index(rest[0])
	if err != nil {
		return Path{}, bad
	}
	p.Entry = n
	rest = rest[1:]
	if len(rest) == 0 {
		return p, nil
	}

	f, ok = fieldIndex[spec.section+"/"+rest[0]]
	if !ok {
		return Path{}, bad
	}
	p.Field = f
	rest = rest[1:]
	switch fieldSpecs[f].kind {
	case kindText, kindBool:
		if len(rest) != 0 {
			return Path{}, bad
		}
	case kindList:
		if len(rest) > 1 {
			return Path{}, bad
		}
		if len(rest) == 1 {
			if p.Item, err = index(rest[0]); err != nil {
				return Path{}, bad
			}
		}
	case kindLinks:
		if len(rest) == 0 {
			return p, nil
		}
		if p.Item, err = index(rest[0]); err != nil {
			return Path{}, bad
		}
		rest = rest[1:]
		if len(rest) == 0 {
			return p, nil
		}
		if len(rest) != 1 {
			return Path{}, bad
		}
		if p.Field, ok = fieldIndex[spec.section+"/links/"+rest[0]]; !ok {
			return Path{}, bad
		}
	}
	return p, nil
}

func index(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, ErrBadPath
	}
	return n, nil
}

func (p Path) String() string {
	spec, ok := fieldSpecs[p.Field]
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(spec.section)
	if spec.nested || spec.kind == kindSection {
		if p.Entry < 0 {
			return b.String()
		}
		b.WriteString("." + strconv.Itoa(p.Entry))
	}
	if spec.name != "" {
		b.WriteString("." + spec.name)
	}
	// only lists and links address an item
	if p.Item >= 0 && (spec.kind == kindList || spec.kind == kindLinks || spec.linkKey != "") {
		b.WriteString("." + strconv.Itoa(p.Item))
	}
	if spec.linkKey != "" {
		b.WriteString("." + spec.linkKey)
	}
	return b.String()
}

func (p Path) MarshalText() ([]byte, error) {
	s := p.String()
	if s == "" {
		return nil, ErrBadPath
	}
	return []byte(s), nil
}

func (p *Path) UnmarshalText(b []byte) error {
	parsed, err := ParsePath(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

type Op string

const (
	OpSet    Op = "set"
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// Edit is one field-level change coming from the editing form. Text feeds
// text fields and list additions, Flag feeds is_current and Items replaces a
// whole string list.
type Edit struct {
	Op    Op       `json:"op"`
	Path  Path     `json:"path"`
	Text  string   `json:"text,omitempty"`
	Flag  *bool    `json:"flag,omitempty"`
	Items []string `json:"items,omitempty"`
}

// Apply runs edits in order. Either every edit applies or d is left as it
// was.
func (d *Document) Apply(edits ...Edit) error {
	work := d.Clone()
	for i, e := range edits {
		if err := work.apply(e); err != nil {
			return fmt.Errorf("edit %d (%s %s): %w", i, e.Op, e.Path, err)
		}
	}
	*d = *work
	return nil
}

func (d *Document) apply(e Edit) error {
	spec, ok := fieldSpecs[e.Path.Field]
	if !ok {
		return ErrBadPath
	}
	switch e.Op {
	case OpSet:
		switch spec.kind {
		case kindText:
			ref, err := d.textRef(e.Path)
			if err != nil {
				return err
			}
			*ref = e.Text
			return nil
		case kindBool:
			if e.Flag == nil {
				return ErrWrongValue
			}
			exp, err := d.experience(e.Path.Entry)
			if err != nil {
				return err
			}
			exp.IsCurrent = *e.Flag
			if exp.IsCurrent {
				exp.EndDate = ""
			}
			return nil
		case kindList:
			ref, err := d.listRef(e.Path)
			if err != nil {
				return err
			}
			if e.Path.Item >= 0 {
				if e.Path.Item >= len(*ref) {
					return ErrIndexOutOfRange
				}
				if e.Path.Field == FieldSkills {
					if e.Text == "" {
						return ErrWrongValue
					}
					if i := slices.Index(*ref, e.Text); i >= 0 && i != e.Path.Item {
						return ErrWrongValue
					}
				}
				(*ref)[e.Path.Item] = e.Text
				return nil
			}
			items := slices.Clone(e.Items)
			if e.Path.Field == FieldSkills {
				items = dedupe(items)
			}
			*ref = items
			return nil
		}
	case OpAdd:
		switch spec.kind {
		case kindSection:
			return d.addEntry(e.Path.Field)
		case kindList:
			ref, err := d.listRef(e.Path)
			if err != nil {
				return err
			}
			if e.Path.Field == FieldSkills {
				d.AddSkill(e.Text)
				return nil
			}
			*ref = append(*ref, e.Text)
			return nil
		case kindLinks:
			exp, err := d.experience(e.Path.Entry)
			if err != nil {
				return err
			}
			exp.Links = append(exp.Links, Link{})
			return nil
		}
	case OpRemove:
		switch spec.kind {
		case kindSection:
			return d.removeEntry(e.Path.Field, e.Path.Entry)
		case kindList:
			ref, err := d.listRef(e.Path)
			if err != nil {
				return err
			}
			if e.Path.Item < 0 || e.Path.Item >= len(*ref) {
				return ErrIndexOutOfRange
			}
			*ref = slices.Delete(*ref, e.Path.Item, e.Path.Item+1)
			return nil
		case kindLinks:
			exp, err := d.experience(e.Path.Entry)
			if err != nil {
				return err
			}
			if e.Path.Item < 0 || e.Path.Item >= len(exp.Links) {
				return ErrIndexOutOfRange
			}
			exp.Links = slices.Delete(exp.Links, e.Path.Item, e.Path.Item+1)
			return nil
		}
	}
	return ErrUnsupportedOp
}

func dedupe(items []string) []string {
	out := items[:0]
	for _, s := range items {
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func entry[T any](s []T, i int) (*T, error) {
	if i < 0 || i >= len(s) {
		return nil, ErrIndexOutOfRange
	}
	return &s[i], nil
}

func (d *Document) experience(i int) (*Experience, error) { return entry(d.Experience, i) }

func (d *Document) textRef(p Path) (*string, error) {
	if p.Field == FieldSummary {
		return &d.Summary, nil
	}
	switch fieldSpecs[p.Field].section {
	case "experience":
		e, err := d.experience(p.Entry)
		if err != nil {
			return nil, err
		}
		switch p.Field {
		case FieldJobTitle:
			return &e.JobTitle, nil
		case FieldCompany:
			return &e.Company, nil
		case FieldLocation:
			return &e.Location, nil
		case FieldEmploymentType:
			return (*string)(&e.EmploymentType), nil
		case FieldExperienceStart:
			return &e.StartDate, nil
		case FieldExperienceEnd:
			return &e.EndDate, nil
		case FieldExperienceDescription:
			return &e.Description, nil
		case FieldLinkName, FieldLinkURL:
			l, err := entry(e.Links, p.Item)
			if err != nil {
				return nil, err
			}
			if p.Field == FieldLinkName {
				return &l.Name, nil
			}
			return &l.URL, nil
		}
	case "education":
		e, err := entry(d.Education, p.Entry)
		if err != nil {
			return nil, err
		}
		switch p.Field {
		case FieldDegree:
			return &e.Degree, nil
		case FieldInstitution:
			return &e.Institution, nil
		case FieldEducationStart:
			return &e.StartDate, nil
		case FieldEducationEnd:
			return &e.EndDate, nil
		}
	case "projects":
		e, err := entry(d.Projects, p.Entry)
		if err != nil {
			return nil, err
		}
		if p.Field == FieldProjectName {
			return &e.Name, nil
		}
		return &e.Description, nil
	case "languages":
		e, err := entry(d.Languages, p.Entry)
		if err != nil {
			return nil, err
		}
		if p.Field == FieldLanguage {
			return &e.Language, nil
		}
		return (*string)(&e.Proficiency), nil
	case "certifications":
		e, err := entry(d.Certifications, p.Entry)
		if err != nil {
			return nil, err
		}
		switch p.Field {
		case FieldCertificationName:
			return &e.Name, nil
		case FieldCertificationIssuer:
			return &e.Issuer, nil
		case FieldCertificationDate:
			return &e.Date, nil
		}
	case "awards":
		e, err := entry(d.Awards, p.Entry)
		if err != nil {
			return nil, err
		}
		switch p.Field {
		case FieldAwardTitle:
			return &e.Title, nil
		case FieldAwardIssuer:
			return &e.Issuer, nil
		case FieldAwardDate:
			return &e.Date, nil
		case FieldAwardDescription:
			return &e.Description, nil
		}
	case "volunteering":
		e, err := entry(d.Volunteering, p.Entry)
		if err != nil {
			return nil, err
		}
		switch p.Field {
		case FieldVolunteerRole:
			return &e.Role, nil
		case FieldVolunteerOrganization:
			return &e.Organization, nil
		case FieldVolunteerStart:
			return &e.StartDate, nil
		case FieldVolunteerEnd:
			return &e.EndDate, nil
		case FieldVolunteerDescription:
			return &e.Description, nil
		}
	}
	return nil, ErrBadPath
}

func (d *Document) listRef(p Path) (*[]string, error) {
	switch p.Field {
	case FieldSkills:
		return &d.Skills, nil
	case FieldInterests:
		return &d.Interests, nil
	case FieldAchievements, FieldTechStack:
		e, err := d.experience(p.Entry)
		if err != nil {
			return nil, err
		}
		if p.Field == FieldAchievements {
			return &e.Achievements, nil
		}
		return &e.TechStack, nil
	}
	return nil, ErrBadPath
}

func (d *Document) addEntry(f Field) error {
	switch f {
	case FieldExperience:
		d.Experience = append(d.Experience, Experience{EmploymentType: FullTime})
	case FieldEducation:
		d.Education = append(d.Education, Education{})
	case FieldProjects:
		d.Projects = append(d.Projects, Project{})
	case FieldLanguages:
		d.Languages = append(d.Languages, Language{Proficiency: Intermediate})
	case FieldCertifications:
		d.Certifications = append(d.Certifications, Certification{})
	case FieldAwards:
		d.Awards = append(d.Awards, Award{})
	case FieldVolunteering:
		d.Volunteering = append(d.Volunteering, Volunteering{})
	default:
		return ErrUnsupportedOp
	}
	return nil
}

func removeAt[T any](s *[]T, i int) error {
	if i < 0 || i >= len(*s) {
		return ErrIndexOutOfRange
	}
	*s = slices.Delete(*s, i, i+1)
	return nil
}

func (d *Document) removeEntry(f Field, i int) error {
	switch f {
	case FieldExperience:
		return removeAt(&d.Experience, i)
	case FieldEducation:
		return removeAt(&d.Education, i)
	case FieldProjects:
		return removeAt(&d.Projects, i)
	case FieldLanguages:
		return removeAt(&d.Languages, i)
	case FieldCertifications:
		return removeAt(&d.Certifications, i)
	case FieldAwards:
		return removeAt(&d.Awards, i)
	case FieldVolunteering:
		return removeAt(&d.Volunteering, i)
	}
	return ErrUnsupportedOp
}
