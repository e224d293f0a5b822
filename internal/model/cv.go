package model

import "slices"

// Go models that match cv.schema.json used for validation and rendering.

type EmploymentType string

const (
	FullTime   EmploymentType = "full-time"
	PartTime   EmploymentType = "part-time"
	Contract   EmploymentType = "contract"
	Internship EmploymentType = "internship"
)

// EmploymentTypes lists the accepted employment types in display order.
var EmploymentTypes = []EmploymentType{FullTime, PartTime, Contract, Internship}

type Proficiency string

const (
	Beginner     Proficiency = "Beginner"
	Intermediate Proficiency = "Intermediate"
	Advanced     Proficiency = "Advanced"
	Native       Proficiency = "Native"
)

var Proficiencies = []Proficiency{Beginner, Intermediate, Advanced, Native}

const (
	MaxSummaryLength     = 2000
	MaxDescriptionLength = 1000
)

type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Experience struct {
	JobTitle       string         `json:"job_title"`
	Company        string         `json:"company"`
	Location       string         `json:"location"`
	EmploymentType EmploymentType `json:"employment_type"`
	StartDate      string         `json:"start_date"`
	EndDate        string         `json:"end_date"`
	IsCurrent      bool           `json:"is_current"`
	Description    string         `json:"description"`
	Achievements   []string       `json:"achievements"`
	TechStack      []string       `json:"tech_stack"`
	Links          []Link         `json:"links"`
}

type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type Project struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Language struct {
	Language    string      `json:"language"`
	Proficiency Proficiency `json:"proficiency"`
}

type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
}

type Award struct {
	Title       string `json:"title"`
	Issuer      string `json:"issuer"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type Volunteering struct {
	Role         string `json:"role"`
	Organization string `json:"organization"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Description  string `json:"description"`
}

// Document is the CV embedded in a freelancer or business profile. It has
// no identity of its own; drafts and commits are keyed by the owner id.
type Document struct {
	Summary        string          `json:"summary"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Projects       []Project       `json:"projects"`
	Skills         []string        `json:"skills"`
	Languages      []Language      `json:"languages"`
	Certifications []Certification `json:"certifications"`
	Awards         []Award         `json:"awards,omitempty"`
	Volunteering   []Volunteering  `json:"volunteering,omitempty"`
	Interests      []string        `json:"interests,omitempty"`
}

// AddSkill appends s unless an equal skill is already present. Skills behave
// as a set but keep insertion order for display.
func (d *Document) AddSkill(s string) bool {
	if s == "" || slices.Contains(d.Skills, s) {
		return false
	}
	d.Skills = append(d.Skills, s)
	return true
}

// Clone returns a deep copy that shares no slices with d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Experience = make([]Experience, len(d.Experience))
	for i, e := range d.Experience {
		e.Achievements = slices.Clone(e.Achievements)
		e.TechStack = slices.Clone(e.TechStack)
		e.Links = slices.Clone(e.Links)
		out.Experience[i] = e
	}
	if d.Experience == nil {
		out.Experience = nil
	}
	out.Education = slices.Clone(d.Education)
	out.Projects = slices.Clone(d.Projects)
	out.Skills = slices.Clone(d.Skills)
	out.Languages = slices.Clone(d.Languages)
	out.Certifications = slices.Clone(d.Certifications)
	out.Awards = slices.Clone(d.Awards)
	out.Volunteering = slices.Clone(d.Volunteering)
	out.Interests = slices.Clone(d.Interests)
	return &out
}

// HasOptional reports whether any of the optional sections carry entries.
func (d *Document) HasOptional() bool {
	return len(d.Projects) > 0 || len(d.Certifications) > 0 || len(d.Awards) > 0 ||
		len(d.Volunteering) > 0 || len(d.Interests) > 0
}
