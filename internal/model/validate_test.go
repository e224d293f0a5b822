package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDocument() *Document {
	return &Document{
		Summary: "Senior engineer",
		Experience: []Experience{{
			JobTitle:       "Engineer",
			Company:        "Acme",
			EmploymentType: FullTime,
			StartDate:      "2020-01",
			EndDate:        "2021-01",
			Achievements:   []string{"Shipped the billing rewrite"},
			TechStack:      []string{"Go", "PostgreSQL"},
			Links:          []Link{{Name: "Portfolio", URL: "https://example.com/work"}},
		}},
		Education: []Education{{Degree: "BSc Computer Science", Institution: "State University"}},
		Projects:  []Project{{Name: "cv-studio", Description: "CV builder"}},
		Skills:    []string{"Go", "Rust"},
		Languages: []Language{{Language: "English", Proficiency: Native}},
		Certifications: []Certification{
			{Name: "CKA", Issuer: "CNCF", Date: "2022-05"},
		},
	}
}

func mustValidate(t *testing.T, d *Document) ValidationErrors {
	t.Helper()
	errs, err := Validate(d)
	require.NoError(t, err)
	return errs
}

func TestValidateAcceptsCompleteDocument(t *testing.T) {
	errs := mustValidate(t, validDocument())
	assert.True(t, errs.Valid(), "unexpected errors: %v", errs)
}

func TestValidateEmptyDocumentIsValid(t *testing.T) {
	assert.True(t, mustValidate(t, &Document{}).Valid())
	assert.True(t, mustValidate(t, nil).Valid())
}

func TestValidateEndDateBeforeStartScenario(t *testing.T) {
	doc := &Document{
		Summary: "Senior engineer",
		Experience: []Experience{{
			JobTitle:       "Engineer",
			Company:        "Acme",
			EmploymentType: FullTime,
			StartDate:      "2020-01",
			EndDate:        "2019-01",
		}},
	}

	errs := mustValidate(t, doc)
	require.Len(t, errs, 1)
	assert.Contains(t, errs, "experience.0.end_date")

	doc.Experience[0].EndDate = "2021-01"
	assert.True(t, mustValidate(t, doc).Valid())
}

func TestValidateChronologySkippedWhenCurrentOrOpen(t *testing.T) {
	doc := validDocument()
	doc.Experience = []Experience{
		{JobTitle: "A", Company: "X", EmploymentType: Contract, StartDate: "2020-01", EndDate: "2019-01", IsCurrent: true},
		{JobTitle: "B", Company: "Y", EmploymentType: PartTime, StartDate: "2020-01", EndDate: ""},
		{JobTitle: "C", Company: "Z", EmploymentType: Internship, StartDate: "2020-01", EndDate: "  "},
	}
	errs := mustValidate(t, doc)
	for k := range errs {
		assert.False(t, strings.HasSuffix(k, ".end_date"), "unexpected chronology error on %s", k)
	}
}

func TestValidateChronologyMixedPrecision(t *testing.T) {
	doc := validDocument()
	doc.Experience[0].StartDate = "2020-01-15"
	doc.Experience[0].EndDate = "2020-01"
	assert.True(t, mustValidate(t, doc).Valid())

	doc.Experience[0].EndDate = "2020-01-10"
	assert.Contains(t, mustValidate(t, doc), "experience.0.end_date")
}

func TestValidateBadLinkURLIsolated(t *testing.T) {
	doc := validDocument()
	doc.Experience[0].Links = []Link{
		{Name: "Site", URL: ""},
		{Name: "Portfolio", URL: "not-a-url"},
	}
	errs := mustValidate(t, doc)
	require.Len(t, errs, 1)
	assert.Equal(t, "must be a valid absolute URL", errs["experience.0.links.1.url"])
}

func TestValidateRequiredFields(t *testing.T) {
	doc := &Document{
		Experience:     []Experience{{EmploymentType: FullTime}},
		Education:      []Education{{}},
		Projects:       []Project{{Description: "no name"}},
		Languages:      []Language{{Proficiency: Advanced}},
		Certifications: []Certification{{}},
	}
	errs := mustValidate(t, doc)
	for _, k := range []string{
		"experience.0.job_title",
		"experience.0.company",
		"experience.0.start_date",
		"education.0.degree",
		"education.0.institution",
		"projects.0.name",
		"languages.0.language",
		"certifications.0.name",
		"certifications.0.issuer",
	} {
		assert.Contains(t, errs, k)
	}
	assert.NotContains(t, errs, "education.0.start_date")
	assert.NotContains(t, errs, "certifications.0.date")
}

func TestValidateBlankCountsAsMissing(t *testing.T) {
	doc := validDocument()
	doc.Experience[0].Company = "   "
	assert.Equal(t, "is required", mustValidate(t, doc)["experience.0.company"])
}

func TestValidateLengthLimits(t *testing.T) {
	doc := validDocument()
	doc.Summary = strings.Repeat("é", MaxSummaryLength)
	doc.Experience[0].Description = strings.Repeat("x", MaxDescriptionLength)
	assert.True(t, mustValidate(t, doc).Valid())

	doc.Summary += "x"
	doc.Experience[0].Description += "x"
	errs := mustValidate(t, doc)
	assert.Contains(t, errs, "summary")
	assert.Contains(t, errs, "experience.0.description")
}

func TestValidateEnumerations(t *testing.T) {
	doc := validDocument()
	doc.Experience[0].EmploymentType = "freelance"
	doc.Languages[0].Proficiency = "Fluent"
	errs := mustValidate(t, doc)
	assert.Contains(t, errs, "experience.0.employment_type")
	assert.Contains(t, errs, "languages.0.proficiency")
}

func TestValidateDateFormat(t *testing.T) {
	doc := validDocument()
	doc.Experience[0].StartDate = "January 2020"
	doc.Education[0].EndDate = "2019/06"
	errs := mustValidate(t, doc)
	assert.Contains(t, errs, "experience.0.start_date")
	assert.Contains(t, errs, "education.0.end_date")
	assert.NotContains(t, errs, "experience.0.end_date")
}

func TestValidationErrorsFor(t *testing.T) {
	errs := ValidationErrors{
		"experience.0.end_date": "a",
		"experience.1.company":  "b",
		"experience.10.company": "c",
		"summary":               "d",
	}
	got := errs.For("experience.1")
	assert.Equal(t, ValidationErrors{"experience.1.company": "b"}, got)
	assert.Len(t, errs.For(""), 4)
	assert.Equal(t, []string{"experience.0.end_date", "experience.1.company", "experience.10.company", "summary"}, errs.Fields())
}
