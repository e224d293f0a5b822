package model

import (
	"strings"
	"time"
)

// DatePrecision tells how much of a partial date was supplied.
type DatePrecision int

const (
	PrecisionMonth DatePrecision = iota + 1
	PrecisionDay
)

// PartialDate is a calendar date entered as YYYY-MM or YYYY-MM-DD.
type PartialDate struct {
	Time      time.Time
	Precision DatePrecision
}

// ParseDate parses a partial date. Surrounding whitespace is ignored.
func ParseDate(s string) (PartialDate, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return PartialDate{Time: t, Precision: PrecisionDay}, true
	}
	if t, err := time.Parse("2006-01", s); err == nil {
		return PartialDate{Time: t, Precision: PrecisionMonth}, true
	}
	return PartialDate{}, false
}

// Before reports whether d falls strictly before other. When the operands
// were entered with different precision they are compared by month only, so
// "2020-01" is not before "2020-01-15".
func (d PartialDate) Before(other PartialDate) bool {
	if d.Precision == PrecisionDay && other.Precision == PrecisionDay {
		return d.Time.Before(other.Time)
	}
	dy, dm, _ := d.Time.Date()
	oy, om, _ := other.Time.Date()
	if dy != oy {
		return dy < oy
	}
	return dm < om
}
