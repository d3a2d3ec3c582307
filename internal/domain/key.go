package domain

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date key format used by every store.
const DateLayout = "2006-01-02"

// PlanKey identifies a plan for a user: its calendar date and optional
// section. An empty section is the legacy unscoped key.
type PlanKey struct {
	Date    string
	Section string
}

// DocID is the remote document id: {date} or {date}_{section}.
func (k PlanKey) DocID() string {
	if k.Section == "" {
		return k.Date
	}
	return k.Date + "_" + k.Section
}

// DateKey formats t as a calendar date in loc (UTC when loc is nil).
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// ShiftDate moves a YYYY-MM-DD key by days. Invalid keys are returned as-is.
func ShiftDate(date string, days int) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, days).Format(DateLayout)
}

// DateScore turns a date key into a sortable YYYYMMDD integer.
func DateScore(date string) int64 {
	n, err := strconv.ParseInt(strings.ReplaceAll(date, "-", ""), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

type CourseID string

const (
	CourseCPA  CourseID = "cpa"
	CourseCMA  CourseID = "cma"
	CourseCIA  CourseID = "cia"
	CourseCISA CourseID = "cisa"
	CourseCFP  CourseID = "cfp"
	CourseEA   CourseID = "ea"
)

// DefaultCourse is used when a caller does not name one.
const DefaultCourse = CourseCPA

// singleExamCourses share one plan across all of their domains, so
// navigating between domains never resets the day's plan.
var singleExamCourses = []CourseID{CourseCISA, CourseCFP}

const (
	// SectionAll is the unified section of single-exam courses.
	SectionAll = "ALL"
	// SectionDefault stands in for an unspecified section.
	SectionDefault = "default"
)

// NormalizeSection maps a requested section onto the section used for
// storage keys.
func NormalizeSection(section string, course CourseID) string {
	if slices.Contains(singleExamCourses, course) {
		return SectionAll
	}
	if section == "" {
		return SectionDefault
	}
	return section
}

// LookupSection is the section to read under for a caller-supplied section and
// course. It is empty, meaning any section, when neither narrows the lookup.
func LookupSection(section string, course CourseID) string {
	if section == "" && !slices.Contains(singleExamCourses, course) {
		return ""
	}
	return NormalizeSection(section, course)
}
