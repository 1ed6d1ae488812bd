// Package plan turns crawled programs into degree-plan course lists.
package plan

import (
	"strings"

	"github.com/IshaanNene/catalogcrawl/internal/types"
)

// Course is one entry of a degree plan.
type Course struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Hours float64 `json:"hours"`
}

// Plan is the resolved course list of one program.
type Plan struct {
	Program string   `json:"program"`
	Courses []Course `json:"courses"`
	Hours   float64  `json:"hours"`
}

// Index looks up courses by code.
type Index map[string]types.CourseRecord

// NewIndex indexes courses by code. When a code repeats, the first record
// is kept.
func NewIndex(courses []types.CourseRecord) Index {
	idx := make(Index, len(courses))
	for _, c := range courses {
		if _, ok := idx[c.Code]; !ok {
			idx[c.Code] = c
		}
	}
	return idx
}

// Resolve maps the program's required course codes to plan entries, in
// order. Codes missing from the index keep the code as their name and count
// zero hours, as do courses whose credit hours are unknown.
func Resolve(program types.ProgramRecord, idx Index) Plan {
	p := Plan{Program: program.Name, Courses: make([]Course, 0, len(program.RequiredCourses))}
	for _, code := range program.RequiredCourses {
		c := Course{ID: code, Name: code}
		if rec, ok := idx[code]; ok {
			if rec.Title != "" {
				c.Name = rec.Title
			}
			if rec.CreditHours != nil {
				c.Hours = *rec.CreditHours
			}
		}
		p.Courses = append(p.Courses, c)
		p.Hours += c.Hours
	}
	return p
}

// MinimalHours returns the union of both plans' courses, keyed by id with
// the first occurrence winning, and the total hours of that union.
func MinimalHours(a, b Plan) ([]Course, float64) {
	seen := make(map[string]bool, len(a.Courses)+len(b.Courses))
	union := make([]Course, 0, len(a.Courses)+len(b.Courses))
	var total float64

	for _, c := range append(append([]Course{}, a.Courses...), b.Courses...) {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		union = append(union, c)
		total += c.Hours
	}
	return union, total
}

// FindProgram returns the program whose name matches name, ignoring case
// and surrounding space.
func FindProgram(programs []types.ProgramRecord, name string) (types.ProgramRecord, bool) {
	name = strings.TrimSpace(name)
	for _, p := range programs {
		if strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return p, true
		}
	}
	return types.ProgramRecord{}, false
}
