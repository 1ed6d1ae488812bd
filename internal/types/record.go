package types

import "strings"

// CourseRecord is one catalog course. It is built once per listing link and
// not modified after it is emitted.
type CourseRecord struct {
	Code        string   `json:"code"                  bson:"code"`
	Title       string   `json:"title"                 bson:"title"`
	CreditHours *float64 `json:"credit_hours,omitempty" bson:"credit_hours,omitempty"`
	Description string   `json:"description"           bson:"description"`

	CreditRestriction       *string `json:"creditRestriction,omitempty"       bson:"credit_restriction,omitempty"`
	GradingRestriction      *string `json:"gradingRestriction,omitempty"      bson:"grading_restriction,omitempty"`
	RegistrationRestriction *string `json:"registrationRestriction,omitempty" bson:"registration_restriction,omitempty"`
	Repeatability           *string `json:"repeatability,omitempty"           bson:"repeatability,omitempty"`
}

// ProgramRecord is one program (major) from the directory page.
type ProgramRecord struct {
	Name            string   `json:"name"             bson:"name"`
	URL             string   `json:"url"              bson:"url"`
	Description     string   `json:"description"      bson:"description"`
	RequiredCourses []string `json:"required_courses" bson:"required_courses"`
}

// NewProgramRecord returns a record with an empty, non-nil course list.
func NewProgramRecord(name, url string) ProgramRecord {
	return ProgramRecord{
		Name:            name,
		URL:             url,
		RequiredCourses: []string{},
	}
}

// Status classifies how completely a record was produced.
type Status int

const (
	StatusFull Status = iota
	StatusPartial
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusFull:
		return "full"
	case StatusPartial:
		return "partial"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Outcome tags a result so degraded data is distinguishable from complete
// data without inspecting which fields are empty.
type Outcome struct {
	Status  Status
	Missing []string
	Reason  string
}

// Full reports a complete result.
func Full() Outcome { return Outcome{Status: StatusFull} }

// Partial reports a result with the named fields unavailable.
func Partial(reason string, missing ...string) Outcome {
	return Outcome{Status: StatusPartial, Missing: missing, Reason: reason}
}

// Skipped reports a unit of work that contributed nothing.
func Skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

func (o Outcome) String() string {
	if o.Status == StatusFull {
		return o.Status.String()
	}
	s := o.Status.String()
	if len(o.Missing) > 0 {
		s += " missing=" + strings.Join(o.Missing, ",")
	}
	if o.Reason != "" {
		s += ": " + o.Reason
	}
	return s
}

// Field names reported in Outcome.Missing.
const (
	FieldCreditHours  = "credit_hours"
	FieldDescription  = "description"
	FieldRestrictions = "restrictions"
	FieldRequired     = "required_courses"
)

// CourseResult pairs a course record with how it was produced.
type CourseResult struct {
	Record  CourseRecord
	Outcome Outcome
}

// ProgramResult pairs a program record with how it was produced.
type ProgramResult struct {
	Record  ProgramRecord
	Outcome Outcome
}

// PageResult is the contribution of one listing page.
type PageResult struct {
	Page    int
	Courses []CourseResult
	Outcome Outcome
}

// CourseRecords flattens results into plain records.
func CourseRecords(results []CourseResult) []CourseRecord {
	out := make([]CourseRecord, len(results))
	for i, r := range results {
		out[i] = r.Record
	}
	return out
}

// ProgramRecords flattens results into plain records.
func ProgramRecords(results []ProgramResult) []ProgramRecord {
	out := make([]ProgramRecord, len(results))
	for i, r := range results {
		out[i] = r.Record
	}
	return out
}
