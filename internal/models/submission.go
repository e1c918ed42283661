package models

import "time"

// Submission is one exam registration, stored in the submissions table.
// The done flag is the only mutable field.
type Submission struct {
	ID        int64     `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	BirthDate time.Time `db:"birth_date" json:"birth_date"`
	CNP       string    `db:"cnp" json:"cnp"`
	Phone     string    `db:"phone" json:"phone"`
	Email     string    `db:"email" json:"email"`
	Exam      string    `db:"exam" json:"exam"`
	Done      bool      `db:"done" json:"done"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SubmissionFilter captures the optional listing filters. Dates are
// calendar-day bounds on created_at, both inclusive.
type SubmissionFilter struct {
	Search   string
	Exam     string
	DateFrom string
	DateTo   string
}

// SubmissionStats aggregates the admin dashboard counters.
type SubmissionStats struct {
	Total   int            `json:"total"`
	Done    int            `json:"done"`
	Pending int            `json:"pending"`
	ByExam  map[string]int `json:"by_exam"`
}

// Exams is the fixed catalogue offered on the public form. Matching is
// exact and case-sensitive.
var Exams = []string{
	"Pre-A1 Starters",
	"A1 Movers",
	"A2 Flyers",
	"A2 Key",
	"B1 Preliminary",
	"B2 First",
	"C1 Advanced",
	"C2 Proficiency",
	"IELTS",
}

// ValidExam reports whether the value is in the catalogue.
func ValidExam(exam string) bool {
	for _, e := range Exams {
		if e == exam {
			return true
		}
	}
	return false
}
