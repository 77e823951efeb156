package models

import (
	"fmt"
	"time"
)

// Student represents a learner registered in the institution.
type Student struct {
	ID         string    `db:"id" json:"id"`
	ExternalID *string   `db:"external_id" json:"external_id,omitempty"`
	StudentNo  string    `db:"student_no" json:"student_no"`
	FullName   string    `db:"full_name" json:"full_name"`
	CampusID   string    `db:"campus_id" json:"campus_id"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// YearLevel is the ordered academic progression of a student.
type YearLevel string

const (
	YearLevelFirst     YearLevel = "First Year"
	YearLevelSecond    YearLevel = "Second Year"
	YearLevelThird     YearLevel = "Third Year"
	YearLevelFourth    YearLevel = "Fourth Year"
	YearLevelGraduated YearLevel = "Graduated"
)

var yearLevelOrder = []YearLevel{YearLevelFirst, YearLevelSecond, YearLevelThird, YearLevelFourth, YearLevelGraduated}

// Next returns the level one step after y.
func (y YearLevel) Next() (YearLevel, error) {
	for i, level := range yearLevelOrder {
		if level != y {
			continue
		}
		if i == len(yearLevelOrder)-1 {
			return "", fmt.Errorf("year level %q has no successor", y)
		}
		return yearLevelOrder[i+1], nil
	}
	return "", fmt.Errorf("unknown year level %q", y)
}

// AcademicStanding is a student's current program placement.
type AcademicStanding struct {
	StudentID         string    `db:"student_id" json:"student_id"`
	ProgramID         *string   `db:"program_id" json:"program_id,omitempty"`
	Major             *string   `db:"major" json:"major,omitempty"`
	YearLevel         YearLevel `db:"year_level" json:"year_level"`
	CurrentSemesterID *string   `db:"current_semester_id" json:"current_semester_id,omitempty"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// StudentProfile combines a student with the current standing, if recorded.
type StudentProfile struct {
	Student  *Student          `json:"student"`
	Standing *AcademicStanding `json:"standing,omitempty"`
}
