package models

import "time"

// Semester models an academic term scoped to a campus.
type Semester struct {
	ID         string    `db:"id" json:"id"`
	CampusID   string    `db:"campus_id" json:"campus_id"`
	Name       string    `db:"name" json:"name"`
	SchoolYear string    `db:"school_year" json:"school_year"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SemesterFilter defines filters supported by list endpoints.
type SemesterFilter struct {
	CampusID   string
	SchoolYear string
	IsActive   *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
