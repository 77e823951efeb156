package models

import "time"

// Campus is a tenant of the system.
type Campus struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Department groups programs.
type Department struct {
	ID       string `db:"id" json:"id"`
	CampusID string `db:"campus_id" json:"campus_id"`
	Code     string `db:"code" json:"code"`
	Name     string `db:"name" json:"name"`
}

// Course is a catalog offering that class sessions are scheduled for.
type Course struct {
	ID           string    `db:"id" json:"id"`
	CampusID     string    `db:"campus_id" json:"campus_id"`
	DepartmentID *string   `db:"department_id" json:"department_id,omitempty"`
	Code         string    `db:"code" json:"code"`
	Title        string    `db:"title" json:"title"`
	Units        int       `db:"units" json:"units"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Employee is a staff member; instructors are employees.
type Employee struct {
	ID           string    `db:"id" json:"id"`
	CampusID     string    `db:"campus_id" json:"campus_id"`
	EmployeeNo   string    `db:"employee_no" json:"employee_no"`
	FullName     string    `db:"full_name" json:"full_name"`
	DepartmentID *string   `db:"department_id" json:"department_id,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Room is a bookable building structure.
type Room struct {
	ID        string    `db:"id" json:"id"`
	CampusID  string    `db:"campus_id" json:"campus_id"`
	Building  string    `db:"building" json:"building"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReferenceFilter is the shared list filter for reference lookups.
type ReferenceFilter struct {
	CampusID string
	Search   string
	Page     int
	PageSize int
}
