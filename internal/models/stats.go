package models

import "time"

// DepartmentCount is the number of active students per department.
type DepartmentCount struct {
	DepartmentID   string `db:"department_id" json:"department_id"`
	DepartmentName string `db:"department_name" json:"department_name"`
	Students       int    `db:"students" json:"students"`
}

// EnrollmentSummary aggregates enrollment records of a semester.
type EnrollmentSummary struct {
	SemesterID       string `db:"semester_id" json:"semester_id"`
	Total            int    `db:"total" json:"total"`
	PaymentConfirmed int    `db:"payment_confirmed" json:"payment_confirmed"`
	FinalApproved    int    `db:"final_approved" json:"final_approved"`
}

// StatsSnapshot is a timestamped set of statistics refreshed by the scheduler.
type StatsSnapshot struct {
	Departments []DepartmentCount  `json:"departments"`
	Enrollment  *EnrollmentSummary `json:"enrollment,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
	Source      string             `json:"source"`
}

// SystemMetrics is a lightweight view of process counters for the metrics endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	ScheduleConflicts        uint64    `json:"schedule_conflicts"`
	EnrollmentsCreated       uint64    `json:"enrollments_created"`
	NotificationsFailed      uint64    `json:"notifications_failed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
