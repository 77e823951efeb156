package models

import (
	"fmt"
	"time"
)

// TrackStatus is the state of a single approval track.
type TrackStatus string

// Possible track statuses.
const (
	TrackStatusPending       TrackStatus = "pending"
	TrackStatusAccepted      TrackStatus = "accepted"
	TrackStatusInProgress    TrackStatus = "in-progress"
	TrackStatusUpcoming      TrackStatus = "upcoming"
	TrackStatusRejected      TrackStatus = "rejected"
	TrackStatusFinalApproved TrackStatus = "final_approved"
)

// Valid reports membership in the closed status set.
func (s TrackStatus) Valid() bool {
	switch s {
	case TrackStatusPending, TrackStatusAccepted, TrackStatusInProgress,
		TrackStatusUpcoming, TrackStatusRejected, TrackStatusFinalApproved:
		return true
	}
	return false
}

// Cleared reports whether the track no longer blocks final approval.
func (s TrackStatus) Cleared() bool {
	return s == TrackStatusAccepted || s == TrackStatusFinalApproved
}

// Track names one of the independent approval tracks.
type Track string

const (
	TrackRegistrar  Track = "registrar"
	TrackDean       Track = "dean"
	TrackAccounting Track = "accounting"
)

// ParseTrack validates a track name.
func ParseTrack(raw string) (Track, error) {
	switch t := Track(raw); t {
	case TrackRegistrar, TrackDean, TrackAccounting:
		return t, nil
	}
	return "", fmt.Errorf("unknown enrollment track %q", raw)
}

// EnrollmentRecord tracks one student's approval workflow for one semester.
type EnrollmentRecord struct {
	ID                  string      `db:"id" json:"id"`
	StudentID           string      `db:"student_id" json:"student_id"`
	SemesterID          string      `db:"semester_id" json:"semester_id"`
	RegistrarStatus     TrackStatus `db:"registrar_status" json:"registrar_status"`
	RegistrarStatusAt   *time.Time  `db:"registrar_status_at" json:"registrar_status_at,omitempty"`
	DeanStatus          TrackStatus `db:"dean_status" json:"dean_status"`
	DeanStatusAt        *time.Time  `db:"dean_status_at" json:"dean_status_at,omitempty"`
	AccountingStatus    TrackStatus `db:"accounting_status" json:"accounting_status"`
	AccountingStatusAt  *time.Time  `db:"accounting_status_at" json:"accounting_status_at,omitempty"`
	PaymentConfirmed    bool        `db:"payment_confirmed" json:"payment_confirmed"`
	FinalApprovalStatus bool        `db:"final_approval_status" json:"final_approval_status"`
	CreatedAt           time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time   `db:"updated_at" json:"updated_at"`
}

// Status returns the current status of a track.
func (r *EnrollmentRecord) Status(track Track) TrackStatus {
	switch track {
	case TrackRegistrar:
		return r.RegistrarStatus
	case TrackDean:
		return r.DeanStatus
	case TrackAccounting:
		return r.AccountingStatus
	}
	return ""
}

// SetStatus stamps a track with a new status.
func (r *EnrollmentRecord) SetStatus(track Track, status TrackStatus, at time.Time) {
	switch track {
	case TrackRegistrar:
		r.RegistrarStatus, r.RegistrarStatusAt = status, &at
	case TrackDean:
		r.DeanStatus, r.DeanStatusAt = status, &at
	case TrackAccounting:
		r.AccountingStatus, r.AccountingStatusAt = status, &at
	}
}

// AllTracksCleared reports whether every track is accepted or final approved and payment is in.
func (r *EnrollmentRecord) AllTracksCleared() bool {
	return r.RegistrarStatus.Cleared() && r.DeanStatus.Cleared() && r.AccountingStatus.Cleared() && r.PaymentConfirmed
}

// EnrollmentFilter provides filters for listing enrollment records.
type EnrollmentFilter struct {
	StudentID        string
	SemesterID       string
	RegistrarStatus  TrackStatus
	DeanStatus       TrackStatus
	AccountingStatus TrackStatus
	FinalApproved    *bool
	Page             int
	PageSize         int
	SortBy           string
	SortOrder        string
}

// EnrollmentResult is returned by the enroll workflow.
type EnrollmentResult struct {
	Record   *EnrollmentRecord `json:"record"`
	Standing *AcademicStanding `json:"standing"`
}
