package models

import (
	"fmt"
	"strings"
	"time"
)

// ClassSession is one scheduled meeting pattern of a course offering.
type ClassSession struct {
	ID           string     `db:"id" json:"id"`
	CourseID     string     `db:"course_id" json:"course_id"`
	SemesterID   string     `db:"semester_id" json:"semester_id"`
	InstructorID string     `db:"instructor_id" json:"instructor_id"`
	RoomID       string     `db:"room_id" json:"room_id"`
	Name         string     `db:"name" json:"name"`
	Days         WeekdaySet `db:"days" json:"days"`
	StartTime    TimeOfDay  `db:"start_time" json:"start_time"`
	EndTime      TimeOfDay  `db:"end_time" json:"end_time"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	IsDeleted    bool       `db:"is_deleted" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// TimeRange returns the session's half-open meeting window.
func (s ClassSession) TimeRange() TimeRange {
	return TimeRange{Start: s.StartTime, End: s.EndTime}
}

// Slot returns the schedule-relevant projection of the session.
func (s ClassSession) Slot() ScheduleSlot {
	return ScheduleSlot{
		SemesterID:   s.SemesterID,
		RoomID:       s.RoomID,
		InstructorID: s.InstructorID,
		Days:         s.Days,
		Range:        s.TimeRange(),
	}
}

// ClassSessionDetail enriches ClassSession with reference names for listings and exports.
type ClassSessionDetail struct {
	ClassSession
	CourseCode     string `db:"course_code" json:"course_code"`
	CourseTitle    string `db:"course_title" json:"course_title"`
	InstructorName string `db:"instructor_name" json:"instructor_name"`
	RoomName       string `db:"room_name" json:"room_name"`
}

// ClassSessionFilter describes query params for listing sessions.
type ClassSessionFilter struct {
	SemesterID   string
	RoomID       string
	InstructorID string
	CourseID     string
	Active       *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// ScheduleSlot is the candidate placement checked by the conflict detector.
type ScheduleSlot struct {
	SemesterID   string     `json:"semester_id"`
	RoomID       string     `json:"room_id"`
	InstructorID string     `json:"instructor_id"`
	Days         WeekdaySet `json:"days"`
	Range        TimeRange  `json:"range"`
}

// ConflictKind distinguishes room from instructor collisions.
type ConflictKind string

const (
	ConflictKindRoom       ConflictKind = "ROOM"
	ConflictKindInstructor ConflictKind = "INSTRUCTOR"
)

// ScheduleConflict describes an existing session that collides with a candidate.
type ScheduleConflict struct {
	SessionID    string     `json:"session_id"`
	Name         string     `json:"name"`
	RoomID       string     `json:"room_id"`
	InstructorID string     `json:"instructor_id"`
	Days         WeekdaySet `json:"days"`
	StartTime    TimeOfDay  `json:"start_time"`
	EndTime      TimeOfDay  `json:"end_time"`
}

// NewScheduleConflict projects a session onto its conflict description.
func NewScheduleConflict(s ClassSession) ScheduleConflict {
	return ScheduleConflict{
		SessionID:    s.ID,
		Name:         s.Name,
		RoomID:       s.RoomID,
		InstructorID: s.InstructorID,
		Days:         s.Days,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
	}
}

// ScheduleConflictError is returned when a candidate collides with existing sessions.
type ScheduleConflictError struct {
	Kind ConflictKind `json:"kind"`
	// Subject is the display name of the contested room or instructor.
	Subject   string             `json:"subject,omitempty"`
	Conflicts []ScheduleConflict `json:"conflicts"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Conflicts) == 0 {
		return fmt.Sprintf("%s conflict", strings.ToLower(string(e.Kind)))
	}
	first := e.Conflicts[0]
	subject := "room " + firstNonEmpty(e.Subject, first.RoomID)
	if e.Kind == ConflictKindInstructor {
		subject = "instructor " + firstNonEmpty(e.Subject, first.InstructorID)
	}
	msg := fmt.Sprintf("%s is already booked by %q on %s %s-%s",
		subject, first.Name, first.Days, first.StartTime, first.EndTime)
	if extra := len(e.Conflicts) - 1; extra > 0 {
		msg += fmt.Sprintf(" (and %d more)", extra)
	}
	return msg
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// AvailabilityReport is the dry-run answer for a candidate slot.
type AvailabilityReport struct {
	Available           bool               `json:"available"`
	RoomConflicts       []ScheduleConflict `json:"room_conflicts"`
	InstructorConflicts []ScheduleConflict `json:"instructor_conflicts"`
}
