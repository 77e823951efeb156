package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-sis-api/internal/models"
	"github.com/noah-isme/campus-sis-api/pkg/database"
	appErrors "github.com/noah-isme/campus-sis-api/pkg/errors"
	"github.com/noah-isme/campus-sis-api/pkg/export"
)

type classSessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ClassSession, error)
	ExistsByName(ctx context.Context, exec sqlx.ExtContext, name, excludeID string) (bool, error)
	ListForRoom(ctx context.Context, exec sqlx.ExtContext, semesterID, roomID, excludeID string) ([]models.ClassSession, error)
	ListForInstructor(ctx context.Context, exec sqlx.ExtContext, semesterID, instructorID, excludeID string) ([]models.ClassSession, error)
	Create(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error
	Update(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error
	SoftDelete(ctx context.Context, exec sqlx.ExtContext, id string) error
	List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, int, error)
	ListBySemester(ctx context.Context, semesterID string) ([]models.ClassSessionDetail, error)
}

type semesterReader interface {
	FindByID(ctx context.Context, id string) (*models.Semester, error)
}

type catalogReader interface {
	FindCourseByID(ctx context.Context, id string) (*models.Course, error)
	FindEmployeeByID(ctx context.Context, id string) (*models.Employee, error)
	FindRoomByID(ctx context.Context, id string) (*models.Room, error)
}

type auditWriter interface {
	Create(ctx context.Context, exec sqlx.ExtContext, log *models.AuditLog) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx sqlx.ExtContext) error) error
}

type lockFunc func(ctx context.Context, exec sqlx.ExecerContext, key int64) error

// CreateClassSessionRequest is the payload for scheduling a new class session.
type CreateClassSessionRequest struct {
	CourseID     string   `json:"course_id" validate:"required"`
	SemesterID   string   `json:"semester_id" validate:"required"`
	InstructorID string   `json:"instructor_id" validate:"required"`
	RoomID       string   `json:"room_id" validate:"required"`
	Name         string   `json:"name" validate:"required,max=120"`
	Days         []string `json:"days"`
	StartTime    string   `json:"start_time" validate:"required"`
	EndTime      string   `json:"end_time" validate:"required"`
	IsActive     *bool    `json:"is_active"`
}

// UpdateClassSessionRequest is a partial update; nil fields are left untouched.
type UpdateClassSessionRequest struct {
	CourseID     *string  `json:"course_id"`
	SemesterID   *string  `json:"semester_id"`
	InstructorID *string  `json:"instructor_id"`
	RoomID       *string  `json:"room_id"`
	Name         *string  `json:"name" validate:"omitempty,max=120"`
	Days         []string `json:"days"`
	StartTime    *string  `json:"start_time"`
	EndTime      *string  `json:"end_time"`
	IsActive     *bool    `json:"is_active"`
}

// AvailabilityRequest asks whether a slot is free without writing anything.
type AvailabilityRequest struct {
	SemesterID   string   `json:"semester_id" validate:"required"`
	RoomID       string   `json:"room_id"`
	InstructorID string   `json:"instructor_id"`
	Days         []string `json:"days"`
	StartTime    string   `json:"start_time" validate:"required"`
	EndTime      string   `json:"end_time" validate:"required"`
	ExcludeID    string   `json:"exclude_id"`
}

// TimetableFile is a rendered timetable download.
type TimetableFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ClassSessionService manages the class session lifecycle.
type ClassSessionService struct {
	repo      classSessionRepository
	semesters semesterReader
	catalog   catalogReader
	audit     auditWriter
	tx        txRunner
	lock      lockFunc
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassSessionService constructs the service.
func NewClassSessionService(repo classSessionRepository, semesters semesterReader, catalog catalogReader, audit auditWriter, tx txRunner, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ClassSessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassSessionService{
		repo:      repo,
		semesters: semesters,
		catalog:   catalog,
		audit:     audit,
		tx:        tx,
		lock:      database.LockXact,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// List returns class sessions with pagination metadata.
func (s *ClassSessionService) List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, *models.Pagination, error) {
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class sessions")
	}
	return sessions, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single class session.
func (s *ClassSessionService) Get(ctx context.Context, id string) (*models.ClassSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class session")
	}
	return session, nil
}

// Create validates and schedules a new class session.
func (s *ClassSessionService) Create(ctx context.Context, req CreateClassSessionRequest, actor models.Actor) (*models.ClassSession, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class session payload")
	}
	name := req.Name

	exists, err := s.repo.ExistsByName(ctx, nil, name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate class session name")
	}
	if exists {
		return nil, duplicateNameError(name)
	}

	if err := s.resolveCourse(ctx, req.CourseID); err != nil {
		return nil, err
	}
	semester, err := s.resolveSemester(ctx, req.SemesterID)
	if err != nil {
		return nil, err
	}
	if err := s.resolveInstructor(ctx, req.InstructorID); err != nil {
		return nil, err
	}
	if err := s.resolveRoom(ctx, req.RoomID); err != nil {
		return nil, err
	}
	if !semester.IsActive {
		return nil, appErrors.Clone(appErrors.ErrInactiveSemester, fmt.Sprintf("semester %s is not active", semester.Name))
	}

	rng, err := parseTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	days, err := parseDays(req.Days)
	if err != nil {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	session := &models.ClassSession{
		CourseID:     req.CourseID,
		SemesterID:   req.SemesterID,
		InstructorID: req.InstructorID,
		RoomID:       req.RoomID,
		Name:         name,
		Days:         days,
		StartTime:    rng.Start,
		EndTime:      rng.End,
		IsActive:     active,
	}

	err = s.tx.WithTx(ctx, func(tx sqlx.ExtContext) error {
		if err := s.guardName(ctx, tx, name, ""); err != nil {
			return err
		}
		if err := s.guardSchedule(ctx, tx, session.Slot(), ""); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, tx, session); err != nil {
			return writeError(err, name, "failed to create class session")
		}
		return s.writeAudit(ctx, tx, actor, models.AuditActionClassSessionCreate, session.ID, nil, session)
	})
	if err != nil {
		return nil, asPersistence(err, "failed to create class session")
	}

	s.logger.Info("class session created",
		zap.String("session_id", session.ID),
		zap.String("semester_id", session.SemesterID),
		zap.String("room_id", session.RoomID),
		zap.String("actor", actor.UserID))
	return session, nil
}

// Update applies a partial update. The stored row is locked for the whole read-modify-write,
// schedule changes are re-checked for conflicts, and an audit record is written only when
// at least one field actually changed.
func (s *ClassSessionService) Update(ctx context.Context, id string, req UpdateClassSessionRequest, actor models.Actor) (*models.ClassSession, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name must not be blank")
		}
		req.Name = &trimmed
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class session payload")
	}

	var result *models.ClassSession
	err := s.tx.WithTx(ctx, func(tx sqlx.ExtContext) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err := lookupError(err, "class session", id); err != nil {
			return err
		}
		updated, err := mergeSessionUpdate(current, req)
		if err != nil {
			return err
		}

		changes := diffSessions(current, updated)
		if len(changes) == 0 {
			result = current
			return nil
		}
		if updated.Days.Empty() {
			return appErrors.Clone(appErrors.ErrInvalidSchedule, "stored weekdays are malformed; supply days with the update")
		}
		if err := s.checkChangedReferences(ctx, tx, updated, changes); err != nil {
			return err
		}
		if scheduleChanged(changes) {
			if err := s.guardSchedule(ctx, tx, updated.Slot(), id); err != nil {
				return err
			}
		}
		if err := s.repo.Update(ctx, tx, updated); err != nil {
			return writeError(err, updated.Name, "failed to update class session")
		}
		before, after := changeSides(changes)
		if err := s.writeAudit(ctx, tx, actor, models.AuditActionClassSessionUpdate, id, before, after); err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, asPersistence(err, "failed to update class session")
	}
	return result, nil
}

// checkChangedReferences validates only the fields an update touched, in the same order Create does.
func (s *ClassSessionService) checkChangedReferences(ctx context.Context, tx sqlx.ExtContext, updated *models.ClassSession, changes map[string]fieldChange) error {
	if _, ok := changes["name"]; ok {
		if err := s.guardName(ctx, tx, updated.Name, updated.ID); err != nil {
			return err
		}
	}
	if _, ok := changes["course_id"]; ok {
		if err := s.resolveCourse(ctx, updated.CourseID); err != nil {
			return err
		}
	}
	if _, ok := changes["semester_id"]; ok {
		semester, err := s.resolveSemester(ctx, updated.SemesterID)
		if err != nil {
			return err
		}
		if !semester.IsActive {
			return appErrors.Clone(appErrors.ErrInactiveSemester, fmt.Sprintf("semester %s is not active", semester.Name))
		}
	}
	if _, ok := changes["instructor_id"]; ok {
		if err := s.resolveInstructor(ctx, updated.InstructorID); err != nil {
			return err
		}
	}
	if _, ok := changes["room_id"]; ok {
		if err := s.resolveRoom(ctx, updated.RoomID); err != nil {
			return err
		}
	}
	return nil
}

func mergeSessionUpdate(current *models.ClassSession, req UpdateClassSessionRequest) (*models.ClassSession, error) {
	updated := *current
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.CourseID != nil {
		updated.CourseID = *req.CourseID
	}
	if req.SemesterID != nil {
		updated.SemesterID = *req.SemesterID
	}
	if req.InstructorID != nil {
		updated.InstructorID = *req.InstructorID
	}
	if req.RoomID != nil {
		updated.RoomID = *req.RoomID
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	if req.StartTime != nil || req.EndTime != nil {
		start, end := current.StartTime.String(), current.EndTime.String()
		if req.StartTime != nil {
			start = *req.StartTime
		}
		if req.EndTime != nil {
			end = *req.EndTime
		}
		rng, err := parseTimeRange(start, end)
		if err != nil {
			return nil, err
		}
		updated.StartTime, updated.EndTime = rng.Start, rng.End
	}
	if req.Days != nil {
		days, err := parseDays(req.Days)
		if err != nil {
			return nil, err
		}
		updated.Days = days
	}
	if !updated.TimeRange().Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTimeRange, fmt.Sprintf("end time %s must be after start time %s", updated.EndTime, updated.StartTime))
	}
	return &updated, nil
}

// Delete soft-deletes a class session.
func (s *ClassSessionService) Delete(ctx context.Context, id string, actor models.Actor) error {
	err := s.tx.WithTx(ctx, func(tx sqlx.ExtContext) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err := lookupError(err, "class session", id); err != nil {
			return err
		}
		if err := s.repo.SoftDelete(ctx, tx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "class session not found")
			}
			return appErrors.Persistence(err, "failed to delete class session")
		}
		return s.writeAudit(ctx, tx, actor, models.AuditActionClassSessionDelete, id, current, nil)
	})
	return asPersistence(err, "failed to delete class session")
}

// CheckAvailability reports conflicts for a slot without taking locks or writing.
func (s *ClassSessionService) CheckAvailability(ctx context.Context, req AvailabilityRequest) (*models.AvailabilityReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if req.RoomID == "" && req.InstructorID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "room_id or instructor_id is required")
	}
	rng, err := parseTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	days, err := parseDays(req.Days)
	if err != nil {
		return nil, err
	}
	slot := models.ScheduleSlot{SemesterID: req.SemesterID, RoomID: req.RoomID, InstructorID: req.InstructorID, Days: days, Range: rng}

	report := &models.AvailabilityReport{RoomConflicts: []models.ScheduleConflict{}, InstructorConflicts: []models.ScheduleConflict{}}
	if slot.RoomID != "" {
		existing, err := s.repo.ListForRoom(ctx, nil, slot.SemesterID, slot.RoomID, req.ExcludeID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room schedule")
		}
		s.warnMalformed(existing)
		report.RoomConflicts = describeConflicts(FindConflicts(slot, existing))
	}
	if slot.InstructorID != "" {
		existing, err := s.repo.ListForInstructor(ctx, nil, slot.SemesterID, slot.InstructorID, req.ExcludeID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor schedule")
		}
		s.warnMalformed(existing)
		report.InstructorConflicts = describeConflicts(FindConflicts(slot, existing))
	}
	report.Available = len(report.RoomConflicts) == 0 && len(report.InstructorConflicts) == 0
	return report, nil
}

// ExportTimetable renders every session of a semester as CSV or PDF.
func (s *ClassSessionService) ExportTimetable(ctx context.Context, semesterID, format string) (*TimetableFile, error) {
	semester, err := s.resolveSemester(ctx, semesterID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.repo.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	dataset := export.Dataset{
		Title:   fmt.Sprintf("Timetable %s %s", semester.Name, semester.SchoolYear),
		Headers: []string{"Session", "Course", "Title", "Instructor", "Room", "Days", "Start", "End"},
	}
	for _, session := range sessions {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Session":    session.Name,
			"Course":     session.CourseCode,
			"Title":      session.CourseTitle,
			"Instructor": session.InstructorName,
			"Room":       session.RoomName,
			"Days":       session.Days.String(),
			"Start":      session.StartTime.String(),
			"End":        session.EndTime.String(),
		})
	}

	exporter := export.ForFormat(strings.ToLower(format))
	body, err := exporter.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	return &TimetableFile{
		Filename:    fmt.Sprintf("timetable-%s.%s", semester.ID, exporter.Extension()),
		ContentType: exporter.ContentType(),
		Body:        body,
	}, nil
}

// guardName serialises writers claiming the same name, then rejects it if another live
// session already holds it.
func (s *ClassSessionService) guardName(ctx context.Context, tx sqlx.ExtContext, name, excludeID string) error {
	if err := s.lock(ctx, tx, database.AdvisoryKey("class-name", name)); err != nil {
		return appErrors.Persistence(err, "failed to lock class session name")
	}
	exists, err := s.repo.ExistsByName(ctx, tx, name, excludeID)
	if err != nil {
		return appErrors.Persistence(err, "failed to validate class session name")
	}
	if exists {
		return duplicateNameError(name)
	}
	return nil
}

// guardSchedule serialises writers on the slot's room and instructor, then rejects
// the slot if it collides with a stored session.
func (s *ClassSessionService) guardSchedule(ctx context.Context, tx sqlx.ExtContext, slot models.ScheduleSlot, excludeID string) error {
	keys := []int64{
		database.AdvisoryKey("class-room", slot.SemesterID, slot.RoomID),
		database.AdvisoryKey("class-instructor", slot.SemesterID, slot.InstructorID),
	}
	// fixed acquisition order keeps two writers from deadlocking on each other's keys
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, key := range keys {
		if err := s.lock(ctx, tx, key); err != nil {
			return appErrors.Persistence(err, "failed to lock schedule")
		}
	}

	started := time.Now()
	byRoom, err := s.repo.ListForRoom(ctx, tx, slot.SemesterID, slot.RoomID, excludeID)
	s.metrics.ObserveDBQuery("room_schedule", time.Since(started))
	if err != nil {
		return appErrors.Persistence(err, "failed to load room schedule")
	}
	s.warnMalformed(byRoom)
	if conflicts := FindConflicts(slot, byRoom); len(conflicts) > 0 {
		s.metrics.RecordConflict(models.ConflictKindRoom)
		return conflictError(models.ConflictKindRoom, s.subjectName(ctx, models.ConflictKindRoom, slot), conflicts)
	}

	started = time.Now()
	byInstructor, err := s.repo.ListForInstructor(ctx, tx, slot.SemesterID, slot.InstructorID, excludeID)
	s.metrics.ObserveDBQuery("instructor_schedule", time.Since(started))
	if err != nil {
		return appErrors.Persistence(err, "failed to load instructor schedule")
	}
	s.warnMalformed(byInstructor)
	if conflicts := FindConflicts(slot, byInstructor); len(conflicts) > 0 {
		s.metrics.RecordConflict(models.ConflictKindInstructor)
		return conflictError(models.ConflictKindInstructor, s.subjectName(ctx, models.ConflictKindInstructor, slot), conflicts)
	}
	return nil
}

// subjectName resolves the contested room or instructor to its display name, falling back to the id.
func (s *ClassSessionService) subjectName(ctx context.Context, kind models.ConflictKind, slot models.ScheduleSlot) string {
	if kind == models.ConflictKindInstructor {
		if employee, err := s.catalog.FindEmployeeByID(ctx, slot.InstructorID); err == nil && employee.FullName != "" {
			return employee.FullName
		}
		return slot.InstructorID
	}
	if room, err := s.catalog.FindRoomByID(ctx, slot.RoomID); err == nil && room.Name != "" {
		return room.Name
	}
	return slot.RoomID
}

func (s *ClassSessionService) warnMalformed(sessions []models.ClassSession) {
	for _, session := range sessions {
		if session.Days.Empty() {
			s.logger.Warn("class session has no parseable weekdays; ignored for conflict detection",
				zap.String("session_id", session.ID), zap.String("name", session.Name))
		}
	}
}

func (s *ClassSessionService) writeAudit(ctx context.Context, tx sqlx.ExtContext, actor models.Actor, action, resourceID string, before, after interface{}) error {
	entry, err := newAuditLog(actor, action, models.AuditResourceClassSession, resourceID, before, after)
	if err != nil {
		return appErrors.Persistence(err, "failed to encode audit record")
	}
	if err := s.audit.Create(ctx, tx, entry); err != nil {
		return appErrors.Persistence(err, "failed to write audit record")
	}
	return nil
}

func (s *ClassSessionService) resolveCourse(ctx context.Context, id string) error {
	_, err := s.catalog.FindCourseByID(ctx, id)
	return lookupError(err, "course", id)
}

func (s *ClassSessionService) resolveInstructor(ctx context.Context, id string) error {
	_, err := s.catalog.FindEmployeeByID(ctx, id)
	return lookupError(err, "instructor", id)
}

func (s *ClassSessionService) resolveRoom(ctx context.Context, id string) error {
	_, err := s.catalog.FindRoomByID(ctx, id)
	return lookupError(err, "room", id)
}

func (s *ClassSessionService) resolveSemester(ctx context.Context, id string) (*models.Semester, error) {
	semester, err := s.semesters.FindByID(ctx, id)
	if err := lookupError(err, "semester", id); err != nil {
		return nil, err
	}
	return semester, nil
}

func lookupError(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %s not found", entity, id))
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load %s", entity))
}

func parseTimeRange(start, end string) (models.TimeRange, error) {
	s, err := models.ParseTimeOfDay(start)
	if err != nil {
		return models.TimeRange{}, appErrors.Wrap(err, appErrors.ErrInvalidTimeRange.Code, appErrors.ErrInvalidTimeRange.Status, fmt.Sprintf("invalid start time %q", start))
	}
	e, err := models.ParseTimeOfDay(end)
	if err != nil {
		return models.TimeRange{}, appErrors.Wrap(err, appErrors.ErrInvalidTimeRange.Code, appErrors.ErrInvalidTimeRange.Status, fmt.Sprintf("invalid end time %q", end))
	}
	rng := models.TimeRange{Start: s, End: e}
	if !rng.Valid() {
		return models.TimeRange{}, appErrors.Clone(appErrors.ErrInvalidTimeRange, fmt.Sprintf("end time %s must be after start time %s", e, s))
	}
	return rng, nil
}

func parseDays(raw []string) (models.WeekdaySet, error) {
	days, err := models.ParseWeekdays(raw)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInvalidSchedule.Code, appErrors.ErrInvalidSchedule.Status, err.Error())
	}
	if days.Empty() {
		return 0, appErrors.Clone(appErrors.ErrInvalidSchedule, "at least one weekday is required")
	}
	return days, nil
}

func conflictError(kind models.ConflictKind, subject string, sessions []models.ClassSession) *appErrors.Error {
	detail := &models.ScheduleConflictError{Kind: kind, Subject: subject, Conflicts: describeConflicts(sessions)}
	sentinel := appErrors.ErrRoomConflict
	if kind == models.ConflictKindInstructor {
		sentinel = appErrors.ErrInstructorConflict
	}
	err := appErrors.Wrap(detail, sentinel.Code, sentinel.Status, detail.Error())
	err.Details = detail
	return err
}

func duplicateNameError(name string) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrDuplicateName, fmt.Sprintf("class session %q already exists", name))
}

// writeError maps constraint violations raised by a session insert or update.
func writeError(err error, name, message string) error {
	switch {
	case database.IsUniqueViolation(err):
		return duplicateNameError(name)
	case database.IsForeignKeyViolation(err):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "a referenced course, semester, instructor or room no longer exists")
	default:
		return appErrors.Persistence(err, message)
	}
}

func describeConflicts(sessions []models.ClassSession) []models.ScheduleConflict {
	out := make([]models.ScheduleConflict, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, models.NewScheduleConflict(session))
	}
	return out
}

type fieldChange struct {
	Before interface{}
	After  interface{}
}

func diffSessions(before, after *models.ClassSession) map[string]fieldChange {
	changes := make(map[string]fieldChange)
	add := func(field string, b, a interface{}, differ bool) {
		if differ {
			changes[field] = fieldChange{Before: b, After: a}
		}
	}
	add("name", before.Name, after.Name, before.Name != after.Name)
	add("course_id", before.CourseID, after.CourseID, before.CourseID != after.CourseID)
	add("semester_id", before.SemesterID, after.SemesterID, before.SemesterID != after.SemesterID)
	add("instructor_id", before.InstructorID, after.InstructorID, before.InstructorID != after.InstructorID)
	add("room_id", before.RoomID, after.RoomID, before.RoomID != after.RoomID)
	add("days", before.Days, after.Days, before.Days != after.Days)
	add("start_time", before.StartTime, after.StartTime, before.StartTime != after.StartTime)
	add("end_time", before.EndTime, after.EndTime, before.EndTime != after.EndTime)
	add("is_active", before.IsActive, after.IsActive, before.IsActive != after.IsActive)
	return changes
}

func scheduleChanged(changes map[string]fieldChange) bool {
	for _, field := range []string{"semester_id", "instructor_id", "room_id", "days", "start_time", "end_time"} {
		if _, ok := changes[field]; ok {
			return true
		}
	}
	return false
}

func changeSides(changes map[string]fieldChange) (map[string]interface{}, map[string]interface{}) {
	before := make(map[string]interface{}, len(changes))
	after := make(map[string]interface{}, len(changes))
	for field, change := range changes {
		before[field] = change.Before
		after[field] = change.After
	}
	return before, after
}

func newAuditLog(actor models.Actor, action, resource, resourceID string, before, after interface{}) (*models.AuditLog, error) {
	entry := &models.AuditLog{Action: action, Resource: resource}
	if actor.UserID != "" {
		uid := actor.UserID
		entry.UserID = &uid
	}
	if resourceID != "" {
		rid := resourceID
		entry.ResourceID = &rid
	}
	var err error
	if entry.OldValues, err = marshalAuditValue(before); err != nil {
		return nil, err
	}
	if entry.NewValues, err = marshalAuditValue(after); err != nil {
		return nil, err
	}
	return entry, nil
}

func marshalAuditValue(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	switch typed := v.(type) {
	case *models.ClassSession:
		if typed == nil {
			return nil, nil
		}
	case *models.EnrollmentRecord:
		if typed == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

// asPersistence keeps typed domain errors and wraps anything else as a persistence failure.
func asPersistence(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Persistence(err, message)
}

func pagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
