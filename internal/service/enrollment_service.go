package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-sis-api/internal/models"
	"github.com/noah-isme/campus-sis-api/pkg/config"
	"github.com/noah-isme/campus-sis-api/pkg/database"
	appErrors "github.com/noah-isme/campus-sis-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentRecord, int, error)
	FindByID(ctx context.Context, id string) (*models.EnrollmentRecord, error)
	FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.EnrollmentRecord, error)
	Exists(ctx context.Context, studentID, semesterID string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, record *models.EnrollmentRecord) error
	Update(ctx context.Context, exec sqlx.ExtContext, record *models.EnrollmentRecord) error
}

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindStandingForUpdate(ctx context.Context, exec sqlx.ExtContext, studentID string) (*models.AcademicStanding, error)
	UpdateStanding(ctx context.Context, exec sqlx.ExtContext, standing *models.AcademicStanding) error
}

type semesterNotifier interface {
	NotifySemesterAssignment(ctx context.Context, student *models.Student, semesterID string)
}

// EnrollRequest enrolls a student into a semester.
type EnrollRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	SemesterID string `json:"semester_id" validate:"required"`
}

// UpdateTrackRequest moves one approval track to a new status.
type UpdateTrackRequest struct {
	Status models.TrackStatus `json:"status" validate:"required"`
}

// FinalApprovalRequest sets the final approval flag in manual mode.
type FinalApprovalRequest struct {
	Approved bool `json:"approved"`
}

var trackRoles = map[models.Track][]models.UserRole{
	models.TrackRegistrar:  {models.RoleRegistrar, models.RoleAdmin, models.RoleSuperAdmin},
	models.TrackDean:       {models.RoleDean, models.RoleAdmin, models.RoleSuperAdmin},
	models.TrackAccounting: {models.RoleAccounting, models.RoleAdmin, models.RoleSuperAdmin},
}

var finalApprovalRoles = []models.UserRole{models.RoleRegistrar, models.RoleAdmin, models.RoleSuperAdmin}

// EnrollmentService drives the per-semester enrollment workflow.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentRepository
	semesters semesterReader
	audit     auditWriter
	tx        txRunner
	notifier  semesterNotifier
	metrics   *MetricsService
	mode      string
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEnrollmentService constructs EnrollmentService. An unknown final approval mode
// falls back to manual.
func NewEnrollmentService(repo enrollmentRepository, students studentRepository, semesters semesterReader, audit auditWriter, tx txRunner, notifier semesterNotifier, metrics *MetricsService, cfg config.EnrollmentConfig, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	mode := cfg.FinalApprovalMode
	if mode != config.FinalApprovalDerived {
		mode = config.FinalApprovalManual
	}
	return &EnrollmentService{
		repo:      repo,
		students:  students,
		semesters: semesters,
		audit:     audit,
		tx:        tx,
		notifier:  notifier,
		metrics:   metrics,
		mode:      mode,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns enrollment records with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentRecord, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return records, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single enrollment record.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err := lookupError(err, "enrollment", id); err != nil {
		return nil, err
	}
	return record, nil
}

// Enroll creates the enrollment record, advances the student one year level and
// points the standing at the semester, all in one transaction. The admissions
// system is told afterwards on a best-effort basis.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest, actor models.Actor) (*models.EnrollmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err := lookupError(err, "student", req.StudentID); err != nil {
		return nil, err
	}
	if _, err := s.semesters.FindByID(ctx, req.SemesterID); err != nil {
		return nil, lookupError(err, "semester", req.SemesterID)
	}

	exists, err := s.repo.Exists(ctx, req.StudentID, req.SemesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		s.metrics.RecordEnrollment("duplicate")
		return nil, duplicateEnrollment(req)
	}

	now := s.now()
	record := &models.EnrollmentRecord{
		StudentID:        req.StudentID,
		SemesterID:       req.SemesterID,
		DeanStatus:       models.TrackStatusPending,
		AccountingStatus: models.TrackStatusUpcoming,
	}
	record.SetStatus(models.TrackRegistrar, models.TrackStatusAccepted, now)

	var standing *models.AcademicStanding
	err = s.tx.WithTx(ctx, func(tx sqlx.ExtContext) error {
		if err := s.repo.Create(ctx, tx, record); err != nil {
			if database.IsUniqueViolation(err) {
				return duplicateEnrollment(req)
			}
			return appErrors.Persistence(err, "failed to create enrollment record")
		}

		current, err := s.students.FindStandingForUpdate(ctx, tx, req.StudentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("academic standing for student %s not found", req.StudentID))
			}
			return appErrors.Persistence(err, "failed to load academic standing")
		}
		next, err := current.YearLevel.Next()
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInvalidState.Code, appErrors.ErrInvalidState.Status, err.Error())
		}
		previous := *current
		current.YearLevel = next
		semesterID := req.SemesterID
		current.CurrentSemesterID = &semesterID
		if err := s.students.UpdateStanding(ctx, tx, current); err != nil {
			return appErrors.Persistence(err, "failed to update academic standing")
		}
		standing = current

		after := map[string]interface{}{
			"record":   record,
			"standing": map[string]interface{}{"year_level": next, "current_semester_id": semesterID},
		}
		before := map[string]interface{}{
			"standing": map[string]interface{}{"year_level": previous.YearLevel, "current_semester_id": previous.CurrentSemesterID},
		}
		return s.writeAudit(ctx, tx, actor, models.AuditActionEnrollmentCreate, record.ID, before, after)
	})
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrDuplicateEnrollment) {
			s.metrics.RecordEnrollment("duplicate")
		} else {
			s.metrics.RecordEnrollment("failed")
		}
		return nil, asPersistence(err, "failed to enroll student")
	}

	s.metrics.RecordEnrollment("created")
	s.logger.Info("student enrolled",
		zap.String("enrollment_id", record.ID),
		zap.String("student_id", record.StudentID),
		zap.String("semester_id", record.SemesterID),
		zap.String("year_level", string(standing.YearLevel)),
		zap.String("actor", actor.UserID))

	if s.notifier != nil {
		s.notifier.NotifySemesterAssignment(ctx, student, req.SemesterID)
	}
	return &models.EnrollmentResult{Record: record, Standing: standing}, nil
}

// UpdateTrackStatus moves one approval track. Each track has its own role gate.
func (s *EnrollmentService) UpdateTrackStatus(ctx context.Context, id string, track models.Track, req UpdateTrackRequest, actor models.Actor) (*models.EnrollmentRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid track payload")
	}
	roles, ok := trackRoles[track]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown enrollment track %q", track))
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown track status %q", req.Status))
	}
	if !actor.HasAnyOf(roles...) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("not allowed to update the %s track", track))
	}

	return s.mutate(ctx, id, actor, func(record *models.EnrollmentRecord) error {
		if record.Status(track) == req.Status {
			return nil
		}
		record.SetStatus(track, req.Status, s.now())
		return nil
	})
}

// ConfirmPayment marks the semester fee as paid once accounting has cleared the record.
func (s *EnrollmentService) ConfirmPayment(ctx context.Context, id string, actor models.Actor) (*models.EnrollmentRecord, error) {
	if !actor.HasAnyOf(trackRoles[models.TrackAccounting]...) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to confirm payment")
	}
	return s.mutate(ctx, id, actor, func(record *models.EnrollmentRecord) error {
		if !record.AccountingStatus.Cleared() {
			return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("payment cannot be confirmed while accounting is %s", record.AccountingStatus))
		}
		record.PaymentConfirmed = true
		return nil
	})
}

// SetFinalApproval sets the final approval flag. Rejected when the flag is derived.
func (s *EnrollmentService) SetFinalApproval(ctx context.Context, id string, req FinalApprovalRequest, actor models.Actor) (*models.EnrollmentRecord, error) {
	if s.mode == config.FinalApprovalDerived {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "final approval is derived from the approval tracks")
	}
	if !actor.HasAnyOf(finalApprovalRoles...) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to set final approval")
	}
	return s.mutate(ctx, id, actor, func(record *models.EnrollmentRecord) error {
		record.FinalApprovalStatus = req.Approved
		return nil
	})
}

// FinalApprovalMode reports how the final approval flag is maintained.
func (s *EnrollmentService) FinalApprovalMode() string {
	return s.mode
}

// mutate locks the record, applies change and persists plus audits only when
// something differs from the stored row.
func (s *EnrollmentService) mutate(ctx context.Context, id string, actor models.Actor, change func(*models.EnrollmentRecord) error) (*models.EnrollmentRecord, error) {
	var result *models.EnrollmentRecord
	err := s.tx.WithTx(ctx, func(tx sqlx.ExtContext) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err := lookupError(err, "enrollment", id); err != nil {
			return err
		}
		updated := *current
		if err := change(&updated); err != nil {
			return err
		}
		if s.mode == config.FinalApprovalDerived {
			updated.FinalApprovalStatus = updated.AllTracksCleared()
		}

		changes := diffEnrollments(current, &updated)
		if len(changes) == 0 {
			result = current
			return nil
		}
		if err := s.repo.Update(ctx, tx, &updated); err != nil {
			return appErrors.Persistence(err, "failed to update enrollment record")
		}
		before, after := changeSides(changes)
		if err := s.writeAudit(ctx, tx, actor, models.AuditActionEnrollmentUpdate, id, before, after); err != nil {
			return err
		}
		result = &updated
		return nil
	})
	if err != nil {
		return nil, asPersistence(err, "failed to update enrollment record")
	}
	return result, nil
}

func (s *EnrollmentService) writeAudit(ctx context.Context, tx sqlx.ExtContext, actor models.Actor, action, resourceID string, before, after interface{}) error {
	entry, err := newAuditLog(actor, action, models.AuditResourceEnrollment, resourceID, before, after)
	if err != nil {
		return appErrors.Persistence(err, "failed to encode audit record")
	}
	if err := s.audit.Create(ctx, tx, entry); err != nil {
		return appErrors.Persistence(err, "failed to write audit record")
	}
	return nil
}

func duplicateEnrollment(req EnrollRequest) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrDuplicateEnrollment,
		fmt.Sprintf("student %s is already enrolled for semester %s", req.StudentID, req.SemesterID))
}

func diffEnrollments(before, after *models.EnrollmentRecord) map[string]fieldChange {
	changes := make(map[string]fieldChange)
	for _, track := range []models.Track{models.TrackRegistrar, models.TrackDean, models.TrackAccounting} {
		if b, a := before.Status(track), after.Status(track); b != a {
			changes[string(track)+"_status"] = fieldChange{Before: b, After: a}
		}
	}
	if before.PaymentConfirmed != after.PaymentConfirmed {
		changes["payment_confirmed"] = fieldChange{Before: before.PaymentConfirmed, After: after.PaymentConfirmed}
	}
	if before.FinalApprovalStatus != after.FinalApprovalStatus {
		changes["final_approval_status"] = fieldChange{Before: before.FinalApprovalStatus, After: after.FinalApprovalStatus}
	}
	return changes
}
