package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-sis-api/internal/models"
)

const enrollmentColumns = `id, student_id, semester_id, registrar_status, registrar_status_at, dean_status, dean_status_at, accounting_status, accounting_status_at, payment_confirmed, final_approval_status, created_at, updated_at`

// EnrollmentRepository handles persistence of enrollment records.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollment records filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentRecord, int, error) {
	var where whereBuilder
	if filter.StudentID != "" {
		where.add("student_id = $%d", filter.StudentID)
	}
	if filter.SemesterID != "" {
		where.add("semester_id = $%d", filter.SemesterID)
	}
	if filter.RegistrarStatus != "" {
		where.add("registrar_status = $%d", filter.RegistrarStatus)
	}
	if filter.DeanStatus != "" {
		where.add("dean_status = $%d", filter.DeanStatus)
	}
	if filter.AccountingStatus != "" {
		where.add("accounting_status = $%d", filter.AccountingStatus)
	}
	if filter.FinalApproved != nil {
		where.add("final_approval_status = $%d", *filter.FinalApproved)
	}

	orderBy := sortClause(filter.SortBy, filter.SortOrder, map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
	}, "created_at")
	size, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s FROM enrollment_records%s ORDER BY %s LIMIT %d OFFSET %d", enrollmentColumns, where.clause(), orderBy, size, offset)
	var records []models.EnrollmentRecord
	if err := r.db.SelectContext(ctx, &records, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollment records: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM enrollment_records"+where.clause(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollment records: %w", err)
	}
	return records, total, nil
}

// FindByID returns an enrollment record by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.EnrollmentRecord, error) {
	var record models.EnrollmentRecord
	if err := r.db.GetContext(ctx, &record, `SELECT `+enrollmentColumns+` FROM enrollment_records WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByIDForUpdate loads and row-locks a record inside exec.
func (r *EnrollmentRepository) FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.EnrollmentRecord, error) {
	var record models.EnrollmentRecord
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &record, `SELECT `+enrollmentColumns+` FROM enrollment_records WHERE id = $1 FOR UPDATE`, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Exists checks whether a record already exists for the student and semester.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, semesterID string) (bool, error) {
	const query = `SELECT 1 FROM enrollment_records WHERE student_id = $1 AND semester_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, semesterID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment record: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment record. The (student_id, semester_id) unique
// constraint surfaces as a *pq.Error with SQLSTATE 23505.
func (r *EnrollmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, record *models.EnrollmentRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO enrollment_records (` + enrollmentColumns + `)
VALUES (:id, :student_id, :semester_id, :registrar_status, :registrar_status_at, :dean_status, :dean_status_at, :accounting_status, :accounting_status_at, :payment_confirmed, :final_approval_status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, pick(r.db, exec), query, record); err != nil {
		return fmt.Errorf("create enrollment record: %w", err)
	}
	return nil
}

// Update persists track statuses and flags.
func (r *EnrollmentRepository) Update(ctx context.Context, exec sqlx.ExtContext, record *models.EnrollmentRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE enrollment_records SET registrar_status = :registrar_status, registrar_status_at = :registrar_status_at, dean_status = :dean_status, dean_status_at = :dean_status_at, accounting_status = :accounting_status, accounting_status_at = :accounting_status_at, payment_confirmed = :payment_confirmed, final_approval_status = :final_approval_status, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, pick(r.db, exec), query, record); err != nil {
		return fmt.Errorf("update enrollment record: %w", err)
	}
	return nil
}
