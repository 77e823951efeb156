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

const classSessionColumns = `id, course_id, semester_id, instructor_id, room_id, name, days, start_time, end_time, is_active, is_deleted, created_at, updated_at`

// ClassSessionRepository persists scheduled class sessions.
type ClassSessionRepository struct {
	db *sqlx.DB
}

// NewClassSessionRepository constructs the repository.
func NewClassSessionRepository(db *sqlx.DB) *ClassSessionRepository {
	return &ClassSessionRepository{db: db}
}

// FindByID loads a non-deleted session.
func (r *ClassSessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	query := `SELECT ` + classSessionColumns + ` FROM class_sessions WHERE id = $1 AND is_deleted = FALSE`
	var session models.ClassSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByIDForUpdate loads and row-locks a non-deleted session inside exec.
func (r *ClassSessionRepository) FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ClassSession, error) {
	query := `SELECT ` + classSessionColumns + ` FROM class_sessions WHERE id = $1 AND is_deleted = FALSE FOR UPDATE`
	var session models.ClassSession
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ExistsByName reports whether a non-deleted session already uses name.
func (r *ClassSessionRepository) ExistsByName(ctx context.Context, exec sqlx.ExtContext, name, excludeID string) (bool, error) {
	query := "SELECT 1 FROM class_sessions WHERE name = $1 AND is_deleted = FALSE"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check class session name: %w", err)
	}
	return true, nil
}

// ListForRoom returns non-deleted sessions booked in a room during a semester.
func (r *ClassSessionRepository) ListForRoom(ctx context.Context, exec sqlx.ExtContext, semesterID, roomID, excludeID string) ([]models.ClassSession, error) {
	return r.listScoped(ctx, exec, "room_id", semesterID, roomID, excludeID)
}

// ListForInstructor returns non-deleted sessions taught by an instructor during a semester.
func (r *ClassSessionRepository) ListForInstructor(ctx context.Context, exec sqlx.ExtContext, semesterID, instructorID, excludeID string) ([]models.ClassSession, error) {
	return r.listScoped(ctx, exec, "instructor_id", semesterID, instructorID, excludeID)
}

func (r *ClassSessionRepository) listScoped(ctx context.Context, exec sqlx.ExtContext, column, semesterID, value, excludeID string) ([]models.ClassSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_sessions WHERE semester_id = $1 AND %s = $2 AND is_deleted = FALSE`, classSessionColumns, column)
	args := []interface{}{semesterID, value}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var sessions []models.ClassSession
	if err := sqlx.SelectContext(ctx, pick(r.db, exec), &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list class sessions by %s: %w", column, err)
	}
	return sessions, nil
}

// Create inserts a new session.
func (r *ClassSessionRepository) Create(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `INSERT INTO class_sessions (id, course_id, semester_id, instructor_id, room_id, name, days, start_time, end_time, is_active, is_deleted, created_at, updated_at)
VALUES (:id, :course_id, :semester_id, :instructor_id, :room_id, :name, :days, :start_time, :end_time, :is_active, :is_deleted, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, pick(r.db, exec), query, session); err != nil {
		return fmt.Errorf("create class session: %w", err)
	}
	return nil
}

// Update rewrites every mutable column of the session.
func (r *ClassSessionRepository) Update(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_sessions SET course_id = :course_id, semester_id = :semester_id, instructor_id = :instructor_id, room_id = :room_id, name = :name, days = :days, start_time = :start_time, end_time = :end_time, is_active = :is_active, updated_at = :updated_at WHERE id = :id AND is_deleted = FALSE`
	if _, err := sqlx.NamedExecContext(ctx, pick(r.db, exec), query, session); err != nil {
		return fmt.Errorf("update class session: %w", err)
	}
	return nil
}

// SoftDelete flags the session as deleted.
func (r *ClassSessionRepository) SoftDelete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `UPDATE class_sessions SET is_deleted = TRUE, is_active = FALSE, updated_at = $2 WHERE id = $1 AND is_deleted = FALSE`
	res, err := pick(r.db, exec).ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("delete class session: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const classSessionDetailSelect = `SELECT cs.id, cs.course_id, cs.semester_id, cs.instructor_id, cs.room_id, cs.name, cs.days, cs.start_time, cs.end_time, cs.is_active, cs.is_deleted, cs.created_at, cs.updated_at,
        COALESCE(c.code, '') AS course_code, COALESCE(c.title, '') AS course_title,
        COALESCE(e.full_name, '') AS instructor_name, COALESCE(rm.name, '') AS room_name`

const classSessionDetailFrom = `FROM class_sessions cs
LEFT JOIN courses c ON c.id = cs.course_id
LEFT JOIN employees e ON e.id = cs.instructor_id
LEFT JOIN rooms rm ON rm.id = cs.room_id`

// List returns sessions with reference names.
func (r *ClassSessionRepository) List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, int, error) {
	var where whereBuilder
	where.conditions = append(where.conditions, "cs.is_deleted = FALSE")
	if filter.SemesterID != "" {
		where.add("cs.semester_id = $%d", filter.SemesterID)
	}
	if filter.RoomID != "" {
		where.add("cs.room_id = $%d", filter.RoomID)
	}
	if filter.InstructorID != "" {
		where.add("cs.instructor_id = $%d", filter.InstructorID)
	}
	if filter.CourseID != "" {
		where.add("cs.course_id = $%d", filter.CourseID)
	}
	if filter.Active != nil {
		where.add("cs.is_active = $%d", *filter.Active)
	}

	orderBy := sortClause(filter.SortBy, filter.SortOrder, map[string]string{
		"name":       "cs.name",
		"start_time": "cs.start_time",
		"created_at": "cs.created_at",
	}, "created_at")
	size, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s %s%s ORDER BY %s LIMIT %d OFFSET %d", classSessionDetailSelect, classSessionDetailFrom, where.clause(), orderBy, size, offset)
	var sessions []models.ClassSessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list class sessions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s%s", classSessionDetailFrom, where.clause()), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count class sessions: %w", err)
	}
	return sessions, total, nil
}

// ListBySemester returns every non-deleted session of a semester ordered for timetable output.
func (r *ClassSessionRepository) ListBySemester(ctx context.Context, semesterID string) ([]models.ClassSessionDetail, error) {
	query := fmt.Sprintf("%s %s WHERE cs.semester_id = $1 AND cs.is_deleted = FALSE ORDER BY rm.name ASC, cs.start_time ASC, cs.name ASC", classSessionDetailSelect, classSessionDetailFrom)
	var sessions []models.ClassSessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query, semesterID); err != nil {
		return nil, fmt.Errorf("list semester timetable: %w", err)
	}
	return sessions, nil
}
