package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-sis-api/internal/models"
)

// ReferenceRepository reads slowly changing catalog data: courses, employees and rooms.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs the repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

const (
	courseColumns   = `id, campus_id, department_id, code, title, units, active, created_at`
	employeeColumns = `id, campus_id, employee_no, full_name, department_id, active, created_at`
	roomColumns     = `id, campus_id, building, name, capacity, created_at`
)

// FindCourseByID loads a course.
func (r *ReferenceRepository) FindCourseByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindEmployeeByID loads an employee.
func (r *ReferenceRepository) FindEmployeeByID(ctx context.Context, id string) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &employee, nil
}

// FindRoomByID loads a room.
func (r *ReferenceRepository) FindRoomByID(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	if err := r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// ListCourses searches courses by code or title.
func (r *ReferenceRepository) ListCourses(ctx context.Context, filter models.ReferenceFilter) ([]models.Course, int, error) {
	var courses []models.Course
	total, err := r.list(ctx, &courses, "courses", courseColumns, "code", []string{"code", "title"}, filter)
	return courses, total, err
}

// ListEmployees searches employees by number or name.
func (r *ReferenceRepository) ListEmployees(ctx context.Context, filter models.ReferenceFilter) ([]models.Employee, int, error) {
	var employees []models.Employee
	total, err := r.list(ctx, &employees, "employees", employeeColumns, "full_name", []string{"employee_no", "full_name"}, filter)
	return employees, total, err
}

// ListRooms searches rooms by building or name.
func (r *ReferenceRepository) ListRooms(ctx context.Context, filter models.ReferenceFilter) ([]models.Room, int, error) {
	var rooms []models.Room
	total, err := r.list(ctx, &rooms, "rooms", roomColumns, "name", []string{"building", "name"}, filter)
	return rooms, total, err
}

func (r *ReferenceRepository) list(ctx context.Context, dest interface{}, table, columns, orderBy string, searchable []string, filter models.ReferenceFilter) (int, error) {
	var where whereBuilder
	if filter.CampusID != "" {
		where.add("campus_id = $%d", filter.CampusID)
	}
	if filter.Search != "" {
		where.args = append(where.args, "%"+strings.ToLower(filter.Search)+"%")
		ors := make([]string, len(searchable))
		for i, col := range searchable {
			ors[i] = fmt.Sprintf("LOWER(%s) LIKE $%d", col, len(where.args))
		}
		where.conditions = append(where.conditions, "("+strings.Join(ors, " OR ")+")")
	}
	size, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s ASC LIMIT %d OFFSET %d", columns, table, where.clause(), orderBy, size, offset)
	if err := r.db.SelectContext(ctx, dest, query, where.args...); err != nil {
		return 0, fmt.Errorf("list %s: %w", table, err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM %s%s", table, where.clause()), where.args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return total, nil
}
