package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-sis-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var classSessionRowColumns = []string{"id", "course_id", "semester_id", "instructor_id", "room_id", "name", "days", "start_time", "end_time", "is_active", "is_deleted", "created_at", "updated_at"}

func TestClassSessionRepositoryListForRoomParsesDays(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(classSessionRowColumns).
		AddRow("cs-1", "c-1", "s-1", "i-1", "r-1", "ALG-A", "{MON,WED}", "09:00:00", "10:00:00", true, false, now, now).
		AddRow("cs-2", "c-2", "s-1", "i-2", "r-1", "LEGACY", `["Monday","Blursday"]`, "11:00:00", "12:00:00", true, false, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_sessions WHERE semester_id = $1 AND room_id = $2 AND is_deleted = FALSE AND id <> $3")).
		WithArgs("s-1", "r-1", "cs-9").
		WillReturnRows(rows)

	sessions, err := repo.ListForRoom(context.Background(), nil, "s-1", "r-1", "cs-9")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, models.NewWeekdaySet(models.Monday, models.Wednesday), sessions[0].Days)
	assert.Equal(t, models.MustTimeOfDay("09:00"), sessions[0].StartTime)
	assert.True(t, sessions[1].Days.Empty(), "malformed day list scans as empty set")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryListForInstructorWithoutExclusion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM class_sessions WHERE semester_id = $1 AND instructor_id = $2 AND is_deleted = FALSE")).
		WithArgs("s-1", "i-1").
		WillReturnRows(sqlmock.NewRows(classSessionRowColumns))

	sessions, err := repo.ListForInstructor(context.Background(), nil, "s-1", "i-1", "")
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryExistsByName(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM class_sessions WHERE name = $1 AND is_deleted = FALSE LIMIT 1")).
		WithArgs("ALG-A").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByName(context.Background(), nil, "ALG-A", "")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryFindByIDForUpdateLocksRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_sessions WHERE id = $1 AND is_deleted = FALSE FOR UPDATE")).
		WithArgs("cs-1").
		WillReturnRows(sqlmock.NewRows(classSessionRowColumns).
			AddRow("cs-1", "c-1", "s-1", "i-1", "r-1", "ALG-A", "{TUE}", "13:00:00", "14:30:00", true, false, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM class_sessions WHERE name = $1 AND is_deleted = FALSE AND id <> $2 LIMIT 1")).
		WithArgs("ALG-B", "cs-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	session, err := repo.FindByIDForUpdate(context.Background(), tx, "cs-1")
	require.NoError(t, err)
	assert.Equal(t, models.NewWeekdaySet(models.Tuesday), session.Days)
	assert.Equal(t, models.MustTimeOfDay("14:30"), session.EndTime)

	exists, err := repo.ExistsByName(context.Background(), tx, "ALG-B", "cs-1")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryCreateInsideTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_sessions")).
		WithArgs(sqlmock.AnyArg(), "c-1", "s-1", "i-1", "r-1", "ALG-A", `{"MON","WED"}`, "09:00:00", "10:00:00", true, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	session := &models.ClassSession{
		CourseID: "c-1", SemesterID: "s-1", InstructorID: "i-1", RoomID: "r-1", Name: "ALG-A",
		Days:      models.NewWeekdaySet(models.Monday, models.Wednesday),
		StartTime: models.MustTimeOfDay("09:00"), EndTime: models.MustTimeOfDay("10:00"),
		IsActive: true,
	}
	require.NoError(t, repo.Create(context.Background(), tx, session))
	require.NoError(t, tx.Commit())
	assert.NotEmpty(t, session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositorySoftDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_sessions SET is_deleted = TRUE")).
		WithArgs("cs-404", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDelete(context.Background(), nil, "cs-404")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryListPaginates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	now := time.Now()
	cols := append(append([]string{}, classSessionRowColumns...), "course_code", "course_title", "instructor_name", "room_name")
	mock.ExpectQuery(`WHERE cs.is_deleted = FALSE AND cs.semester_id = \$1 ORDER BY cs.name ASC LIMIT 10 OFFSET 10`).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("cs-1", "c-1", "s-1", "i-1", "r-1", "ALG-A", "{TUE}", "08:00:00", "09:30:00", true, false, now, now, "MATH101", "Algebra", "Ada", "R1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM class_sessions cs")).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	list, total, err := repo.List(context.Background(), models.ClassSessionFilter{SemesterID: "s-1", Page: 2, PageSize: 10, SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, list, 1)
	assert.Equal(t, "MATH101", list[0].CourseCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}
