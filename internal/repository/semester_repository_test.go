package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemesterRepositoryActivateDeactivatesOthers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE semesters SET is_active = FALSE, updated_at = $1 WHERE is_active = TRUE AND id <> $2")).
		WithArgs(sqlmock.AnyArg(), "sem-7").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE semesters SET is_active = TRUE, updated_at = $2 WHERE id = $1")).
		WithArgs("sem-7", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.Activate(context.Background(), tx, "sem-7"))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryActivateUnknown(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE semesters SET is_active = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE semesters SET is_active = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Activate(context.Background(), nil, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
