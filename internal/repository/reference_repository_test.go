package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-sis-api/internal/models"
)

func TestReferenceRepositoryListRoomsSearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, campus_id, building, name, capacity, created_at FROM rooms WHERE campus_id = $1 AND (LOWER(building) LIKE $2 OR LOWER(name) LIKE $2) ORDER BY name ASC LIMIT 20 OFFSET 0")).
		WithArgs("campus-1", "%lab%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "campus_id", "building", "name", "capacity", "created_at"}).
			AddRow("r-1", "campus-1", "Science", "Lab 1", 30, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM rooms WHERE campus_id = $1")).
		WithArgs("campus-1", "%lab%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rooms, total, err := repo.ListRooms(context.Background(), models.ReferenceFilter{CampusID: "campus-1", Search: "Lab"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rooms, 1)
	assert.Equal(t, "Lab 1", rooms[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
