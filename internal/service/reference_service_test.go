package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-sis-api/internal/models"
	appErrors "github.com/noah-isme/campus-sis-api/pkg/errors"
)

type fakeReferenceRepo struct {
	calls map[string]int
	err   error
}

func (f *fakeReferenceRepo) ListCourses(ctx context.Context, filter models.ReferenceFilter) ([]models.Course, int, error) {
	f.calls["courses"]++
	if f.err != nil {
		return nil, 0, f.err
	}
	return []models.Course{{ID: "c1", Code: "CS101", Title: "Programming"}}, 1, nil
}

func (f *fakeReferenceRepo) ListEmployees(ctx context.Context, filter models.ReferenceFilter) ([]models.Employee, int, error) {
	f.calls["employees"]++
	return []models.Employee{{ID: "e1", FullName: "Maria Santos"}}, 1, nil
}

func (f *fakeReferenceRepo) ListRooms(ctx context.Context, filter models.ReferenceFilter) ([]models.Room, int, error) {
	f.calls["rooms"]++
	return []models.Room{{ID: "r1", Building: "Main", Name: "101"}}, 1, nil
}

func TestReferenceServiceCachesPerFilter(t *testing.T) {
	repo := &fakeReferenceRepo{calls: map[string]int{}}
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, zap.NewNop(), true)
	svc := NewReferenceService(repo, cache, time.Minute, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		courses, page, err := svc.ListCourses(ctx, models.ReferenceFilter{CampusID: "main"})
		require.NoError(t, err)
		assert.Equal(t, "CS101", courses[0].Code)
		assert.Equal(t, 1, page.TotalCount)
	}
	assert.Equal(t, 1, repo.calls["courses"])

	_, _, err := svc.ListCourses(ctx, models.ReferenceFilter{CampusID: "north"})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls["courses"])

	rooms, _, err := svc.ListRooms(ctx, models.ReferenceFilter{})
	require.NoError(t, err)
	assert.Equal(t, "101", rooms[0].Name)
	_, _, err = svc.ListEmployees(ctx, models.ReferenceFilter{})
	require.NoError(t, err)

	svc.Invalidate(ctx, "courses")
	_, _, err = svc.ListCourses(ctx, models.ReferenceFilter{CampusID: "main"})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.calls["courses"])

	_, _, err = svc.ListRooms(ctx, models.ReferenceFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls["rooms"], "other kinds stay cached")
}

func TestReferenceServiceLoadError(t *testing.T) {
	repo := &fakeReferenceRepo{calls: map[string]int{}, err: errors.New("db down")}
	svc := NewReferenceService(repo, nil, time.Minute, nil)

	_, _, err := svc.ListCourses(context.Background(), models.ReferenceFilter{})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInternal))
}
