package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-sis-api/internal/models"
	appErrors "github.com/noah-isme/campus-sis-api/pkg/errors"
)

type referenceRepository interface {
	ListCourses(ctx context.Context, filter models.ReferenceFilter) ([]models.Course, int, error)
	ListEmployees(ctx context.Context, filter models.ReferenceFilter) ([]models.Employee, int, error)
	ListRooms(ctx context.Context, filter models.ReferenceFilter) ([]models.Room, int, error)
}

type referencePage[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// ReferenceService serves slowly changing lookup lists through a fixed-TTL
// read-through cache. Scheduling decisions never read from it.
type ReferenceService struct {
	repo   referenceRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewReferenceService constructs the service.
func NewReferenceService(repo referenceRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// ListCourses returns catalog courses.
func (s *ReferenceService) ListCourses(ctx context.Context, filter models.ReferenceFilter) ([]models.Course, *models.Pagination, error) {
	return listReference(ctx, s, "courses", filter, s.repo.ListCourses)
}

// ListEmployees returns staff members.
func (s *ReferenceService) ListEmployees(ctx context.Context, filter models.ReferenceFilter) ([]models.Employee, *models.Pagination, error) {
	return listReference(ctx, s, "employees", filter, s.repo.ListEmployees)
}

// ListRooms returns bookable rooms.
func (s *ReferenceService) ListRooms(ctx context.Context, filter models.ReferenceFilter) ([]models.Room, *models.Pagination, error) {
	return listReference(ctx, s, "rooms", filter, s.repo.ListRooms)
}

// Invalidate drops every cached reference list of kind, or all of them when kind is empty.
func (s *ReferenceService) Invalidate(ctx context.Context, kind string) {
	if kind == "" {
		kind = "*"
	}
	s.cache.Invalidate(ctx, fmt.Sprintf("reference:%s:*", kind))
}

func listReference[T any](ctx context.Context, s *ReferenceService, kind string, filter models.ReferenceFilter, load func(context.Context, models.ReferenceFilter) ([]T, int, error)) ([]T, *models.Pagination, error) {
	key := fmt.Sprintf("reference:%s:%s:%s:%d:%d", kind, filter.CampusID, strings.ToLower(strings.TrimSpace(filter.Search)), filter.Page, filter.PageSize)
	page, err := Remember(ctx, s.cache, key, s.ttl, func(ctx context.Context) (referencePage[T], error) {
		items, total, err := load(ctx, filter)
		return referencePage[T]{Items: items, Total: total}, err
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to list %s", kind))
	}
	return page.Items, pagination(filter.Page, filter.PageSize, page.Total), nil
}
