package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-sis-api/internal/models"
	appErrors "github.com/noah-isme/campus-sis-api/pkg/errors"
)

const (
	statsSnapshotKey  = "stats:snapshot"
	statsCachePattern = "stats:*"
	statsRefreshLimit = 2 * time.Minute
)

type statsRepository interface {
	DepartmentCounts(ctx context.Context) ([]models.DepartmentCount, error)
	EnrollmentSummary(ctx context.Context, semesterID string) (*models.EnrollmentSummary, error)
}

type activeSemesterReader interface {
	FindActive(ctx context.Context) (*models.Semester, error)
}

// StatsService keeps a timestamped statistics snapshot in the cache. A cron
// schedule refreshes it; readers pull the latest snapshot on demand.
type StatsService struct {
	repo      statsRepository
	semesters activeSemesterReader
	cache     *CacheService
	ttl       time.Duration
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewStatsService constructs the service.
func NewStatsService(repo statsRepository, semesters activeSemesterReader, cache *CacheService, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &StatsService{
		repo:      repo,
		semesters: semesters,
		cache:     cache,
		ttl:       ttl,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Refresh recomputes the snapshot from the database and stores it.
func (s *StatsService) Refresh(ctx context.Context) (*models.StatsSnapshot, error) {
	snapshot, err := s.compute(ctx, "refresh")
	s.metrics.RecordStatsRefresh(err, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh statistics")
	}
	s.cache.Set(ctx, statsSnapshotKey, snapshot, s.ttl)
	return snapshot, nil
}

// Snapshot returns the cached snapshot or computes a live one when none is stored.
func (s *StatsService) Snapshot(ctx context.Context) (*models.StatsSnapshot, error) {
	var cached models.StatsSnapshot
	if s.cache.Get(ctx, statsSnapshotKey, &cached) {
		cached.Source = "cache"
		return &cached, nil
	}
	snapshot, err := s.compute(ctx, "live")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute statistics")
	}
	return snapshot, nil
}

// Start schedules periodic refreshes. An empty spec disables the job.
func (s *StatsService) Start(spec string) error {
	if spec == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, s.runScheduled); err != nil {
		return fmt.Errorf("schedule stats refresh %q: %w", spec, err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("stats refresh scheduled", zap.String("spec", spec))
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (s *StatsService) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("stats refresh stopped")
}

func (s *StatsService) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), statsRefreshLimit)
	defer cancel()
	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Warn("scheduled stats refresh failed", zap.Error(err))
	}
}

func (s *StatsService) compute(ctx context.Context, source string) (*models.StatsSnapshot, error) {
	departments, err := s.repo.DepartmentCounts(ctx)
	if err != nil {
		return nil, err
	}
	if departments == nil {
		departments = []models.DepartmentCount{}
	}
	snapshot := &models.StatsSnapshot{Departments: departments, GeneratedAt: s.now(), Source: source}

	active, err := s.semesters.FindActive(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return snapshot, nil
	case err != nil:
		return nil, err
	}
	summary, err := s.repo.EnrollmentSummary(ctx, active.ID)
	if err != nil {
		return nil, err
	}
	snapshot.Enrollment = summary
	return snapshot, nil
}
