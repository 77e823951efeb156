package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-sis-api/internal/models"
	appErrors "github.com/noah-isme/campus-sis-api/pkg/errors"
)

const semesterCachePattern = "reference:semesters:*"

type semesterRepository interface {
	List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error)
	FindByID(ctx context.Context, id string) (*models.Semester, error)
	FindActive(ctx context.Context) (*models.Semester, error)
	Create(ctx context.Context, semester *models.Semester) error
	Activate(ctx context.Context, exec sqlx.ExtContext, id string) error
}

// CreateSemesterRequest describes the payload for creating a semester.
type CreateSemesterRequest struct {
	CampusID   string `json:"campus_id" validate:"required"`
	Name       string `json:"name" validate:"required,max=80"`
	SchoolYear string `json:"school_year" validate:"required,max=20"`
}

// SemesterService manages semesters and the single active flag.
type SemesterService struct {
	repo      semesterRepository
	audit     auditWriter
	tx        txRunner
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService creates a new semester service instance.
func NewSemesterService(repo semesterRepository, audit auditWriter, tx txRunner, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{repo: repo, audit: audit, tx: tx, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

type semesterPage struct {
	Items []models.Semester `json:"items"`
	Total int               `json:"total"`
}

// List returns semesters, served from the reference cache when possible.
func (s *SemesterService) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, *models.Pagination, error) {
	active := ""
	if filter.IsActive != nil {
		active = fmt.Sprintf("%t", *filter.IsActive)
	}
	key := fmt.Sprintf("reference:semesters:%s:%s:%s:%d:%d:%s:%s", filter.CampusID, filter.SchoolYear, active, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
	page, err := Remember(ctx, s.cache, key, s.cacheTTL, func(ctx context.Context) (semesterPage, error) {
		items, total, err := s.repo.List(ctx, filter)
		return semesterPage{Items: items, Total: total}, err
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	return page.Items, pagination(filter.Page, filter.PageSize, page.Total), nil
}

// Get returns a semester by id.
func (s *SemesterService) Get(ctx context.Context, id string) (*models.Semester, error) {
	semester, err := s.repo.FindByID(ctx, id)
	if err := lookupError(err, "semester", id); err != nil {
		return nil, err
	}
	return semester, nil
}

// Active returns the active semester, NOT_FOUND when none is active.
func (s *SemesterService) Active(ctx context.Context) (*models.Semester, error) {
	semester, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active semester")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active semester")
	}
	return semester, nil
}

// Create adds an inactive semester.
func (s *SemesterService) Create(ctx context.Context, req CreateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	semester := &models.Semester{
		CampusID:   req.CampusID,
		Name:       strings.TrimSpace(req.Name),
		SchoolYear: strings.TrimSpace(req.SchoolYear),
	}
	if err := s.repo.Create(ctx, semester); err != nil {
		return nil, appErrors.Persistence(err, "failed to create semester")
	}
	s.cache.Invalidate(ctx, semesterCachePattern)
	return semester, nil
}

// Activate makes id the only active semester.
func (s *SemesterService) Activate(ctx context.Context, id string, actor models.Actor) (*models.Semester, error) {
	semester, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if semester.IsActive {
		return semester, nil
	}

	var previousID *string
	if prev, err := s.repo.FindActive(ctx); err == nil {
		previousID = &prev.ID
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active semester")
	}

	err = s.tx.WithTx(ctx, func(tx sqlx.ExtContext) error {
		if err := s.repo.Activate(ctx, tx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("semester %s not found", id))
			}
			return appErrors.Persistence(err, "failed to activate semester")
		}
		entry, err := newAuditLog(actor, models.AuditActionSemesterActivate, models.AuditResourceSemester, id,
			map[string]interface{}{"active_semester_id": previousID},
			map[string]interface{}{"active_semester_id": id})
		if err != nil {
			return appErrors.Persistence(err, "failed to encode audit record")
		}
		if err := s.audit.Create(ctx, tx, entry); err != nil {
			return appErrors.Persistence(err, "failed to write audit record")
		}
		return nil
	})
	if err != nil {
		return nil, asPersistence(err, "failed to activate semester")
	}

	s.cache.Invalidate(ctx, semesterCachePattern)
	s.cache.Invalidate(ctx, statsCachePattern)
	s.logger.Info("semester activated", zap.String("semester_id", id), zap.String("actor", actor.UserID))
	semester.IsActive = true
	return semester, nil
}
