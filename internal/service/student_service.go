package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-sis-api/internal/models"
	appErrors "github.com/noah-isme/campus-sis-api/pkg/errors"
)

type studentProfileReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindStanding(ctx context.Context, studentID string) (*models.AcademicStanding, error)
}

// StudentService exposes read access to students and their standing.
type StudentService struct {
	repo   studentProfileReader
	logger *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentProfileReader, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, logger: logger}
}

// Profile returns the student with the standing; a missing standing is not an error.
func (s *StudentService) Profile(ctx context.Context, id string) (*models.StudentProfile, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err := lookupError(err, "student", id); err != nil {
		return nil, err
	}
	standing, err := s.repo.FindStanding(ctx, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		standing = nil
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic standing")
	}
	return &models.StudentProfile{Student: student, Standing: standing}, nil
}
