package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-sis-api/internal/models"
	"github.com/noah-isme/campus-sis-api/internal/service"
	appErrors "github.com/noah-isme/campus-sis-api/pkg/errors"
	"github.com/noah-isme/campus-sis-api/pkg/response"
)

type semesterService interface {
	List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Semester, error)
	Active(ctx context.Context) (*models.Semester, error)
	Create(ctx context.Context, req service.CreateSemesterRequest) (*models.Semester, error)
	Activate(ctx context.Context, id string, actor models.Actor) (*models.Semester, error)
}

// SemesterHandler exposes semester endpoints.
type SemesterHandler struct {
	semesters semesterService
}

// NewSemesterHandler constructs SemesterHandler.
func NewSemesterHandler(semesters semesterService) *SemesterHandler {
	return &SemesterHandler{semesters: semesters}
}

// List godoc
// @Summary List semesters
// @Tags Semesters
// @Produce json
// @Param campusId query string false "Campus"
// @Param schoolYear query string false "School year"
// @Param active query bool false "Active flag"
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *SemesterHandler) List(c *gin.Context) {
	filter := models.SemesterFilter{
		CampusID:   c.Query("campusId"),
		SchoolYear: c.Query("schoolYear"),
		IsActive:   boolQuery(c, "active"),
		SortBy:     c.Query("sort"),
		SortOrder:  c.Query("order"),
	}
	filter.Page, filter.PageSize = pageParams(c)
	semesters, pagination, err := h.semesters.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters, pagination)
}

// Get godoc
// @Summary Get semester
// @Tags Semesters
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id} [get]
func (h *SemesterHandler) Get(c *gin.Context) {
	semester, err := h.semesters.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, semester)
}

// Active godoc
// @Summary Get the active semester
// @Tags Semesters
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /semesters/active [get]
func (h *SemesterHandler) Active(c *gin.Context) {
	semester, err := h.semesters.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, semester)
}

// Create godoc
// @Summary Create semester
// @Tags Semesters
// @Accept json
// @Produce json
// @Param payload body service.CreateSemesterRequest true "Semester payload"
// @Success 201 {object} response.Envelope
// @Router /semesters [post]
func (h *SemesterHandler) Create(c *gin.Context) {
	var req service.CreateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	semester, err := h.semesters.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// Activate godoc
// @Summary Make a semester the active one
// @Tags Semesters
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id}/activate [post]
func (h *SemesterHandler) Activate(c *gin.Context) {
	semester, err := h.semesters.Activate(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, semester)
}
