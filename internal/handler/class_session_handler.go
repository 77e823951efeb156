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

type classSessionService interface {
	List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.ClassSession, error)
	Create(ctx context.Context, req service.CreateClassSessionRequest, actor models.Actor) (*models.ClassSession, error)
	Update(ctx context.Context, id string, req service.UpdateClassSessionRequest, actor models.Actor) (*models.ClassSession, error)
	Delete(ctx context.Context, id string, actor models.Actor) error
	CheckAvailability(ctx context.Context, req service.AvailabilityRequest) (*models.AvailabilityReport, error)
	ExportTimetable(ctx context.Context, semesterID, format string) (*service.TimetableFile, error)
}

// ClassSessionHandler exposes class scheduling endpoints.
type ClassSessionHandler struct {
	sessions classSessionService
}

// NewClassSessionHandler constructs ClassSessionHandler.
func NewClassSessionHandler(sessions classSessionService) *ClassSessionHandler {
	return &ClassSessionHandler{sessions: sessions}
}

// List godoc
// @Summary List class sessions
// @Tags ClassSessions
// @Produce json
// @Param semesterId query string false "Filter by semester"
// @Param roomId query string false "Filter by room"
// @Param instructorId query string false "Filter by instructor"
// @Param courseId query string false "Filter by course"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /class-sessions [get]
func (h *ClassSessionHandler) List(c *gin.Context) {
	filter := models.ClassSessionFilter{
		SemesterID:   c.Query("semesterId"),
		RoomID:       c.Query("roomId"),
		InstructorID: c.Query("instructorId"),
		CourseID:     c.Query("courseId"),
		Active:       boolQuery(c, "active"),
		SortBy:       c.Query("sort"),
		SortOrder:    c.Query("order"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	sessions, pagination, err := h.sessions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// Get godoc
// @Summary Get class session
// @Tags ClassSessions
// @Produce json
// @Param id path string true "Class session ID"
// @Success 200 {object} response.Envelope
// @Router /class-sessions/{id} [get]
func (h *ClassSessionHandler) Get(c *gin.Context) {
	session, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

// Create godoc
// @Summary Schedule a class session
// @Description Rejects duplicate names, inactive semesters, invalid times and room or instructor conflicts.
// @Tags ClassSessions
// @Accept json
// @Produce json
// @Param payload body service.CreateClassSessionRequest true "Class session payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /class-sessions [post]
func (h *ClassSessionHandler) Create(c *gin.Context) {
	var req service.CreateClassSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.sessions.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Update godoc
// @Summary Update a class session
// @Tags ClassSessions
// @Accept json
// @Produce json
// @Param id path string true "Class session ID"
// @Param payload body service.UpdateClassSessionRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /class-sessions/{id} [patch]
func (h *ClassSessionHandler) Update(c *gin.Context) {
	var req service.UpdateClassSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.sessions.Update(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

// Delete godoc
// @Summary Soft delete a class session
// @Tags ClassSessions
// @Param id path string true "Class session ID"
// @Success 204
// @Router /class-sessions/{id} [delete]
func (h *ClassSessionHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Availability godoc
// @Summary Check a slot for conflicts without booking it
// @Tags ClassSessions
// @Accept json
// @Produce json
// @Param payload body service.AvailabilityRequest true "Slot"
// @Success 200 {object} response.Envelope
// @Router /class-sessions/availability [post]
func (h *ClassSessionHandler) Availability(c *gin.Context) {
	var req service.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.sessions.CheckAvailability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// Timetable godoc
// @Summary Download a semester timetable
// @Tags ClassSessions
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Semester ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /semesters/{id}/timetable [get]
func (h *ClassSessionHandler) Timetable(c *gin.Context) {
	file, err := h.sessions.ExportTimetable(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
