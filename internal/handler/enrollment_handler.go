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

type enrollmentService interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentRecord, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.EnrollmentRecord, error)
	Enroll(ctx context.Context, req service.EnrollRequest, actor models.Actor) (*models.EnrollmentResult, error)
	UpdateTrackStatus(ctx context.Context, id string, track models.Track, req service.UpdateTrackRequest, actor models.Actor) (*models.EnrollmentRecord, error)
	ConfirmPayment(ctx context.Context, id string, actor models.Actor) (*models.EnrollmentRecord, error)
	SetFinalApproval(ctx context.Context, id string, req service.FinalApprovalRequest, actor models.Actor) (*models.EnrollmentRecord, error)
}

// EnrollmentHandler exposes enrollment workflow endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List enrollment records
// @Tags Enrollments
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param semesterId query string false "Filter by semester"
// @Param registrarStatus query string false "Filter by registrar track"
// @Param deanStatus query string false "Filter by dean track"
// @Param accountingStatus query string false "Filter by accounting track"
// @Param finalApproved query bool false "Filter by final approval"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := models.EnrollmentFilter{
		StudentID:        c.Query("studentId"),
		SemesterID:       c.Query("semesterId"),
		RegistrarStatus:  models.TrackStatus(c.Query("registrarStatus")),
		DeanStatus:       models.TrackStatus(c.Query("deanStatus")),
		AccountingStatus: models.TrackStatus(c.Query("accountingStatus")),
		FinalApproved:    boolQuery(c, "finalApproved"),
		SortBy:           c.Query("sort"),
		SortOrder:        c.Query("order"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	records, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get enrollment record
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	record, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}

// Create godoc
// @Summary Enroll a student into a semester
// @Description Creates the record, advances the year level and notifies admissions in the background.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.enrollments.Enroll(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// UpdateTrack godoc
// @Summary Move an approval track
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param track path string true "registrar, dean or accounting"
// @Param payload body service.UpdateTrackRequest true "New status"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/tracks/{track} [patch]
func (h *EnrollmentHandler) UpdateTrack(c *gin.Context) {
	track, err := models.ParseTrack(c.Param("track"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return
	}
	var req service.UpdateTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.enrollments.UpdateTrackStatus(c.Request.Context(), c.Param("id"), track, req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}

// ConfirmPayment godoc
// @Summary Confirm the semester payment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/payment [post]
func (h *EnrollmentHandler) ConfirmPayment(c *gin.Context) {
	record, err := h.enrollments.ConfirmPayment(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}

// FinalApproval godoc
// @Summary Set the final approval flag
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.FinalApprovalRequest true "Approval"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /enrollments/{id}/final-approval [post]
func (h *EnrollmentHandler) FinalApproval(c *gin.Context) {
	var req service.FinalApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.enrollments.SetFinalApproval(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}
