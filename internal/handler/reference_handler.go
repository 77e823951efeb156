package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-sis-api/internal/models"
	"github.com/noah-isme/campus-sis-api/internal/service"
	"github.com/noah-isme/campus-sis-api/pkg/response"
)

// ReferenceHandler serves cached lookup lists.
type ReferenceHandler struct {
	reference *service.ReferenceService
}

// NewReferenceHandler constructs ReferenceHandler.
func NewReferenceHandler(reference *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{reference: reference}
}

func referenceFilter(c *gin.Context) models.ReferenceFilter {
	filter := models.ReferenceFilter{CampusID: c.Query("campusId"), Search: c.Query("q")}
	filter.Page, filter.PageSize = pageParams(c)
	return filter
}

// Courses godoc
// @Summary List courses
// @Tags Reference
// @Produce json
// @Param campusId query string false "Campus"
// @Param q query string false "Search"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *ReferenceHandler) Courses(c *gin.Context) {
	items, pagination, err := h.reference.ListCourses(c.Request.Context(), referenceFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Rooms godoc
// @Summary List rooms
// @Tags Reference
// @Produce json
// @Param campusId query string false "Campus"
// @Param q query string false "Search"
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *ReferenceHandler) Rooms(c *gin.Context) {
	items, pagination, err := h.reference.ListRooms(c.Request.Context(), referenceFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Employees godoc
// @Summary List employees
// @Tags Reference
// @Produce json
// @Param campusId query string false "Campus"
// @Param q query string false "Search"
// @Success 200 {object} response.Envelope
// @Router /employees [get]
func (h *ReferenceHandler) Employees(c *gin.Context) {
	items, pagination, err := h.reference.ListEmployees(c.Request.Context(), referenceFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}
