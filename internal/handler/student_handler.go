package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-sis-api/internal/service"
	"github.com/noah-isme/campus-sis-api/pkg/response"
)

// StudentHandler exposes student lookups.
type StudentHandler struct {
	students *service.StudentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// Get godoc
// @Summary Get student with academic standing
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	profile, err := h.students.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}
