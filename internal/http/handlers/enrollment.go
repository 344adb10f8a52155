package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/classroom-backend/internal/http/response"
	"github.com/yungbote/classroom-backend/internal/services"
)

type EnrollmentHandler struct {
	enrollments services.EnrollmentService
	progress    services.ProgressService
}

func NewEnrollmentHandler(enrollments services.EnrollmentService, progress services.ProgressService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, progress: progress}
}

// POST /api/courses/:id/enroll
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.enrollments.Enroll(c.Request.Context(), courseID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	status := http.StatusCreated
	if res.Reactivated {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"enrollment": res.Enrollment, "reactivated": res.Reactivated})
}

type enrollmentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PATCH /api/enrollments/:id
func (h *EnrollmentHandler) SetStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req enrollmentStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.enrollments.SetEnrollmentStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"enrollment": enrollment})
}

// GET /api/courses/:id/progress[?user_id=]
func (h *EnrollmentHandler) GetCourseProgress(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID := uuid.Nil
	if raw := c.Query("user_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "validation", err)
			return
		}
		userID = parsed
	}
	view, err := h.progress.GetCourseProgress(c.Request.Context(), courseID, userID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, view)
}
