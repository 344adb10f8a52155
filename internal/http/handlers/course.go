package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/classroom-backend/internal/http/response"
	"github.com/yungbote/classroom-backend/internal/services"
)

type CourseHandler struct {
	svc services.StructureService
}

func NewCourseHandler(svc services.StructureService) *CourseHandler {
	return &CourseHandler{svc: svc}
}

// POST /api/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req services.CreateCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.svc.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, view)
}

// GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.GetCourse(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, view)
}

type publishRequest struct {
	Published *bool `json:"published" binding:"required"`
}

// POST /api/courses/:id/publish
func (h *CourseHandler) SetPublished(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req publishRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.svc.SetCoursePublished(c.Request.Context(), id, *req.Published)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// DELETE /api/courses/:id
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := h.svc.DeleteCourse(c.Request.Context(), id); err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// GET /api/courses/:id/ordering
func (h *CourseHandler) VerifyOrdering(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	report, err := h.svc.VerifyCourseOrdering(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course_id": report.CourseID, "count": report.Count, "contiguous": true})
}

// GET /api/courses/:id/modules
func (h *CourseHandler) ListModules(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	modules, err := h.svc.ListModules(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"modules": modules})
}

// POST /api/courses/:id/modules
func (h *CourseHandler) CreateModule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.CreateModuleRequest
	if !bindJSON(c, &req) {
		return
	}
	module, err := h.svc.CreateModule(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"module": module})
}
