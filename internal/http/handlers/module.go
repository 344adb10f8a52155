package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/classroom-backend/internal/http/response"
	"github.com/yungbote/classroom-backend/internal/services"
)

type ModuleHandler struct {
	structure services.StructureService
	progress  services.ProgressService
}

func NewModuleHandler(structure services.StructureService, progress services.ProgressService) *ModuleHandler {
	return &ModuleHandler{structure: structure, progress: progress}
}

// PATCH /api/modules/:id
func (h *ModuleHandler) UpdateModule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateModuleRequest
	if !bindJSON(c, &req) {
		return
	}
	module, err := h.structure.UpdateModule(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"module": module})
}

type moveModuleBody struct {
	TargetCourseID *uuid.UUID `json:"target_course_id"`
	Position       *int       `json:"position" binding:"required"`
}

// POST /api/modules/:id/move
func (h *ModuleHandler) MoveModule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body moveModuleBody
	if !bindJSON(c, &body) {
		return
	}
	res, err := h.structure.MoveModule(c.Request.Context(), id, services.MoveModuleRequest{
		TargetCourseID: body.TargetCourseID,
		Position:       *body.Position,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"module":           res.Module,
		"source_course_id": res.SourceCourseID,
		"from_position":    res.FromPosition,
		"moved":            res.Moved,
		"recalculated":     completionChanges(res.Recalculated),
	})
}

// POST /api/modules/:id/publish
func (h *ModuleHandler) SetPublished(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req publishRequest
	if !bindJSON(c, &req) {
		return
	}
	module, err := h.structure.SetModulePublished(c.Request.Context(), id, *req.Published)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"module": module})
}

// DELETE /api/modules/:id
func (h *ModuleHandler) DeleteModule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := h.structure.DeleteModule(c.Request.Context(), id); err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondNoContent(c)
}

type completeRequest struct {
	Completed *bool `json:"completed"`
}

// POST /api/modules/:id/complete
// An empty body marks the module complete.
func (h *ModuleHandler) MarkComplete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req completeRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}
	res, err := h.progress.MarkModuleComplete(c.Request.Context(), id, completed)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"progress": res.Progress,
		"course_completion": gin.H{
			"course_id":    res.CourseID,
			"percentage":   res.Course.Summary.Percentage,
			"done":         res.Course.Summary.Done,
			"total":        res.Course.Summary.Total,
			"completed":    res.Course.Summary.Completed,
			"completed_at": res.Course.CompletedAt,
		},
	})
}

// POST /api/modules/:id/access
func (h *ModuleHandler) TouchModule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.progress.TouchModule(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": res.Progress, "created": res.Created})
}
