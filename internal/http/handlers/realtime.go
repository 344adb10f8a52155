package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/classroom-backend/internal/http/response"
	"github.com/yungbote/classroom-backend/internal/platform/ctxutil"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/realtime"
	"github.com/yungbote/classroom-backend/internal/services"
)

type RealtimeHandler struct {
	log       *logger.Logger
	hub       *realtime.Hub
	structure services.StructureService
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.Hub, structure services.StructureService) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub, structure: structure}
}

// GET /api/courses/:id/events
// Streams the course channel plus the caller's own channel until disconnect.
func (h *RealtimeHandler) CourseEvents(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	// visibility check: unpublished courses stay hidden from non-managers
	if _, err := h.structure.GetCourse(c.Request.Context(), courseID); err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())

	client := h.hub.NewClient(rd.UserID)
	defer h.hub.Close(client)
	h.hub.Subscribe(client, realtime.CourseChannel(courseID))
	h.hub.Subscribe(client, realtime.UserChannel(rd.UserID))

	h.log.Debug("event stream open", "course_id", courseID, "client_id", client.ID)
	h.hub.Serve(c.Writer, c.Request, client)
	h.log.Debug("event stream closed", "course_id", courseID, "client_id", client.ID)
}
