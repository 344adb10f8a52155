package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/realtime"
	"github.com/yungbote/classroom-backend/internal/services"
)

// AttachRequestContext gives every request an event outbox. Events queued by
// services are published only when the handler answered with a non-error status.
func AttachRequestContext(log *logger.Logger, emit services.Emitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, box := realtime.WithOutbox(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if c.Writer.Status() >= 400 {
			if dropped := len(box.Drain()); dropped > 0 && log != nil {
				log.Debug("dropping events of failed request", "path", c.FullPath(), "count", dropped)
			}
			return
		}
		if emit != nil {
			services.FlushOutbox(ctx, emit)
		}
	}
}
