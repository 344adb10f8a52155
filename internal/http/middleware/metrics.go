package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/classroom-backend/internal/observability"
)

// Metrics records request count and latency per route template. Event
// streams are counted but kept out of the latency histogram since they live
// for the whole connection.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		m.ApiInflightInc()
		c.Next()
		m.ApiInflightDec()

		dur := time.Since(start)
		if strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/event-stream") {
			dur = 0
		}
		m.ObserveAPI(c.Request.Method, c.FullPath(), strconv.Itoa(c.Writer.Status()), dur)
	}
}
