package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"github.com/yungbote/classroom-backend/internal/http/response"
)

// paramID parses a uuid path param, answering 400 itself on failure.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), errors.New("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return false
	}
	return true
}

type completionChangeJSON struct {
	UserID    uuid.UUID `json:"user_id"`
	CourseID  uuid.UUID `json:"course_id"`
	Completed bool      `json:"completed"`
}

func completionChanges(in []domainagg.CompletionChange) []completionChangeJSON {
	out := make([]completionChangeJSON, 0, len(in))
	for _, ch := range in {
		out = append(out, completionChangeJSON{UserID: ch.UserID, CourseID: ch.CourseID, Completed: ch.Completed})
	}
	return out
}
