package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"github.com/yungbote/classroom-backend/internal/platform/apierr"
)

// retryAfterSeconds is advertised on transient persistence failures.
const retryAfterSeconds = "1"

// StatusForCode is the single mapping from domain error codes to HTTP statuses.
func StatusForCode(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeNotEnrolled:
		return http.StatusForbidden
	case domainagg.CodeModuleNotPublished, domainagg.CodeConflict:
		return http.StatusConflict
	case domainagg.CodePreconditionFailed:
		return http.StatusPreconditionFailed
	case domainagg.CodePersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondAggregateError writes any service error. Internal and invariant
// failures hide their cause from the client.
func RespondAggregateError(c *gin.Context, err error) {
	if err == nil {
		RespondError(c, http.StatusInternalServerError, string(domainagg.CodeInternal), errors.New("unknown error"))
		return
	}
	if ae, ok := apierr.As(err); ok {
		RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeInternal
	}
	_ = c.Error(err)
	status := StatusForCode(code)
	switch code {
	case domainagg.CodeInternal, domainagg.CodeInvariantViolation:
		RespondError(c, status, string(code), errors.New(http.StatusText(status)))
		return
	case domainagg.CodePersistence:
		if domainagg.IsRetryable(err) {
			c.Header("Retry-After", retryAfterSeconds)
		}
		RespondError(c, status, string(code), errors.New("temporarily unavailable, retry"))
		return
	}
	RespondError(c, status, string(code), messageOf(err))
}

func messageOf(err error) error {
	var de *domainagg.Error
	if errors.As(err, &de) && de.Message != "" {
		return errors.New(de.Message)
	}
	return err
}
