package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/log"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/response"
)

var statusByCode = map[string]int{
	domain.ErrCodeUnauthorized:       http.StatusUnauthorized,
	domain.ErrCodeNotAuthorized:      http.StatusForbidden,
	domain.ErrCodeNotAMember:         http.StatusForbidden,
	domain.ErrCodeRoomNotFound:       http.StatusNotFound,
	domain.ErrCodeBadRequest:         http.StatusBadRequest,
	domain.ErrCodeEmptyBody:          http.StatusBadRequest,
	domain.ErrCodeBodyTooLong:        http.StatusBadRequest,
	domain.ErrCodePersistenceTimeout: http.StatusServiceUnavailable,
	domain.ErrCodePersistenceFailure: http.StatusServiceUnavailable,
}

// writeError maps a service error onto an HTTP response. Unmapped errors are
// logged and reported without their text.
func writeError(c *gin.Context, err error, action string) {
	code := domain.ErrorCode(err)
	if status, ok := statusByCode[code]; ok {
		response.Fail(c, status, code, err.Error())
		return
	}

	l := log.Ctx(c.Request.Context())
	l.Error().Err(err).Msg("failed to " + action)
	response.Fail(c, http.StatusInternalServerError, response.CodeInternal, "failed to "+action)
}
