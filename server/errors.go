package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/logging"
	"go.uber.org/zap"
)

var statusByKind = map[string]int{
	"not_authorized":  http.StatusUnauthorized,
	"auth_mismatch":   http.StatusBadRequest,
	"user_cancelled":  http.StatusConflict,
	"not_found":       http.StatusNotFound,
	"too_large":       http.StatusRequestEntityTooLarge,
	"transient":       http.StatusServiceUnavailable,
	"remote_fault":    http.StatusBadGateway,
	"superseded":      http.StatusConflict,
	"config_missing":  http.StatusInternalServerError,
	"no_selection":    http.StatusConflict,
	"invalid_state":   http.StatusConflict,
	"not_a_directory": http.StatusBadRequest,
}

// abort writes err as {error, code}. Pages drop "superseded" responses.
func abort(c *gin.Context, err error) {
	kind := rlerrors.Kind(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	logger := logging.WithContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("code", kind), zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.String("code", kind), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": kind})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "bad_request"})
}
