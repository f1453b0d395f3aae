package httpx

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"geoattend-backend/internal/platform/apierr"
)

// Error renders err as {"error":{...}}. Infrastructure errors are logged
// with the request id and masked.
func Error(c *gin.Context, logger *zap.Logger, err error) {
	status := apierr.ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		logger.Error("unhandled error",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", RequestIDFrom(c)),
		)
	}
	c.AbortWithStatusJSON(status, apierr.Body(err))
}

// BadRequest is used when binding fails before the service is reached.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, apierr.Body(apierr.Invalid(msg)))
}

func abortInternal(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, apierr.Body(apierr.Internal("An unexpected error occurred")))
}

func ParseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}
