package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/onlinetravel/internal/models"
)

// ContextShareCache is set by the share handler to "hit" or "miss".
const ContextShareCache = "shareCache"

// RequestLogger writes one entry per request. Share lookups carry the
// requesting user, the owner of the shared trip, the entity kind named by the
// query and whether the share cache answered. Responses of 5xx log at Error,
// 4xx at Warn.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status_code", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		msg := "Request"
		if owner := c.Param("uid"); owner != "" {
			msg = "Share request"
			fields = append(fields, zap.String("owner", owner))
			if kind := shareKind(c.Request.URL.RawQuery); kind != "" {
				fields = append(fields, zap.String("kind", string(kind)))
			} else if q := c.Request.URL.RawQuery; q != "" {
				fields = append(fields, zap.String("query", q))
			}
		}
		if requester := c.GetString(ContextUserID); requester != "" {
			fields = append(fields, zap.String("requester", requester))
		}
		if hit := c.GetString(ContextShareCache); hit != "" {
			fields = append(fields, zap.String("share_cache", hit))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("gin_errors", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error(msg, fields...)
		case status >= http.StatusBadRequest:
			logger.Warn(msg, fields...)
		default:
			logger.Info(msg, fields...)
		}
	}
}

func shareKind(query string) models.Kind {
	switch k := models.Kind(query); k {
	case models.KindTrip, models.KindDestination, models.KindNote:
		return k
	}
	return ""
}
