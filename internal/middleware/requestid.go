package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	HeaderXRequestID = "X-Request-ID"
	ContextRequestID = "request_id"
)

// RequestID tags every request with an id, taken from X-Request-ID when the
// client sent one. The id is echoed back and attached to a request-scoped
// logger so services logging through log.Ctx carry it too.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ContextRequestID, rid)
		c.Header(HeaderXRequestID, rid)

		scoped := log.With().Str(ContextRequestID, rid).Logger()
		c.Request = c.Request.WithContext(scoped.WithContext(c.Request.Context()))
		c.Next()
	}
}
