package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
	"github.com/jwalitptl/clinicare-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
)

// Response is the envelope of every API answer.
type Response struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const (
	ActorKey  = "actor"
	ClaimsKey = "claims"
)

func NewSuccessResponse(message string, data interface{}) *Response {
	return &Response{Status: true, Message: message, Data: data}
}

func NewErrorResponse(message string) *Response {
	return &Response{Status: false, Message: message}
}

func Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, NewSuccessResponse(message, data))
}

func OK(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusOK, message, data)
}

// RespondError writes the envelope for err. Application errors keep their
// status and message; anything else is logged and answered with a 500.
func RespondError(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok {
		status := appErr.HTTPStatus()
		if status >= http.StatusInternalServerError {
			logError(c, err)
		}
		c.AbortWithStatusJSON(status, NewErrorResponse(appErr.Message))
		return
	}
	logError(c, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, NewErrorResponse(apperrors.PublicMessage(err)))
}

func logError(c *gin.Context, err error) {
	log.Error().
		Err(err).
		Str("request_id", c.GetString("request_id")).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("request failed")
}

// BindJSON decodes the body and answers 400 with field messages on failure.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

// BindQuery is BindJSON for query strings.
func BindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, &Response{
			Status:  false,
			Message: "validation failed",
			Data:    fields,
		})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, NewErrorResponse(fmt.Sprintf("invalid request: %v", err)))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "email":
		return "invalid email format"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	case "weekday":
		return "must be one of mon, tue, wed, thu, fri, sat, sun"
	case "len":
		return "must have exactly " + fe.Param() + " items"
	}
	return fe.Error()
}

// ParamID parses a positive numeric path parameter.
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, NewErrorResponse(fmt.Sprintf("invalid %s", name)))
		return 0, false
	}
	return id, true
}

// QueryID parses an optional numeric query parameter; absent means 0.
func QueryID(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, NewErrorResponse(fmt.Sprintf("invalid %s", name)))
		return 0, false
	}
	return id, true
}

// CurrentActor returns the authenticated caller set by the auth middleware.
func CurrentActor(c *gin.Context) *model.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(*model.Actor); ok {
			return actor
		}
	}
	return nil
}

func CurrentClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// Guard builds the middleware enforcing a permission on a route.
type Guard func(perm rbac.Permission) gin.HandlerFunc
