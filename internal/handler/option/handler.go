package option

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinicare-api/internal/handler"
	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/service/option"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
)

type Handler struct {
	service option.OptionServicer
}

func NewHandler(service option.OptionServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard handler.Guard) {
	config := r.Group("/config")
	{
		config.GET("", guard(rbac.PermConfigRead), h.List)
		config.GET("/:key", guard(rbac.PermConfigRead), h.Get)
		config.PUT("/:key", guard(rbac.PermConfigWrite), h.Set)
		config.DELETE("/:key", guard(rbac.PermConfigWrite), h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	options, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Configuration retrieved", options)
}

func (h *Handler) Get(c *gin.Context) {
	opt, err := h.service.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Configuration found", opt)
}

func (h *Handler) Set(c *gin.Context) {
	var req model.OptionRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	opt, err := h.service.Set(c.Request.Context(), handler.CurrentActor(c), c.Param("key"), req.Value)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Configuration saved", opt)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), handler.CurrentActor(c), c.Param("key")); err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Configuration deleted", nil)
}
