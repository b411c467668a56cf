package encounter

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinicare-api/internal/handler"
	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/service/encounter"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
)

type Handler struct {
	service encounter.EncounterServicer
}

func NewHandler(service encounter.EncounterServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard handler.Guard) {
	encounters := r.Group("/encounters")
	{
		encounters.GET("", guard(rbac.PermEncounterRead), h.List)
		encounters.POST("", guard(rbac.PermEncounterWrite), h.Create)
		encounters.GET("/export", guard(rbac.PermEncounterRead), h.Export)
		encounters.GET("/:id", guard(rbac.PermEncounterRead), h.Get)
		encounters.PUT("/:id", guard(rbac.PermEncounterWrite), h.Update)
		encounters.DELETE("/:id", guard(rbac.PermEncounterWrite), h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.EncounterRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	enc, err := h.service.Create(c.Request.Context(), handler.CurrentActor(c), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.Success(c, http.StatusCreated, "Encounter created", enc)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	enc, err := h.service.Get(c.Request.Context(), handler.CurrentActor(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Encounter found", enc)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.EncounterFilters
	if !handler.BindQuery(c, &filters) {
		return
	}
	page, err := h.service.List(c.Request.Context(), handler.CurrentActor(c), &filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Encounters retrieved", page)
}

func (h *Handler) Export(c *gin.Context) {
	var filters model.EncounterFilters
	if !handler.BindQuery(c, &filters) {
		return
	}
	export, err := h.service.Export(c.Request.Context(), handler.CurrentActor(c), &filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	message := "Encounters exported"
	if len(export.Encounters) == 0 {
		message = "No encounters found"
	}
	handler.OK(c, message, export)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateEncounterRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	enc, err := h.service.Update(c.Request.Context(), handler.CurrentActor(c), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Encounter updated", enc)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), handler.CurrentActor(c), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Encounter deleted", nil)
}
