package session

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinicare-api/internal/handler"
	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
	"github.com/jwalitptl/clinicare-api/internal/service/session"
)

type Handler struct {
	service session.SessionServicer
}

func NewHandler(service session.SessionServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard handler.Guard) {
	sessions := r.Group("/doctor-sessions")
	{
		sessions.GET("", guard(rbac.PermSessionRead), h.List)
		sessions.POST("", guard(rbac.PermSessionWrite), h.Create)
		sessions.PUT("/doctors/:doctor_id/clinics/:clinic_id", guard(rbac.PermSessionWrite), h.ReplaceAll)
		sessions.DELETE("/doctors/:doctor_id/clinics/:clinic_id", guard(rbac.PermSessionWrite), h.DeleteAll)
		sessions.GET("/:id", guard(rbac.PermSessionRead), h.Get)
		sessions.PUT("/:id", guard(rbac.PermSessionWrite), h.Update)
		sessions.DELETE("/:id", guard(rbac.PermSessionWrite), h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.SessionScheduleRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	groups, err := h.service.Create(c.Request.Context(), handler.CurrentActor(c), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.Success(c, http.StatusCreated, "Doctor session saved", groups)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.SessionFilters
	if !handler.BindQuery(c, &filters) {
		return
	}
	groups, err := h.service.List(c.Request.Context(), handler.CurrentActor(c), &filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Doctor sessions retrieved", groups)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	group, err := h.service.Get(c.Request.Context(), handler.CurrentActor(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Doctor session found", group)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateSessionRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	group, err := h.service.Update(c.Request.Context(), handler.CurrentActor(c), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Doctor session updated", group)
}

func (h *Handler) ReplaceAll(c *gin.Context) {
	doctorID, ok := handler.ParamID(c, "doctor_id")
	if !ok {
		return
	}
	clinicID, ok := handler.ParamID(c, "clinic_id")
	if !ok {
		return
	}
	var req model.SessionScheduleRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	groups, err := h.service.ReplaceAll(c.Request.Context(), handler.CurrentActor(c), doctorID, clinicID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Doctor sessions replaced", groups)
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
	handler.OK(c, "Doctor session deleted", nil)
}

func (h *Handler) DeleteAll(c *gin.Context) {
	doctorID, ok := handler.ParamID(c, "doctor_id")
	if !ok {
		return
	}
	clinicID, ok := handler.ParamID(c, "clinic_id")
	if !ok {
		return
	}
	n, err := h.service.DeleteAll(c.Request.Context(), handler.CurrentActor(c), doctorID, clinicID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Doctor sessions deleted", gin.H{"deleted": n})
}
