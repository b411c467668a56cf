package leave

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinicare-api/internal/handler"
	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/service/leave"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
	"github.com/jwalitptl/clinicare-api/internal/service/schedule"
)

type Handler struct {
	service  leave.LeaveServicer
	schedule schedule.ScheduleServicer
}

func NewHandler(service leave.LeaveServicer, scheduleSvc schedule.ScheduleServicer) *Handler {
	return &Handler{service: service, schedule: scheduleSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard handler.Guard) {
	schedules := r.Group("/clinic-schedules")
	{
		schedules.GET("", guard(rbac.PermLeaveRead), h.List)
		schedules.POST("", guard(rbac.PermLeaveWrite), h.Create)
		schedules.GET("/unavailable", guard(rbac.PermLeaveRead), h.Unavailable)
		schedules.POST("/bulk-delete", guard(rbac.PermLeaveWrite), h.BulkDelete)
		schedules.GET("/:id", guard(rbac.PermLeaveRead), h.Get)
		schedules.PUT("/:id", guard(rbac.PermLeaveWrite), h.Update)
		schedules.DELETE("/:id", guard(rbac.PermLeaveWrite), h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.LeaveRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	l, err := h.service.Create(c.Request.Context(), handler.CurrentActor(c), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.Success(c, http.StatusCreated, "Schedule saved", l)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	l, err := h.service.Get(c.Request.Context(), handler.CurrentActor(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Schedule found", l)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.LeaveFilters
	if !handler.BindQuery(c, &filters) {
		return
	}
	page, err := h.service.List(c.Request.Context(), handler.CurrentActor(c), &filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Schedules retrieved", page)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.LeaveRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	l, err := h.service.Update(c.Request.Context(), handler.CurrentActor(c), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Schedule updated", l)
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
	handler.OK(c, "Schedule deleted", nil)
}

func (h *Handler) BulkDelete(c *gin.Context) {
	var req model.BulkIDsRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	result := h.service.BulkDelete(c.Request.Context(), handler.CurrentActor(c), req.IDs)
	handler.OK(c, "Bulk delete completed", result)
}

// Unavailable answers the availability query for ?doctor_id=&clinic_id=.
func (h *Handler) Unavailable(c *gin.Context) {
	doctorID, ok := handler.QueryID(c, "doctor_id")
	if !ok {
		return
	}
	clinicID, ok := handler.QueryID(c, "clinic_id")
	if !ok {
		return
	}
	result, err := h.schedule.Unavailability(c.Request.Context(), handler.CurrentActor(c), doctorID, clinicID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Unavailable dates retrieved", result)
}
