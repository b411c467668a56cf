package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinicare-api/internal/handler"
	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/service/appointment"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
)

type Handler struct {
	service appointment.AppointmentServicer
}

func NewHandler(service appointment.AppointmentServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard handler.Guard) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("", guard(rbac.PermAppointmentRead), h.List)
		appointments.POST("", guard(rbac.PermAppointmentBook), h.Book)
		appointments.GET("/:id", guard(rbac.PermAppointmentRead), h.Get)
		appointments.PUT("/:id/status", guard(rbac.PermAppointmentRead), h.UpdateStatus)
		appointments.DELETE("/:id", guard(rbac.PermAppointmentManage), h.Delete)
	}
}

func (h *Handler) Book(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	apt, err := h.service.Book(c.Request.Context(), handler.CurrentActor(c), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.Success(c, http.StatusCreated, "Appointment booked", apt)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	apt, err := h.service.Get(c.Request.Context(), handler.CurrentActor(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Appointment found", apt)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.AppointmentFilters
	if !handler.BindQuery(c, &filters) {
		return
	}
	page, err := h.service.List(c.Request.Context(), handler.CurrentActor(c), &filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Appointments retrieved", page)
}

// UpdateStatus is open to every reader; the service narrows patients to
// cancelling their own bookings.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateAppointmentStatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	apt, err := h.service.UpdateStatus(c.Request.Context(), handler.CurrentActor(c), id, req.Status)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Appointment status updated", apt)
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
	handler.OK(c, "Appointment deleted", nil)
}
