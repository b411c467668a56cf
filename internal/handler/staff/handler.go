package staff

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinicare-api/internal/handler"
	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
	"github.com/jwalitptl/clinicare-api/internal/service/staff"
)

// Handler serves one staff role. The router mounts one instance for
// receptionists and one for doctors.
type Handler struct {
	service   staff.StaffServicer
	role      model.Role
	path      string
	readPerm  rbac.Permission
	writePerm rbac.Permission
	label     string
}

func NewReceptionistHandler(service staff.StaffServicer) *Handler {
	return &Handler{
		service:   service,
		role:      model.RoleReceptionist,
		path:      "/receptionists",
		readPerm:  rbac.PermReceptionistRead,
		writePerm: rbac.PermReceptionistWrite,
		label:     "Receptionist",
	}
}

func NewDoctorHandler(service staff.StaffServicer) *Handler {
	return &Handler{
		service:   service,
		role:      model.RoleDoctor,
		path:      "/doctors",
		readPerm:  rbac.PermDoctorRead,
		writePerm: rbac.PermDoctorWrite,
		label:     "Doctor",
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard handler.Guard) {
	g := r.Group(h.path)
	{
		g.GET("", guard(h.readPerm), h.List)
		g.POST("", guard(h.writePerm), h.Create)
		g.GET("/export", guard(h.readPerm), h.Export)
		g.POST("/bulk-delete", guard(h.writePerm), h.BulkDelete)
		g.GET("/:id", guard(h.readPerm), h.Get)
		g.PUT("/:id", guard(h.writePerm), h.Update)
		g.DELETE("/:id", guard(h.writePerm), h.Delete)
		g.POST("/:id/status", guard(h.writePerm), h.UpdateStatus)
		g.POST("/:id/resend-credentials", guard(h.writePerm), h.ResendCredentials)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.StaffRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	s, err := h.service.Create(c.Request.Context(), handler.CurrentActor(c), h.role, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.Success(c, http.StatusCreated, h.label+" created", s)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	s, err := h.service.Get(c.Request.Context(), handler.CurrentActor(c), h.role, id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, h.label+" found", s)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.StaffFilters
	if !handler.BindQuery(c, &filters) {
		return
	}
	filters.Role = h.role
	page, err := h.service.List(c.Request.Context(), handler.CurrentActor(c), &filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, h.label+"s retrieved", page)
}

func (h *Handler) Export(c *gin.Context) {
	var filters model.StaffFilters
	if !handler.BindQuery(c, &filters) {
		return
	}
	filters.Role = h.role
	export, err := h.service.Export(c.Request.Context(), handler.CurrentActor(c), &filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, h.label+"s exported", export)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateStaffRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	s, err := h.service.Update(c.Request.Context(), handler.CurrentActor(c), h.role, id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, h.label+" updated", s)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.StaffStatusRequest
	if c.Request.ContentLength != 0 && !handler.BindJSON(c, &req) {
		return
	}
	s, err := h.service.UpdateStatus(c.Request.Context(), handler.CurrentActor(c), h.role, id, req.Status)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, h.label+" status updated", s)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), handler.CurrentActor(c), h.role, id); err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, h.label+" deleted", nil)
}

func (h *Handler) BulkDelete(c *gin.Context) {
	var req model.BulkIDsRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	result := h.service.BulkDelete(c.Request.Context(), handler.CurrentActor(c), h.role, req.IDs)
	handler.OK(c, "Bulk delete completed", result)
}

func (h *Handler) ResendCredentials(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.ResendCredentials(c.Request.Context(), handler.CurrentActor(c), h.role, id); err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Credentials sent", nil)
}
