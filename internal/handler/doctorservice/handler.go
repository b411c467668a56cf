package doctorservice

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinicare-api/internal/handler"
	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/service/doctorservice"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
)

type Handler struct {
	service doctorservice.DoctorServiceServicer
}

func NewHandler(service doctorservice.DoctorServiceServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard handler.Guard) {
	services := r.Group("/doctor-services")
	{
		services.GET("", guard(rbac.PermServiceRead), h.List)
		services.POST("", guard(rbac.PermServiceWrite), h.Create)
		services.GET("/export", guard(rbac.PermServiceRead), h.Export)
		services.POST("/bulk-delete", guard(rbac.PermServiceWrite), h.BulkDelete)
		services.GET("/:id", guard(rbac.PermServiceRead), h.Get)
		services.PUT("/:id", guard(rbac.PermServiceWrite), h.Update)
		services.DELETE("/:id", guard(rbac.PermServiceWrite), h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.DoctorServiceRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	ds, err := h.service.Create(c.Request.Context(), handler.CurrentActor(c), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.Success(c, http.StatusCreated, "Doctor service created", ds)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	ds, err := h.service.Get(c.Request.Context(), handler.CurrentActor(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Doctor service found", ds)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateDoctorServiceRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	ds, err := h.service.Update(c.Request.Context(), handler.CurrentActor(c), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Doctor service updated", ds)
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
	handler.OK(c, "Doctor service deleted", nil)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.DoctorServiceFilters
	if !handler.BindQuery(c, &filters) {
		return
	}
	page, err := h.service.List(c.Request.Context(), handler.CurrentActor(c), &filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Doctor services retrieved", page)
}

// Export answers status true with an empty services list when nothing matches.
func (h *Handler) Export(c *gin.Context) {
	var filters model.DoctorServiceFilters
	if !handler.BindQuery(c, &filters) {
		return
	}
	export, err := h.service.Export(c.Request.Context(), handler.CurrentActor(c), &filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	message := "Doctor services exported"
	if len(export.Services) == 0 {
		message = "No services found"
	}
	handler.OK(c, message, export)
}

func (h *Handler) BulkDelete(c *gin.Context) {
	var req model.BulkIDsRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	result := h.service.BulkDelete(c.Request.Context(), handler.CurrentActor(c), req.IDs)
	handler.OK(c, "Bulk delete completed", result)
}
