package clinic

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinicare-api/internal/handler"
	"github.com/jwalitptl/clinicare-api/internal/model"
	clinicService "github.com/jwalitptl/clinicare-api/internal/service/clinic"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
)

type Handler struct {
	service clinicService.ClinicServicer
}

func NewHandler(service clinicService.ClinicServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard handler.Guard) {
	clinics := r.Group("/clinics")
	{
		clinics.GET("", guard(rbac.PermClinicRead), h.ListClinics)
		clinics.POST("", guard(rbac.PermClinicAdmin), h.CreateClinic)
		clinics.GET("/export", guard(rbac.PermClinicRead), h.ExportClinics)
		clinics.POST("/bulk-delete", guard(rbac.PermClinicAdmin), h.BulkDelete)
		clinics.POST("/bulk-status", guard(rbac.PermClinicAdmin), h.BulkStatus)
		clinics.GET("/:id", guard(rbac.PermClinicRead), h.GetClinic)
		clinics.PUT("/:id", guard(rbac.PermClinicWrite), h.UpdateClinic)
		clinics.DELETE("/:id", guard(rbac.PermClinicAdmin), h.DeleteClinic)
	}
}

func (h *Handler) CreateClinic(c *gin.Context) {
	var req model.ClinicRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	clinic, err := h.service.CreateClinic(c.Request.Context(), handler.CurrentActor(c), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.Success(c, http.StatusCreated, "Clinic created", clinic)
}

func (h *Handler) GetClinic(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	clinic, err := h.service.GetClinic(c.Request.Context(), handler.CurrentActor(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Clinic found", clinic)
}

func (h *Handler) UpdateClinic(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.ClinicRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	clinic, err := h.service.UpdateClinic(c.Request.Context(), handler.CurrentActor(c), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Clinic updated", clinic)
}

func (h *Handler) DeleteClinic(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteClinic(c.Request.Context(), handler.CurrentActor(c), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Clinic deleted", nil)
}

func (h *Handler) ListClinics(c *gin.Context) {
	var filters model.ClinicFilters
	if !handler.BindQuery(c, &filters) {
		return
	}
	page, err := h.service.ListClinics(c.Request.Context(), handler.CurrentActor(c), &filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Clinics retrieved", page)
}

func (h *Handler) ExportClinics(c *gin.Context) {
	var filters model.ClinicFilters
	if !handler.BindQuery(c, &filters) {
		return
	}
	export, err := h.service.ExportClinics(c.Request.Context(), handler.CurrentActor(c), &filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Clinics exported", export)
}

func (h *Handler) BulkDelete(c *gin.Context) {
	var req model.BulkIDsRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	result := h.service.BulkDelete(c.Request.Context(), handler.CurrentActor(c), req.IDs)
	handler.OK(c, "Bulk delete completed", result)
}

func (h *Handler) BulkStatus(c *gin.Context) {
	var req model.BulkStatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	result, err := h.service.BulkUpdateStatus(c.Request.Context(), handler.CurrentActor(c), req.IDs, *req.Status)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Bulk status update completed", result)
}
