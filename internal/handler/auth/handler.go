package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinicare-api/internal/handler"
	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/service/auth"
)

type Handler struct {
	service auth.AuthServicer
}

func NewHandler(service auth.AuthServicer) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public auth endpoints and the two that need a
// session behind authenticated.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authenticated gin.HandlerFunc) {
	g := r.Group("/auth")
	{
		g.POST("/register", h.Register)
		g.POST("/login", h.Login)
		g.POST("/forgot-password", h.ForgotPassword)
		g.POST("/reset-password", h.ResetPassword)
		g.POST("/logout", authenticated, h.Logout)
		g.GET("/me", authenticated, h.Me)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	token, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.Success(c, http.StatusCreated, "Registration successful", token)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	token, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Login successful", token)
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), handler.CurrentClaims(c)); err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Logged out", nil)
}

// ForgotPassword answers the same way whether or not the email is known.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	if err := h.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "If the account exists a reset link has been sent", nil)
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	if err := h.service.ResetPassword(c.Request.Context(), &req); err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Password has been reset", nil)
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), handler.CurrentActor(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.OK(c, "Profile retrieved", user)
}
