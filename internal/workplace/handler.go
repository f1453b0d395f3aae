package workplace

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"geoattend-backend/internal/platform/httpx"
)

type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// RegisterRoutes mounts the employee-facing read endpoint.
func RegisterRoutes(r gin.IRoutes, svc *Service, logger *zap.Logger) {
	h := &Handler{svc: svc, logger: logger}
	r.GET("/workplace", h.GetPublic)
}

// RegisterAdminRoutes mounts configuration and QR rotation.
func RegisterAdminRoutes(r gin.IRoutes, svc *Service, logger *zap.Logger) {
	h := &Handler{svc: svc, logger: logger}
	r.GET("/workplace", h.Get)
	r.PUT("/workplace", h.Update)
	r.POST("/workplace/qr/rotate", h.RotateQR)
}

// GET /workplace
func (h *Handler) GetPublic(c *gin.Context) {
	w, err := h.svc.Get(c.Request.Context())
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, WorkplaceResponse{Workplace: w.Public()})
}

// GET /admin/workplace
func (h *Handler) Get(c *gin.Context) {
	w, err := h.svc.Get(c.Request.Context())
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, WorkplaceResponse{Workplace: *w})
}

// PUT /admin/workplace
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid json")
		return
	}
	w, err := h.svc.Update(c.Request.Context(), req)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, WorkplaceResponse{Workplace: *w})
}

// POST /admin/workplace/qr/rotate
func (h *Handler) RotateQR(c *gin.Context) {
	token, err := h.svc.RotateToken(c.Request.Context())
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, RotateResponse{
		QRToken: token,
		Message: "QR code token rotated. Print and replace the old QR code.",
	})
}
