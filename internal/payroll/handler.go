package payroll

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"geoattend-backend/internal/platform/auth"
	"geoattend-backend/internal/platform/httpx"
)

type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// RegisterAdminRoutes mounts the paysheet endpoints; r must already require the admin role.
func RegisterAdminRoutes(r gin.IRoutes, svc *Service, logger *zap.Logger) {
	h := &Handler{svc: svc, logger: logger}
	r.POST("/paysheets/generate", h.Generate)
	r.GET("/paysheets", h.List)
	r.GET("/paysheets/:id", h.Get)
	r.PATCH("/paysheets/:id", h.UpdateStatus)
	r.GET("/paysheets/:id/export", h.Export)
}

// POST /admin/paysheets/generate
func (h *Handler) Generate(c *gin.Context) {
	adminID, ok := auth.EmployeeID(c)
	if !ok {
		return
	}
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "periodStart and periodEnd (YYYY-MM-DD) are required")
		return
	}
	p, err := h.svc.Generate(c.Request.Context(), req, adminID)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, PaysheetResponse{Paysheet: *p})
}

// GET /admin/paysheets?limit=&offset=
func (h *Handler) List(c *gin.Context) {
	limit := httpx.ParseIntDefault(c.Query("limit"), DefaultPageLimit)
	offset := httpx.ParseIntDefault(c.Query("offset"), 0)
	res, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, PaysheetResponse{Paysheet: *p})
}

// PATCH /admin/paysheets/:id
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "status is required")
		return
	}
	p, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, PaysheetResponse{Paysheet: *p})
}

// GET /admin/paysheets/:id/export?format=csv|xlsx|pdf
func (h *Handler) Export(c *gin.Context) {
	out, err := h.svc.Export(c.Request.Context(), c.Param("id"), Format(c.DefaultQuery("format", string(FormatCSV))))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(out.Filename))
	c.Data(http.StatusOK, out.ContentType, out.Data)
}
