package employee

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

func RegisterAdminRoutes(r gin.IRoutes, svc *Service, logger *zap.Logger) {
	h := &Handler{svc: svc, logger: logger}
	r.GET("/employees", h.List)
	r.POST("/employees", h.Create)
	r.PATCH("/employees/:id", h.Update)
}

// GET /admin/employees?role=&status=&workplaceId=
func (h *Handler) List(c *gin.Context) {
	var f Filter
	if v := c.Query("role"); v != "" {
		role := Role(v)
		f.Role = &role
	}
	if v := c.Query("status"); v != "" {
		st := Status(v)
		f.Status = &st
	}
	if v := c.Query("workplaceId"); v != "" {
		f.WorkplaceID = &v
	}
	out, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Employees: out})
}

// POST /admin/employees
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid json or missing required fields")
		return
	}
	e, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.Header("Location", "/api/admin/employees/"+e.ID)
	c.JSON(http.StatusCreated, EmployeeResponse{Employee: *e})
}

// PATCH /admin/employees/:id
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid json")
		return
	}
	e, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, EmployeeResponse{Employee: *e})
}
