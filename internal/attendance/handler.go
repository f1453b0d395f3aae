package attendance

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"geoattend-backend/internal/platform/auth"
	"geoattend-backend/internal/platform/httpx"
)

type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// RegisterRoutes mounts the employee endpoints; r must already require auth.
func RegisterRoutes(r gin.IRoutes, svc *Service, logger *zap.Logger) {
	h := &Handler{svc: svc, logger: logger}
	r.GET("/attendance/today", h.Today)
	r.POST("/attendance/checkin", h.CheckIn)
	r.POST("/attendance/checkout", h.CheckOut)
	r.POST("/attendance/sync", h.Sync)
}

// RegisterAdminRoutes mounts the admin endpoints; r must already require the admin role.
func RegisterAdminRoutes(r gin.IRoutes, svc *Service, logger *zap.Logger) {
	h := &Handler{svc: svc, logger: logger}
	r.GET("/attendance/today", h.Overview)
	r.GET("/attendance", h.List)
	r.GET("/attendance/stats", h.Stats)
	r.PATCH("/attendance/:id/close", h.ManualClose)
}

// GET /attendance/today
func (h *Handler) Today(c *gin.Context) {
	employeeID, ok := auth.EmployeeID(c)
	if !ok {
		return
	}
	rec, err := h.svc.Today(c.Request.Context(), employeeID)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, TodayResponse{Record: rec})
}

// POST /attendance/checkin
func (h *Handler) CheckIn(c *gin.Context) {
	employeeID, ok := auth.EmployeeID(c)
	if !ok {
		return
	}
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "qrToken and deviceTimestamp (RFC 3339) are required")
		return
	}
	rec, err := h.svc.CheckIn(c.Request.Context(), employeeID, req)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, CheckInResponse{Record: *rec, ServerCheckInAt: rec.CheckInAt})
}

// POST /attendance/checkout
func (h *Handler) CheckOut(c *gin.Context) {
	employeeID, ok := auth.EmployeeID(c)
	if !ok {
		return
	}
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "qrToken and deviceTimestamp (RFC 3339) are required")
		return
	}
	res, err := h.svc.CheckOut(c.Request.Context(), employeeID, req)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /attendance/sync
func (h *Handler) Sync(c *gin.Context) {
	employeeID, ok := auth.EmployeeID(c)
	if !ok {
		return
	}
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "events must be a non-empty array")
		return
	}
	if len(req.Events) > MaxSyncEvents {
		httpx.BadRequest(c, "too many events in one batch")
		return
	}
	c.JSON(http.StatusOK, SyncResponse{Results: h.svc.SyncEvents(c.Request.Context(), employeeID, req.Events)})
}

// GET /admin/attendance/today
func (h *Handler) Overview(c *gin.Context) {
	res, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /admin/attendance?employeeId=&startDate=&endDate=&status=&limit=&offset=
func (h *Handler) List(c *gin.Context) {
	q := Query{
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Limit:     httpx.ParseIntDefault(c.Query("limit"), DefaultPageLimit),
		Offset:    httpx.ParseIntDefault(c.Query("offset"), 0),
	}
	if v := c.Query("employeeId"); v != "" {
		q.EmployeeID = &v
	}
	if v := c.Query("status"); v != "" {
		st := Status(v)
		q.Status = &st
	}
	res, err := h.svc.Query(c.Request.Context(), q)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /admin/attendance/stats?startDate=&endDate=
func (h *Handler) Stats(c *gin.Context) {
	res, err := h.svc.Stats(c.Request.Context(), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PATCH /admin/attendance/:id/close
func (h *Handler) ManualClose(c *gin.Context) {
	adminID, ok := auth.EmployeeID(c)
	if !ok {
		return
	}
	var req ManualCloseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "checkOutAt (RFC 3339) and adjustmentNote are required")
		return
	}
	rec, err := h.svc.ManualClose(c.Request.Context(), c.Param("id"), adminID, req)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec})
}
