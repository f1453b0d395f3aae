package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"geoattend-backend/internal/platform/httpx"
)

type AuthHandler struct {
	svc    AuthService
	logger *zap.Logger
}

// RegisterRoutes mounts POST /login on r and GET /me behind authMW.
func RegisterRoutes(r gin.IRoutes, svc AuthService, authMW gin.HandlerFunc, logger *zap.Logger) {
	h := &AuthHandler{svc: svc, logger: logger}
	r.POST("/login", h.Login)
	r.GET("/me", authMW, h.Me)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "email and password are required")
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := EmployeeID(c)
	if !ok {
		return
	}
	res, err := h.svc.Me(c.Request.Context(), id)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": res})
}
