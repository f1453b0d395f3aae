package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"geoattend-backend/internal/attendance"
	"geoattend-backend/internal/employee"
	"geoattend-backend/internal/payroll"
	"geoattend-backend/internal/platform/apierr"
	"geoattend-backend/internal/platform/auth"
	"geoattend-backend/internal/platform/db"
	"geoattend-backend/internal/platform/httpx"
	"geoattend-backend/internal/platform/logger"
	"geoattend-backend/internal/workplace"
)

type app struct {
	cfg        *db.Config
	logger     *zap.Logger
	conn       *sql.DB
	auth       *auth.Service
	employees  *employee.Service
	workplaces *workplace.Service
	attendance *attendance.Service
	paysheets  *payroll.Service
}

// newApp loads the config, opens the database and builds every service.
func newApp(configPath string) (*app, error) {
	cfg, err := db.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	policy, err := payroll.PolicyFromConfig(cfg.Policy)
	if err != nil {
		return nil, err
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	log.Info("connected to DB", zap.String("mode", cfg.Mode), zap.String("db", cfg.DB.DBName))

	calc := payroll.NewCalculator(policy)
	employees := employee.NewService(employee.NewStore(conn), log)
	workplaces := workplace.NewService(workplace.NewStore(conn), log)
	records := attendance.NewService(attendance.NewStore(conn), workplaces, employees, calc, log).
		WithGeofence(cfg.Geofence.Enforce)

	return &app{
		cfg:        cfg,
		logger:     log,
		conn:       conn,
		auth:       auth.NewService(auth.NewStore(conn), []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, log),
		employees:  employees,
		workplaces: workplaces,
		attendance: records,
		paysheets:  payroll.NewService(payroll.NewStore(conn), records, employees, calc, log),
	}, nil
}

func (a *app) Close() {
	_ = a.conn.Close()
	_ = a.logger.Sync()
}

func (a *app) router() *gin.Engine {
	if a.cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(httpx.RequestID(), httpx.Logger(a.logger), httpx.Recovery(a.logger))
	_ = r.SetTrustedProxies(nil)

	origins := a.cfg.Server.AllowOrigins
	if len(origins) == 0 && a.cfg.Mode == "dev" {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", httpx.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", httpx.RequestIDHeader},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		if err := a.conn.PingContext(c.Request.Context()); err != nil {
			c.String(http.StatusServiceUnavailable, "db unavailable")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	requireAuth := auth.RequireAuth([]byte(a.cfg.Auth.JWTSecret))
	auth.RegisterRoutes(r.Group("/api/auth"), a.auth, requireAuth, a.logger)

	api := r.Group("/api", requireAuth)
	attendance.RegisterRoutes(api, a.attendance, a.logger)
	workplace.RegisterRoutes(api, a.workplaces, a.logger)

	admin := r.Group("/api/admin", requireAuth, auth.RequireRole(auth.RoleAdmin))
	attendance.RegisterAdminRoutes(admin, a.attendance, a.logger)
	workplace.RegisterAdminRoutes(admin, a.workplaces, a.logger)
	employee.RegisterAdminRoutes(admin, a.employees, a.logger)
	payroll.RegisterAdminRoutes(admin, a.paysheets, a.logger)

	r.NoRoute(func(c *gin.Context) {
		httpx.Error(c, a.logger, apierr.NotFound("Route not found"))
	})
	return r
}
