package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/tankas-app/tankas-api/internal/handler"
	"github.com/tankas-app/tankas-api/internal/middleware"
	"github.com/tankas-app/tankas-api/internal/service"
	"github.com/tankas-app/tankas-api/pkg/storage"
)

// Handlers groups every HTTP handler the API mounts.
type Handlers struct {
	Issues     *handler.IssueHandler
	Pledges    *handler.PledgeHandler
	Volunteers *handler.VolunteerHandler
	Points     *handler.PointsHandler
	Metrics    *handler.MetricsHandler
}

type RouterConfig struct {
	APIPrefix  string
	MediaDir   string
	EnableDocs bool
	Auth       *service.AuthService
	// IssueRateLimit guards issue creation. Nil disables limiting.
	IssueRateLimit gin.HandlerFunc
}

func SetupRoutes(r *gin.Engine, h Handlers, cfg RouterConfig) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if cfg.MediaDir != "" {
		r.Static(storage.MediaRoute, cfg.MediaDir)
	}

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api"
	}
	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	auth := middleware.JWT(cfg.Auth)
	createGuards := []gin.HandlerFunc{auth}
	if cfg.IssueRateLimit != nil {
		createGuards = append(createGuards, cfg.IssueRateLimit)
	}

	IssueRouter(api.Group("/issues"), h, auth, createGuards)

	users := api.Group("/users/me", auth)
	users.GET("/points/history", h.Points.History)
}

// IssueRouter mounts issue, pledge and volunteer routes under /issues.
func IssueRouter(issues *gin.RouterGroup, h Handlers, auth gin.HandlerFunc, createGuards []gin.HandlerFunc) {
	issues.GET("", h.Issues.List)
	issues.POST("", append(createGuards, h.Issues.Create)...)
	issues.GET("/:issue_id", h.Issues.Get)
	issues.PUT("/:issue_id", auth, h.Issues.Update)
	issues.POST("/:issue_id/comments", auth, h.Issues.AddComment)
	issues.POST("/:issue_id/resolve", auth, h.Issues.Resolve)

	issues.POST("/:issue_id/pledge", auth, h.Pledges.Create)
	issues.GET("/:issue_id/pledges", h.Pledges.ListActive)
	issues.GET("/:issue_id/pledges/export", auth, h.Pledges.Export)

	issues.POST("/:issue_id/volunteer", auth, h.Volunteers.Volunteer)
	issues.DELETE("/:issue_id/volunteer", auth, h.Volunteers.Withdraw)
	issues.GET("/:issue_id/volunteers", h.Volunteers.List)
	issues.POST("/:issue_id/discussion", auth, h.Volunteers.PostDiscussion)
	issues.GET("/:issue_id/discussion", auth, h.Volunteers.ListDiscussion)
}
