// Package httpapi exposes the document store over a small JSON API guarded
// by signed session cookies.
package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/mkalinins/dashvault/internal/dashboards"
	"github.com/mkalinins/dashvault/internal/logging"
	"github.com/mkalinins/dashvault/internal/session"
	"github.com/mkalinins/dashvault/internal/users"
)

// Handler bundles the services behind the API routes.
type Handler struct {
	logger        logging.Logger
	codec         *session.Codec
	users         *users.Service
	dashboards    *dashboards.Service
	secureCookies bool
}

func NewHandler(logger logging.Logger, codec *session.Codec, userSvc *users.Service, dashSvc *dashboards.Service, secureCookies bool) *Handler {
	return &Handler{
		logger:        logger.With("component", "httpapi"),
		codec:         codec,
		users:         userSvc,
		dashboards:    dashSvc,
		secureCookies: secureCookies,
	}
}

// NewRouter configures the gin engine and all API routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(h.logger), gin.Recovery())

	api := r.Group("/api")
	api.GET("/ping", h.Ping)

	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/me", h.Me)

	protected := api.Group("", SessionAuth(h.codec))

	protected.GET("/dashboards", h.ListDashboards)
	protected.GET("/dashboards/:id", h.GetDashboard)
	protected.PUT("/dashboards/:id", h.SaveDashboard)
	protected.DELETE("/dashboards/:id", h.DeleteDashboard)
	protected.POST("/dashboards-index/rebuild", h.RebuildIndex)

	protected.GET("/users", h.ListUsers)
	protected.POST("/users", h.UpsertUser)
	protected.DELETE("/users/:id", h.DeleteUser)

	return r
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(200, gin.H{"status": "OK"})
}
