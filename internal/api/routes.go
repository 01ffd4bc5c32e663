package api

import (
	"net/http" // HTTP status codes

	"image_editor/internal/auth"       // Credential store
	"image_editor/internal/metrics"    // Prometheus collectors
	"image_editor/internal/middleware" // Session, logging and rate limiting
	"image_editor/internal/service"    // Project and image operations

	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus/promhttp" // Metrics endpoint
)

// Deps are the collaborators the router wires into handlers
type Deps struct {
	Credentials      *auth.CredentialStore   // Accounts
	Projects         *service.ProjectService // Project persistence
	Images           *service.ImageService   // Uploads
	Session          SessionConfig           // Token settings
	MaxContentLength int64                   // Upload body limit
	AuthLimiter      *middleware.RateLimiter // Optional limiter for register and login
}

// NewRouter builds the gin engine with every route registered
func NewRouter(deps Deps) *gin.Engine {
	metrics.Register() // Idempotent

	r := gin.New()                                                             // Initialize Gin router
	r.Use(gin.Recovery(), middleware.RequestLogger(), metrics.GinMiddleware()) // Global middleware
	r.MaxMultipartMemory = deps.MaxContentLength                               // Keep small uploads in memory

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler())) // Prometheus scrape endpoint

	public := r.Group("/") // Unauthenticated account routes
	if deps.AuthLimiter != nil {
		public.Use(deps.AuthLimiter.Handler())
	}
	public.POST("/register", RegisterHandler(deps.Credentials))
	public.POST("/login", LoginHandler(deps.Credentials, deps.Session))
	r.POST("/logout", LogoutHandler(deps.Session))

	api := r.Group("/api") // Routes that require a session
	api.Use(middleware.SessionAuthMiddleware(deps.Session.Secret, deps.Credentials))
	{
		api.POST("/save_project", SaveProjectHandler(deps.Projects))
		api.GET("/load_project/:id", LoadProjectHandler(deps.Projects))
		api.DELETE("/delete_project/:id", DeleteProjectHandler(deps.Projects))
		api.POST("/clean_empty_projects", CleanEmptyProjectsHandler(deps.Projects))
		api.POST("/upload_image", UploadImageHandler(deps.Images, deps.MaxContentLength))
		api.GET("/projects", ListProjectsHandler(deps.Projects))
		api.GET("/project_history/:id", ProjectHistoryHandler(deps.Projects))
		api.DELETE("/account", DeleteAccountHandler(deps.Credentials, deps.Session))
	}

	return r
}
