package handlers

import (
	"report-logger/config"
	"report-logger/middleware"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route. Mutating routes other than /login sit behind
// the optional token check.
func NewRouter(h *Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()
	// ClientIP keys the login rate limit, so forwarded headers are honored
	// only from TRUSTED_PROXIES.
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Warnf("Ignoring TRUSTED_PROXIES %v: %v", cfg.TrustedProxies, err)
		router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.Gzip(cfg.UploadURLPrefix))
	router.MaxMultipartMemory = maxMultipartMemory

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Static(cfg.UploadURLPrefix, cfg.UploadDir)

	router.GET("/users", h.ListUsers)
	router.POST("/login", middleware.RateLimitMiddleware(cfg.LoginRatePerMin), h.Login)

	router.GET("/messages", h.ListMessages)
	router.GET("/categories", h.ListCategories)
	router.GET("/issues", h.ListIssues)
	router.GET("/issues/category/:id", h.IssuesByCategory)
	router.GET("/issues/with-categories", h.IssuesWithCategories)
	router.GET("/solutions", h.ListSolutions)
	router.GET("/solutions/category/:id", h.SolutionsByCategory)
	router.GET("/solutions/with-categories", h.SolutionsWithCategories)
	router.GET("/reports", h.ListReports)
	router.GET("/reports/:id", h.GetReport)
	router.GET("/file-sizes", h.FileSizes)
	router.POST("/export-reports-excel", h.ExportReports)

	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware(h.tokens, cfg.AuthRequired))
	{
		protected.POST("/messages", h.CreateMessage)
		protected.PUT("/messages/:id", h.UpdateMessage)
		protected.DELETE("/messages/:id", h.DeleteMessage)

		protected.POST("/categories", h.CreateCategory)
		protected.PUT("/categories/:id", h.UpdateCategory)

		protected.POST("/issues", h.CreateIssue)
		protected.PUT("/issues/:id", h.UpdateIssue)
		protected.DELETE("/issues/:id", h.DeleteIssue)

		protected.POST("/solutions", h.CreateSolution)
		protected.PUT("/solutions/:id", h.UpdateSolution)

		protected.POST("/reports", h.CreateReport)
		protected.PUT("/reports/:id", h.UpdateReport)
		protected.DELETE("/reports/:id", h.DeleteReport)
		protected.DELETE("/reports/:id/pictures/:slot", h.DeletePicture)

		protected.POST("/upload-image", h.UploadImage)
		protected.DELETE("/delete-image/:filename", h.DeleteImage)
	}

	return router
}
