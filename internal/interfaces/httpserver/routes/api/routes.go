package api

import (
	"github.com/gin-gonic/gin"

	"audio-articles/article-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates route registration under the /api prefix.
type Routes struct {
	handlers *handlers.Provider
	admin    gin.HandlerFunc
}

// NewRoutes builds the route table. admin guards mutating endpoints.
func NewRoutes(provider *handlers.Provider, admin gin.HandlerFunc) *Routes {
	return &Routes{handlers: provider, admin: admin}
}

// Register attaches all routes under the /api prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/api")

	articles := group.Group("/articles")
	articles.GET("", r.handlers.Article.List)
	articles.GET("/search", r.handlers.Article.Search)
	articles.GET("/:id", r.handlers.Article.Get)
	articles.GET("/:id/real-duration", r.handlers.Duration.RealDuration)

	articles.POST("", r.admin, r.handlers.Article.Create)
	articles.PUT("/:id", r.admin, r.handlers.Article.Update)
	articles.DELETE("/:id", r.admin, r.handlers.Article.Delete)
	articles.PUT("/:id/duration", r.admin, r.handlers.Duration.UpdateDuration)
	articles.PUT("/:id/fix-duration", r.admin, r.handlers.Duration.FixDuration)
	articles.POST("/bulk-fix-durations", r.admin, r.handlers.Duration.BulkFix)

	group.GET("/categories", r.handlers.Article.ListCategories)
	group.POST("/categories", r.admin, r.handlers.Article.CreateCategory)
	group.DELETE("/categories/:id", r.admin, r.handlers.Article.DeleteCategory)

	group.GET("/debug/durations", r.admin, r.handlers.Duration.Report)
}
