package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NamitGandhi30/movie/internal/handler"
	"github.com/NamitGandhi30/movie/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	secret := h.Config.AppSecret
	requireAuth := middleware.RequireAuth(secret, h.Sessions, h.Log)
	optionalAuth := middleware.OptionalAuth(secret, h.Sessions, h.Log)

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== 认证 ====================
	auth := r.Group("/auth")
	{
		auth.GET("/login", optionalAuth, h.LoginPage)
		auth.POST("/login", h.Login)
		auth.POST("/register", h.Register)
		auth.POST("/logout", h.Logout)
	}

	api := r.Group("/api")

	// ==================== 电影数据 ====================
	{
		api.GET("/movies/popular", h.PopularMovies)
		api.GET("/movies/top-rated", h.TopRatedMovies)
		api.GET("/movies/:id", h.MovieDetails)
		api.GET("/movies/:id/similar", h.SimilarMovies)
		api.GET("/movies/:id/videos", h.MovieVideos)
		api.GET("/search", h.Search)
		api.GET("/genres", h.Genres)
		api.GET("/genres/:id/movies", h.GenreMovies)

		// 同源代理
		api.GET("/tmdb", h.TMDBProxy)

		api.GET("/notices", h.Notices)
		api.GET("/config", h.SiteConfig)
	}

	// ==================== 用户（需要登录）====================
	me := api.Group("/me")
	me.Use(requireAuth)
	{
		me.GET("", h.Me)
		me.PATCH("", h.UpdateProfile)
	}

	// ==================== 收藏 ====================
	api.GET("/favorites", requireAuth, h.FavoriteList)
	favorites := api.Group("/favorites")
	// 写操作自行处理未登录，以便返回提示
	favorites.Use(optionalAuth)
	{
		favorites.GET("/:id", h.FavoriteStatus)
		favorites.POST("/:id", h.AddFavorite)
		favorites.DELETE("/:id", h.RemoveFavorite)
	}
}
