package router

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/NamitGandhi30/movie/internal/handler"
	"github.com/NamitGandhi30/movie/internal/middleware"
)

// SessionCookie 存放 flash 提示的 Cookie 名
const SessionCookie = "movie_session"

// NewEngine 创建带全局中间件的 Gin 引擎并注册路由
func NewEngine(h *handler.Handler) *gin.Engine {
	cfg := h.Config
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(h.Log))

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 设置 Session 中间件
	store := cookie.NewStore([]byte(cfg.AppSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Env == "production",
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(SessionCookie, store))

	RegisterRoutes(r, h)
	return r
}
