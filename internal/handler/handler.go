package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/NamitGandhi30/movie/internal/config"
	"github.com/NamitGandhi30/movie/internal/repository"
	"github.com/NamitGandhi30/movie/internal/service"
	"github.com/NamitGandhi30/movie/internal/utils"
)

// Handler HTTP 处理器
type Handler struct {
	Config    *config.Config
	Log       *logrus.Logger
	TMDB      *service.TMDBService
	Proxy     *service.ProxyService
	Sessions  *service.SessionService
	Favorites *service.FavoritesService
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config, logger *logrus.Logger) *Handler {
	client := utils.NewHTTPClient(nil)

	// 外部 API 响应缓存（按 revalidate 时长）
	tmdb := service.NewTMDBService(cfg.TMDB, client, utils.NewTTLCache(time.Hour), logger)
	proxy := service.NewProxyService(cfg.TMDB, client, logger)

	sessions := service.NewSessionService(repos, cfg.SessionTTL, logger)
	favorites := service.NewFavoritesService(sessions, logger)

	return &Handler{
		Config:    cfg,
		Log:       logger,
		TMDB:      tmdb,
		Proxy:     proxy,
		Sessions:  sessions,
		Favorites: favorites,
	}
}

// movieIDParam 解析路径中的正整数 ID
func movieIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// safeRedirect 只允许站内相对路径
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return "/"
	}
	return target
}
