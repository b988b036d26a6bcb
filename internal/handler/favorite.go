package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/NamitGandhi30/movie/internal/middleware"
	"github.com/NamitGandhi30/movie/internal/model"
	"github.com/NamitGandhi30/movie/internal/service"
	"github.com/NamitGandhi30/movie/internal/utils"
)

// expandConcurrency 展开收藏详情时的并发上限
const expandConcurrency = 6

type addFavoriteRequest struct {
	Title string `json:"title" form:"title" binding:"max=500"`
}

// FavoriteList 收藏列表，expand=1 时并发拉取每部电影详情
func (h *Handler) FavoriteList(c *gin.Context) {
	session := middleware.GetSession(c)
	ids := session.User.Favorites

	expand := c.Query("expand")
	if expand != "1" && expand != "true" {
		utils.Success(c, gin.H{"favorites": ids})
		return
	}

	movies := make([]model.MovieDetails, len(ids))
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(expandConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			movies[i] = h.TMDB.GetMovieDetails(ctx, id)
			return nil
		})
	}
	// 详情查询从不返回错误
	_ = g.Wait()

	utils.Success(c, gin.H{"favorites": ids, "movies": movies})
}

// FavoriteStatus 是否已收藏
func (h *Handler) FavoriteStatus(c *gin.Context) {
	id, ok := movieIDParam(c, "id")
	if !ok {
		utils.BadRequest(c, "invalid movie id")
		return
	}
	utils.Success(c, gin.H{
		"movie_id":    id,
		"is_favorite": h.Favorites.IsFavorite(middleware.GetSession(c), id),
	})
}

// AddFavorite 添加收藏
func (h *Handler) AddFavorite(c *gin.Context) {
	id, ok := movieIDParam(c, "id")
	if !ok {
		utils.BadRequest(c, "invalid movie id")
		return
	}

	session := middleware.GetSession(c)
	if session == nil {
		h.requireLogin(c)
		return
	}

	var req addFavoriteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBind(&req); err != nil {
			utils.ValidationFailed(c, err)
			return
		}
	}

	movie := model.Movie{ID: id, Title: req.Title}
	if movie.Title == "" && !session.User.Favorites.Contains(id) {
		movie.Title = h.TMDB.GetMovieDetails(c.Request.Context(), id).Title
	}

	change, err := h.Favorites.Add(c.Request.Context(), session.ID, movie)
	if err != nil {
		h.favoriteError(c, err)
		return
	}
	h.respondChange(c, change)
}

// RemoveFavorite 取消收藏
func (h *Handler) RemoveFavorite(c *gin.Context) {
	id, ok := movieIDParam(c, "id")
	if !ok {
		utils.BadRequest(c, "invalid movie id")
		return
	}

	session := middleware.GetSession(c)
	if session == nil {
		h.requireLogin(c)
		return
	}

	change, err := h.Favorites.Remove(c.Request.Context(), session.ID, id)
	if err != nil {
		h.favoriteError(c, err)
		return
	}
	h.respondChange(c, change)
}

func (h *Handler) respondChange(c *gin.Context, change *service.Change) {
	if change.Notice != nil {
		h.pushNotice(c, *change.Notice)
	}
	utils.Success(c, change)
}

// requireLogin 未登录：提示并返回 401，附带登录跳转地址
func (h *Handler) requireLogin(c *gin.Context) {
	notice := service.AuthRequiredNotice()
	h.pushNotice(c, notice)
	utils.ErrorWithData(c, http.StatusUnauthorized, notice.Description, gin.H{
		"notice":   notice,
		"redirect": middleware.LoginRedirect(c.Request.URL.Path),
	})
}

func (h *Handler) favoriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotAuthenticated), errors.Is(err, service.ErrSessionExpired):
		middleware.ClearToken(c)
		h.requireLogin(c)
	case errors.Is(err, service.ErrStaleSession):
		utils.Error(c, http.StatusConflict, "favorites were modified concurrently, please retry")
	default:
		h.Log.WithField("component", "favorites").Errorf("更新收藏失败: %v", err)
		utils.InternalServerError(c, "")
	}
}
