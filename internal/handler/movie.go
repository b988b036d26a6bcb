package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/NamitGandhi30/movie/internal/model"
	"github.com/NamitGandhi30/movie/internal/service"
	"github.com/NamitGandhi30/movie/internal/utils"
)

// GenrePage 按类型浏览结果
type GenrePage struct {
	Genre       *model.Genre         `json:"genre"`
	SortBy      string               `json:"sort_by"`
	SortOptions []string             `json:"sort_options"`
	Movies      model.MoviesResponse `json:"movies"`
}

// PopularMovies 热门电影
func (h *Handler) PopularMovies(c *gin.Context) {
	page := service.NormalizePage(c.Query("page"))
	utils.Success(c, h.TMDB.GetPopularMovies(c.Request.Context(), page))
}

// TopRatedMovies 高分电影
func (h *Handler) TopRatedMovies(c *gin.Context) {
	page := service.NormalizePage(c.Query("page"))
	utils.Success(c, h.TMDB.GetTopRatedMovies(c.Request.Context(), page))
}

// MovieDetails 电影详情，ID 非法时 404
func (h *Handler) MovieDetails(c *gin.Context) {
	id, ok := movieIDParam(c, "id")
	if !ok {
		utils.NotFound(c, "movie not found")
		return
	}
	utils.Success(c, h.TMDB.GetMovieDetails(c.Request.Context(), id))
}

// SimilarMovies 相似电影
func (h *Handler) SimilarMovies(c *gin.Context) {
	id, ok := movieIDParam(c, "id")
	if !ok {
		utils.NotFound(c, "movie not found")
		return
	}
	page := service.NormalizePage(c.Query("page"))
	utils.Success(c, h.TMDB.GetSimilarMovies(c.Request.Context(), id, page))
}

// MovieVideos 预告片
func (h *Handler) MovieVideos(c *gin.Context) {
	id, ok := movieIDParam(c, "id")
	if !ok {
		utils.NotFound(c, "movie not found")
		return
	}
	utils.Success(c, h.TMDB.GetMovieVideos(c.Request.Context(), id))
}

// Search 搜索，空关键词返回空结果
func (h *Handler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		utils.Success(c, model.MoviesResponse{Page: 1, Results: []model.Movie{}})
		return
	}
	page := service.NormalizePage(c.Query("page"))
	utils.Success(c, h.TMDB.SearchMovies(c.Request.Context(), query, page))
}

// Genres 类型目录
func (h *Handler) Genres(c *gin.Context) {
	utils.Success(c, h.TMDB.GetGenres(c.Request.Context()))
}

// GenreMovies 按类型浏览
func (h *Handler) GenreMovies(c *gin.Context) {
	genreID, err := strconv.Atoi(c.Param("id"))
	if err != nil || genreID <= 0 {
		utils.NotFound(c, "genre not found")
		return
	}

	ctx := c.Request.Context()
	page := service.NormalizePage(c.Query("page"))
	if page > service.MaxGenrePage {
		page = service.MaxGenrePage
	}
	sortBy := model.NormalizeSort(c.Query("sort"))

	var genre *model.Genre
	for _, g := range h.TMDB.GetGenres(ctx).Genres {
		if g.ID == genreID {
			genre = &g
			break
		}
	}

	utils.Success(c, GenrePage{
		Genre:       genre,
		SortBy:      sortBy,
		SortOptions: model.SortOptions,
		Movies:      h.TMDB.GetMoviesByGenre(ctx, genreID, page, sortBy),
	})
}
