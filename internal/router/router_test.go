package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NamitGandhi30/movie/internal/config"
	"github.com/NamitGandhi30/movie/internal/handler"
	"github.com/NamitGandhi30/movie/internal/model"
	"github.com/NamitGandhi30/movie/internal/service"
	"github.com/NamitGandhi30/movie/internal/testutil"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
}

// browser 在请求之间保留 Cookie
type browser struct {
	t       *testing.T
	engine  *gin.Engine
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T) *browser {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Env:        "test",
		AppSecret:  "test-secret",
		SessionTTL: time.Hour,
		SiteName:   "Movie Explorer",
		SiteUrl:    "http://localhost:5005",
		TMDB:       config.TMDBConfig{RetryMax: 1, ImageBaseURL: "https://image.tmdb.org/t/p/"},
	}
	h := handler.NewHandler(testutil.NewRepositories(t), cfg, logger)

	return &browser{t: t, engine: NewEngine(h), cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(method, path string, body interface{}, header ...string) *httptest.ResponseRecorder {
	b.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(b.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	for _, c := range b.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}

	rec := httptest.NewRecorder()
	b.engine.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestHealth(t *testing.T) {
	b := newBrowser(t)
	rec := b.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSiteConfig(t *testing.T) {
	b := newBrowser(t)

	var site map[string]string
	rec := b.do(http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &site)
	assert.Equal(t, "Movie Explorer", site["site_name"])
	assert.Equal(t, "http://localhost:5005", site["site_url"])
	assert.Equal(t, "https://image.tmdb.org/t/p", site["image_base_url"])
}

func TestMovieRoutesServeFallbackData(t *testing.T) {
	b := newBrowser(t)

	var list model.MoviesResponse
	rec := b.do(http.MethodGet, "/api/movies/popular?page=abc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec, &list)
	assert.True(t, env.Success)
	assert.Equal(t, 2, list.TotalResults)

	rec = b.do(http.MethodGet, "/api/movies/top-rated", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var details model.MovieDetails
	rec = b.do(http.MethodGet, "/api/movies/550", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &details)
	assert.Equal(t, int64(550), details.ID)

	var videos model.VideosResponse
	rec = b.do(http.MethodGet, "/api/movies/550/videos", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &videos)
	assert.Len(t, videos.Results, 1)

	rec = b.do(http.MethodGet, "/api/movies/550/similar?page=2", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var genres model.GenresResponse
	rec = b.do(http.MethodGet, "/api/genres", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &genres)
	assert.Len(t, genres.Genres, 19)
}

func TestMovieDetails_MalformedIDIsNotFound(t *testing.T) {
	b := newBrowser(t)

	for _, path := range []string{"/api/movies/abc", "/api/movies/0", "/api/movies/-4", "/api/movies/abc/videos"} {
		rec := b.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestSearch(t *testing.T) {
	b := newBrowser(t)

	var list model.MoviesResponse
	rec := b.do(http.MethodGet, "/api/search?q=", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	assert.Empty(t, list.Results)
	assert.Equal(t, 0, list.TotalResults)

	rec = b.do(http.MethodGet, "/api/search?q=matrix&page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	require.Len(t, list.Results, 2)
	assert.Equal(t, "Sample Movie 1 (matrix)", list.Results[0].Title)
}

func TestGenreMovies(t *testing.T) {
	b := newBrowser(t)

	var page handler.GenrePage
	rec := b.do(http.MethodGet, "/api/genres/28/movies?sort=bogus&page=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &page)
	require.NotNil(t, page.Genre)
	assert.Equal(t, "Action", page.Genre.Name)
	assert.Equal(t, model.DefaultSort, page.SortBy)
	assert.Len(t, page.SortOptions, 6)
	assert.Len(t, page.Movies.Results, 2)

	page = handler.GenrePage{}
	rec = b.do(http.MethodGet, "/api/genres/4242/movies?sort=release_date.asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &page)
	assert.Nil(t, page.Genre)
	assert.Equal(t, "release_date.asc", page.SortBy)

	rec = b.do(http.MethodGet, "/api/genres/drama/movies", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTMDBProxyRoute(t *testing.T) {
	b := newBrowser(t)

	rec := b.do(http.MethodGet, "/api/tmdb", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.NotEmpty(t, errBody["error"])

	rec = b.do(http.MethodGet, "/api/tmdb?endpoint=movie/77", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var details model.MovieDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	assert.Equal(t, int64(77), details.ID)
	assert.Empty(t, rec.Header().Get("Cache-Control"))
	assert.Equal(t, "1", rec.Header().Get(service.MockDataHeader))
}

func TestMovieRoutes_OutageFallbackNotPinnedAfterRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	var healthy atomic.Bool
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":5,"title":"Back Online"}],"total_pages":1,"total_results":1}`))
	}))
	defer upstream.Close()

	// 站点自身作为同源代理
	var engine http.Handler
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		engine.ServeHTTP(w, r)
	}))
	defer site.Close()

	cfg := &config.Config{
		Env:        "test",
		AppSecret:  "test-secret",
		SessionTTL: time.Hour,
		TMDB: config.TMDBConfig{
			APIKey:         "key",
			ProxyAPIKey:    "key",
			BaseURL:        upstream.URL,
			ProxyURL:       site.URL,
			RequestTimeout: time.Second,
			ProxyTimeout:   time.Second,
			RetryMax:       2,
			RetryBaseDelay: time.Millisecond,
		},
	}
	engine = NewEngine(handler.NewHandler(testutil.NewRepositories(t), cfg, logger))

	get := func() model.MoviesResponse {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movies/popular", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var list model.MoviesResponse
		decode(t, rec, &list)
		return list
	}

	outage := get()
	require.NotEmpty(t, outage.Results)
	assert.Equal(t, "Sample Movie 1", outage.Results[0].Title)

	healthy.Store(true)
	recovered := get()
	require.Len(t, recovered.Results, 1)
	assert.Equal(t, "Back Online", recovered.Results[0].Title)
}

func TestAuthAndFavoritesFlow(t *testing.T) {
	b := newBrowser(t)

	// 未登录添加收藏
	rec := b.do(http.MethodPost, "/api/favorites/42", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var denied struct {
		Notice   model.Notice `json:"notice"`
		Redirect string       `json:"redirect"`
	}
	decode(t, rec, &denied)
	assert.Equal(t, "Authentication Required", denied.Notice.Title)
	assert.Equal(t, "/auth/login?redirect=%2Fapi%2Ffavorites%2F42", denied.Redirect)

	var notices []model.Notice
	rec = b.do(http.MethodGet, "/api/notices", nil)
	decode(t, rec, &notices)
	require.Len(t, notices, 1)
	assert.Equal(t, "Please log in to add movies to your favorites", notices[0].Description)

	// 注册
	rec = b.do(http.MethodPost, "/auth/register", gin.H{
		"name": "Test User", "email": "user@example.com", "password": "secret123", "redirect": "/favorites",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var started struct {
		Session  model.Session `json:"session"`
		Redirect string        `json:"redirect"`
	}
	decode(t, rec, &started)
	assert.Equal(t, "user@example.com", started.Session.User.Email)
	assert.Equal(t, model.MovieIDs{}, started.Session.User.Favorites)
	assert.NotEmpty(t, started.Session.Token)
	assert.Equal(t, "/favorites", started.Redirect)
	require.Contains(t, b.cookies, "token")

	// 添加收藏
	rec = b.do(http.MethodPost, "/api/favorites/42", gin.H{"title": "The Answer"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var change struct {
		Favorites model.MovieIDs `json:"favorites"`
		Notice    *model.Notice  `json:"notice"`
	}
	decode(t, rec, &change)
	assert.Equal(t, model.MovieIDs{42}, change.Favorites)
	require.NotNil(t, change.Notice)
	assert.Equal(t, "The Answer has been added to your favorites", change.Notice.Description)

	// 重复添加不产生提示
	rec = b.do(http.MethodPost, "/api/favorites/42", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	change.Notice = nil
	decode(t, rec, &change)
	assert.Nil(t, change.Notice)

	notices = nil
	rec = b.do(http.MethodGet, "/api/notices", nil)
	decode(t, rec, &notices)
	require.Len(t, notices, 1)
	assert.Equal(t, "Added to Favorites", notices[0].Title)

	var status struct {
		IsFavorite bool `json:"is_favorite"`
	}
	rec = b.do(http.MethodGet, "/api/favorites/42", nil)
	decode(t, rec, &status)
	assert.True(t, status.IsFavorite)

	var expanded struct {
		Favorites model.MovieIDs       `json:"favorites"`
		Movies    []model.MovieDetails `json:"movies"`
	}
	rec = b.do(http.MethodGet, "/api/favorites?expand=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &expanded)
	require.Len(t, expanded.Movies, 1)
	assert.Equal(t, int64(42), expanded.Movies[0].ID)

	// 登出后需要重新登录
	rec = b.do(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, b.cookies, "token")

	rec = b.do(http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = b.do(http.MethodPost, "/auth/login", gin.H{"email": "USER@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = b.do(http.MethodPost, "/auth/login", gin.H{"email": "user@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &started)
	assert.Equal(t, model.MovieIDs{42}, started.Session.User.Favorites)

	// 取消收藏
	rec = b.do(http.MethodDelete, "/api/favorites/42", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &change)
	assert.Equal(t, model.MovieIDs{}, change.Favorites)
	require.NotNil(t, change.Notice)
	assert.Equal(t, "Removed from Favorites", change.Notice.Title)
}

func TestProfileUpdate(t *testing.T) {
	b := newBrowser(t)

	rec := b.do(http.MethodPost, "/auth/register", gin.H{"name": "Old", "email": "old@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = b.do(http.MethodPatch, "/api/me", gin.H{"name": "New"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var session model.Session
	decode(t, rec, &session)
	assert.Equal(t, "New", session.User.Name)

	rec = b.do(http.MethodPatch, "/api/me", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = b.do(http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &session)
	assert.Equal(t, "New", session.User.Name)
	assert.Equal(t, "old@example.com", session.User.Email)
}

func TestRegisterValidation(t *testing.T) {
	b := newBrowser(t)

	rec := b.do(http.MethodPost, "/auth/register", gin.H{"name": "X", "email": "nope", "password": "123"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var fields map[string]string
	decode(t, rec, &fields)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")

	rec = b.do(http.MethodPost, "/auth/register", gin.H{"name": "A", "email": "a@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = b.do(http.MethodPost, "/auth/register", gin.H{"name": "B", "email": "A@Example.com", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProtectedPageRedirectsToLogin(t *testing.T) {
	b := newBrowser(t)

	rec := b.do(http.MethodGet, "/api/favorites", nil, "Accept", "text/html")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login?redirect=%2Fapi%2Ffavorites", rec.Header().Get("Location"))

	rec = b.do(http.MethodGet, "/auth/login?redirect=//evil.example", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hint struct {
		Redirect string `json:"redirect"`
	}
	decode(t, rec, &hint)
	assert.Equal(t, "/", hint.Redirect)
}
