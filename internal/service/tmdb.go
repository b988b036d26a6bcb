package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/NamitGandhi30/movie/internal/config"
	"github.com/NamitGandhi30/movie/internal/model"
	"github.com/NamitGandhi30/movie/internal/utils"
)

// fetchStage 一次获取最终停留的阶段：直连 → 重试 → 代理 → mock
type fetchStage int

const (
	stageDirect fetchStage = iota
	stageRetrying
	stageProxying
	stageMocked
	stageCached
)

func (s fetchStage) String() string {
	switch s {
	case stageDirect:
		return "direct"
	case stageRetrying:
		return "retrying"
	case stageProxying:
		return "proxy"
	case stageMocked:
		return "mock"
	case stageCached:
		return "cache"
	}
	return "unknown"
}

const (
	revalidateHour = time.Hour
	noStore        = time.Duration(0)

	// MaxGenrePage TMDB discover 接口最多返回 500 页
	MaxGenrePage = 500
)

// tmdbRequest 一次 API 调用
type tmdbRequest struct {
	endpoint string     // 相对路径，如 movie/popular
	params   url.Values // 不含凭证
	ttl      time.Duration
}

func (r tmdbRequest) key() string {
	return r.endpoint + "?" + r.params.Encode()
}

var errNotJSON = errors.New("响应不是合法 JSON")

type fetchResult struct {
	body  []byte
	stage fetchStage
}

// TMDBService 电影数据客户端。所有查询都返回可用数据，不向调用方暴露错误。
type TMDBService struct {
	cfg    config.TMDBConfig
	client *utils.HTTPClient
	cache  *cache.Cache
	group  singleflight.Group
	log    *logrus.Entry
}

// NewTMDBService 创建客户端，c 为 nil 时不缓存
func NewTMDBService(cfg config.TMDBConfig, client *utils.HTTPClient, c *cache.Cache, logger *logrus.Logger) *TMDBService {
	if client == nil {
		client = utils.NewHTTPClient(nil)
	}
	if cfg.RetryMax < 1 {
		cfg.RetryMax = 1
	}
	return &TMDBService{
		cfg:    cfg,
		client: client,
		cache:  c,
		log:    logger.WithField("component", "tmdb"),
	}
}

// GetPopularMovies 热门电影
func (s *TMDBService) GetPopularMovies(ctx context.Context, page int) model.MoviesResponse {
	req := tmdbRequest{endpoint: "movie/popular", params: pageParams(page), ttl: revalidateHour}
	return fetchAs(ctx, s, req, mockMoviesResponse)
}

// GetTopRatedMovies 高分电影
func (s *TMDBService) GetTopRatedMovies(ctx context.Context, page int) model.MoviesResponse {
	req := tmdbRequest{endpoint: "movie/top_rated", params: pageParams(page), ttl: revalidateHour}
	return fetchAs(ctx, s, req, mockMoviesResponse)
}

// GetMovieDetails 电影详情
func (s *TMDBService) GetMovieDetails(ctx context.Context, id int64) model.MovieDetails {
	req := tmdbRequest{endpoint: fmt.Sprintf("movie/%d", id), params: url.Values{}, ttl: revalidateHour}
	return fetchAs(ctx, s, req, func() model.MovieDetails { return mockMovieDetails(id) })
}

// SearchMovies 关键词搜索，结果不缓存
func (s *TMDBService) SearchMovies(ctx context.Context, query string, page int) model.MoviesResponse {
	params := pageParams(page)
	params.Set("query", query)
	req := tmdbRequest{endpoint: "search/movie", params: params, ttl: noStore}
	return fetchAs(ctx, s, req, func() model.MoviesResponse { return mockSearchResponse(query) })
}

// GetMoviesByGenre 按类型浏览，sortBy 非法时使用默认排序
func (s *TMDBService) GetMoviesByGenre(ctx context.Context, genreID int, page int, sortBy string) model.MoviesResponse {
	if page > MaxGenrePage {
		page = MaxGenrePage
	}
	params := pageParams(page)
	params.Set("language", "en-US")
	params.Set("with_genres", strconv.Itoa(genreID))
	params.Set("sort_by", model.NormalizeSort(sortBy))
	req := tmdbRequest{endpoint: "discover/movie", params: params, ttl: revalidateHour}
	resp := fetchAs(ctx, s, req, mockMoviesResponse)
	if resp.TotalPages > MaxGenrePage {
		resp.TotalPages = MaxGenrePage
	}
	return resp
}

// GetSimilarMovies 相似电影
func (s *TMDBService) GetSimilarMovies(ctx context.Context, id int64, page int) model.MoviesResponse {
	req := tmdbRequest{endpoint: fmt.Sprintf("movie/%d/similar", id), params: pageParams(page), ttl: revalidateHour}
	return fetchAs(ctx, s, req, mockMoviesResponse)
}

// GetMovieVideos 预告片列表
func (s *TMDBService) GetMovieVideos(ctx context.Context, id int64) model.VideosResponse {
	req := tmdbRequest{endpoint: fmt.Sprintf("movie/%d/videos", id), params: url.Values{}, ttl: revalidateHour}
	return fetchAs(ctx, s, req, func() model.VideosResponse { return mockVideosResponse(id) })
}

// GetGenres 类型目录
func (s *TMDBService) GetGenres(ctx context.Context) model.GenresResponse {
	params := url.Values{}
	params.Set("language", "en-US")
	req := tmdbRequest{endpoint: "genre/movie/list", params: params, ttl: revalidateHour}
	return fetchAs(ctx, s, req, mockGenresResponse)
}

// NormalizePage 非正整数页码视为第 1 页
func NormalizePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func pageParams(page int) url.Values {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	return params
}

// fetchAs 获取并解码为 T，任何失败都回退到 mock
func fetchAs[T any](ctx context.Context, s *TMDBService, req tmdbRequest, mock func() T) T {
	res := s.fetch(ctx, req)
	if res.stage == stageMocked {
		return mock()
	}
	var out T
	if err := json.Unmarshal(res.body, &out); err != nil {
		s.log.WithFields(logrus.Fields{
			"endpoint": req.endpoint,
			"stage":    res.stage.String(),
		}).Warnf("响应结构不匹配，使用 mock 数据: %v", err)
		return mock()
	}
	return out
}

// fetch 执行完整的获取流程，相同请求并发时只走一次上游
func (s *TMDBService) fetch(ctx context.Context, req tmdbRequest) fetchResult {
	if s.cfg.APIKey == "" {
		return fetchResult{stage: stageMocked}
	}

	key := req.key()
	if s.cache != nil && req.ttl > 0 {
		if body, ok := s.cache.Get(key); ok {
			return fetchResult{body: body.([]byte), stage: stageCached}
		}
	}

	// 共享的上游流程不随某个调用方取消，只受单次请求超时约束
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		res := s.run(shared, req)
		if s.cache != nil && req.ttl > 0 && res.stage != stageMocked {
			s.cache.Set(key, res.body, req.ttl)
		}
		return res, nil
	})

	select {
	case r := <-ch:
		return r.Val.(fetchResult)
	case <-ctx.Done():
		s.log.WithField("endpoint", req.endpoint).Debugf("调用方已取消，使用 mock 数据: %v", ctx.Err())
		return fetchResult{stage: stageMocked}
	}
}

// run 状态机：Direct → Retrying → Proxying → Mocked
func (s *TMDBService) run(ctx context.Context, req tmdbRequest) fetchResult {
	logger := s.log.WithField("endpoint", req.endpoint)

	stage := stageDirect
	attempts := 0
	var body []byte
	err := backoff.RetryNotify(func() error {
		attempts++
		if attempts > 1 {
			stage = stageRetrying
		}
		resp, err := s.attempt(ctx, s.directURL(req), s.cfg.RequestTimeout)
		if err != nil {
			return err
		}
		body = resp.Body
		return nil
	}, s.retryPolicy(ctx), func(err error, wait time.Duration) {
		logger.WithField("attempt", attempts).Debugf("请求失败，%v 后重试: %v", wait, err)
	})
	if err == nil {
		return fetchResult{body: body, stage: stage}
	}
	logger.WithField("attempts", attempts).Warnf("直连失败，尝试代理: %v", err)

	if s.cfg.ProxyURL == "" {
		logger.Warn("未配置代理地址，使用 mock 数据")
		return fetchResult{stage: stageMocked}
	}

	resp, err := s.attempt(ctx, s.proxyURL(req), s.cfg.RequestTimeout)
	if err != nil {
		logger.Warnf("代理请求失败，使用 mock 数据: %v", err)
		return fetchResult{stage: stageMocked}
	}
	if resp.Header.Get(MockDataHeader) != "" {
		logger.Warn("代理上游同样不可用，使用 mock 数据")
		return fetchResult{stage: stageMocked}
	}
	return fetchResult{body: resp.Body, stage: stageProxying}
}

// attempt 单次请求，带独立超时；非 JSON 响应视为失败
func (s *TMDBService) attempt(ctx context.Context, rawURL string, timeout time.Duration) (*utils.Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	resp, err := s.client.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !json.Valid(resp.Body) {
		return nil, errNotJSON
	}
	return resp, nil
}

// retryPolicy 指数退避：首次间隔 RetryBaseDelay，每次翻倍，总尝试次数 RetryMax
func (s *TMDBService) retryPolicy(ctx context.Context) backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     s.cfg.RetryBaseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         time.Minute,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.cfg.RetryMax-1)), ctx)
}

func (s *TMDBService) directURL(req tmdbRequest) string {
	params := cloneValues(req.params)
	params.Set("api_key", s.cfg.APIKey)
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/" + req.endpoint + "?" + params.Encode()
}

// proxyURL 同源代理地址，携带除凭证以外的原始参数
func (s *TMDBService) proxyURL(req tmdbRequest) string {
	params := cloneValues(req.params)
	params.Del("api_key")
	params.Set("endpoint", req.endpoint)
	return strings.TrimRight(s.cfg.ProxyURL, "/") + "/api/tmdb?" + params.Encode()
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
