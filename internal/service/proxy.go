package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NamitGandhi30/movie/internal/config"
	"github.com/NamitGandhi30/movie/internal/utils"
)

// ProxyCacheControl 上游成功时返回的缓存头
const ProxyCacheControl = "public, s-maxage=3600, stale-while-revalidate=600"

// MockDataHeader 代理以 mock 数据应答时设置的响应头
const MockDataHeader = "X-Mock-Data"

const (
	proxyCacheSize = 512
	proxyCacheTTL  = time.Hour
)

// ErrMissingEndpoint endpoint 参数缺失
var ErrMissingEndpoint = errors.New("Missing endpoint parameter")

// ErrInvalidEndpoint endpoint 参数不是相对 API 路径
var ErrInvalidEndpoint = errors.New("Invalid endpoint parameter")

var (
	movieVideosPattern = regexp.MustCompile(`movie/(\d+)/videos`)
	movieDetailPattern = regexp.MustCompile(`movie/(\d+)`)
)

// ProxyResult 代理结果，Body 为原始 JSON
type ProxyResult struct {
	Body     []byte
	Upstream bool // true 表示来自上游，false 表示 mock
}

// ProxyService 同源代理：用服务端凭证转发请求
type ProxyService struct {
	cfg    config.TMDBConfig
	client *utils.HTTPClient
	cache  *utils.LRUCache[[]byte]
	log    *logrus.Entry
}

// NewProxyService 创建代理服务
func NewProxyService(cfg config.TMDBConfig, client *utils.HTTPClient, logger *logrus.Logger) *ProxyService {
	if client == nil {
		client = utils.NewHTTPClient(nil)
	}
	return &ProxyService{
		cfg:    cfg,
		client: client,
		cache:  utils.NewLRUCache[[]byte](proxyCacheSize, proxyCacheTTL),
		log:    logger.WithField("component", "proxy"),
	}
}

// Forward 转发 endpoint 请求。只有 endpoint 非法时返回错误，其余失败都以 mock 数据回应。
func (s *ProxyService) Forward(ctx context.Context, endpoint string, params url.Values) (ProxyResult, error) {
	endpoint = strings.Trim(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return ProxyResult{}, ErrMissingEndpoint
	}
	if strings.Contains(endpoint, "..") || strings.Contains(endpoint, "://") {
		return ProxyResult{}, ErrInvalidEndpoint
	}

	if s.cfg.ProxyAPIKey == "" {
		return s.mock(endpoint, params), nil
	}

	query := url.Values{}
	for k, vs := range params {
		if k == "endpoint" || k == "api_key" {
			continue
		}
		query[k] = append([]string(nil), vs...)
	}

	key := endpoint + "?" + query.Encode()
	if body, ok := s.cache.Get(key); ok {
		return ProxyResult{Body: body, Upstream: true}, nil
	}

	query.Set("api_key", s.cfg.ProxyAPIKey)
	target := strings.TrimRight(s.cfg.BaseURL, "/") + "/" + endpoint + "?" + query.Encode()

	timeout := s.cfg.ProxyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := s.client.GetBody(reqCtx, target)
	if err == nil && !json.Valid(body) {
		err = errNotJSON
	}
	if err != nil {
		s.log.WithField("endpoint", endpoint).Warnf("上游请求失败，返回 mock 数据: %v", err)
		return s.mock(endpoint, params), nil
	}

	s.cache.Set(key, body)
	return ProxyResult{Body: body, Upstream: true}, nil
}

// mock 按 endpoint 形态选择占位数据
func (s *ProxyService) mock(endpoint string, params url.Values) ProxyResult {
	var payload interface{}
	switch {
	case strings.Contains(endpoint, "genre"):
		payload = mockGenresResponse()
	case movieVideosPattern.MatchString(endpoint):
		id, _ := strconv.ParseInt(movieVideosPattern.FindStringSubmatch(endpoint)[1], 10, 64)
		payload = mockVideosResponse(id)
	case strings.HasPrefix(endpoint, "search/") && params.Get("query") != "":
		payload = mockSearchResponse(params.Get("query"))
	case movieDetailPattern.MatchString(endpoint) && !strings.Contains(endpoint, "/similar"):
		id, _ := strconv.ParseInt(movieDetailPattern.FindStringSubmatch(endpoint)[1], 10, 64)
		payload = mockMovieDetails(id)
	default:
		payload = mockMoviesResponse()
	}
	// 占位数据结构固定，不会编码失败
	body, _ := json.Marshal(payload)
	return ProxyResult{Body: body}
}
