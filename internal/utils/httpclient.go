package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const userAgent = "movie-explorer/1.0 (+https://www.themoviedb.org)"

// maxBodySize 单个响应体上限
const maxBodySize = 8 << 20

// StatusError 非 2xx 响应
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("请求失败，状态码: %d", e.Code)
}

// HTTPClient HTTP客户端
type HTTPClient struct {
	httpClient *http.Client
}

// NewHTTPClient 创建新的HTTP客户端，transport 为 nil 时使用默认传输层。
// 超时由调用方通过 context 控制。
func NewHTTPClient(transport http.RoundTripper) *HTTPClient {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &HTTPClient{
		httpClient: &http.Client{Transport: transport},
	}
}

// Response 响应体与响应头
type Response struct {
	Body   []byte
	Header http.Header
}

// GetBody 发送 GET 请求并返回响应体；非 2xx 返回 *StatusError
func (c *HTTPClient) GetBody(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Get 发送 GET 请求，同时返回响应头
func (c *HTTPClient) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return &Response{Body: body, Header: resp.Header}, nil
}
