package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/NamitGandhi30/movie/internal/model"
	"github.com/NamitGandhi30/movie/internal/service"
	"github.com/NamitGandhi30/movie/internal/utils"
)

const (
	// TokenCookie 保存 JWT 的 Cookie 名
	TokenCookie = "token"
	// LoginPath 未登录页面请求的跳转地址
	LoginPath = "/auth/login"

	sessionKey = "session"
)

// Claims JWT 声明，RegisteredClaims.ID 为会话 ID
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Authenticator 会话校验（滑动续期）
type Authenticator interface {
	Authenticate(ctx context.Context, sessionID string) (*model.Session, error)
}

// RequireAuth 必须登录中间件
func RequireAuth(jwtSecret string, sessions Authenticator, logger *logrus.Logger) gin.HandlerFunc {
	log := logger.WithField("component", "auth")
	return func(c *gin.Context) {
		ok, err := authenticate(c, jwtSecret, sessions, log)
		if err != nil {
			// 会话存储暂不可用，保留 Cookie
			utils.InternalServerError(c, "")
			c.Abort()
			return
		}
		if !ok {
			// 如果是页面请求，重定向到登录页
			if strings.Contains(c.GetHeader("Accept"), "text/html") {
				c.Redirect(http.StatusFound, LoginRedirect(c.Request.URL.RequestURI()))
				c.Abort()
				return
			}
			// API 请求返回 401
			utils.Unauthorized(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth 可选登录中间件（不强制要求登录）
func OptionalAuth(jwtSecret string, sessions Authenticator, logger *logrus.Logger) gin.HandlerFunc {
	log := logger.WithField("component", "auth")
	return func(c *gin.Context) {
		_, _ = authenticate(c, jwtSecret, sessions, log)
		c.Next()
	}
}

// LoginRedirect 登录页地址，登录后返回 path
func LoginRedirect(path string) string {
	return LoginPath + "?redirect=" + url.QueryEscape(path)
}

// authenticate 解析 Token 并校验会话，成功时写入上下文并续发 Token。
// 只有会话存储本身出错时才返回 error。
func authenticate(c *gin.Context, jwtSecret string, sessions Authenticator, log *logrus.Entry) (bool, error) {
	claims, err := extractClaims(c, jwtSecret)
	if err != nil {
		return false, nil
	}

	session, err := sessions.Authenticate(c.Request.Context(), claims.ID)
	switch {
	case errors.Is(err, service.ErrNotAuthenticated), errors.Is(err, service.ErrSessionExpired):
		// 会话已失效，清掉残留 Cookie
		ClearToken(c)
		return false, nil
	case err != nil:
		log.WithField("path", c.Request.URL.Path).Errorf("校验会话失败: %v", err)
		return false, err
	}

	c.Set(sessionKey, session)

	// 滑动续期：Token 过期时间跟随会话
	if token, err := GenerateToken(session, jwtSecret); err == nil {
		SetToken(c, token, session.ExpiresAt)
	}
	return true, nil
}

// extractClaims 从 Cookie 或 Header 中提取 JWT Claims
func extractClaims(c *gin.Context, jwtSecret string) (*Claims, error) {
	tokenString := TokenFromRequest(c)
	if tokenString == "" {
		return nil, jwt.ErrTokenMalformed
	}

	// 解析 Token
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// TokenFromRequest 优先从 Cookie 获取，其次 Authorization Header
func TokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// SessionIDFromToken 解析请求携带的会话 ID（不校验会话本身）
func SessionIDFromToken(c *gin.Context, jwtSecret string) (string, error) {
	claims, err := extractClaims(c, jwtSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", nil
		}
		return "", err
	}
	return claims.ID, nil
}

// GetSession 从上下文获取当前会话（未登录返回 nil）
func GetSession(c *gin.Context) *model.Session {
	if v, exists := c.Get(sessionKey); exists {
		if session, ok := v.(*model.Session); ok {
			return session
		}
	}
	return nil
}

// GenerateToken 生成 JWT Token
func GenerateToken(session *model.Session, jwtSecret string) (string, error) {
	claims := &Claims{
		UserID: session.User.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// SetToken 写入 Token Cookie
func SetToken(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookie, token, maxAge, "/", "", false, true)
}

// ClearToken 删除 Token Cookie
func ClearToken(c *gin.Context) {
	c.SetCookie(TokenCookie, "", -1, "/", "", false, true)
}
