package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/NamitGandhi30/movie/internal/middleware"
	"github.com/NamitGandhi30/movie/internal/model"
	"github.com/NamitGandhi30/movie/internal/service"
	"github.com/NamitGandhi30/movie/internal/utils"
)

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
	Redirect string `json:"redirect" form:"redirect"`
}

type registerRequest struct {
	Name     string `json:"name" form:"name" binding:"required,max=100"`
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required,min=6"`
	Redirect string `json:"redirect" form:"redirect"`
}

type profileRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=100"`
	Email *string `json:"email" binding:"omitempty,email"`
}

// LoginPage 登录入口：已登录时直接跳转
func (h *Handler) LoginPage(c *gin.Context) {
	redirect := safeRedirect(c.Query("redirect"))
	if middleware.GetSession(c) != nil {
		c.Redirect(http.StatusFound, redirect)
		return
	}
	utils.Success(c, gin.H{"redirect": redirect})
}

// Login 登录处理
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.ValidationFailed(c, err)
		return
	}

	session, err := h.Sessions.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}
	if err != nil {
		h.Log.WithField("component", "auth").Errorf("登录失败: %v", err)
		utils.InternalServerError(c, "login failed, please try again")
		return
	}

	h.startSession(c, session, req.Redirect)
}

// Register 注册处理
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.ValidationFailed(c, err)
		return
	}

	session, err := h.Sessions.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		utils.ErrorWithData(c, http.StatusConflict, "User with this email already exists",
			map[string]string{"email": "already registered"})
		return
	case errors.Is(err, service.ErrInvalidInput):
		utils.BadRequest(c, "invalid registration data")
		return
	case err != nil:
		h.Log.WithField("component", "auth").Errorf("注册失败: %v", err)
		utils.InternalServerError(c, "registration failed, please try again")
		return
	}

	h.startSession(c, session, req.Redirect)
}

// Logout 登出
func (h *Handler) Logout(c *gin.Context) {
	if sessionID, err := middleware.SessionIDFromToken(c, h.Config.AppSecret); err == nil && sessionID != "" {
		if err := h.Sessions.Logout(c.Request.Context(), sessionID); err != nil {
			h.Log.WithField("component", "auth").Warnf("删除会话失败: %v", err)
		}
	}
	middleware.ClearToken(c)

	// 清理 Session
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()

	utils.SuccessWithMessage(c, "logged out", nil)
}

// Me 当前会话
func (h *Handler) Me(c *gin.Context) {
	utils.Success(c, middleware.GetSession(c))
}

// UpdateProfile 修改姓名/邮箱
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationFailed(c, err)
		return
	}

	current := middleware.GetSession(c)
	updated, err := h.Sessions.UpdateUserData(c.Request.Context(), current.ID, model.UserPatch{
		Name:  req.Name,
		Email: req.Email,
	})
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		utils.ErrorWithData(c, http.StatusConflict, "User with this email already exists",
			map[string]string{"email": "already registered"})
		return
	case errors.Is(err, service.ErrInvalidInput):
		utils.BadRequest(c, "name and email must not be empty")
		return
	case errors.Is(err, service.ErrNotAuthenticated), errors.Is(err, service.ErrSessionExpired):
		middleware.ClearToken(c)
		utils.Unauthorized(c, "")
		return
	case errors.Is(err, service.ErrStaleSession):
		utils.Error(c, http.StatusConflict, "session was modified, please retry")
		return
	case err != nil:
		h.Log.WithField("component", "auth").Errorf("修改资料失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}

	utils.Success(c, updated)
}

// startSession 下发 Token 并返回会话
func (h *Handler) startSession(c *gin.Context, session *model.Session, redirect string) {
	token, err := middleware.GenerateToken(session, h.Config.AppSecret)
	if err != nil {
		h.Log.WithField("component", "auth").Errorf("生成 Token 失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}
	middleware.SetToken(c, token, session.ExpiresAt)
	session.Token = token

	utils.Success(c, gin.H{
		"session":  session,
		"redirect": safeRedirect(redirect),
	})
}
