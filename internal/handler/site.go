package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/NamitGandhi30/movie/internal/utils"
)

// SiteConfig 前端需要的站点信息，海报地址按 image_base_url + 尺寸 + poster_path 拼接
func (h *Handler) SiteConfig(c *gin.Context) {
	cfg := h.Config
	utils.Success(c, gin.H{
		"site_name":      cfg.SiteName,
		"site_url":       cfg.SiteUrl,
		"image_base_url": strings.TrimRight(cfg.TMDB.ImageBaseURL, "/"),
	})
}
