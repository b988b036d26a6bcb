package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NamitGandhi30/movie/internal/service"
)

// TMDBProxy 同源代理端点，endpoint 参数缺失时返回 400，其余情况均为 200
func (h *Handler) TMDBProxy(c *gin.Context) {
	res, err := h.Proxy.Forward(c.Request.Context(), c.Query("endpoint"), c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if res.Upstream {
		c.Header("Cache-Control", service.ProxyCacheControl)
	} else {
		c.Header(service.MockDataHeader, "1")
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", res.Body)
}
