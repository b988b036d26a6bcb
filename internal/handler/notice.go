package handler

import (
	"encoding/gob"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/NamitGandhi30/movie/internal/model"
	"github.com/NamitGandhi30/movie/internal/utils"
)

const noticeFlashKey = "notices"

func init() {
	// Cookie Session 以 gob 编码 flash
	gob.Register(model.Notice{})
}

// pushNotice 写入一条提示，由 /api/notices 取走
func (h *Handler) pushNotice(c *gin.Context, notice model.Notice) {
	session := sessions.Default(c)
	session.AddFlash(notice, noticeFlashKey)
	if err := session.Save(); err != nil {
		h.Log.WithField("component", "notice").Warnf("保存提示失败: %v", err)
	}
}

// Notices 取出并清空待显示的提示
func (h *Handler) Notices(c *gin.Context) {
	session := sessions.Default(c)
	flashes := session.Flashes(noticeFlashKey)

	notices := make([]model.Notice, 0, len(flashes))
	for _, f := range flashes {
		if n, ok := f.(model.Notice); ok {
			notices = append(notices, n)
		}
	}
	if len(flashes) > 0 {
		if err := session.Save(); err != nil {
			h.Log.WithField("component", "notice").Warnf("保存 Session 失败: %v", err)
		}
	}

	utils.Success(c, notices)
}
