package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultCleanupInterval 过期会话清理周期
const DefaultCleanupInterval = time.Hour

// CleanupService 清理服务
type CleanupService struct {
	sessions *SessionService
	interval time.Duration
	log      *logrus.Entry

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCleanupService 创建清理服务
func NewCleanupService(sessions *SessionService, interval time.Duration, logger *logrus.Logger) *CleanupService {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &CleanupService{
		sessions: sessions,
		interval: interval,
		log:      logger.WithField("component", "cleanup"),
	}
}

// Start 启动定时清理任务，ctx 取消或调用 Stop 后退出
func (s *CleanupService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	ticker := time.NewTicker(s.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		// 启动时先运行一次
		s.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// Stop 停止清理任务并等待退出
func (s *CleanupService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// RunOnce 执行一次清理
func (s *CleanupService) RunOnce(ctx context.Context) {
	affected, err := s.sessions.PurgeExpired(ctx)
	if err != nil {
		s.log.Errorf("清理过期会话失败: %v", err)
		return
	}
	if affected > 0 {
		s.log.Infof("已清理 %d 条过期会话", affected)
	}
}
