package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/joho/godotenv"

	"github.com/NamitGandhi30/movie/internal/config"
	"github.com/NamitGandhi30/movie/internal/handler"
	"github.com/NamitGandhi30/movie/internal/repository"
	"github.com/NamitGandhi30/movie/internal/router"
	"github.com/NamitGandhi30/movie/internal/service"
	"github.com/NamitGandhi30/movie/internal/utils"
)

func main() {
	// 加载环境变量
	envErr := godotenv.Load()

	// 加载配置
	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogLevel)
	if envErr != nil {
		logger.Info("未找到 .env 文件，使用系统环境变量")
	}
	if cfg.TMDB.APIKey == "" {
		logger.Warn("未配置 TMDB_API_KEY，电影数据将使用 mock 数据")
	}

	// 初始化数据库
	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("数据库连接失败: %v", err)
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	if err := repository.Migrate(db); err != nil {
		logger.Fatalf("数据库迁移失败: %v", err)
	}

	// 初始化仓库
	repos := repository.NewRepositories(db)

	// 初始化 Handler
	h := handler.NewHandler(repos, cfg, logger)

	// 启动定时清理任务
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cleanupSvc := service.NewCleanupService(h.Sessions, service.DefaultCleanupInterval, logger)
	cleanupSvc.Start(ctx)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router.NewEngine(h),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		logger.Infof("服务器启动于 http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	<-ctx.Done()
	logger.Info("正在关闭服务器...")

	cleanupSvc.Stop()

	// 5 秒超时上下文用于关闭过程
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("服务器强制关闭: %v", err)
	}

	logger.Info("服务器已退出")
}
