// Package testutil 测试辅助：基于临时 SQLite 文件的数据库
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/NamitGandhi30/movie/internal/repository"
)

// NewDB 创建已迁移的测试数据库，测试结束时自动关闭
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// sqlite 单写者
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repository.Migrate(db))
	return db
}

// NewRepositories 创建基于测试数据库的仓库集合
func NewRepositories(t *testing.T) *repository.Repositories {
	t.Helper()
	return repository.NewRepositories(NewDB(t))
}
