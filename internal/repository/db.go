package repository

import (
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/NamitGandhi30/movie/internal/model"
)

// InitDB 初始化数据库连接（gorm 复用 lib/pq 注册的 postgres 驱动）
func InitDB(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        databaseURL,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取连接池失败: %w", err)
	}

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate 建表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.User{}, &model.Session{}, &model.Favorite{})
}

// Repositories 仓库集合
type Repositories struct {
	DB       *gorm.DB
	User     *UserRepository
	Session  *SessionRepository
	Favorite *FavoriteRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:       db,
		User:     NewUserRepository(db),
		Session:  NewSessionRepository(db),
		Favorite: NewFavoriteRepository(db),
	}
}

// WithTx 返回绑定到事务 tx 的仓库集合
func (r *Repositories) WithTx(tx *gorm.DB) *Repositories {
	return NewRepositories(tx)
}

// Transaction 在单个事务中执行 fn
func (r *Repositories) Transaction(fn func(tx *Repositories) error) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
