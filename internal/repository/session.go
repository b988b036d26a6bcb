package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/NamitGandhi30/movie/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create 创建会话，ID 为随机 UUID
func (r *SessionRepository) Create(user model.SessionUser, expiresAt time.Time) (*model.Session, error) {
	if user.Favorites == nil {
		user.Favorites = model.MovieIDs{}
	}
	session := &model.Session{
		ID:        uuid.NewString(),
		User:      user,
		Revision:  1,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	if err := r.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// FindByID 查找会话，不存在时返回 nil
func (r *SessionRepository) FindByID(id string) (*model.Session, error) {
	var session model.Session
	err := r.db.Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Touch 滑动续期，不改变版本号
func (r *SessionRepository) Touch(id string, expiresAt time.Time) error {
	return r.db.Model(&model.Session{}).Where("id = ?", id).Update("expires_at", expiresAt).Error
}

// UpdateUser 在版本号匹配时写入嵌入的用户信息并递增版本号。
// 返回 false 表示版本已过期（或会话已不存在）。
func (r *SessionRepository) UpdateUser(id string, revision int64, user model.SessionUser, expiresAt time.Time) (bool, error) {
	res := r.db.Model(&model.Session{}).
		Where("id = ? AND revision = ?", id, revision).
		Updates(map[string]interface{}{
			"user_name":      user.Name,
			"user_email":     user.Email,
			"user_favorites": user.Favorites,
			"expires_at":     expiresAt,
			"revision":       gorm.Expr("revision + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SyncUser 将用户信息同步到该用户的其它会话
func (r *SessionRepository) SyncUser(exceptID string, user model.SessionUser) error {
	return r.db.Model(&model.Session{}).
		Where("user_id = ? AND id <> ?", user.ID, exceptID).
		Updates(map[string]interface{}{
			"user_name":      user.Name,
			"user_email":     user.Email,
			"user_favorites": user.Favorites,
			"revision":       gorm.Expr("revision + 1"),
		}).Error
}

// Delete 删除会话
func (r *SessionRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.Session{}).Error
}

// DeleteExpired 清理过期会话，返回删除条数
func (r *SessionRepository) DeleteExpired(now time.Time) (int64, error) {
	res := r.db.Where("expires_at <= ?", now).Delete(&model.Session{})
	return res.RowsAffected, res.Error
}
