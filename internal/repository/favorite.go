package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/NamitGandhi30/movie/internal/model"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add 添加收藏（重复添加无副作用）
func (r *FavoriteRepository) Add(userID string, movieID int64) error {
	favorite := &model.Favorite{
		UserID:    userID,
		MovieID:   movieID,
		CreatedAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(favorite).Error
}

// ListIDs 按加入顺序返回用户收藏的电影 ID
func (r *FavoriteRepository) ListIDs(userID string) (model.MovieIDs, error) {
	var ids []int64
	err := r.db.Model(&model.Favorite{}).
		Where("user_id = ?", userID).
		Order("id ASC").
		Pluck("movie_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return append(model.MovieIDs{}, ids...), nil
}

// Replace 将用户收藏整体替换为 ids（保留已有记录的顺序）
func (r *FavoriteRepository) Replace(userID string, ids model.MovieIDs) error {
	del := r.db.Where("user_id = ?", userID)
	if len(ids) > 0 {
		del = del.Where("movie_id NOT IN ?", []int64(ids))
	}
	if err := del.Delete(&model.Favorite{}).Error; err != nil {
		return err
	}
	for _, id := range ids {
		if err := r.Add(userID, id); err != nil {
			return err
		}
	}
	return nil
}
