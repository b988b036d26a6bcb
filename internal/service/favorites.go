package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/NamitGandhi30/movie/internal/model"
)

const favoritesMaxAttempts = 3

// AuthRequiredNotice 未登录时添加收藏的提示
func AuthRequiredNotice() model.Notice {
	return model.Notice{
		Title:       "Authentication Required",
		Description: "Please log in to add movies to your favorites",
		Variant:     "destructive",
	}
}

// Change 一次收藏修改的结果
type Change struct {
	Favorites model.MovieIDs `json:"favorites"`
	Notice    *model.Notice  `json:"notice,omitempty"`
}

// FavoritesService 收藏列表，每次修改都同步写入会话
type FavoritesService struct {
	sessions *SessionService
	log      *logrus.Entry
}

// NewFavoritesService 创建收藏服务
func NewFavoritesService(sessions *SessionService, logger *logrus.Logger) *FavoritesService {
	return &FavoritesService{
		sessions: sessions,
		log:      logger.WithField("component", "favorites"),
	}
}

// IsFavorite 判断电影是否已收藏，未登录时恒为 false
func (s *FavoritesService) IsFavorite(session *model.Session, movieID int64) bool {
	if session == nil {
		return false
	}
	return session.User.Favorites.Contains(movieID)
}

// List 当前会话的收藏列表（按加入顺序）
func (s *FavoritesService) List(ctx context.Context, sessionID string) (model.MovieIDs, error) {
	session, err := s.sessions.Authenticate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.User.Favorites, nil
}

// Add 添加收藏。已收藏时不做任何修改，Notice 为 nil。
func (s *FavoritesService) Add(ctx context.Context, sessionID string, movie model.Movie) (*Change, error) {
	session, changed, err := s.mutate(ctx, sessionID, func(ids model.MovieIDs) model.MovieIDs {
		return ids.With(movie.ID)
	})
	if err != nil {
		return nil, err
	}
	change := &Change{Favorites: session.User.Favorites}
	if changed {
		change.Notice = &model.Notice{
			Title:       "Added to Favorites",
			Description: fmt.Sprintf("%s has been added to your favorites", movie.Title),
		}
	}
	return change, nil
}

// Remove 取消收藏
func (s *FavoritesService) Remove(ctx context.Context, sessionID string, movieID int64) (*Change, error) {
	session, _, err := s.mutate(ctx, sessionID, func(ids model.MovieIDs) model.MovieIDs {
		return ids.Without(movieID)
	})
	if err != nil {
		return nil, err
	}
	return &Change{
		Favorites: session.User.Favorites,
		Notice: &model.Notice{
			Title:       "Removed from Favorites",
			Description: "Movie has been removed from your favorites",
		},
	}, nil
}

// mutate 读-改-写，版本冲突时重新读取后重试
func (s *FavoritesService) mutate(ctx context.Context, sessionID string, fn func(model.MovieIDs) model.MovieIDs) (*model.Session, bool, error) {
	for attempt := 1; ; attempt++ {
		session, err := s.sessions.Authenticate(ctx, sessionID)
		if err != nil {
			return nil, false, err
		}

		next := fn(session.User.Favorites)
		if slices.Equal(next, session.User.Favorites) {
			return session, false, nil
		}

		updated, err := s.sessions.UpdateFavorites(ctx, sessionID, session.Revision, next)
		if errors.Is(err, ErrStaleSession) && attempt < favoritesMaxAttempts {
			s.log.WithFields(logrus.Fields{
				"session_id": sessionID,
				"attempt":    attempt,
			}).Debug("收藏写入版本冲突，重试")
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return updated, true, nil
	}
}
