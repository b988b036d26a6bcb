package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/NamitGandhi30/movie/internal/model"
	"github.com/NamitGandhi30/movie/internal/repository"
	"github.com/NamitGandhi30/movie/internal/utils"
)

const (
	// DefaultSessionTTL 会话有效期
	DefaultSessionTTL = 7 * 24 * time.Hour
	// MinPasswordLength 密码最短长度
	MinPasswordLength = 6

	profileMaxAttempts = 3
)

// SessionService 登录会话管理。会话中的用户信息与用户表、收藏表在同一事务中更新。
type SessionService struct {
	repos *repository.Repositories
	ttl   time.Duration
	now   func() time.Time
	log   *logrus.Entry
}

// NewSessionService 创建会话服务，ttl <= 0 时使用 7 天
func NewSessionService(repos *repository.Repositories, ttl time.Duration, logger *logrus.Logger) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		repos: repos,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
		log:   logger.WithField("component", "session"),
	}
}

func (s *SessionService) reposFor(ctx context.Context) *repository.Repositories {
	return s.repos.WithTx(s.repos.DB.WithContext(ctx))
}

// Register 注册并直接登录
func (s *SessionService) Register(ctx context.Context, name, email, password string) (*model.Session, error) {
	name = strings.TrimSpace(name)
	email = utils.NormalizeEmail(email)
	if name == "" || email == "" || len(password) < MinPasswordLength {
		return nil, fmt.Errorf("register: %w", ErrInvalidInput)
	}

	var session *model.Session
	err := s.reposFor(ctx).Transaction(func(tx *repository.Repositories) error {
		existing, err := tx.User.FindByEmail(email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailTaken
		}

		// 邮箱修改过的老用户可能占用了派生 ID
		id := utils.UserIDFromEmail(email)
		if taken, err := tx.User.FindByID(id); err != nil {
			return err
		} else if taken != nil {
			id = "user-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
		}

		user, err := tx.User.Create(id, name, email, password)
		if err != nil {
			return err
		}

		session, err = tx.Session.Create(model.SessionUser{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Favorites: model.MovieIDs{},
		}, s.now().Add(s.ttl))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", email, err)
	}

	s.log.WithField("user_id", session.User.ID).Info("新用户注册")
	return session, nil
}

// Login 邮箱密码登录，收藏以用户收藏表为准
func (s *SessionService) Login(ctx context.Context, email, password string) (*model.Session, error) {
	repos := s.reposFor(ctx)

	user, err := repos.User.FindByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if user == nil || !repos.User.CheckPassword(user, password) {
		return nil, ErrInvalidCredentials
	}

	favorites, err := repos.Favorite.ListIDs(user.ID)
	if err != nil {
		return nil, fmt.Errorf("login: load favorites: %w", err)
	}

	session, err := repos.Session.Create(model.SessionUser{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Favorites: favorites,
	}, s.now().Add(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return session, nil
}

// Logout 删除会话，用户与收藏保留
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.reposFor(ctx).Session.Delete(sessionID)
}

// Authenticate 校验会话并滑动续期。过期会话会被删除。
func (s *SessionService) Authenticate(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, ErrNotAuthenticated
	}
	repos := s.reposFor(ctx)

	session, err := repos.Session.FindByID(sessionID)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if session == nil {
		return nil, ErrNotAuthenticated
	}

	now := s.now()
	if session.IsExpired(now) {
		if err := repos.Session.Delete(sessionID); err != nil {
			s.log.WithField("session_id", sessionID).Warnf("删除过期会话失败: %v", err)
		}
		return nil, ErrSessionExpired
	}

	session.ExpiresAt = now.Add(s.ttl)
	if err := repos.Session.Touch(sessionID, session.ExpiresAt); err != nil {
		return nil, fmt.Errorf("authenticate: refresh: %w", err)
	}
	return session, nil
}

// UpdateUserData 修改姓名/邮箱，同时写入用户表和会话
func (s *SessionService) UpdateUserData(ctx context.Context, sessionID string, patch model.UserPatch) (*model.Session, error) {
	for attempt := 1; ; attempt++ {
		session, err := s.Authenticate(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		user := session.User
		if patch.Name != nil {
			user.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Email != nil {
			user.Email = utils.NormalizeEmail(*patch.Email)
		}
		if user.Name == "" || user.Email == "" {
			return nil, fmt.Errorf("update profile: %w", ErrInvalidInput)
		}

		updated, err := s.write(ctx, session, user, func(tx *repository.Repositories) error {
			if user.Email != session.User.Email {
				other, err := tx.User.FindByEmail(user.Email)
				if err != nil {
					return err
				}
				if other != nil && other.ID != user.ID {
					return ErrEmailTaken
				}
			}
			return tx.User.UpdateProfile(user.ID, user.Name, user.Email)
		})
		if errors.Is(err, ErrStaleSession) && attempt < profileMaxAttempts {
			continue
		}
		return updated, err
	}
}

// UpdateFavorites 以 revision 为前提整体写入收藏列表。
// revision 与当前会话不一致时返回 ErrStaleSession，调用方应重新读取后再试。
func (s *SessionService) UpdateFavorites(ctx context.Context, sessionID string, revision int64, ids model.MovieIDs) (*model.Session, error) {
	session, err := s.Authenticate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Revision != revision {
		return nil, ErrStaleSession
	}

	user := session.User
	user.Favorites = ids.Dedupe()
	return s.write(ctx, session, user, func(tx *repository.Repositories) error {
		return tx.Favorite.Replace(user.ID, user.Favorites)
	})
}

// write 在一个事务内执行 apply 并把 user 写回会话（版本号校验），随后同步同一用户的其它会话
func (s *SessionService) write(ctx context.Context, session *model.Session, user model.SessionUser, apply func(tx *repository.Repositories) error) (*model.Session, error) {
	expiresAt := s.now().Add(s.ttl)
	err := s.reposFor(ctx).Transaction(func(tx *repository.Repositories) error {
		if err := apply(tx); err != nil {
			return err
		}
		ok, err := tx.Session.UpdateUser(session.ID, session.Revision, user, expiresAt)
		if err != nil {
			return err
		}
		if !ok {
			return ErrStaleSession
		}
		return tx.Session.SyncUser(session.ID, user)
	})
	if err != nil {
		return nil, err
	}

	updated := *session
	updated.User = user
	updated.Revision = session.Revision + 1
	updated.ExpiresAt = expiresAt
	return &updated, nil
}

// PurgeExpired 删除所有已过期会话
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.reposFor(ctx).Session.DeleteExpired(s.now())
}
