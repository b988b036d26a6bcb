package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// User 用户模型（注册表记录）
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:64"`
	Name         string    `json:"name"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionUser 会话中嵌入的用户信息（不含密码）
type SessionUser struct {
	ID        string   `json:"id" gorm:"column:user_id;index;size:64"`
	Name      string   `json:"name" gorm:"column:user_name"`
	Email     string   `json:"email" gorm:"column:user_email"`
	Favorites MovieIDs `json:"favorites" gorm:"column:user_favorites"`
}

// Session 登录会话
type Session struct {
	ID        string      `json:"-" gorm:"primaryKey;size:64"`
	User      SessionUser `json:"user" gorm:"embedded"`
	Token     string      `json:"token,omitempty" gorm:"-"`
	Revision  int64       `json:"revision"`
	ExpiresAt time.Time   `json:"expiresAt" gorm:"index"`
	CreatedAt time.Time   `json:"-"`
}

// IsExpired 判断会话是否已过期
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// UserPatch 资料修改（nil 字段保持不变）
type UserPatch struct {
	Name  *string
	Email *string
}

// Favorite 收藏（按用户存储的收藏列表）
type Favorite struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex:idx_user_movie;size:64"`
	MovieID   int64     `json:"movie_id" gorm:"uniqueIndex:idx_user_movie"`
	CreatedAt time.Time `json:"created_at"`
}

// Notice 面向用户的操作提示
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant,omitempty"`
}

// MovieIDs 电影 ID 集合，按 JSON 数组持久化
type MovieIDs []int64

// Contains 成员判断
func (ids MovieIDs) Contains(id int64) bool {
	return slices.Contains(ids, id)
}

// With 追加 ID（已存在时原样返回副本）
func (ids MovieIDs) With(id int64) MovieIDs {
	out := slices.Clone(ids)
	if out == nil {
		out = MovieIDs{}
	}
	if out.Contains(id) {
		return out
	}
	return append(out, id)
}

// Without 移除 ID
func (ids MovieIDs) Without(id int64) MovieIDs {
	out := make(MovieIDs, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Dedupe 去重并保持原顺序
func (ids MovieIDs) Dedupe() MovieIDs {
	out := make(MovieIDs, 0, len(ids))
	for _, v := range ids {
		if !out.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}

// Value 实现 driver.Valuer
func (ids MovieIDs) Value() (driver.Value, error) {
	if ids == nil {
		ids = MovieIDs{}
	}
	b, err := json.Marshal([]int64(ids))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (ids *MovieIDs) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*ids = MovieIDs{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported MovieIDs source type %T", src)
	}
	if len(data) == 0 {
		*ids = MovieIDs{}
		return nil
	}
	var out []int64
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*ids = MovieIDs(out)
	return nil
}

// GormDataType 通用列类型
func (MovieIDs) GormDataType() string {
	return "text"
}

// GormDBDataType postgres 下使用 jsonb
func (MovieIDs) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}
