package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// NewTTLCache 创建带过期时间的进程内缓存
func NewTTLCache(defaultTTL time.Duration) *cache.Cache {
	// 清理间隔为默认过期时间的两倍
	return cache.New(defaultTTL, 2*defaultTTL)
}

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// LRUCache 有容量上限的 LRU 缓存，条目带统一有效期
type LRUCache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
	ttl     time.Duration
	now     func() time.Time
}

// NewLRUCache 初始化，size 是最大缓存条数，ttl 是数据有效期
func NewLRUCache[T any](size int, ttl time.Duration) *LRUCache[T] {
	if size <= 0 {
		size = 1
	}
	// lru.New 是线程安全的，size > 0 时不会返回错误
	c, _ := lru.New[string, CacheItem[T]](size)
	return &LRUCache[T]{
		storage: c,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Set 写入（已存在时覆盖）
func (c *LRUCache[T]) Set(key string, value T) {
	c.storage.Add(key, CacheItem[T]{
		Value:     value,
		ExpiredAt: c.now().Add(c.ttl),
	})
}

// Get 读取，过期条目会被移除
func (c *LRUCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}
	if c.now().After(item.ExpiredAt) {
		c.storage.Remove(key)
		return zero, false
	}
	return item.Value, true
}
