package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeEmail 邮箱统一小写并去除首尾空白，用于大小写不敏感的匹配
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserIDFromEmail 由邮箱确定性地派生用户 ID
func UserIDFromEmail(email string) string {
	hash := sha256.Sum256([]byte(NormalizeEmail(email)))
	return "user-" + hex.EncodeToString(hash[:8])
}
