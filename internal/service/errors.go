package service

import "errors"

// 业务错误，使用 errors.Is 判断
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired")
	ErrStaleSession       = errors.New("session was modified concurrently")
	ErrInvalidInput       = errors.New("invalid input")
)
