package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSubjectNotFound    = errors.New("subject not found")
	ErrSubjectNotEmpty    = errors.New("subject still has problems")
	ErrProblemNotFound    = errors.New("problem not found")
	ErrTokenExpired       = errors.New("token expired or already used")
)
