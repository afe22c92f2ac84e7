// Package service 实现了应用的业务逻辑层。
package service

import "errors"

// 业务层的哨兵错误，供上层判别并转换为对用户的提示。
var (
	// ErrAlreadyTerminal 表示生成记录已处于终态，不能再迁移。
	ErrAlreadyTerminal = errors.New("generation already in terminal state")
	// ErrInvalidPages 表示页数不在允许的区间内。
	ErrInvalidPages = errors.New("pages out of range")
)
