package model

import "github.com/google/uuid"

// NewID 生成新的记录 ID（UUID 字符串）
func NewID() string {
	return uuid.NewString()
}
