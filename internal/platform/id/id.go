package id

import "github.com/google/uuid"

// New 生成带前缀的唯一 ID：prefix + "_" + UUIDv4。
// 前缀便于在日志与台账中区分记录来源。
func New(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
