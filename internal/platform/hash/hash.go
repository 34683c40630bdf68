package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Text 将多个字段按换行拼接后计算 SHA-256。
// 用于台账与数据库记录的字段指纹比对。
func Text(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = h.Write([]byte("\n"))
		}
		_, _ = h.Write([]byte(strings.TrimSpace(p)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Bytes 计算附件内容的 SHA-256。
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
