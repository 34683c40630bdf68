package policy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultMaxBytes 是附件大小上限：10 MiB。
const DefaultMaxBytes int64 = 10 << 20

// DefaultExtensions 是默认允许的附件扩展名（图片、PDF、办公文档）。
var DefaultExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic",
	".pdf",
	".doc", ".docx", ".xls", ".xlsx", ".odt", ".txt",
}

// UploadPolicy 约束可接受的附件。
type UploadPolicy struct {
	AllowedExtensions []string `yaml:"allowed_extensions"`
	MaxBytes          int64    `yaml:"max_bytes"`
}

// Default 返回内置默认策略。
func Default() UploadPolicy {
	return UploadPolicy{
		AllowedExtensions: slices.Clone(DefaultExtensions),
		MaxBytes:          DefaultMaxBytes,
	}
}

// Allows 判断扩展名（含点，大小写不敏感）是否在白名单中。
func (p UploadPolicy) Allows(ext string) bool {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return false
	}
	return slices.Contains(p.AllowedExtensions, ext)
}

// Load 从 YAML 文件读取上传策略；path 为空时返回默认策略。
// 文件中缺省的字段沿用默认值。
func Load(ctx context.Context, path string) (UploadPolicy, error) {
	p := Default()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	if err := ctx.Err(); err != nil {
		return p, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read upload policy: %w", err)
	}

	var doc UploadPolicy
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return p, fmt.Errorf("parse upload policy: %w", err)
	}
	if len(doc.AllowedExtensions) > 0 {
		p.AllowedExtensions = normalizeExtensions(doc.AllowedExtensions)
	}
	if doc.MaxBytes != 0 {
		p.MaxBytes = doc.MaxBytes
	}
	if err := validate(p); err != nil {
		return p, err
	}
	return p, nil
}

func normalizeExtensions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if !slices.Contains(out, e) {
			out = append(out, e)
		}
	}
	return out
}

func validate(p UploadPolicy) error {
	if p.MaxBytes <= 0 {
		return errors.New("upload policy: max_bytes must be positive")
	}
	if len(p.AllowedExtensions) == 0 {
		return errors.New("upload policy: allowed_extensions is empty")
	}
	for _, e := range p.AllowedExtensions {
		if strings.ContainsAny(e, `/\ `) {
			return fmt.Errorf("upload policy: invalid extension %q", e)
		}
	}
	return nil
}
