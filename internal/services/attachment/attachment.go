package attachment

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"hazard-report/internal/adapters/policy"
	"hazard-report/internal/domain/model"
	"hazard-report/internal/platform/hash"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/unicode/norm"
)

// ErrIntegrity 表示读取到的附件内容与入库时记录的 SHA-256 不一致。
var ErrIntegrity = errors.New("attachment integrity check failed")

const maxFilenameLen = 128

// Reader 是附件读取所需的存储能力。
type Reader interface {
	GetAttachment(ctx context.Context, reportID int64, kind model.AttachmentKind) (*model.StoredAttachment, error)
}

// Service 负责附件的校验、文件名清洗与按槽位读取。
// 附件内容随报告行一起写入（见 sqlite.Store），这里不单独落盘。
type Service struct {
	policy policy.UploadPolicy
	store  Reader
}

func New(p policy.UploadPolicy, store Reader) *Service {
	return &Service{policy: p, store: store}
}

// Policy 返回当前上传策略。
func (s *Service) Policy() policy.UploadPolicy { return s.policy }

// CheckSize 在读取内容之前按声明长度拒绝超限上传。
func (s *Service) CheckSize(n int64) error {
	if n > s.policy.MaxBytes {
		return model.Reject(model.ReasonPayloadTooLarge, "",
			"%s exceeds limit of %s", humanize.IBytes(uint64(n)), humanize.IBytes(uint64(s.policy.MaxBytes)))
	}
	return nil
}

// Prepare 校验上传内容并返回可入库的附件。
// 顺序：大小 -> 文件名清洗 -> 扩展名白名单；任何一步失败都不会产生写入。
func (s *Service) Prepare(u model.Upload) (*model.StoredAttachment, error) {
	if err := s.CheckSize(int64(len(u.Content))); err != nil {
		return nil, err
	}

	name := SanitizeFilename(u.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if !s.policy.Allows(ext) {
		if ext == "" {
			ext = "(none)"
		}
		return nil, model.Reject(model.ReasonDisallowedType, "", "extension %s is not allowed", ext)
	}

	content := u.Content
	if content == nil {
		content = []byte{}
	}
	return &model.StoredAttachment{
		Filename:    name,
		ContentType: contentType(ext, u.ContentType),
		SizeBytes:   int64(len(content)),
		SHA256:      hash.Bytes(content),
		Content:     content,
	}, nil
}

// Delivery 是按下发模式包装后的附件。
type Delivery struct {
	Filename    string
	ContentType string
	Disposition string
	Content     []byte
}

// Retrieve 读取附件并校验完整性。
// view -> inline，download -> attachment；两者读取的是同一份数据。
func (s *Service) Retrieve(ctx context.Context, reportID int64, kind model.AttachmentKind, mode model.DeliveryMode) (*Delivery, error) {
	a, err := s.store.GetAttachment(ctx, reportID, kind)
	if err != nil {
		return nil, err
	}
	if a.SHA256 != "" && hash.Bytes(a.Content) != a.SHA256 {
		return nil, fmt.Errorf("report %d %s: %w", reportID, kind, ErrIntegrity)
	}

	disposition := "inline"
	if mode == model.DeliveryDownload {
		disposition = "attachment"
	}
	return &Delivery{
		Filename:    a.Filename,
		ContentType: a.ContentType,
		Disposition: mime.FormatMediaType(disposition, map[string]string{"filename": a.Filename}),
		Content:     a.Content,
	}, nil
}

// SanitizeFilename 去掉路径成分与不安全字符。
// 结果只包含 [A-Za-z0-9._-]，不以点开头，长度受限且尽量保留扩展名。
func SanitizeFilename(name string) string {
	name = norm.NFKC.String(name)
	name = strings.ReplaceAll(name, `\`, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := false
	for _, r := range name {
		ok := r == '.' || r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			r = '_'
		}
		if r == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		b.WriteRune(r)
	}

	out := strings.TrimLeft(b.String(), "._")
	out = strings.TrimRight(out, "_")

	ext := filepath.Ext(out)
	if len(ext) > 16 {
		ext = ""
	}
	if len(out) > maxFilenameLen {
		out = strings.TrimRight(out[:maxFilenameLen-len(ext)], "._") + ext
	}
	if strings.TrimSuffix(out, ext) == "" {
		out = "attachment" + ext
	}
	return out
}

func contentType(ext, declared string) string {
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	if declared = strings.TrimSpace(declared); declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			return mt
		}
	}
	return "application/octet-stream"
}
