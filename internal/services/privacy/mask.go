package privacy

import (
	"regexp"
	"strings"

	"hazard-report/internal/domain/model"
)

var (
	reEmail = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)
	rePhone = regexp.MustCompile(`^\+?[0-9][0-9 ()\-.]{5,}$`)
)

// MaskEmail 保留首字符与域名：alice@example.com -> a****@example.com。
func MaskEmail(s string) string {
	s = strings.TrimSpace(s)
	at := strings.LastIndex(s, "@")
	if at <= 0 {
		return "<masked>"
	}
	local := []rune(s[:at])
	return string(local[0]) + strings.Repeat("*", 4) + s[at:]
}

// MaskPhone 只保留末 3 位数字：+91 98765 43210 -> ******210。
func MaskPhone(s string) string {
	digits := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) <= 3 {
		return "<masked>"
	}
	return strings.Repeat("*", 6) + string(digits[len(digits)-3:])
}

// MaskContact 对联系方式做展示层脱敏（不修改入库原值）。
// 支持 "email / mobile"、逗号分隔等组合写法；无法识别的片段替换为 <masked>。
func MaskContact(contact string) string {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return ""
	}
	parts := strings.FieldsFunc(contact, func(r rune) bool { return r == '/' || r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
			continue
		case reEmail.MatchString(p):
			out = append(out, MaskEmail(p))
		case rePhone.MatchString(p):
			out = append(out, MaskPhone(p))
		default:
			out = append(out, "<masked>")
		}
	}
	return strings.Join(out, " / ")
}

// MaskName 只保留每个词的首字母：Ana Maria Field -> A. M. F.
func MaskName(name string) string {
	words := strings.Fields(name)
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, string([]rune(w)[0])+".")
	}
	return strings.Join(out, " ")
}

// MaskFields 返回对外分享用的字段副本：姓名与联系方式脱敏，其余保持原样。
func MaskFields(f model.Fields) model.Fields {
	f.FullName = MaskName(f.FullName)
	f.Contact = MaskContact(f.Contact)
	return f
}
