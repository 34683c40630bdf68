package model

import (
	"strings"
	"time"
)

// Status 表示隐患报告的生命周期状态。
type Status string

const (
	// StatusOpen 报告创建后的初始状态。
	StatusOpen Status = "Open"
	// StatusClosed 提交整改证据后的终态。
	StatusClosed Status = "Closed"
)

// AttachmentKind 区分同一报告下的两个附件槽位。
type AttachmentKind string

const (
	// AttachmentOriginal 提交时上传的现场照片/文档。
	AttachmentOriginal AttachmentKind = "original"
	// AttachmentClosure 关闭时上传的整改证据。
	AttachmentClosure AttachmentKind = "closure"
)

// ParseAttachmentKind 解析 URL/CLI 中的附件槽位名称。
func ParseAttachmentKind(s string) (AttachmentKind, bool) {
	switch AttachmentKind(strings.ToLower(strings.TrimSpace(s))) {
	case AttachmentOriginal:
		return AttachmentOriginal, true
	case AttachmentClosure:
		return AttachmentClosure, true
	default:
		return "", false
	}
}

// DeliveryMode 只是下发意图（内联预览 / 下载），与存储形态无关。
type DeliveryMode string

const (
	DeliveryView     DeliveryMode = "view"
	DeliveryDownload DeliveryMode = "download"
)

// ParseDeliveryMode 解析下发模式，空值默认 view。
func ParseDeliveryMode(s string) (DeliveryMode, bool) {
	switch DeliveryMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", DeliveryView:
		return DeliveryView, true
	case DeliveryDownload:
		return DeliveryDownload, true
	default:
		return "", false
	}
}

// 表单字段名（与提交页面保持一致）。
const (
	FormFullName    = "fullname"
	FormContact     = "contact"
	FormEmail       = "email"
	FormMobile      = "mobile"
	FormDate        = "date"
	FormTime        = "time"
	FormShift       = "shift"
	FormDepartment  = "department"
	FormReportType  = "report_type"
	FormResponsible = "responsible"
	FormLocation    = "location"
	FormSubLocation = "sublocation"
	FormDescription = "description"
)

// Fields 是一次提交的全部业务字段。
// 入库与写台账时都使用去除首尾空白后的原值，保证两边一致。
type Fields struct {
	FullName    string `json:"full_name" form:"fullname" validate:"trimmed_required"`
	Contact     string `json:"contact" form:"contact" validate:"trimmed_required"`
	Date        string `json:"date" form:"date" validate:"trimmed_required"`
	Time        string `json:"time" form:"time" validate:"trimmed_required"`
	Shift       string `json:"shift" form:"shift"`
	Department  string `json:"department" form:"department"`
	ReportType  string `json:"report_type" form:"report_type" validate:"trimmed_required"`
	Responsible string `json:"responsible" form:"responsible"`
	Location    string `json:"location" form:"location" validate:"trimmed_required"`
	SubLocation string `json:"sub_location" form:"sublocation"`
	Description string `json:"description" form:"description" validate:"trimmed_required"`
}

// FieldsFromForm 把表单 map 转成 Fields。
// contact 为空时，用 email / mobile 拼出联系方式（两者均可选填其一）。
func FieldsFromForm(form map[string]string) Fields {
	get := func(k string) string { return strings.TrimSpace(form[k]) }

	contact := get(FormContact)
	if contact == "" {
		parts := make([]string, 0, 2)
		if v := get(FormEmail); v != "" {
			parts = append(parts, v)
		}
		if v := get(FormMobile); v != "" {
			parts = append(parts, v)
		}
		contact = strings.Join(parts, " / ")
	}

	return Fields{
		FullName:    get(FormFullName),
		Contact:     contact,
		Date:        get(FormDate),
		Time:        get(FormTime),
		Shift:       get(FormShift),
		Department:  get(FormDepartment),
		ReportType:  get(FormReportType),
		Responsible: get(FormResponsible),
		Location:    get(FormLocation),
		SubLocation: get(FormSubLocation),
		Description: get(FormDescription),
	}
}

// Normalize 返回去除首尾空白后的副本。
func (f Fields) Normalize() Fields {
	return Fields{
		FullName:    strings.TrimSpace(f.FullName),
		Contact:     strings.TrimSpace(f.Contact),
		Date:        strings.TrimSpace(f.Date),
		Time:        strings.TrimSpace(f.Time),
		Shift:       strings.TrimSpace(f.Shift),
		Department:  strings.TrimSpace(f.Department),
		ReportType:  strings.TrimSpace(f.ReportType),
		Responsible: strings.TrimSpace(f.Responsible),
		Location:    strings.TrimSpace(f.Location),
		SubLocation: strings.TrimSpace(f.SubLocation),
		Description: strings.TrimSpace(f.Description),
	}
}

// Values 按台账固定列序返回字段值（不含附件名与提交 ID）。
func (f Fields) Values() []string {
	return []string{
		f.FullName,
		f.Contact,
		f.Date,
		f.Time,
		f.Shift,
		f.Department,
		f.ReportType,
		f.Responsible,
		f.Location,
		f.SubLocation,
		f.Description,
	}
}

// FieldColumns 与 Values 一一对应的列名。
var FieldColumns = []string{
	"Full Name",
	"Contact",
	"Date",
	"Time",
	"Shift",
	"Department",
	"Report Type",
	"Responsible Department",
	"Location",
	"Sub-location",
	"Hazard Description",
}

// Upload 是调用方传入的原始上传内容。
type Upload struct {
	Filename    string
	Content     []byte
	ContentType string
}

// StoredAttachment 是校验、清洗文件名后的附件（可直接入库）。
type StoredAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	SHA256      string `json:"sha256"`
	Content     []byte `json:"-"`
}

// AttachmentInfo 是列表/详情接口中展示的附件元数据（不含内容）。
type AttachmentInfo struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	SHA256      string `json:"sha256"`
}

// Info 去掉内容，只保留元数据。
func (a StoredAttachment) Info() AttachmentInfo {
	return AttachmentInfo{
		Filename:    a.Filename,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		SHA256:      a.SHA256,
	}
}

// Closure 是关闭报告时写入的证据信息。
type Closure struct {
	Evidence AttachmentInfo `json:"evidence"`
	Comment  string         `json:"comment,omitempty"`
	ClosedAt int64          `json:"closed_at"`
}

// Report 对应 reports 表中的一行。
type Report struct {
	ID           int64           `json:"id"`
	SubmissionID string          `json:"submission_id"`
	Fields       Fields          `json:"fields"`
	IncidentAt   time.Time       `json:"incident_at"`
	Attachment   *AttachmentInfo `json:"attachment,omitempty"`
	Status       Status          `json:"status"`
	Closure      *Closure        `json:"closure,omitempty"`
	CreatedAt    int64           `json:"created_at"`
}

// AttachmentFilename 返回原始附件名，无附件时为空。
func (r Report) AttachmentFilename() string {
	if r.Attachment == nil {
		return ""
	}
	return r.Attachment.Filename
}
