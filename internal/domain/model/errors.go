package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 报告或附件槽位不存在。
	ErrNotFound = errors.New("not found")
	// ErrPersistence 台账或数据库写入失败，整个操作视为失败。
	ErrPersistence = errors.New("persistence failure")
)

// Reason 是可恢复拒绝的原因码，直接返回给提交方。
type Reason string

const (
	ReasonMissingField          Reason = "MissingField"
	ReasonInvalidTemporalFormat Reason = "InvalidTemporalFormat"
	ReasonFutureSubmission      Reason = "FutureSubmission"
	ReasonStaleSubmission       Reason = "StaleSubmission"
	ReasonDisallowedType        Reason = "DisallowedType"
	ReasonPayloadTooLarge       Reason = "PayloadTooLarge"
	ReasonInvalidAttachment     Reason = "InvalidAttachment"
)

// Category 区分拒绝属于字段校验还是附件校验。
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryAttachment Category = "attachment"
)

// Rejection 表示在任何写入之前就被拒绝的请求。
type Rejection struct {
	Reason Reason `json:"reason"`
	Field  string `json:"field,omitempty"`
	Detail string `json:"detail,omitempty"`
	// Cause 仅在 InvalidAttachment 时使用，记录底层的附件拒绝原因。
	Cause Reason `json:"cause,omitempty"`
}

func (r *Rejection) Error() string {
	msg := string(r.Reason)
	if r.Field != "" {
		msg += " (" + r.Field + ")"
	}
	if r.Detail != "" {
		msg += ": " + r.Detail
	}
	return msg
}

// Category 返回拒绝类别。
func (r *Rejection) Category() Category {
	switch r.Reason {
	case ReasonDisallowedType, ReasonPayloadTooLarge, ReasonInvalidAttachment:
		return CategoryAttachment
	default:
		return CategoryValidation
	}
}

// Reject 构造一个拒绝。
func Reject(reason Reason, field string, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Field: field, Detail: fmt.Sprintf(format, args...)}
}

// AsRejection 从错误链中取出 Rejection。
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// Persistence 把底层存储错误标记为 ErrPersistence，保留原始错误链。
func Persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
