package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"hazard-report/internal/domain/model"

	playground "github.com/go-playground/validator/v10"
)

const (
	// FutureTolerance 吸收客户端与服务端之间的时钟偏差。
	FutureTolerance = time.Minute
	// MaxAge 超过该时长的事件不再受理。
	MaxAge = 7 * 24 * time.Hour
)

var temporalLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// Validator 校验提交字段与事件时间窗口。
type Validator struct {
	v   *playground.Validate
	loc *time.Location
	now func() time.Time
}

// Option 调整 Validator 行为（主要用于测试注入时钟）。
type Option func(*Validator)

// WithClock 替换当前时间来源。
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// New 创建校验器；loc 为解析日期时间使用的固定时区，nil 视为 UTC。
func New(loc *time.Location, opts ...Option) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	v := playground.New()
	_ = v.RegisterValidation("trimmed_required", func(fl playground.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	// 错误中使用表单字段名，便于前端定位。
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	out := &Validator{v: v, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(out)
	}
	return out
}

// Location 返回校验使用的时区。
func (v *Validator) Location() *time.Location { return v.loc }

// Validate 检查必填字段并解析事件时间，返回解析后的时间。
// 拒绝时返回 *model.Rejection。
func (v *Validator) Validate(f model.Fields) (time.Time, error) {
	if err := v.v.Struct(f); err != nil {
		var verrs playground.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return time.Time{}, model.Reject(model.ReasonMissingField, verrs[0].Field(), "required field is empty")
		}
		return time.Time{}, fmt.Errorf("validate fields: %w", err)
	}

	at, err := v.parse(f.Date, f.Time)
	if err != nil {
		return time.Time{}, err
	}

	now := v.now().In(v.loc)
	switch {
	case at.After(now.Add(FutureTolerance)):
		return time.Time{}, model.Reject(model.ReasonFutureSubmission, "",
			"incident time %s is ahead of server time %s", at.Format(time.RFC3339), now.Format(time.RFC3339))
	case at.Before(now.Add(-MaxAge)):
		return time.Time{}, model.Reject(model.ReasonStaleSubmission, "",
			"incident time %s is older than %s", at.Format(time.RFC3339), MaxAge)
	}
	return at, nil
}

func (v *Validator) parse(date, clock string) (time.Time, error) {
	raw := strings.TrimSpace(date) + " " + strings.TrimSpace(clock)
	for _, layout := range temporalLayouts {
		if at, err := time.ParseInLocation(layout, raw, v.loc); err == nil {
			return at, nil
		}
	}
	return time.Time{}, model.Reject(model.ReasonInvalidTemporalFormat, "", "cannot parse %q as date (YYYY-MM-DD) and time (HH:MM)", raw)
}
