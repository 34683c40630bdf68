package validator

import (
	"testing"
	"time"

	"hazard-report/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

func fieldsAt(at time.Time) model.Fields {
	return model.Fields{
		FullName:    "Ana Field",
		Contact:     "ana@example.com",
		Date:        at.Format("2006-01-02"),
		Time:        at.Format("15:04:05"),
		ReportType:  "Near Miss",
		Location:    "Warehouse",
		Description: "forklift reversing without spotter",
	}
}

func newTestValidator() *Validator {
	return New(time.UTC, WithClock(func() time.Time { return fixedNow }))
}

func reasonOf(t *testing.T, err error) model.Reason {
	t.Helper()
	r, ok := model.AsRejection(err)
	require.True(t, ok, "expected rejection, got %v", err)
	return r.Reason
}

func TestValidate_TimeWindow(t *testing.T) {
	v := newTestValidator()

	cases := []struct {
		name   string
		at     time.Time
		reason model.Reason
	}{
		{"eight days ago", fixedNow.Add(-8 * 24 * time.Hour), model.ReasonStaleSubmission},
		{"six days 23 hours ago", fixedNow.Add(-(6*24 + 23) * time.Hour), ""},
		{"exactly seven days ago", fixedNow.Add(-MaxAge), ""},
		{"two minutes ahead", fixedNow.Add(2 * time.Minute), model.ReasonFutureSubmission},
		{"thirty seconds ahead", fixedNow.Add(30 * time.Second), ""},
		{"now", fixedNow, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			at, err := v.Validate(fieldsAt(tc.at))
			if tc.reason == "" {
				require.NoError(t, err)
				assert.True(t, at.Equal(tc.at), "parsed %s want %s", at, tc.at)
				return
			}
			assert.Equal(t, tc.reason, reasonOf(t, err))
		})
	}
}

func TestValidate_MissingFields(t *testing.T) {
	v := newTestValidator()

	cases := map[string]func(*model.Fields){
		"fullname":    func(f *model.Fields) { f.FullName = "   " },
		"contact":     func(f *model.Fields) { f.Contact = "" },
		"date":        func(f *model.Fields) { f.Date = "" },
		"time":        func(f *model.Fields) { f.Time = "\t" },
		"report_type": func(f *model.Fields) { f.ReportType = "" },
		"location":    func(f *model.Fields) { f.Location = "" },
		"description": func(f *model.Fields) { f.Description = " \n " },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			f := fieldsAt(fixedNow)
			mutate(&f)
			_, err := v.Validate(f)
			r, ok := model.AsRejection(err)
			require.True(t, ok)
			assert.Equal(t, model.ReasonMissingField, r.Reason)
			assert.Equal(t, field, r.Field)
			assert.Equal(t, model.CategoryValidation, r.Category())
		})
	}
}

func TestValidate_OptionalFieldsMayBeEmpty(t *testing.T) {
	f := fieldsAt(fixedNow)
	f.Shift, f.Department, f.Responsible, f.SubLocation = "", "", "", ""
	_, err := newTestValidator().Validate(f)
	require.NoError(t, err)
}

func TestValidate_InvalidTemporalFormat(t *testing.T) {
	v := newTestValidator()
	for _, tc := range []struct{ date, clock string }{
		{"14/10/2026", "10:00"},
		{"2026-10-14", "10am"},
		{"2026-02-30", "10:00"},
	} {
		f := fieldsAt(fixedNow)
		f.Date, f.Time = tc.date, tc.clock
		_, err := v.Validate(f)
		assert.Equal(t, model.ReasonInvalidTemporalFormat, reasonOf(t, err), "%s %s", tc.date, tc.clock)
	}
}

func TestValidate_UsesFixedTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	v := New(loc, WithClock(func() time.Time { return fixedNow }))

	// 10:00 UTC 即 15:00 UTC+5；按本地时间 15:00 提交应视为“现在”。
	f := fieldsAt(fixedNow)
	f.Time = "15:00"
	at, err := v.Validate(f)
	require.NoError(t, err)
	assert.True(t, at.Equal(fixedNow))

	// 同样的输入在 UTC 下会比当前时间晚 5 小时。
	_, err = newTestValidator().Validate(f)
	assert.Equal(t, model.ReasonFutureSubmission, reasonOf(t, err))
}
