package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldsFromForm_ContactFallback(t *testing.T) {
	f := FieldsFromForm(map[string]string{
		FormFullName: "  Ana ",
		FormEmail:    "ana@example.com",
		FormMobile:   " +1 555 0100 ",
	})
	assert.Equal(t, "Ana", f.FullName)
	assert.Equal(t, "ana@example.com / +1 555 0100", f.Contact)

	f = FieldsFromForm(map[string]string{FormContact: "desk 4", FormEmail: "ignored@example.com"})
	assert.Equal(t, "desk 4", f.Contact)
}

func TestFields_ValuesMatchColumns(t *testing.T) {
	assert.Len(t, Fields{}.Values(), len(FieldColumns))
}

func TestParseKindAndMode(t *testing.T) {
	k, ok := ParseAttachmentKind("Closure")
	assert.True(t, ok)
	assert.Equal(t, AttachmentClosure, k)
	_, ok = ParseAttachmentKind("other")
	assert.False(t, ok)

	m, ok := ParseDeliveryMode("")
	assert.True(t, ok)
	assert.Equal(t, DeliveryView, m)
	m, ok = ParseDeliveryMode("download")
	assert.True(t, ok)
	assert.Equal(t, DeliveryDownload, m)
	_, ok = ParseDeliveryMode("stream")
	assert.False(t, ok)
}

func TestRejection(t *testing.T) {
	r := Reject(ReasonMissingField, "location", "required field is empty")
	assert.Equal(t, "MissingField (location): required field is empty", r.Error())
	assert.Equal(t, CategoryValidation, r.Category())

	got, ok := AsRejection(Persistence("wrap", r))
	assert.True(t, ok)
	assert.Same(t, r, got)
}

func TestNewSnapshot(t *testing.T) {
	s := NewSnapshot([]Report{
		{ID: 1, SubmissionID: "sub_1", Status: StatusOpen, CreatedAt: 1},
		{ID: 2, SubmissionID: "sub_2", Status: StatusClosed, Attachment: &AttachmentInfo{Filename: "a.jpg", SHA256: "abc"},
			Closure: &Closure{Evidence: AttachmentInfo{Filename: "fix.pdf"}, Comment: "done", ClosedAt: 60}},
	})
	assert.Len(t, s.Rows, 2)
	for _, row := range s.Rows {
		assert.Len(t, row, len(s.Header))
	}
	assert.Equal(t, []string{"a.jpg", "abc", "Closed", "fix.pdf", "done", "1970-01-01T00:01:00Z", ""}, s.Rows[1][len(s.Header)-7:])
}
