package attachment

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"hazard-report/internal/adapters/policy"
	"hazard-report/internal/domain/model"
	"hazard-report/internal/platform/hash"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memReader map[string]*model.StoredAttachment

func (m memReader) GetAttachment(_ context.Context, id int64, kind model.AttachmentKind) (*model.StoredAttachment, error) {
	a, ok := m[fmt.Sprintf("%d/%s", id, kind)]
	if !ok {
		return nil, model.ErrNotFound
	}
	return a, nil
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"photo.jpg":              "photo.jpg",
		"../../etc/passwd":       "passwd",
		`..\..\windows\evil.pdf`: "evil.pdf",
		"my photo (1).JPG":       "my_photo_1_.JPG",
		".htaccess":              "htaccess",
		"ｅｖｉｌ．ｐｄｆ":               "evil.pdf",
		"résumé.pdf":             "r_sum_.pdf",
		"..":                     "attachment",
		"":                       "attachment",
		"<script>.png":           "script_.png",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in), "input %q", in)
	}

	long := strings.Repeat("a", 300) + ".pdf"
	got := SanitizeFilename(long)
	assert.Len(t, got, maxFilenameLen)
	assert.True(t, strings.HasSuffix(got, ".pdf"))
}

func TestPrepare_AcceptsAllowedType(t *testing.T) {
	s := New(policy.Default(), memReader{})
	content := []byte{0xff, 0xd8, 0xff, 0x00, 0x01}

	a, err := s.Prepare(model.Upload{Filename: "../site photo.jpg", Content: content, ContentType: "application/x-whatever"})
	require.NoError(t, err)
	assert.Equal(t, "site_photo.jpg", a.Filename)
	assert.Equal(t, "image/jpeg", a.ContentType)
	assert.EqualValues(t, len(content), a.SizeBytes)
	assert.Equal(t, hash.Bytes(content), a.SHA256)
	assert.Equal(t, content, a.Content)
}

func TestPrepare_RejectsDisallowedType(t *testing.T) {
	s := New(policy.Default(), memReader{})
	for _, name := range []string{"setup.exe", "script.sh", "noext", "photo.jpg.exe"} {
		_, err := s.Prepare(model.Upload{Filename: name, Content: []byte("MZ")})
		r, ok := model.AsRejection(err)
		require.True(t, ok, name)
		assert.Equal(t, model.ReasonDisallowedType, r.Reason, name)
		assert.Equal(t, model.CategoryAttachment, r.Category())
	}
}

func TestPrepare_SizeLimit(t *testing.T) {
	s := New(policy.Default(), memReader{})

	atLimit := bytes.Repeat([]byte{'x'}, int(policy.DefaultMaxBytes))
	_, err := s.Prepare(model.Upload{Filename: "big.pdf", Content: atLimit})
	require.NoError(t, err)

	_, err = s.Prepare(model.Upload{Filename: "big.pdf", Content: append(atLimit, 'y')})
	r, ok := model.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, model.ReasonPayloadTooLarge, r.Reason)
	assert.Contains(t, r.Detail, "10 MiB")

	assert.NoError(t, s.CheckSize(policy.DefaultMaxBytes))
	assert.Error(t, s.CheckSize(policy.DefaultMaxBytes+1))
}

func TestPrepare_EmptyFileIsPresentNotAbsent(t *testing.T) {
	a, err := New(policy.Default(), memReader{}).Prepare(model.Upload{Filename: "empty.txt"})
	require.NoError(t, err)
	assert.NotNil(t, a.Content)
	assert.Zero(t, a.SizeBytes)
}

func TestRetrieve_ModesAndIntegrity(t *testing.T) {
	content := []byte("%PDF-1.4 closure")
	good := &model.StoredAttachment{Filename: "fix.pdf", ContentType: "application/pdf", SHA256: hash.Bytes(content), Content: content}
	bad := &model.StoredAttachment{Filename: "x.pdf", SHA256: hash.Bytes([]byte("other")), Content: content}
	s := New(policy.Default(), memReader{"1/closure": good, "2/original": bad})
	ctx := context.Background()

	d, err := s.Retrieve(ctx, 1, model.AttachmentClosure, model.DeliveryView)
	require.NoError(t, err)
	assert.Equal(t, `inline; filename=fix.pdf`, d.Disposition)
	assert.Equal(t, content, d.Content)

	d, err = s.Retrieve(ctx, 1, model.AttachmentClosure, model.DeliveryDownload)
	require.NoError(t, err)
	assert.Equal(t, `attachment; filename=fix.pdf`, d.Disposition)

	_, err = s.Retrieve(ctx, 1, model.AttachmentOriginal, model.DeliveryView)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.Retrieve(ctx, 2, model.AttachmentOriginal, model.DeliveryView)
	assert.ErrorIs(t, err, ErrIntegrity)
}
