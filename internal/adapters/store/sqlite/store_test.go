package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"hazard-report/internal/domain/model"
	"hazard-report/internal/platform/hash"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewStore(db)
	s.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return s
}

func sampleFields() model.Fields {
	return model.Fields{
		FullName:    "Ana Field",
		Contact:     "ana@example.com",
		Date:        "2026-10-10",
		Time:        "08:30",
		Shift:       "Morning",
		Department:  "Maintenance",
		ReportType:  "Unsafe condition",
		Responsible: "Facilities",
		Location:    "Warehouse B",
		SubLocation: "Dock 3",
		Description: "Oil spill near the loading ramp",
	}
}

func attachmentOf(name string, content []byte) *model.StoredAttachment {
	return &model.StoredAttachment{
		Filename:    name,
		ContentType: "image/jpeg",
		SizeBytes:   int64(len(content)),
		SHA256:      hash.Bytes(content),
		Content:     content,
	}
}

func TestInsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	at := time.Date(2026, 10, 10, 8, 30, 0, 0, time.UTC)
	id, err := s.Insert(ctx, NewReport{
		SubmissionID: "sub_1",
		Fields:       sampleFields(),
		IncidentAt:   at,
		Attachment:   attachmentOf("photo.jpg", []byte{0xff, 0xd8, 0x00, 0x01}),
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "sub_1", got.SubmissionID)
	assert.Equal(t, sampleFields(), got.Fields)
	assert.True(t, at.Equal(got.IncidentAt))
	assert.Equal(t, model.StatusOpen, got.Status)
	assert.Nil(t, got.Closure)
	require.NotNil(t, got.Attachment)
	assert.Equal(t, "photo.jpg", got.Attachment.Filename)
	assert.EqualValues(t, 4, got.Attachment.SizeBytes)
	assert.EqualValues(t, 1_700_000_000, got.CreatedAt)

	blob, err := s.GetAttachment(ctx, id, model.AttachmentOriginal)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0x00, 0x01}, blob.Content)
	assert.Equal(t, hash.Bytes(blob.Content), blob.SHA256)
}

func TestInsert_IDsIncreaseAndListAscending(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := s.Insert(ctx, NewReport{SubmissionID: "sub_" + string(rune('a'+i)), Fields: sampleFields(), IncidentAt: time.Now()})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Less(t, ids[0], ids[1])
	assert.Less(t, ids[1], ids[2])

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, r := range list {
		assert.Equal(t, ids[i], r.ID)
		assert.Nil(t, r.Attachment)
	}
}

func TestList_Empty(t *testing.T) {
	list, err := openTestStore(t).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestInsert_DuplicateSubmissionID(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Insert(ctx, NewReport{SubmissionID: "sub_dup", Fields: sampleFields(), IncidentAt: time.Now()})
	require.NoError(t, err)
	_, err = s.Insert(ctx, NewReport{SubmissionID: "sub_dup", Fields: sampleFields(), IncidentAt: time.Now()})
	assert.Error(t, err)
}

func TestEmptyAttachmentIsNotAbsent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.Insert(ctx, NewReport{
		SubmissionID: "sub_empty",
		Fields:       sampleFields(),
		IncidentAt:   time.Now(),
		Attachment:   attachmentOf("empty.txt", []byte{}),
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.Attachment)
	assert.Zero(t, got.Attachment.SizeBytes)

	blob, err := s.GetAttachment(ctx, id, model.AttachmentOriginal)
	require.NoError(t, err)
	assert.Empty(t, blob.Content)
	assert.Equal(t, "empty.txt", blob.Filename)
}

func TestGetAttachment_AbsentSlots(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.Insert(ctx, NewReport{SubmissionID: "sub_none", Fields: sampleFields(), IncidentAt: time.Now()})
	require.NoError(t, err)

	_, err = s.GetAttachment(ctx, id, model.AttachmentOriginal)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.GetAttachment(ctx, id, model.AttachmentClosure)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.GetAttachment(ctx, id+100, model.AttachmentOriginal)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.Get(ctx, id+100)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdateStatus_OnlyTouchesClosure(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.Insert(ctx, NewReport{
		SubmissionID: "sub_close",
		Fields:       sampleFields(),
		IncidentAt:   time.Now(),
		Attachment:   attachmentOf("photo.jpg", []byte("orig")),
	})
	require.NoError(t, err)
	before, err := s.Get(ctx, id)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Unix(1_700_000_600, 0) }
	evidence := attachmentOf("fix.pdf", []byte("%PDF-1.4"))
	require.NoError(t, s.UpdateStatus(ctx, id, ClosureUpdate{Evidence: *evidence, Comment: "cleaned"}))

	after, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, after.Status)
	assert.Equal(t, before.Fields, after.Fields)
	assert.Equal(t, before.Attachment, after.Attachment)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	require.NotNil(t, after.Closure)
	assert.Equal(t, "fix.pdf", after.Closure.Evidence.Filename)
	assert.Equal(t, "cleaned", after.Closure.Comment)
	assert.EqualValues(t, 1_700_000_600, after.Closure.ClosedAt)

	orig, err := s.GetAttachment(ctx, id, model.AttachmentOriginal)
	require.NoError(t, err)
	assert.Equal(t, []byte("orig"), orig.Content)
	closure, err := s.GetAttachment(ctx, id, model.AttachmentClosure)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), closure.Content)
}

func TestUpdateStatus_ReCloseLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.Insert(ctx, NewReport{SubmissionID: "sub_twice", Fields: sampleFields(), IncidentAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, s.UpdateStatus(ctx, id, ClosureUpdate{Evidence: *attachmentOf("first.pdf", []byte("1"))}))
	require.NoError(t, s.UpdateStatus(ctx, id, ClosureUpdate{Evidence: *attachmentOf("second.pdf", []byte("2")), Comment: "redo"}))

	closure, err := s.GetAttachment(ctx, id, model.AttachmentClosure)
	require.NoError(t, err)
	assert.Equal(t, "second.pdf", closure.Filename)
	assert.Equal(t, []byte("2"), closure.Content)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	s := openTestStore(t)
	err := s.UpdateStatus(context.Background(), 999, ClosureUpdate{Evidence: *attachmentOf("fix.pdf", []byte("x"))})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reports.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	id, err := NewStore(db).Insert(ctx, NewReport{SubmissionID: "sub_keep", Fields: sampleFields(), IncidentAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, NewMigrator(db).Up(ctx))
	versions, err := NewMigrator(db).Versions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_reports"}, versions)

	got, err := NewStore(db).Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "sub_keep", got.SubmissionID)
}
