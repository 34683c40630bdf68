package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"hazard-report/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(n int) Record {
	return Record{
		Fields: model.Fields{
			FullName:    fmt.Sprintf("Worker %d", n),
			Contact:     "worker@example.com",
			Date:        "2026-10-14",
			Time:        "09:30",
			Shift:       "A",
			Department:  "Maintenance",
			ReportType:  "Unsafe Condition",
			Responsible: "Electrical",
			Location:    "Plant 2",
			SubLocation: "Bay 4",
			Description: "exposed cable, near \"panel\"\nsecond line",
		},
		AttachmentFilename: "cable.jpg",
		SubmissionID:       fmt.Sprintf("sub_%d", n),
	}
}

func TestOpen_WritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.csv")

	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "Full Name"))

	recs, err := ReadAll(path)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestOpen_RejectsForeignHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.csv")
	require.NoError(t, os.WriteFile(path, []byte("Full Name,Email,Date\n"), 0o644))

	_, err := Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header mismatch")
}

func TestAppend_RoundTripsFieldsInColumnOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.csv")
	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	rec := sampleRecord(1)
	require.NoError(t, w.Append(context.Background(), rec))

	recs, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec, recs[0])
	assert.Equal(t, Header[len(Header)-2], "Attachment Filename")
}

func TestAppend_ConcurrentWritersDoNotInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.csv")
	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, w.Append(context.Background(), sampleRecord(i)))
		}(i)
	}
	wg.Wait()

	recs, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, recs, n)

	seen := map[string]bool{}
	for _, r := range recs {
		assert.Equal(t, sampleRecord(0).Fields.Description, r.Fields.Description)
		seen[r.SubmissionID] = true
	}
	assert.Len(t, seen, n)
}

func TestAppend_AfterClose(t *testing.T) {
	w, err := Open(filepath.Join(t.TempDir(), "reports.csv"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	err = w.Append(context.Background(), sampleRecord(1))
	assert.ErrorIs(t, err, ErrClosed)
}
