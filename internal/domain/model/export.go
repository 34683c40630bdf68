package model

import (
	"strconv"
	"time"
)

// Snapshot 是全部报告的表格快照，供 CSV/表格导出使用。
type Snapshot struct {
	Header []string
	Rows   [][]string
}

// SnapshotHeader 是导出列序。
var SnapshotHeader = append(append([]string{"ID", "Submission ID"}, FieldColumns...),
	"Attachment Filename",
	"Attachment SHA256",
	"Status",
	"Closure Filename",
	"Closure Comment",
	"Closed At",
	"Created At",
)

// NewSnapshot 把报告列表展开为表格。时间统一输出为 UTC RFC3339。
func NewSnapshot(reports []Report) Snapshot {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		row := append([]string{strconv.FormatInt(r.ID, 10), r.SubmissionID}, r.Fields.Values()...)

		attName, attSum := "", ""
		if r.Attachment != nil {
			attName, attSum = r.Attachment.Filename, r.Attachment.SHA256
		}
		closureName, closureComment, closedAt := "", "", ""
		if r.Closure != nil {
			closureName = r.Closure.Evidence.Filename
			closureComment = r.Closure.Comment
			closedAt = formatUnix(r.Closure.ClosedAt)
		}

		row = append(row, attName, attSum, string(r.Status), closureName, closureComment, closedAt, formatUnix(r.CreatedAt))
		rows = append(rows, row)
	}
	return Snapshot{Header: append([]string(nil), SnapshotHeader...), Rows: rows}
}

func formatUnix(ts int64) string {
	if ts <= 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}
