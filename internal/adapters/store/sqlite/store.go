package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hazard-report/internal/domain/model"

	_ "modernc.org/sqlite"
)

// Open 打开 SQLite 数据库并应用迁移。
// 进程启动时调用一次；返回的 *sql.DB 由调用方负责关闭。
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// 单连接：SQLite 只有一个写者，避免 SQLITE_BUSY。
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA journal_mode = WAL`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", pragma, err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := NewMigrator(db).Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return db, nil
}

// Store 封装 reports 表的读写逻辑。
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// NewReport 是一次已通过校验的提交。
type NewReport struct {
	SubmissionID string
	Fields       model.Fields
	IncidentAt   time.Time
	Attachment   *model.StoredAttachment
}

// ClosureUpdate 是关闭报告时写入的字段。
type ClosureUpdate struct {
	Evidence model.StoredAttachment
	Comment  string
}

// Insert 写入新报告，状态固定为 Open，返回自增 id。
func (s *Store) Insert(ctx context.Context, r NewReport) (int64, error) {
	f := r.Fields
	var (
		filename, contentType, sum any
		blob                       any
	)
	if a := r.Attachment; a != nil {
		filename, contentType, sum = a.Filename, a.ContentType, a.SHA256
		blob = nonNilBytes(a.Content)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reports(
			submission_id, fullname, contact, date, time, incident_at,
			shift, department, report_type, responsible, location, sublocation, description,
			filename, file_content_type, file_sha256, file_blob,
			status, created_at
		)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'Open', ?)
	`,
		r.SubmissionID, f.FullName, f.Contact, f.Date, f.Time, r.IncidentAt.Unix(),
		f.Shift, f.Department, f.ReportType, f.Responsible, f.Location, f.SubLocation, f.Description,
		filename, contentType, sum, blob,
		s.now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// UpdateStatus 把报告置为 Closed 并写入整改证据。
// 只更新状态与 closure_* 列；重复关闭时后写覆盖前写。
func (s *Store) UpdateStatus(ctx context.Context, reportID int64, u ClosureUpdate) error {
	e := u.Evidence
	res, err := s.db.ExecContext(ctx, `
		UPDATE reports SET
			status = 'Closed',
			closure_filename = ?,
			closure_content_type = ?,
			closure_sha256 = ?,
			closure_blob = ?,
			closure_comment = ?,
			closed_at = ?
		WHERE id = ?
	`, e.Filename, e.ContentType, e.SHA256, nonNilBytes(e.Content), u.Comment, s.now().Unix(), reportID)
	if err != nil {
		return fmt.Errorf("update report %d status: %w", reportID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("report %d: %w", reportID, model.ErrNotFound)
	}
	return nil
}

const reportColumns = `
	id, submission_id, fullname, contact, date, time, incident_at,
	shift, department, report_type, responsible, location, sublocation, description,
	filename, COALESCE(file_content_type, ''), COALESCE(file_sha256, ''), COALESCE(LENGTH(file_blob), 0),
	status,
	closure_filename, COALESCE(closure_content_type, ''), COALESCE(closure_sha256, ''), COALESCE(LENGTH(closure_blob), 0),
	COALESCE(closure_comment, ''), COALESCE(closed_at, 0),
	created_at
`

// List 按 id 升序返回全部报告（不含附件内容）。
func (s *Store) List(ctx context.Context) ([]model.Report, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+reportColumns+` FROM reports ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	out := []model.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

// Get 返回单份报告，不存在时返回 model.ErrNotFound。
func (s *Store) Get(ctx context.Context, reportID int64) (*model.Report, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, reportID)
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report %d: %w", reportID, model.ErrNotFound)
		}
		return nil, err
	}
	return r, nil
}

// GetAttachment 读取指定槽位的附件内容。
// 报告不存在或槽位为空都返回 model.ErrNotFound；空文件（0 字节）是合法附件。
func (s *Store) GetAttachment(ctx context.Context, reportID int64, kind model.AttachmentKind) (*model.StoredAttachment, error) {
	var query string
	switch kind {
	case model.AttachmentOriginal:
		query = `SELECT filename, COALESCE(file_content_type, ''), COALESCE(file_sha256, ''), file_blob FROM reports WHERE id = ?`
	case model.AttachmentClosure:
		query = `SELECT closure_filename, COALESCE(closure_content_type, ''), COALESCE(closure_sha256, ''), closure_blob FROM reports WHERE id = ?`
	default:
		return nil, fmt.Errorf("unknown attachment kind %q", kind)
	}

	var (
		name    sql.NullString
		ct, sum string
		blob    []byte
	)
	if err := s.db.QueryRowContext(ctx, query, reportID).Scan(&name, &ct, &sum, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report %d: %w", reportID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("query %s attachment of report %d: %w", kind, reportID, err)
	}
	if !name.Valid {
		return nil, fmt.Errorf("%s attachment of report %d: %w", kind, reportID, model.ErrNotFound)
	}

	return &model.StoredAttachment{
		Filename:    name.String,
		ContentType: ct,
		SizeBytes:   int64(len(blob)),
		SHA256:      sum,
		Content:     nonNilBytes(blob),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(sc rowScanner) (*model.Report, error) {
	var (
		r                     model.Report
		incidentAt            int64
		status                string
		fileName, closureName sql.NullString
		fileCT, fileSum       string
		closureCT, closureSum string
		fileSize, closureSize int64
		closureComment        string
		closedAt              int64
	)
	f := &r.Fields
	if err := sc.Scan(
		&r.ID, &r.SubmissionID, &f.FullName, &f.Contact, &f.Date, &f.Time, &incidentAt,
		&f.Shift, &f.Department, &f.ReportType, &f.Responsible, &f.Location, &f.SubLocation, &f.Description,
		&fileName, &fileCT, &fileSum, &fileSize,
		&status,
		&closureName, &closureCT, &closureSum, &closureSize,
		&closureComment, &closedAt,
		&r.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}

	r.IncidentAt = time.Unix(incidentAt, 0).UTC()
	r.Status = model.Status(status)
	if fileName.Valid {
		r.Attachment = &model.AttachmentInfo{
			Filename:    fileName.String,
			ContentType: fileCT,
			SizeBytes:   fileSize,
			SHA256:      fileSum,
		}
	}
	if r.Status == model.StatusClosed && closureName.Valid {
		r.Closure = &model.Closure{
			Evidence: model.AttachmentInfo{
				Filename:    closureName.String,
				ContentType: closureCT,
				SizeBytes:   closureSize,
				SHA256:      closureSum,
			},
			Comment:  closureComment,
			ClosedAt: closedAt,
		}
	}
	return &r, nil
}

func nonNilBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
