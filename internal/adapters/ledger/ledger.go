// Package ledger 维护提交台账：一个只追加的 CSV 文件，独立于关系库，
// 关系库写入失败时作为兜底数据来源。
package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"hazard-report/internal/domain/model"
)

// ErrClosed 表示写入器已关闭。
var ErrClosed = errors.New("ledger writer closed")

// Header 是台账固定列序，首次初始化时写入。
var Header = append(slices.Clone(model.FieldColumns), "Attachment Filename", "Submission ID")

// Record 是一条台账记录。
type Record struct {
	Fields             model.Fields
	AttachmentFilename string
	SubmissionID       string
}

// Row 按 Header 列序展开。
func (r Record) Row() []string {
	return append(r.Fields.Values(), r.AttachmentFilename, r.SubmissionID)
}

func recordFromRow(row []string) Record {
	return Record{
		Fields: model.Fields{
			FullName:    row[0],
			Contact:     row[1],
			Date:        row[2],
			Time:        row[3],
			Shift:       row[4],
			Department:  row[5],
			ReportType:  row[6],
			Responsible: row[7],
			Location:    row[8],
			SubLocation: row[9],
			Description: row[10],
		},
		AttachmentFilename: row[11],
		SubmissionID:       row[12],
	}
}

type appendReq struct {
	row    []string
	result chan error
}

// Writer 串行化所有追加：只有一个 goroutine 触碰文件，
// 并发提交不会在字节层面交错。每次追加都单独打开/关闭文件句柄。
type Writer struct {
	path string

	reqs     chan appendReq
	stop     chan struct{}
	finished chan struct{}
	once     sync.Once
}

// Open 初始化台账文件（不存在或为空时写表头）并启动写协程。
// 已存在的台账表头必须与 Header 一致，否则拒绝写入，避免列错位。
func Open(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	if err := ensureHeader(path); err != nil {
		return nil, err
	}

	w := &Writer{
		path:     path,
		reqs:     make(chan appendReq),
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Path 返回台账文件路径。
func (w *Writer) Path() string { return w.path }

// Append 追加一条记录，返回时记录已落盘（fsync）。
// 请求一旦被写协程接收就会执行完毕，ctx 只影响排队阶段。
func (w *Writer) Append(ctx context.Context, rec Record) error {
	req := appendReq{row: rec.Row(), result: make(chan error, 1)}
	select {
	case w.reqs <- req:
	case <-w.stop:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-req.result
}

// Close 停止写协程。重复调用安全。
func (w *Writer) Close() error {
	w.once.Do(func() { close(w.stop) })
	<-w.finished
	return nil
}

func (w *Writer) loop() {
	defer close(w.finished)
	for {
		select {
		case req := <-w.reqs:
			req.result <- appendRow(w.path, req.row)
		case <-w.stop:
			return
		}
	}
}

func appendRow(path string, row []string) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close ledger: %w", cerr)
		}
	}()

	cw := csv.NewWriter(f)
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("write ledger row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush ledger: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync ledger: %w", err)
	}
	return nil
}

func ensureHeader(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist) || (err == nil && info.Size() == 0):
		return appendRow(path, Header)
	case err != nil:
		return fmt.Errorf("stat ledger: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	got, err := csv.NewReader(f).Read()
	if err != nil {
		return fmt.Errorf("read ledger header: %w", err)
	}
	if !slices.Equal(got, Header) {
		return fmt.Errorf("ledger header mismatch in %s: got %d columns %q", path, len(got), got)
	}
	return nil
}

// ReadAll 读取台账全部记录（跳过表头），用于对账。
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	out := []Record{}
	first := true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ledger: %w", err)
		}
		if first {
			first = false
			continue
		}
		out = append(out, recordFromRow(row))
	}
	return out, nil
}
