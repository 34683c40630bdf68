package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"hazard-report/internal/app"
	"hazard-report/internal/domain/model"
	"hazard-report/internal/platform/hash"
)

const manifestSchemaV1 = "hazard-report.archive.v1"

// ArchiveSource 是归档所需的读能力。
type ArchiveSource interface {
	List(ctx context.Context) ([]model.Report, error)
	GetAttachment(ctx context.Context, reportID int64, kind model.AttachmentKind) (*model.StoredAttachment, error)
}

// ArchiveOptions 定义归档内容。
type ArchiveOptions struct {
	// LedgerPath 非空时把台账原文件一并打包。
	LedgerPath string
	PDF        PDFOptions
	Now        func() time.Time
}

// FileHashEntry 是归档内单个文件的摘要。
type FileHashEntry struct {
	Path      string `json:"path"`
	SHA256    string `json:"sha256"`
	SizeBytes int64  `json:"size_bytes"`
	Kind      string `json:"kind"`
}

// Manifest 是归档内 manifest.json 的内容。
type Manifest struct {
	Schema      string `json:"schema"`
	GeneratedAt int64  `json:"generated_at"`
	App         struct {
		Version   string `json:"version"`
		Commit    string `json:"commit"`
		BuildTime string `json:"build_time"`
	} `json:"app"`
	Reports  []model.Report  `json:"reports"`
	Files    []FileHashEntry `json:"files"`
	Warnings []string        `json:"warnings,omitempty"`
}

// WriteArchive 生成归档 ZIP：
// register.csv、register.pdf、ledger.csv、attachments/<id>/<kind>/<filename>，
// 最后是 manifest.json 与 sha256sum 兼容的 hashes.sha256。
func WriteArchive(ctx context.Context, w io.Writer, src ArchiveSource, opts ArchiveOptions) (*Manifest, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	generatedAt := now()

	reports, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	zw := zip.NewWriter(w)
	files := []FileHashEntry{}
	warnings := []string{}
	add := func(path, kind string, b []byte) error {
		sum, size, err := writeZipFile(zw, path, b, generatedAt)
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		files = append(files, FileHashEntry{Path: path, SHA256: sum, SizeBytes: size, Kind: kind})
		return nil
	}

	var csvBuf bytes.Buffer
	if err := WriteCSV(&csvBuf, model.NewSnapshot(reports)); err != nil {
		return nil, err
	}
	if err := add("register.csv", "register", csvBuf.Bytes()); err != nil {
		return nil, err
	}

	var pdfBuf bytes.Buffer
	pdfOpts := opts.PDF
	if pdfOpts.GeneratedAt.IsZero() {
		pdfOpts.GeneratedAt = generatedAt
	}
	utf8OK, err := WritePDF(&pdfBuf, reports, pdfOpts)
	if err != nil {
		return nil, err
	}
	if !utf8OK {
		warnings = append(warnings, "pdf utf8 font not available; non-ascii text replaced with '?'")
	}
	if err := add("register.pdf", "register", pdfBuf.Bytes()); err != nil {
		return nil, err
	}

	if opts.LedgerPath != "" {
		raw, err := os.ReadFile(opts.LedgerPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			warnings = append(warnings, "ledger file not found: "+opts.LedgerPath)
		case err != nil:
			return nil, fmt.Errorf("read ledger: %w", err)
		default:
			if err := add("ledger.csv", "ledger", raw); err != nil {
				return nil, err
			}
		}
	}

	for _, r := range reports {
		for _, kind := range []model.AttachmentKind{model.AttachmentOriginal, model.AttachmentClosure} {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			a, err := src.GetAttachment(ctx, r.ID, kind)
			if errors.Is(err, model.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("read %s attachment of report %d: %w", kind, r.ID, err)
			}
			path := fmt.Sprintf("attachments/%d/%s/%s", r.ID, kind, a.Filename)
			if err := add(path, "attachment", a.Content); err != nil {
				return nil, err
			}
			if last := files[len(files)-1]; a.SHA256 != "" && last.SHA256 != a.SHA256 {
				warnings = append(warnings, fmt.Sprintf("%s: content sha256 differs from recorded %s", path, a.SHA256))
			}
		}
	}

	manifest := &Manifest{
		Schema:      manifestSchemaV1,
		GeneratedAt: generatedAt.Unix(),
		Reports:     reports,
		Warnings:    warnings,
	}
	manifest.App.Version = app.Version
	manifest.App.Commit = app.Commit
	manifest.App.BuildTime = app.BuildTime

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	manifest.Files = files

	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := add("manifest.json", "manifest", raw); err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	lines := make([]string, 0, len(files)+4)
	lines = append(lines,
		"# hazard-report archive hash list",
		fmt.Sprintf("# generated_at=%d", generatedAt.Unix()),
		"# format: <sha256><two spaces><path>",
	)
	for _, fh := range files {
		lines = append(lines, fmt.Sprintf("%s  %s", fh.SHA256, fh.Path))
	}
	lines = append(lines, "")
	if _, _, err := writeZipFile(zw, "hashes.sha256", []byte(strings.Join(lines, "\n")), generatedAt); err != nil {
		return nil, fmt.Errorf("write hashes.sha256: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip writer: %w", err)
	}
	manifest.Files = files
	return manifest, nil
}

func writeZipFile(zw *zip.Writer, path string, b []byte, modified time.Time) (sum string, size int64, err error) {
	hdr := &zip.FileHeader{
		Name:     path,
		Method:   zip.Deflate,
		Modified: modified,
	}
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return "", 0, err
	}
	n, err := w.Write(b)
	if err != nil {
		return "", 0, err
	}
	return hash.Bytes(b), int64(n), nil
}
