package export

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"strings"

	"hazard-report/internal/platform/hash"
)

// FileCheck 是归档内单个文件的复核结果。
type FileCheck struct {
	Path     string `json:"path"`
	Expected string `json:"expected"`
	Actual   string `json:"actual,omitempty"`
	// Status 取值 ok|missing|mismatch|error。
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ArchiveCheck 汇总 hashes.sha256 的复核结果。
type ArchiveCheck struct {
	Total  int         `json:"total"`
	OK     int         `json:"ok"`
	Failed int         `json:"failed"`
	Items  []FileCheck `json:"items"`
}

// VerifyArchive 按 hashes.sha256 重算归档内每个文件的摘要。
func VerifyArchive(r io.ReaderAt, size int64) (*ArchiveCheck, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	list, ok := files["hashes.sha256"]
	if !ok {
		return nil, fmt.Errorf("hashes.sha256 not found in archive")
	}
	raw, err := readZipFile(list)
	if err != nil {
		return nil, fmt.Errorf("read hashes.sha256: %w", err)
	}

	res := &ArchiveCheck{Items: []FileCheck{}}
	sc := bufio.NewScanner(strings.NewReader(string(raw)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// <sha256><two spaces><path>
		sum, path, found := strings.Cut(line, "  ")
		if !found || len(sum) != 64 || path == "" {
			continue
		}

		res.Total++
		item := FileCheck{Path: path, Expected: sum, Status: "ok"}
		f, ok := files[path]
		switch {
		case !ok:
			item.Status = "missing"
		default:
			b, err := readZipFile(f)
			if err != nil {
				item.Status, item.Error = "error", err.Error()
				break
			}
			item.Actual = hash.Bytes(b)
			if item.Actual != sum {
				item.Status = "mismatch"
			}
		}

		if item.Status == "ok" {
			res.OK++
		} else {
			res.Failed++
		}
		res.Items = append(res.Items, item)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan hashes.sha256: %w", err)
	}
	return res, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
