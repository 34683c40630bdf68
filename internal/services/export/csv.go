// Package export 输出报告登记表：CSV 表格、PDF 登记册与归档 ZIP。
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"hazard-report/internal/domain/model"
)

// WriteCSV 把快照写成带表头的 CSV。
func WriteCSV(w io.Writer, snap model.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(snap.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(snap.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}
