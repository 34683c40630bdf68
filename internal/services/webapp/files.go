package webapp

import (
	"bytes"
	"fmt"
	"time"

	"hazard-report/internal/services/export"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleExportCSV(c *fiber.Ctx) error {
	snap, err := s.reports.ExportAll(c.UserContext())
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, snap); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, exportDisposition("csv"))
	return c.Send(buf.Bytes())
}

// handleExportPDF 输出登记册；?masked=true 时对姓名与联系方式脱敏。
func (s *Server) handleExportPDF(c *fiber.Ctx) error {
	reports, err := s.reports.ListReports(c.UserContext())
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := export.WritePDF(&buf, reports, s.pdfOptions(c.QueryBool("masked"))); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, exportDisposition("pdf"))
	return c.Send(buf.Bytes())
}

func exportDisposition(ext string) string {
	return fmt.Sprintf("attachment; filename=hazard-reports-%s.%s", time.Now().UTC().Format("20060102"), ext)
}
