package webapp

import (
	"bytes"
	"fmt"
	"io/fs"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleIndex(c *fiber.Ctx) error {
	raw, err := fs.ReadFile(s.ui, "index.html")
	if err != nil {
		return fmt.Errorf("read index.html: %w", err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(raw)
}

// handleReportsPage 以表格形式展示全部报告，列与 CSV 导出一致。
func (s *Server) handleReportsPage(c *fiber.Ctx) error {
	snap, err := s.reports.ExportAll(c.UserContext())
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := s.reportsTpl.Execute(&buf, snap); err != nil {
		return fmt.Errorf("render reports.html: %w", err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}
