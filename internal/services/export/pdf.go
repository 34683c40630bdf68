package export

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"hazard-report/internal/domain/model"
	"hazard-report/internal/services/privacy"

	"github.com/dustin/go-humanize"
	"github.com/phpdave11/gofpdf"
)

// FontEnv 指定 PDF 使用的 UTF-8 字体文件路径。
const FontEnv = "HAZARD_PDF_FONT"

// PDFOptions 定义登记册输出参数。
type PDFOptions struct {
	Title       string
	GeneratedAt time.Time
	// MaskPersonal 为 true 时姓名与联系方式按脱敏规则输出，用于对外分发。
	MaskPersonal bool
	Location     *time.Location
}

// WritePDF 生成报告登记册：先汇总，再逐份列出字段、附件与整改信息。
// 返回值 utf8OK 表示是否加载到了 UTF-8 字体。
func WritePDF(w io.Writer, reports []model.Report, opts PDFOptions) (utf8OK bool, err error) {
	if opts.Title == "" {
		opts.Title = "Hazard Report Register"
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	pdf, utf8OK := buildPDF(reports, opts)
	if err := pdf.Output(w); err != nil {
		return utf8OK, fmt.Errorf("render pdf: %w", err)
	}
	return utf8OK, nil
}

func buildPDF(reports []model.Report, opts PDFOptions) (*gofpdf.Fpdf, bool) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 14)
	pdf.SetTitle(opts.Title, false)

	font, utf8OK := initPDFUnicodeFont(pdf)
	pdf.AddPage()

	pdf.SetFont(font, "B", 16)
	pdf.CellFormat(0, 9, safeText(opts.Title, utf8OK), "", 1, "L", false, 0, "")
	pdf.SetFont(font, "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 6, "Generated at: "+opts.GeneratedAt.In(opts.Location).Format("2006-01-02 15:04:05 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	open, closed := 0, 0
	for _, r := range reports {
		if r.Status == model.StatusClosed {
			closed++
		} else {
			open++
		}
	}
	sectionTitle(pdf, font, "Summary")
	kv(pdf, font, utf8OK, "Total", fmt.Sprintf("%d", len(reports)))
	kv(pdf, font, utf8OK, "Open", fmt.Sprintf("%d", open))
	kv(pdf, font, utf8OK, "Closed", fmt.Sprintf("%d", closed))
	if !utf8OK {
		pdf.SetFont(font, "", 9)
		pdf.SetTextColor(120, 80, 0)
		pdf.MultiCell(0, 4.5, "- pdf utf8 font not available; non-ascii text replaced with '?'", "", "L", false)
	}
	pdf.Ln(2)

	sectionTitle(pdf, font, "Reports")
	if len(reports) == 0 {
		pdf.SetFont(font, "", 10)
		pdf.SetTextColor(90, 90, 90)
		pdf.MultiCell(0, 5, "(empty)", "", "L", false)
		return pdf, utf8OK
	}

	for _, r := range reports {
		f := r.Fields
		if opts.MaskPersonal {
			f = privacy.MaskFields(f)
		}

		pdf.SetFont(font, "B", 11)
		pdf.SetTextColor(20, 20, 20)
		pdf.CellFormat(0, 6, safeText(fmt.Sprintf("#%d  %s  [%s]", r.ID, f.ReportType, r.Status), utf8OK), "", 1, "L", false, 0, "")

		values := f.Values()
		for i, col := range model.FieldColumns {
			kv(pdf, font, utf8OK, col, values[i])
		}
		kv(pdf, font, utf8OK, "Incident At", r.IncidentAt.In(opts.Location).Format("2006-01-02 15:04"))
		kv(pdf, font, utf8OK, "Submitted At", fmtTime(r.CreatedAt, opts.Location))
		if a := r.Attachment; a != nil {
			kv(pdf, font, utf8OK, "Attachment", fmt.Sprintf("%s (%s)", a.Filename, humanize.IBytes(uint64(a.SizeBytes))))
			kv(pdf, font, utf8OK, "SHA-256", a.SHA256)
		}
		if c := r.Closure; c != nil {
			kv(pdf, font, utf8OK, "Closed At", fmtTime(c.ClosedAt, opts.Location))
			kv(pdf, font, utf8OK, "Evidence", fmt.Sprintf("%s (%s)", c.Evidence.Filename, humanize.IBytes(uint64(c.Evidence.SizeBytes))))
			kv(pdf, font, utf8OK, "Comment", c.Comment)
		}
		pdf.Ln(3)
	}
	return pdf, utf8OK
}

func sectionTitle(pdf *gofpdf.Fpdf, font string, title string) {
	pdf.SetFont(font, "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(pdf.GetX(), pdf.GetY(), 196, pdf.GetY())
	pdf.Ln(2)
}

func kv(pdf *gofpdf.Fpdf, font string, utf8OK bool, key string, value string) {
	if strings.TrimSpace(value) == "" {
		value = "-"
	}
	pdf.SetFont(font, "B", 10)
	pdf.SetTextColor(30, 30, 30)
	pdf.CellFormat(44, 5.2, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(font, "", 10)
	pdf.SetTextColor(20, 20, 20)
	pdf.MultiCell(0, 5.2, safeText(value, utf8OK), "", "L", false)
}

func fmtTime(ts int64, loc *time.Location) string {
	if ts <= 0 {
		return "-"
	}
	return time.Unix(ts, 0).In(loc).Format("2006-01-02 15:04:05")
}

// safeText 压平换行；没有 UTF-8 字体时把非 ASCII 字符替换为 '?'。
func safeText(s string, utf8OK bool) string {
	s = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(s)
	s = strings.TrimSpace(s)
	if utf8OK {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 32 && r <= 126 {
			b.WriteRune(r)
		} else {
			b.WriteRune('?')
		}
	}
	return b.String()
}

// initPDFUnicodeFont 依次尝试 HAZARD_PDF_FONT 与常见系统字体，
// 全部失败时回退到 Helvetica。
func initPDFUnicodeFont(pdf *gofpdf.Fpdf) (family string, utf8OK bool) {
	const familyName = "unicode"
	candidates := []string{}
	if v := strings.TrimSpace(os.Getenv(FontEnv)); v != "" {
		candidates = append(candidates, v)
	}

	switch runtime.GOOS {
	case "darwin":
		candidates = append(candidates,
			"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
			"/Library/Fonts/Arial Unicode.ttf",
		)
	case "windows":
		candidates = append(candidates,
			`C:\Windows\Fonts\arialuni.ttf`,
			`C:\Windows\Fonts\arial.ttf`,
		)
	default:
		candidates = append(candidates,
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/TTF/DejaVuSans.ttf",
		)
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		pdf.AddUTF8Font(familyName, "", p)
		if pdf.Err() {
			pdf.ClearError()
			continue
		}
		// 同一文件注册为 B 样式，SetFont(..., "B", ...) 才不会报错。
		pdf.AddUTF8Font(familyName, "B", p)
		if pdf.Err() {
			pdf.ClearError()
		}
		return familyName, true
	}
	return "Helvetica", false
}
