package webapp

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"time"

	"hazard-report/internal/domain/model"
	"hazard-report/internal/services/attachment"
	"hazard-report/internal/services/export"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

//go:embed ui
var uiFS embed.FS

// Reports 是 HTTP 层使用的报告生命周期能力（lifecycle.Controller 实现）。
type Reports interface {
	Submit(ctx context.Context, fields model.Fields, upload *model.Upload) (int64, error)
	Close(ctx context.Context, reportID int64, upload *model.Upload, comment string) error
	ListReports(ctx context.Context) ([]model.Report, error)
	GetReport(ctx context.Context, reportID int64) (*model.Report, error)
	GetAttachment(ctx context.Context, reportID int64, kind model.AttachmentKind, mode model.DeliveryMode) (*attachment.Delivery, error)
	ExportAll(ctx context.Context) (model.Snapshot, error)
}

// SizeChecker 在读取上传内容之前按声明长度拒绝超限文件。
type SizeChecker interface {
	CheckSize(n int64) error
}

// Options 定义 HTTP 服务参数。
type Options struct {
	ListenAddr string
	// MaxUploadBytes 为单个附件上限；请求体上限在此基础上预留表单字段空间。
	MaxUploadBytes int64
	// AllowedExtensions 仅用于 /api/meta 与表单提示。
	AllowedExtensions []string
	// Location 用于登记册中的时间展示。
	Location *time.Location
}

const formOverhead = 2 << 20

// Server 是 Web 表单与 API 的运行时对象。
type Server struct {
	opts    Options
	reports Reports
	sizes   SizeChecker
	log     *logrus.Logger
	ui      fs.FS
	app     *fiber.App

	reportsTpl *template.Template
}

// New 创建服务并注册路由。
func New(reports Reports, sizes SizeChecker, opts Options, log *logrus.Logger) (*Server, error) {
	if opts.ListenAddr == "" {
		opts.ListenAddr = "127.0.0.1:8080"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	sub, err := fs.Sub(uiFS, "ui")
	if err != nil {
		return nil, fmt.Errorf("sub ui fs: %w", err)
	}

	tpl, err := template.ParseFS(sub, "reports.html")
	if err != nil {
		return nil, fmt.Errorf("parse reports.html: %w", err)
	}

	s := &Server{opts: opts, reports: reports, sizes: sizes, log: log, ui: sub, reportsTpl: tpl}
	s.app = fiber.New(fiber.Config{
		AppName:               "hazard-report",
		BodyLimit:             int(opts.MaxUploadBytes) + formOverhead,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)
	s.registerRoutes()
	return s, nil
}

// App 返回底层 fiber 应用（测试使用 app.Test）。
func (s *Server) App() *fiber.App { return s.app }

// Run 监听并阻塞直到 ctx 结束，随后优雅关闭。
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.opts.ListenAddr)
	}()
	s.log.WithField("addr", s.opts.ListenAddr).Info("webapp listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown webapp: %w", err)
	}
	return nil
}

func (s *Server) pdfOptions(masked bool) export.PDFOptions {
	return export.PDFOptions{MaskPersonal: masked, Location: s.opts.Location}
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		status = statusFor(err)
	}
	entry := s.log.WithFields(logrus.Fields{
		"method":     c.Method(),
		"path":       c.Path(),
		"status":     status,
		"latency_ms": time.Since(start).Milliseconds(),
		"ip":         c.IP(),
	})
	if status >= fiber.StatusInternalServerError {
		entry.Warn("request failed")
	} else {
		entry.Debug("request")
	}
	return err
}
