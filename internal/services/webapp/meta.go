package webapp

import (
	"time"

	"hazard-report/internal/app"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleMeta(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"ok":   true,
		"time": time.Now().Unix(),
		"app": fiber.Map{
			"version":    app.Version,
			"commit":     app.Commit,
			"build_time": app.BuildTime,
		},
		"upload": fiber.Map{
			"allowed_extensions": s.opts.AllowedExtensions,
			"max_bytes":          s.opts.MaxUploadBytes,
			"max_size":           humanize.IBytes(uint64(s.opts.MaxUploadBytes)),
		},
		"timezone": s.opts.Location.String(),
	})
}
