package webapp

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"hazard-report/internal/domain/model"
	"hazard-report/internal/services/attachment"

	"github.com/gofiber/fiber/v2"
)

type errorResp struct {
	OK       bool           `json:"ok"`
	Error    string         `json:"error"`
	Reason   model.Reason   `json:"reason,omitempty"`
	Field    string         `json:"field,omitempty"`
	Category model.Category `json:"category,omitempty"`
	Cause    model.Reason   `json:"cause,omitempty"`
}

// statusFor 把领域错误映射为 HTTP 状态码。
func statusFor(err error) int {
	if rej, ok := model.AsRejection(err); ok {
		if rej.Reason == model.ReasonPayloadTooLarge {
			return fiber.StatusRequestEntityTooLarge
		}
		return fiber.StatusUnprocessableEntity
	}
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, model.ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	resp := errorResp{OK: false, Error: err.Error()}

	if rej, ok := model.AsRejection(err); ok {
		resp.Reason, resp.Field, resp.Category, resp.Cause = rej.Reason, rej.Field, rej.Category(), rej.Cause
	} else if status == fiber.StatusRequestEntityTooLarge {
		// 请求体超过 BodyLimit，由 fasthttp 在进入 handler 之前拒绝。
		resp.Reason, resp.Category = model.ReasonPayloadTooLarge, model.CategoryAttachment
	}

	switch {
	case status >= fiber.StatusInternalServerError:
		s.log.WithError(err).WithField("path", c.Path()).Error("request error")
		if errors.Is(err, model.ErrPersistence) {
			resp.Error = "report could not be saved"
		}
		if errors.Is(err, attachment.ErrIntegrity) {
			resp.Error = attachment.ErrIntegrity.Error()
		}
	case status == fiber.StatusNotFound:
		resp.Error = "not found"
	}
	return c.Status(status).JSON(resp)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) handleSubmit(c *fiber.Ctx) error {
	values, files, err := readForm(c)
	if err != nil {
		return err
	}
	upload, err := s.readUpload(files, "attachment")
	if err != nil {
		return err
	}

	id, err := s.reports.Submit(c.UserContext(), model.FieldsFromForm(values), upload)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "id": id})
}

func (s *Server) handleListReports(c *fiber.Ctx) error {
	reports, err := s.reports.ListReports(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "reports": reports})
}

func (s *Server) handleGetReport(c *fiber.Ctx) error {
	id, err := reportID(c)
	if err != nil {
		return err
	}
	r, err := s.reports.GetReport(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "report": r})
}

func (s *Server) handleClose(c *fiber.Ctx) error {
	id, err := reportID(c)
	if err != nil {
		return err
	}
	values, files, err := readForm(c)
	if err != nil {
		return err
	}
	upload, err := s.readUpload(files, "closure_file")
	if err != nil {
		if rej, ok := model.AsRejection(err); ok {
			return &model.Rejection{Reason: model.ReasonInvalidAttachment, Field: "closure_file", Detail: rej.Detail, Cause: rej.Reason}
		}
		return err
	}

	if err := s.reports.Close(c.UserContext(), id, upload, values["comment"]); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "id": id, "status": model.StatusClosed})
}

func (s *Server) handleAttachment(c *fiber.Ctx) error {
	id, err := reportID(c)
	if err != nil {
		return err
	}
	kind, ok := model.ParseAttachmentKind(c.Params("kind"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "kind must be original or closure")
	}
	mode, ok := model.ParseDeliveryMode(c.Query("mode"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "mode must be view or download")
	}

	d, err := s.reports.GetAttachment(c.UserContext(), id, kind, mode)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, d.ContentType)
	c.Set(fiber.HeaderContentDisposition, d.Disposition)
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	return c.Send(d.Content)
}

func reportID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid report id")
	}
	return id, nil
}

// readForm 同时支持 multipart 与 urlencoded 表单。
func readForm(c *fiber.Ctx) (map[string]string, map[string][]*multipart.FileHeader, error) {
	values := map[string]string{}
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			values[string(k)] = string(v)
		})
		return values, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "invalid multipart form: "+err.Error())
	}
	for k, vs := range form.Value {
		if len(vs) > 0 {
			values[k] = vs[0]
		}
	}
	return values, form.File, nil
}

// readUpload 读取指定字段的文件；未上传（或文件名为空）时返回 nil。
// 声明长度先于内容读取做上限检查。
func (s *Server) readUpload(files map[string][]*multipart.FileHeader, field string) (*model.Upload, error) {
	fhs := files[field]
	if len(fhs) == 0 || strings.TrimSpace(fhs[0].Filename) == "" {
		return nil, nil
	}
	fh := fhs[0]
	if s.sizes != nil {
		if err := s.sizes.CheckSize(fh.Size); err != nil {
			return nil, err
		}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "open upload: "+err.Error())
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "read upload: "+err.Error())
	}
	return &model.Upload{
		Filename:    fh.Filename,
		Content:     content,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
	}, nil
}
