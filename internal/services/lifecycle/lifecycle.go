// Package lifecycle 负责隐患报告的提交、关闭与读取编排。
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"hazard-report/internal/adapters/ledger"
	"hazard-report/internal/adapters/store/sqlite"
	"hazard-report/internal/domain/model"
	"hazard-report/internal/platform/id"
	"hazard-report/internal/services/attachment"
	"hazard-report/internal/services/notify"
	"hazard-report/internal/services/privacy"

	"github.com/sirupsen/logrus"
)

// ReportStore 是关系库能力。
type ReportStore interface {
	Insert(ctx context.Context, r sqlite.NewReport) (int64, error)
	UpdateStatus(ctx context.Context, reportID int64, u sqlite.ClosureUpdate) error
	List(ctx context.Context) ([]model.Report, error)
	Get(ctx context.Context, reportID int64) (*model.Report, error)
}

// Ledger 是提交台账能力。
type Ledger interface {
	Append(ctx context.Context, rec ledger.Record) error
}

// Dispatcher 后台发送通知，不返回错误。
type Dispatcher interface {
	Dispatch(note notify.Notification)
}

// Validator 校验提交字段并返回事件时间。
type Validator interface {
	Validate(f model.Fields) (time.Time, error)
}

// Attachments 是附件校验与读取能力。
type Attachments interface {
	Prepare(u model.Upload) (*model.StoredAttachment, error)
	Retrieve(ctx context.Context, reportID int64, kind model.AttachmentKind, mode model.DeliveryMode) (*attachment.Delivery, error)
}

// Deps 汇总 Controller 依赖。
type Deps struct {
	Validator   Validator
	Attachments Attachments
	Ledger      Ledger
	Store       ReportStore
	Notifier    Dispatcher
	Logger      *logrus.Logger
}

// Controller 编排报告生命周期：
// 提交 = 校验 -> 附件 -> 台账 -> 入库 -> 通知；关闭 = 证据附件 -> 状态更新。
type Controller struct {
	validator   Validator
	attachments Attachments
	ledger      Ledger
	store       ReportStore
	notifier    Dispatcher
	log         *logrus.Logger

	newSubmissionID func() string
}

func New(d Deps) *Controller {
	log := d.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{
		validator:       d.Validator,
		attachments:     d.Attachments,
		ledger:          d.Ledger,
		store:           d.Store,
		notifier:        d.Notifier,
		log:             log,
		newSubmissionID: func() string { return id.New("sub") },
	}
}

// Submit 受理一次提交，返回新报告 id。
// 校验或附件被拒绝时不产生任何写入；台账先于关系库写入，任一失败则整体失败。
// 通知在入库之后异步发出，其结果不影响返回值。
func (c *Controller) Submit(ctx context.Context, fields model.Fields, upload *model.Upload) (int64, error) {
	f := fields.Normalize()
	incidentAt, err := c.validator.Validate(f)
	if err != nil {
		return 0, err
	}

	var att *model.StoredAttachment
	if upload != nil {
		att, err = c.attachments.Prepare(*upload)
		if err != nil {
			return 0, err
		}
	}

	rec := ledger.Record{Fields: f, SubmissionID: c.newSubmissionID()}
	if att != nil {
		rec.AttachmentFilename = att.Filename
	}
	entry := c.log.WithFields(logrus.Fields{
		"submission_id": rec.SubmissionID,
		"contact":       privacy.MaskContact(f.Contact),
	})

	if err := c.ledger.Append(ctx, rec); err != nil {
		entry.WithError(err).Error("ledger append failed")
		return 0, model.Persistence("append ledger", err)
	}

	reportID, err := c.store.Insert(ctx, sqlite.NewReport{
		SubmissionID: rec.SubmissionID,
		Fields:       f,
		IncidentAt:   incidentAt,
		Attachment:   att,
	})
	if err != nil {
		// 台账已写入，可凭 submission_id 对账补录。
		entry.WithError(err).Error("store insert failed after ledger append")
		return 0, model.Persistence("insert report", err)
	}

	entry.WithFields(logrus.Fields{
		"report_id":      reportID,
		"report_type":    f.ReportType,
		"has_attachment": att != nil,
	}).Info("report submitted")

	if c.notifier != nil {
		c.notifier.Dispatch(notify.Notification{
			ReportID:     reportID,
			SubmissionID: rec.SubmissionID,
			Fields:       f,
			Attachment:   att,
		})
	}
	return reportID, nil
}

// Close 上传整改证据并将报告置为 Closed。
// 证据缺失或不合格返回 InvalidAttachment（Cause 为底层原因）；报告不存在返回 ErrNotFound。
// 已关闭的报告再次关闭时覆盖原有证据。
func (c *Controller) Close(ctx context.Context, reportID int64, upload *model.Upload, comment string) error {
	if upload == nil || strings.TrimSpace(upload.Filename) == "" {
		return &model.Rejection{
			Reason: model.ReasonInvalidAttachment,
			Field:  "closure_file",
			Detail: "closure evidence is required",
		}
	}
	evidence, err := c.attachments.Prepare(*upload)
	if err != nil {
		if rej, ok := model.AsRejection(err); ok {
			return &model.Rejection{
				Reason: model.ReasonInvalidAttachment,
				Field:  "closure_file",
				Detail: rej.Detail,
				Cause:  rej.Reason,
			}
		}
		return err
	}

	prev, err := c.store.Get(ctx, reportID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		return model.Persistence("load report", err)
	}
	entry := c.log.WithField("report_id", reportID)
	if prev.Status == model.StatusClosed {
		entry.Warn("report already closed, replacing closure evidence")
	}

	err = c.store.UpdateStatus(ctx, reportID, sqlite.ClosureUpdate{
		Evidence: *evidence,
		Comment:  strings.TrimSpace(comment),
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		return model.Persistence("update report status", err)
	}

	entry.WithField("evidence", evidence.Filename).Info("report closed")
	return nil
}

// ListReports 按 id 升序返回全部报告。
func (c *Controller) ListReports(ctx context.Context) ([]model.Report, error) {
	reports, err := c.store.List(ctx)
	if err != nil {
		return nil, model.Persistence("list reports", err)
	}
	return reports, nil
}

// GetReport 返回单份报告。
func (c *Controller) GetReport(ctx context.Context, reportID int64) (*model.Report, error) {
	r, err := c.store.Get(ctx, reportID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, model.Persistence("get report", err)
	}
	return r, nil
}

// GetAttachment 按槽位与下发模式读取附件。
func (c *Controller) GetAttachment(ctx context.Context, reportID int64, kind model.AttachmentKind, mode model.DeliveryMode) (*attachment.Delivery, error) {
	return c.attachments.Retrieve(ctx, reportID, kind, mode)
}

// ExportAll 返回全部报告的表格快照。
func (c *Controller) ExportAll(ctx context.Context) (model.Snapshot, error) {
	reports, err := c.ListReports(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	return model.NewSnapshot(reports), nil
}
