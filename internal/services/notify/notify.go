package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"hazard-report/internal/adapters/mail"
	"hazard-report/internal/domain/model"
	"hazard-report/internal/services/privacy"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout 是单次通知的发送上限。
const DefaultTimeout = 10 * time.Second

// Notification 是一次已入库提交的通知内容。
type Notification struct {
	ReportID     int64
	SubmissionID string
	Fields       model.Fields
	Attachment   *model.StoredAttachment
}

// Options 定义收发件人与超时。
type Options struct {
	From      string
	Recipient string
	Timeout   time.Duration
}

// Notifier 尽力而为地通知安全员。
// 失败只记录日志，不回滚、不重试；提交在调用前已经落库。
type Notifier struct {
	sender mail.Sender
	opts   Options
	log    *logrus.Logger

	wg sync.WaitGroup
}

// New 创建通知器；sender 为 nil 或未配置收件人时通知被跳过。
func New(sender mail.Sender, opts Options, log *logrus.Logger) *Notifier {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Notifier{sender: sender, opts: opts, log: log}
}

// Enabled 表示是否会真正发送。
func (n *Notifier) Enabled() bool {
	return n.sender != nil && strings.TrimSpace(n.opts.Recipient) != ""
}

// Subject 生成邮件主题。
func Subject(note Notification) string {
	return fmt.Sprintf("Hazard report #%d: %s at %s", note.ReportID, note.Fields.ReportType, note.Fields.Location)
}

// Summary 生成纯文本摘要：全部提交字段，不含附件文件名。
func Summary(note Notification) string {
	var b strings.Builder
	b.WriteString("A new hazard report has been submitted.\n\n")
	fmt.Fprintf(&b, "Report ID: %d\n", note.ReportID)
	values := note.Fields.Values()
	for i, col := range model.FieldColumns {
		v := strings.TrimSpace(values[i])
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(&b, "%s: %s\n", col, v)
	}
	if note.Attachment != nil {
		b.WriteString("\nThe submitted evidence is attached.\n")
	}
	return b.String()
}

// Send 同步发送一次通知，受 Options.Timeout 约束。
func (n *Notifier) Send(ctx context.Context, note Notification) error {
	if !n.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, n.opts.Timeout)
	defer cancel()

	msg := mail.Message{
		From:    n.opts.From,
		To:      n.opts.Recipient,
		Subject: Subject(note),
		Body:    Summary(note),
	}
	if a := note.Attachment; a != nil {
		msg.Attachment = &mail.Attachment{Filename: a.Filename, ContentType: a.ContentType, Content: a.Content}
	}
	return n.sender.Send(ctx, msg)
}

// Dispatch 后台发送通知并立即返回。错误只写日志。
func (n *Notifier) Dispatch(note Notification) {
	entry := n.log.WithFields(logrus.Fields{
		"report_id":     note.ReportID,
		"submission_id": note.SubmissionID,
		"contact":       privacy.MaskContact(note.Fields.Contact),
	})
	if !n.Enabled() {
		entry.Debug("notification skipped: smtp not configured")
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		start := time.Now()
		err := n.Send(context.Background(), note)
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			entry.WithError(err).WithField("timeout", n.opts.Timeout.String()).Warn("notification abandoned")
		case err != nil:
			entry.WithError(err).Warn("notification failed")
		default:
			entry.WithField("elapsed_ms", time.Since(start).Milliseconds()).Info("notification sent")
		}
	}()
}

// Wait 等待所有进行中的通知结束（含超时放弃），用于优雅退出与测试。
func (n *Notifier) Wait() {
	n.wg.Wait()
}
